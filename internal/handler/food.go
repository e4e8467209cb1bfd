package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/model"
	"github.com/sakif/nutri-track/internal/recognition"
	"github.com/sakif/nutri-track/internal/service"
)

// maxImageBytes caps an uploaded photo. A base64 data URL of the same photo
// is a third larger, hence maxImageJSONBody.
const (
	maxImageBytes    = 10 << 20
	maxImageJSONBody = maxImageBytes*4/3 + 1<<10
)

// FoodHandler serves photo analysis and the serving-size adjuster.
type FoodHandler struct {
	food    *service.FoodService
	timeout time.Duration
	logger  *slog.Logger
}

// NewFoodHandler bounds every analysis by timeout; the recognizer itself
// has none.
func NewFoodHandler(food *service.FoodService, timeout time.Duration, logger *slog.Logger) *FoodHandler {
	return &FoodHandler{food: food, timeout: timeout, logger: logger}
}

// HandleAnalyze recognises the food in a photo.
//
// HTTP: POST /api/analyze
//
// Three body forms are accepted:
//   - application/json      {"image": "data:image/jpeg;base64,..."} or an http(s) URL
//   - multipart/form-data   a file in the "image" field
//   - image/*               the raw image bytes
//
// The response carries the estimate, the base vector at factor 1.0 and the
// initial serving; see service.Analysis.
func (h *FoodHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if !h.food.Enabled() {
		writeError(w, apperror.Unavailable("food recognition is not configured on this server"))
		return
	}

	req, err := h.readImage(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	analysis, err := h.food.Analyze(ctx, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *FoodHandler) readImage(w http.ResponseWriter, r *http.Request) (recognition.Request, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return recognition.Request{}, apperror.ValidationFailed("Content-Type", "Content-Type header is missing or invalid")
	}

	switch {
	case mediaType == "application/json":
		var req recognition.Request
		if err := decodeJSONLimit(w, r, &req, maxImageJSONBody); err != nil {
			return recognition.Request{}, err
		}
		return req, nil

	case mediaType == "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
		file, header, err := r.FormFile("image")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return recognition.Request{}, errImageTooLarge
			}
			return recognition.Request{}, apperror.ValidationFailed("image", "multipart body must contain an image file field")
		}
		defer file.Close()
		data, err := readLimited(file)
		if err != nil {
			return recognition.Request{}, err
		}
		url, err := recognition.DataURL(data, header.Header.Get("Content-Type"))
		return recognition.Request{Image: url}, err

	case strings.HasPrefix(mediaType, "image/"):
		data, err := readLimited(http.MaxBytesReader(w, r.Body, maxImageBytes+1))
		if err != nil {
			return recognition.Request{}, err
		}
		url, err := recognition.DataURL(data, mediaType)
		return recognition.Request{Image: url}, err

	default:
		return recognition.Request{}, apperror.ValidationFailed("Content-Type",
			fmt.Sprintf("unsupported Content-Type %q", mediaType))
	}
}

var errImageTooLarge = apperror.ValidationFailed("image", fmt.Sprintf("image must be %d MiB or smaller", maxImageBytes>>20))

func readLimited(src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, maxImageBytes+1))
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr), err == nil && len(data) > maxImageBytes:
		return nil, errImageTooLarge
	case err != nil:
		return nil, apperror.ValidationFailed("image", "reading image: "+err.Error())
	}
	return data, nil
}

type scaleRequest struct {
	Base   model.Nutrients `json:"base"`
	Factor float64         `json:"factor"`
}

// HandleScale applies a serving factor to a base vector.
//
// HTTP: POST /api/servings/scale {"base": {...}, "factor": 1.5}
func (h *FoodHandler) HandleScale(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req scaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	scaled, err := h.food.ScaleServing(req.Base, req.Factor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scaled)
}
