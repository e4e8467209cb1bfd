// Package recognition turns a food photo into a structured nutrition estimate
// by asking an external multimodal model.
//
// The package owns the contract (Recognizer, Estimate), the parsing of the
// model's free-form answer and the typed upstream failures. The HTTP client
// lives in the gateway subpackage.
//
// A Recognizer never retries, caches or imposes its own timeout. Each call is
// one outbound request bounded only by the caller's context.
package recognition

import (
	"context"
	"fmt"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/model"
)

// Request carries the image to analyse, either as a data URL
// ("data:image/jpeg;base64,...") or as an http(s) URL the upstream can fetch.
type Request struct {
	Image string `json:"image"`
}

// Estimate is the parsed answer. The nutrient values describe the portion the
// model saw; ServingSize is the model's own guess of how many standard
// servings that is.
type Estimate struct {
	Name        string           `json:"name"`
	Calories    float64          `json:"calories"`
	Protein     float64          `json:"protein"`
	Carbs       float64          `json:"carbs"`
	Fat         float64          `json:"fat"`
	Fiber       float64          `json:"fiber"`
	ServingSize float64          `json:"serving_size"`
	ServingUnit string           `json:"serving_unit"`
	Confidence  model.Confidence `json:"confidence"`
}

// Nutrients returns the estimate's nutrient vector.
func (e Estimate) Nutrients() model.Nutrients {
	return model.Nutrients{
		Calories: e.Calories,
		Protein:  e.Protein,
		Carbs:    e.Carbs,
		Fat:      e.Fat,
		Fiber:    e.Fiber,
	}
}

// ServingDescription renders the estimated portion, e.g. "1.5 plates".
func (e Estimate) ServingDescription() string {
	if e.ServingUnit == "" {
		return fmt.Sprintf("%g servings", e.ServingSize)
	}
	return fmt.Sprintf("%g %s", e.ServingSize, e.ServingUnit)
}

// Recognizer analyses a single food image.
//
// Failures are typed: apperror.ErrRateLimited, apperror.ErrQuotaExceeded,
// apperror.ErrMalformedResponse, or a *StatusError (which matches
// apperror.ErrUpstream) for any other non-success status. Implementations
// expect an Image that already passed ValidateImageRef.
type Recognizer interface {
	Analyze(ctx context.Context, req Request) (*Estimate, error)
}

// maxErrorBody caps how much of an upstream error body is kept.
const maxErrorBody = 4 << 10

// StatusError is a non-success upstream status other than rate limiting and
// quota exhaustion. Body holds at most 4 KiB of the upstream response.
type StatusError struct {
	Status int
	Body   string
}

// NewStatusError truncates body to the diagnostic limit.
func NewStatusError(status int, body []byte) *StatusError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &StatusError{Status: status, Body: string(body)}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("recognition upstream returned status %d: %s", e.Status, e.Body)
}

func (e *StatusError) Unwrap() error {
	return apperror.ErrUpstream
}
