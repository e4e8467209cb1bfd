package recognition

import (
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/nutri-track/internal/apperror"
)

// DataURL encodes raw image bytes as a base64 data URL. The MIME type is
// sniffed from the bytes. declared is trusted only for binary data the
// sniffer cannot classify (HEIC, for example); text never passes as an image.
func DataURL(data []byte, declared string) (string, error) {
	if len(data) == 0 {
		return "", apperror.ValidationFailed("image", "image is empty")
	}

	mime := http.DetectContentType(data)
	if mime == "application/octet-stream" {
		mime = strings.ToLower(strings.TrimSpace(strings.Split(declared, ";")[0]))
	}
	if !strings.HasPrefix(mime, "image/") {
		return "", apperror.ValidationFailed("image", "payload is not an image")
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ValidateImageRef accepts an image data URL or an absolute http(s) URL.
func ValidateImageRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return apperror.ValidationFailed("image", "image is required")
	}

	if strings.HasPrefix(ref, "data:") {
		header, payload, found := strings.Cut(ref, ",")
		if !found || payload == "" {
			return apperror.ValidationFailed("image", "data URL has no payload")
		}
		if !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
			return apperror.ValidationFailed("image", "data URL must be a base64 image")
		}
		return nil
	}

	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.ValidationFailed("image", "image must be a data URL or an http(s) URL")
	}
	return nil
}
