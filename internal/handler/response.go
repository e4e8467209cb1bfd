// Package handler translates HTTP requests into service calls and service
// results back into JSON.
//
// Every response body is JSON. Errors always have the same shape:
//
//	{"error": "validation_error", "message": "meal name is required", "field": "name"}
//
// so the frontend can branch on "error" without looking at the status code.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/recognition"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input field, for validation errors
}

// writeJSON sets the headers and status before the body; headers changed
// after the first Write are ignored.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorKind is one row of the error table: the apperror sentinel, the status
// it maps to and the "error" string clients see.
type errorKind struct {
	target error
	status int
	kind   string
}

// Order matters: the first sentinel in the chain that matches wins.
var errorKinds = []errorKind{
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperror.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperror.ErrQuotaExceeded, http.StatusPaymentRequired, "quota_exceeded"},
	{apperror.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperror.ErrConflict, http.StatusConflict, "conflict"},
	{apperror.ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{apperror.ErrMalformedResponse, http.StatusBadGateway, "malformed_upstream_response"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	{apperror.ErrUpstream, http.StatusBadGateway, "upstream_error"},
	{apperror.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
}

// writeError maps a service error to a status code and the standard body.
// Messages of unknown errors are never sent to the client; they may contain
// SQL or file paths.
func writeError(w http.ResponseWriter, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			writeJSON(w, k.status, ErrorResponse{
				Error:   k.kind,
				Message: clientMessage(err, k.target),
				Field:   errorField(err),
			})
			return
		}
	}

	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

func clientMessage(err, target error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	var statusErr *recognition.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("food recognition service returned status %d", statusErr.Status)
	}
	switch target {
	case context.DeadlineExceeded:
		return "the request took too long to complete"
	case apperror.ErrUpstream:
		return "food recognition service could not be reached"
	}
	return target.Error()
}

func errorField(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
