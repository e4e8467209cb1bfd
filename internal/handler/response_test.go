package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/nutri-track/internal/apperror"
	"github.com/sakif/nutri-track/internal/recognition"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    string
		wantMessage string
		wantField   string
	}{
		{
			name:        "validation keeps message and field",
			err:         fmt.Errorf("service/meal: %w", apperror.ValidationFailed("name", "meal name is required")),
			wantStatus:  http.StatusBadRequest,
			wantKind:    "validation_error",
			wantMessage: "meal name is required",
			wantField:   "name",
		},
		{
			name:        "not found",
			err:         apperror.NotFound("meal", "m1"),
			wantStatus:  http.StatusNotFound,
			wantKind:    "not_found",
			wantMessage: "meal not found with id m1",
		},
		{
			name:        "unauthorized",
			err:         apperror.Unauthorized("invalid email or password"),
			wantStatus:  http.StatusUnauthorized,
			wantKind:    "unauthorized",
			wantMessage: "invalid email or password",
		},
		{
			name:        "conflict",
			err:         apperror.Conflict("user", "a@b.c"),
			wantStatus:  http.StatusConflict,
			wantKind:    "conflict",
			wantMessage: "user conflict with id a@b.c",
		},
		{
			name:        "rate limited",
			err:         apperror.RateLimited("Rate limit exceeded. Please try again later."),
			wantStatus:  http.StatusTooManyRequests,
			wantKind:    "rate_limited",
			wantMessage: "Rate limit exceeded. Please try again later.",
		},
		{
			name:        "quota exceeded",
			err:         apperror.QuotaExceeded("Payment required. Please add credits to your workspace."),
			wantStatus:  http.StatusPaymentRequired,
			wantKind:    "quota_exceeded",
			wantMessage: "Payment required. Please add credits to your workspace.",
		},
		{
			name:        "malformed upstream response",
			err:         apperror.MalformedResponse("no JSON object in model response"),
			wantStatus:  http.StatusBadGateway,
			wantKind:    "malformed_upstream_response",
			wantMessage: "no JSON object in model response",
		},
		{
			name:        "upstream status hides the body",
			err:         fmt.Errorf("service/food: %w", recognition.NewStatusError(500, []byte("secret stack trace"))),
			wantStatus:  http.StatusBadGateway,
			wantKind:    "upstream_error",
			wantMessage: "food recognition service returned status 500",
		},
		{
			name:        "upstream network failure",
			err:         fmt.Errorf("%w: calling gateway: %w", apperror.ErrUpstream, errors.New("connection refused")),
			wantStatus:  http.StatusBadGateway,
			wantKind:    "upstream_error",
			wantMessage: "food recognition service could not be reached",
		},
		{
			name:        "unavailable",
			err:         apperror.Unavailable("food recognition is not configured on this server"),
			wantStatus:  http.StatusServiceUnavailable,
			wantKind:    "unavailable",
			wantMessage: "food recognition is not configured on this server",
		},
		{
			name:        "deadline during the upstream call",
			err:         fmt.Errorf("%w: calling gateway: %w", apperror.ErrUpstream, context.DeadlineExceeded),
			wantStatus:  http.StatusGatewayTimeout,
			wantKind:    "timeout",
			wantMessage: "the request took too long to complete",
		},
		{
			name:        "bare deadline",
			err:         fmt.Errorf("service/food: %w", context.DeadlineExceeded),
			wantStatus:  http.StatusGatewayTimeout,
			wantKind:    "timeout",
			wantMessage: "the request took too long to complete",
		},
		{
			name:        "unknown errors are hidden",
			err:         errors.New("sqlite: no such table: meals"),
			wantStatus:  http.StatusInternalServerError,
			wantKind:    "internal_error",
			wantMessage: "An internal error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantKind, body.Error)
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Equal(t, tt.wantField, body.Field)
		})
	}
}

func TestWriteJSON_NilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusAccepted, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())
}
