package errors

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPErrorAdapter_StatusCodeFor(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", ValidationError("invalid input").Build(), http.StatusBadRequest},
		{"config", ConfigError("bad config").Build(), http.StatusBadRequest},
		{"not found", NotFoundError("missing").Build(), http.StatusNotFound},
		{"network", NetworkError("nats down").Build(), http.StatusBadGateway},
		{"build", BuildError("no binary").Build(), http.StatusUnprocessableEntity},
		{"runtime", RuntimeError("launch failed").Build(), http.StatusServiceUnavailable},
		{"filesystem", FileSystemError("disk full").Build(), http.StatusInternalServerError},
		{"unclassified", errors.New("unknown error"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.StatusCodeFor(tt.err))
		})
	}
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	adapter := NewHTTPErrorAdapter(slog.Default())
	req := httptest.NewRequest(http.MethodPost, "/build", nil)
	rec := httptest.NewRecorder()

	err := ValidationError("malformed build request").
		WithContext("reason", "unexpected EOF").
		Build()
	adapter.WriteErrorResponse(rec, req, err)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "malformed build request", payload.Error)
	assert.Equal(t, string(CategoryValidation), payload.Code)
	assert.Equal(t, "unexpected EOF", payload.Details["reason"])
	assert.False(t, payload.Retryable)
}

func TestHTTPErrorAdapter_RetryableFlag(t *testing.T) {
	payload := NewHTTPErrorAdapter(nil).FormatErrorResponse(NetworkError("nats down").Build())
	assert.True(t, payload.Retryable)
	assert.Equal(t, "network", payload.Code)
}
