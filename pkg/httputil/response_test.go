package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/sunsetd/pkg/deprecation"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes JSON with correct content type", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusOK, map[string]string{"foo": "bar"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var result map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "bar", result["foo"])
	})

	t.Run("handles nil data", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteJSON(rec, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	t.Run("without details", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteError(rec, http.StatusBadRequest, "invalid_input", "method is required")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var result map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "invalid_input", result["error"])
		assert.Equal(t, "method is required", result["message"])
		assert.NotContains(t, result, "details")
	})

	t.Run("with details", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteErrorWithDetails(rec, http.StatusUnprocessableEntity, "invalid_config", "reload failed", []string{"endpoints[0].path: required"})

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var result ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, []any{"endpoints[0].path: required"}, result.Details)
	})

	t.Run("service unavailable", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()

		WriteServiceUnavailable(rec, "draining", "shutting down")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestWriteDecision(t *testing.T) {
	t.Parallel()

	headers := deprecation.Headers{{Name: "Deprecation", Value: "@1704067200"}}

	tests := []struct {
		name        string
		decision    deprecation.Decision
		wantWritten bool
		wantCode    int
		wantHeaders map[string]string
		wantBody    string
	}{
		{
			name:     "warn forwards",
			decision: deprecation.Decision{EndpointID: "a", Action: deprecation.Warn{}, Headers: headers},
		},
		{
			name:     "pass-through forwards",
			decision: deprecation.Decision{Action: deprecation.PassThrough{}},
		},
		{
			name: "redirect",
			decision: deprecation.Decision{
				EndpointID:     "a",
				Action:         deprecation.Redirect{Code: http.StatusPermanentRedirect},
				Headers:        headers,
				RedirectTarget: "/v2?x=1",
			},
			wantWritten: true,
			wantCode:    http.StatusPermanentRedirect,
			wantHeaders: map[string]string{"Location": "/v2?x=1", "Deprecation": "@1704067200"},
		},
		{
			name: "block",
			decision: deprecation.Decision{
				EndpointID:   "a",
				Action:       deprecation.Block{Code: http.StatusGone},
				ResponseBody: `{"error":"endpoint_removed"}`,
				ContentType:  "application/json",
			},
			wantWritten: true,
			wantCode:    http.StatusGone,
			wantHeaders: map[string]string{"Content-Type": "application/json"},
			wantBody:    `{"error":"endpoint_removed"}`,
		},
		{
			name: "custom",
			decision: deprecation.Decision{
				EndpointID:   "a",
				Action:       deprecation.Custom{Code: 503},
				ResponseBody: "maintenance",
				ContentType:  "text/plain",
			},
			wantWritten: true,
			wantCode:    503,
			wantHeaders: map[string]string{"Content-Type": "text/plain"},
			wantBody:    "maintenance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()

			written := WriteDecision(rec, tt.decision)

			assert.Equal(t, tt.wantWritten, written)
			if !tt.wantWritten {
				assert.Empty(t, rec.Header())
				return
			}
			assert.Equal(t, tt.wantCode, rec.Code)
			for k, v := range tt.wantHeaders {
				assert.Equal(t, v, rec.Header().Get(k), k)
			}
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}
