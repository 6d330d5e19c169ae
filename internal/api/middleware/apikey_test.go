package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/taskboard/internal/config"
	"golang.org/x/crypto/bcrypt"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
})

func TestAPIKeyMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-key"), bcrypt.MinCost)
	require.NoError(t, err)

	configs := map[string]config.AuthConfig{
		"plaintext": {APIKey: "s3cret-key"},
		"hashed":    {APIKeyHash: string(hash)},
	}

	tests := []struct {
		name           string
		path           string
		key            string
		expectedStatus int
		expectedBody   string
	}{
		{"valid key", "/api/tasks/", "s3cret-key", http.StatusOK, "OK"},
		{"missing key", "/api/tasks/", "", http.StatusUnauthorized,
			`{"error":"API key is required. Please provide X-API-KEY header."}`},
		{"wrong key", "/api/tasks/", "nope", http.StatusForbidden, `{"error":"Invalid API key."}`},
		{"case sensitive", "/api/tasks/", "S3CRET-KEY", http.StatusForbidden, `{"error":"Invalid API key."}`},
		{"unprotected path", "/health", "", http.StatusOK, "OK"},
	}

	for cfgName, cfg := range configs {
		mw, err := NewAPIKeyMiddleware(cfg)
		require.NoError(t, err)
		handler := mw.Authenticate(okHandler)

		for _, tc := range tests {
			t.Run(cfgName+"/"+tc.name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodGet, tc.path, nil)
				if tc.key != "" {
					req.Header.Set(APIKeyHeader, tc.key)
				}
				rec := httptest.NewRecorder()
				handler.ServeHTTP(rec, req)

				assert.Equal(t, tc.expectedStatus, rec.Code)
				if tc.expectedStatus == http.StatusOK {
					assert.Equal(t, tc.expectedBody, rec.Body.String())
				} else {
					assert.JSONEq(t, tc.expectedBody, rec.Body.String())
				}
			})
		}
	}
}

func TestNewAPIKeyMiddleware(t *testing.T) {
	_, err := NewAPIKeyMiddleware(config.AuthConfig{})
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = NewAPIKeyMiddleware(config.AuthConfig{APIKeyHash: "not-a-bcrypt-hash"})
	assert.Error(t, err)
}
