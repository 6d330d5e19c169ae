package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/taskboard/taskboard/internal/api/shared"
	"github.com/taskboard/taskboard/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyHeader carries the shared API key.
const APIKeyHeader = "X-API-KEY"

// Messages returned by the API key check.
const (
	MsgAPIKeyRequired = "API key is required. Please provide X-API-KEY header."
	MsgAPIKeyInvalid  = "Invalid API key."
)

// ProtectedPrefix is the path prefix guarded by the API key and rate limits.
const ProtectedPrefix = "/api/"

// ErrNoAPIKey is returned by NewAPIKeyMiddleware without a key or hash.
var ErrNoAPIKey = errors.New("api key or api key hash must be configured")

// APIKeyMiddleware authenticates requests with a static shared key.
type APIKeyMiddleware struct {
	key  []byte
	hash []byte
}

// NewAPIKeyMiddleware creates the middleware from the auth configuration. A
// configured bcrypt hash takes precedence over a plaintext key.
func NewAPIKeyMiddleware(cfg config.AuthConfig) (*APIKeyMiddleware, error) {
	switch {
	case cfg.APIKeyHash != "":
		if _, err := bcrypt.Cost([]byte(cfg.APIKeyHash)); err != nil {
			return nil, err
		}
		return &APIKeyMiddleware{hash: []byte(cfg.APIKeyHash)}, nil
	case cfg.APIKey != "":
		return &APIKeyMiddleware{key: []byte(cfg.APIKey)}, nil
	default:
		return nil, ErrNoAPIKey
	}
}

func (m *APIKeyMiddleware) valid(presented string) bool {
	if m.hash != nil {
		return bcrypt.CompareHashAndPassword(m.hash, []byte(presented)) == nil
	}
	return subtle.ConstantTimeCompare(m.key, []byte(presented)) == 1
}

// Authenticate rejects /api/ requests without the correct X-API-KEY header.
// Other paths pass through untouched.
func (m *APIKeyMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, ProtectedPrefix) {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, MsgAPIKeyRequired)
			return
		}
		if !m.valid(key) {
			shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, MsgAPIKeyInvalid, nil,
				shared.WithElevatedLogLevel())
			return
		}

		next.ServeHTTP(w, r)
	})
}
