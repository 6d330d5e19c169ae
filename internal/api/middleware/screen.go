package middleware

import (
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/taskboard/taskboard/internal/api/shared"
	"github.com/taskboard/taskboard/internal/platform/logger"
)

// Messages returned when a request is screened out.
const (
	MsgInvalidParameters = "Invalid request parameters"
	MsgInvalidData       = "Invalid request data"
)

var sqlInjectionPattern = regexp.MustCompile(`(?i)` + strings.Join([]string{
	`(\bUNION\b.*\bSELECT\b)`,
	`(\bSELECT\b.*\bFROM\b.*\bWHERE\b)`,
	`(\bINSERT\b.*\bINTO\b)`,
	`(\bUPDATE\b.*\bSET\b)`,
	`(\bDELETE\b.*\bFROM\b)`,
	`(\bDROP\b.*\bTABLE\b)`,
	`(\bEXEC\b.*\()`,
	`(';.*--)`,
	`(\bOR\b.*=.*)`,
	`(1=1)`,
	`('.*OR.*'.*=.*')`,
}, "|"))

var xssPattern = regexp.MustCompile(`(?is)` + strings.Join([]string{
	`<script[^>]*>.*?</script>`,
	`javascript:`,
	`on\w+\s*=`,
	`<iframe[^>]*>`,
	`<embed[^>]*>`,
	`<object[^>]*>`,
}, "|"))

// RequestScreen rejects requests whose query parameters look like SQL
// injection or XSS attempts, and form POSTs whose values look like SQL
// injection. JSON bodies are not inspected.
func RequestScreen(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "request_screen"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger.FromContextOrDefault(r.Context(), log)
			query := r.URL.Query()

			if matchesAny(query, sqlInjectionPattern) {
				l.Warn("potential SQL injection attempt detected",
					slog.String("remote_addr", ClientIP(r)),
					slog.String("path", r.URL.Path))
				shared.RespondWithError(w, r, http.StatusBadRequest, MsgInvalidParameters)
				return
			}

			if r.Method == http.MethodPost && isForm(r) {
				if err := r.ParseForm(); err == nil && matchesAny(r.PostForm, sqlInjectionPattern) {
					l.Warn("potential SQL injection attempt detected in form data",
						slog.String("remote_addr", ClientIP(r)),
						slog.String("path", r.URL.Path))
					shared.RespondWithError(w, r, http.StatusBadRequest, MsgInvalidData)
					return
				}
			}

			if matchesAny(query, xssPattern) {
				l.Warn("potential XSS attempt detected",
					slog.String("remote_addr", ClientIP(r)),
					slog.String("path", r.URL.Path))
				shared.RespondWithError(w, r, http.StatusBadRequest, MsgInvalidParameters)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func matchesAny(values url.Values, pattern *regexp.Regexp) bool {
	for _, vs := range values {
		for _, v := range vs {
			if pattern.MatchString(v) {
				return true
			}
		}
	}
	return false
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded"
}
