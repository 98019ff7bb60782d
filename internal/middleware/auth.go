package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"plume/internal/auth"
	"plume/internal/domain/models"
	"plume/internal/httputil"
)

// sessionRoute reports the caller's own resolution and is always reachable.
const sessionRoute = "/api/session"

// AuthMiddleware resolves the caller's identity and attaches it to the
// request context. API routes other than the public ones answer 401 for
// anonymous callers and 503 while the identity cannot be resolved.
func AuthMiddleware(resolver *auth.Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflight never carries credentials
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			res := resolver.Resolve(r)
			r = httputil.WithResolution(r, res)

			if isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			switch res.State {
			case models.ResolutionAuthenticated:
				next.ServeHTTP(w, r)
			case models.ResolutionUnresolved:
				logger.Warn("identity unresolved", "path", r.URL.Path)
				httputil.RespondErrorWithExtras(w, http.StatusServiceUnavailable,
					"identity provider unavailable", map[string]interface{}{"retryable": true})
			default:
				httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
			}
		})
	}
}

// isPublic reports whether path skips the session check. Everything outside
// /api (health, blob downloads) is public.
func isPublic(path string) bool {
	if !strings.HasPrefix(path, "/api/") {
		return true
	}
	return path == sessionRoute || strings.HasPrefix(path, sessionRoute+"/")
}
