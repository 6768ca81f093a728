package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/rwrrioe/integrity/pkg/auth"
)

// HealthPaths bypass authentication and rate limiting.
var HealthPaths = []string{"/healthz", "/readyz"}

// AuthMiddleware validates JWT tokens on incoming requests.
// Requests to paths listed in skipPaths bypass authentication. A nil
// jwtService disables authentication.
func AuthMiddleware(jwtService *auth.JWTService, skipPaths []string) func(http.Handler) http.Handler {
	skipSet := toSet(skipPaths)

	return func(next http.Handler) http.Handler {
		if jwtService == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := skipSet[r.URL.Path]; skip {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			token, ok := auth.BearerToken(authHeader)
			if !ok {
				writeError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := auth.ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
