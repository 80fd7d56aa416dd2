package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"coursehub/internal/auth"
	"coursehub/internal/domain"
	"coursehub/internal/httputil"
)

// RequireAuth rejects requests without a valid Supabase access token and
// attaches the verified identity to the context. EventSource cannot set
// headers, so a "token" query parameter is accepted as well.
func RequireAuth(verifier auth.JWTVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing or invalid token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if errors.Is(err, domain.ErrAccessDenied) {
				httputil.RespondErrorWithExtras(w, http.StatusForbidden, err.Error(), map[string]interface{}{"code": "access_denied"})
				return
			}
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "missing or invalid token")
				return
			}

			identity := claims.Identity()
			logger.Debug("request authenticated", "user_id", identity.UserID, "path", r.URL.Path)
			next.ServeHTTP(w, httputil.WithIdentity(r, identity))
		})
	}
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return r.URL.Query().Get("token")
}
