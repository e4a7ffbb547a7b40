package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/codefyre/backend/internal/model/identity"
	"github.com/codefyre/backend/pkg/utils"
)

// Middleware authenticates every request: the bearer token (or, for SSE and
// websocket clients that cannot set headers, the token query parameter) is
// verified and the resolved identity attached to the request context. Role
// lookup failures degrade to visitor rather than failing the request.
func Middleware(verifier Verifier, roles RoleChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				utils.RespondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			id.Role = identity.RoleVisitor
			if roles != nil {
				isAdmin, err := roles.IsAdmin(r.Context(), id)
				if err != nil {
					log.Printf("[auth] role lookup failed for %s: %v", id.UID, err)
				} else if isAdmin {
					id.Role = identity.RoleAdmin
				}
			}

			next.ServeHTTP(w, r.WithContext(identity.WithContext(r.Context(), id)))
		})
	}
}

// RequireAdmin rejects non-admin callers. Must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identity.FromContext(r.Context())
		if !ok || !id.IsAdmin() {
			utils.RespondError(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
