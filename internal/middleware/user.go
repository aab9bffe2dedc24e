package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/schemahub/schemahub/internal/auth"
)

// UserHeader carries the caller identity until a real identity provider sits
// in front of the service.
const UserHeader = "X-User-Id"

// UserMiddleware resolves the caller from the request header into the request
// context. Requests without a parseable user stay anonymous; handlers that
// need an identity reject them individually.
func UserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(UserHeader))
		if raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				r = r.WithContext(auth.ContextWithUserID(r.Context(), id))
			}
		}
		next.ServeHTTP(w, r)
	})
}
