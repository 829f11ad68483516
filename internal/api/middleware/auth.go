package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/cloo-solutions/hrassist/internal/api"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"

	UserIDHeader   = "X-User-ID"
	AdminKeyHeader = "X-Admin-Key"
)

// UserIdentity stores the caller's employee id from X-User-ID in the
// request context. The id is informational only.
func UserIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserID(ctx context.Context) string {
	userID, _ := ctx.Value(UserIDKey).(string)
	return userID
}

// AdminKeyAuth requires "Authorization: Bearer <adminKey>" or an X-Admin-Key
// header. An empty adminKey leaves the route open.
func AdminKeyAuth(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get(AdminKeyHeader)
			if token == "" {
				authHeader := r.Header.Get("Authorization")
				if authHeader == "" {
					api.Error(w, http.StatusUnauthorized, "missing authorization header")
					return
				}
				if !strings.HasPrefix(authHeader, "Bearer ") {
					api.Error(w, http.StatusUnauthorized, "invalid authorization format")
					return
				}
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(adminKey)) != 1 {
				api.Error(w, http.StatusUnauthorized, "invalid admin key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
