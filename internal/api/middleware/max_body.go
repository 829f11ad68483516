package middleware

import (
	"fmt"
	"net/http"

	"github.com/cloo-solutions/hrassist/internal/api"
)

// MaxBodyBytes caps the body of requests that carry one. Oversized declared
// bodies are refused up front; chunked ones fail when the handler decodes.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	tooLarge := fmt.Sprintf("request body exceeds %d bytes", limit)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case limit <= 0, r.Body == nil, r.Method == http.MethodGet, r.Method == http.MethodOptions:
			case r.ContentLength > limit:
				api.Error(w, http.StatusRequestEntityTooLarge, tooLarge)
				return
			default:
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
