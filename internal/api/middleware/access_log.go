package middleware

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// accessLogEntry is one JSON line per request. Bodies are never logged; an
// employee's question only reaches the log through the assistant's own lines.
type accessLogEntry struct {
	Timestamp  string `json:"ts"`
	RequestID  string `json:"request_id,omitempty"`
	Method     string `json:"method"`
	Route      string `json:"route,omitempty"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	Bytes      int    `json:"bytes"`
	DurationMS int64  `json:"duration_ms"`
	UserID     string `json:"user_id,omitempty"`
	Admin      bool   `json:"admin,omitempty"`
	RemoteAddr string `json:"remote_addr,omitempty"`
}

// AccessLog writes an accessLogEntry once the handler returns.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := record(w)
		next.ServeHTTP(rec, r)

		entry := accessLogEntry{
			Timestamp:  start.UTC().Format(time.RFC3339Nano),
			RequestID:  GetRequestID(r.Context()),
			Method:     r.Method,
			Path:       r.URL.Path,
			Status:     rec.Status(),
			Bytes:      rec.bytes,
			DurationMS: time.Since(start).Milliseconds(),
			UserID:     GetUserID(r.Context()),
			Admin:      r.Header.Get(AdminKeyHeader) != "" || strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "),
			RemoteAddr: remoteIP(r),
		}
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			entry.Route = rctx.RoutePattern()
		}

		line, err := json.Marshal(entry)
		if err != nil {
			log.Printf("access_log: %v", err)
			return
		}
		log.Println(string(line))
	})
}

// remoteIP prefers the first X-Forwarded-For hop, then X-Real-IP.
func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
