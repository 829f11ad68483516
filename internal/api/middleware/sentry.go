package middleware

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
)

// SentryMiddleware runs each request in its own hub and transaction. The
// transaction is renamed to the matched chi route once routing is done, so
// /api/tickets/{id} groups every ticket lookup. Without a Sentry client the
// spans are unsampled and nothing is sent.
func SentryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub := sentry.GetHubFromContext(r.Context())
		if hub == nil {
			hub = sentry.CurrentHub().Clone()
		}

		opts := []sentry.SpanOption{
			sentry.WithOpName("http.server"),
			sentry.WithTransactionSource(sentry.SourceURL),
		}
		if trace := r.Header.Get(sentry.SentryTraceHeader); trace != "" {
			opts = append(opts, sentry.ContinueFromHeaders(trace, r.Header.Get(sentry.SentryBaggageHeader)))
		}

		tx := sentry.StartTransaction(sentry.SetHubOnContext(r.Context(), hub), r.Method+" "+r.URL.Path, opts...)
		defer tx.Finish()

		r = r.WithContext(tx.Context())
		scope := hub.Scope()
		scope.SetRequest(r)
		if id := GetRequestID(r.Context()); id != "" {
			scope.SetTag("request_id", id)
			tx.SetTag("request_id", id)
		}
		if userID := GetUserID(r.Context()); userID != "" {
			scope.SetUser(sentry.User{ID: userID})
			tx.SetTag("user_id", userID)
		}

		defer func() {
			if err := recover(); err != nil {
				tx.Status = sentry.SpanStatusInternalError
				hub.RecoverWithContext(r.Context(), err)
				panic(err)
			}
		}()

		rec := record(w)
		next.ServeHTTP(rec, r)

		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				tx.Name = r.Method + " " + pattern
				tx.Source = sentry.SourceRoute
			}
		}

		status := rec.Status()
		tx.Status = spanStatus(status)
		tx.SetData("http.response.status_code", status)
		if status >= http.StatusInternalServerError {
			hub.CaptureMessage(fmt.Sprintf("%s answered %d", tx.Name, status))
		}
	})
}

var spanStatuses = map[int]sentry.SpanStatus{
	http.StatusBadRequest:            sentry.SpanStatusInvalidArgument,
	http.StatusUnauthorized:          sentry.SpanStatusUnauthenticated,
	http.StatusForbidden:             sentry.SpanStatusPermissionDenied,
	http.StatusNotFound:              sentry.SpanStatusNotFound,
	http.StatusConflict:              sentry.SpanStatusAlreadyExists,
	http.StatusRequestEntityTooLarge: sentry.SpanStatusInvalidArgument,
	http.StatusTooManyRequests:       sentry.SpanStatusResourceExhausted,
	http.StatusNotImplemented:        sentry.SpanStatusUnimplemented,
	http.StatusServiceUnavailable:    sentry.SpanStatusUnavailable,
	http.StatusGatewayTimeout:        sentry.SpanStatusDeadlineExceeded,
}

func spanStatus(code int) sentry.SpanStatus {
	if s, ok := spanStatuses[code]; ok {
		return s
	}
	switch {
	case code < 400:
		return sentry.SpanStatusOK
	case code < 500:
		return sentry.SpanStatusInvalidArgument
	default:
		return sentry.SpanStatusInternalError
	}
}
