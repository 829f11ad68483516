// Package telemetry wires the assistant to Sentry: error capture, tracing of
// the resolve and ingest paths, and scrubbing of employee questions.
package telemetry

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	serverName   = "hrassist"
	flushTimeout = 5 * time.Second
)

// Paths that are polled often enough to drown out useful traces.
var unsampledTransactions = map[string]bool{
	"GET /api/health": true,
}

// Fields that may carry what an employee typed. They never leave the process.
var sensitiveKeys = []string{"question", "issue", "answer"}

// Config holds the configuration for Sentry initialization.
type Config struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	Debug            bool
}

// Init configures the global Sentry client. The returned func flushes pending
// events and is safe to call when Sentry is disabled.
func Init(cfg Config) (func(), error) {
	noop := func() {}
	if cfg.DSN == "" {
		return noop, nil
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TracesSampleRate <= 0 {
		cfg.TracesSampleRate = 1.0
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		ServerName:       serverName,
		Debug:            cfg.Debug,
		EnableTracing:    true,
		TracesSampleRate: cfg.TracesSampleRate,
		TracesSampler:    sampler(cfg.TracesSampleRate),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return Scrub(event)
		},
	})
	if err != nil {
		log.Printf("sentry: init failed, continuing without it: %v", err)
		return noop, nil
	}

	log.Printf("sentry: enabled for %s (release %q, traces %.2f)", cfg.Environment, cfg.Release, cfg.TracesSampleRate)
	return func() { sentry.Flush(flushTimeout) }, nil
}

func sampler(rate float64) sentry.TracesSampler {
	return func(ctx sentry.SamplingContext) float64 {
		if ctx.Span == nil {
			return rate
		}
		if unsampledTransactions[ctx.Span.Name] {
			return 0
		}
		var root sentry.SpanID
		if ctx.Span.ParentSpanID != root {
			if ctx.Span.Sampled.Bool() {
				return 1
			}
			return 0
		}
		return rate
	}
}

// Scrub removes request bodies and question text from an event before it is
// sent.
func Scrub(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}
	if event.Request != nil {
		event.Request.Data = ""
		event.Request.Cookies = ""
		for name := range event.Request.Headers {
			switch strings.ToLower(name) {
			case "authorization", "x-admin-key", "cookie":
				delete(event.Request.Headers, name)
			}
		}
	}
	for _, key := range sensitiveKeys {
		delete(event.Extra, key)
		for _, ctx := range event.Contexts {
			delete(ctx, key)
		}
	}
	return event
}

// Attrs are the tags attached to an assistant span.
type Attrs struct {
	UserID    string
	TicketID  string
	Operation string
}

// Span wraps a sentry span. A zero Span is valid and does nothing.
type Span struct {
	inner *sentry.Span
}

func (s *Span) End() {
	if s.inner != nil {
		s.inner.Finish()
	}
}

func (s *Span) SetStatus(status sentry.SpanStatus) {
	if s.inner != nil {
		s.inner.Status = status
	}
}

// SetError marks the span failed and reports err on the span's hub.
func (s *Span) SetError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.Status = sentry.SpanStatusInternalError
	CaptureError(s.inner.Context(), err)
}

func (s *Span) SetTag(key, value string) {
	if s.inner != nil && value != "" {
		s.inner.SetTag(key, value)
	}
}

func (s *Span) SetData(key string, value interface{}) {
	if s.inner != nil {
		s.inner.SetData(key, value)
	}
}

// RecordAnswer tags the span with how a question was answered.
func (s *Span) RecordAnswer(method string, score float64, escalate bool) {
	s.SetTag("retrieval_method", method)
	s.SetData("confidence_score", score)
	if escalate {
		s.SetTag("escalation_offered", "true")
	}
}

// StartSpan opens a child of the span in ctx, or a new transaction when
// there is none.
func StartSpan(ctx context.Context, name string, attrs Attrs) (context.Context, *Span) {
	var span *sentry.Span
	if parent := sentry.SpanFromContext(ctx); parent != nil {
		span = parent.StartChild(name)
	} else {
		span = sentry.StartSpan(ctx, name, sentry.WithTransactionName(name))
	}

	s := &Span{inner: span}
	s.SetTag("user_id", attrs.UserID)
	s.SetTag("ticket_id", attrs.TicketID)
	if attrs.Operation != "" {
		s.SetData("operation", attrs.Operation)
	}
	return span.Context(), s
}

func hubFor(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

// CaptureError reports err on the request's hub when there is one.
func CaptureError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hubFor(ctx).CaptureException(err)
}

// AddBreadcrumb records a step of the pipeline for the next captured event.
func AddBreadcrumb(ctx context.Context, category, message string) {
	hubFor(ctx).AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "default",
		Category:  category,
		Message:   message,
		Level:     sentry.LevelInfo,
		Timestamp: time.Now(),
	}, nil)
}
