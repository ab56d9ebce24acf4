package http

import (
	"log/slog"
	"net/http"

	"github.com/aretw0/manipd/internal/logging"
	"github.com/aretw0/manipd/pkg/session"
)

// EventSource publishes committed mutations.
type EventSource interface {
	Subscribe() (<-chan session.Event, func())
}

type options struct {
	app     string
	version string
	service string
	logger  *slog.Logger
	metrics http.Handler
	events  EventSource
}

// Option configures a handler.
type Option func(*options)

// WithVersion sets the build version reported by /info.
func WithVersion(v string) Option {
	return func(o *options) {
		o.version = v
	}
}

// WithServiceName sets the service name reported by /info.
func WithServiceName(name string) Option {
	return func(o *options) {
		o.service = name
	}
}

// WithLogger configures a logger for the handler.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *options) {
		o.metrics = h
	}
}

// WithEvents serves mutations of src at /events.
func WithEvents(src EventSource) Option {
	return func(o *options) {
		o.events = src
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		app:     "manipd",
		version: "dev",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
