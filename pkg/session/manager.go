package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/manipd/internal/logging"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/metrics"
	"github.com/aretw0/manipd/pkg/ports"
	"github.com/aretw0/manipd/pkg/problem"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// LockKey is the distributed lock key guarding mutations.
const LockKey = "world"

// Manager serializes access to the problem registry.
type Manager struct {
	registry *problem.Registry
	mu       sync.RWMutex

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *metrics.Recorder
	events  *broadcaster
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking around mutations.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of the distributed lock (default 30s).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics publishes world sizes after each mutation.
func WithMetrics(r *metrics.Recorder) Option {
	return func(m *Manager) {
		m.metrics = r
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(m *Manager) {
		m.tracer = tp.Tracer("github.com/aretw0/manipd/pkg/session")
	}
}

// NewManager creates a Manager owning registry.
func NewManager(registry *problem.Registry, opts ...Option) *Manager {
	m := &Manager{
		registry: registry,
		lockTTL:  30 * time.Second,
		logger:   logging.NewNop(), // Default to no-op
		tracer:   otel.Tracer("github.com/aretw0/manipd/pkg/session"),
		events:   newBroadcaster(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mutate runs fn with exclusive access to the registry.
func (m *Manager) Mutate(ctx context.Context, op string, fn func(context.Context, *problem.Registry) error) error {
	ctx, span := m.tracer.Start(ctx, "session.Mutate "+op, trace.WithAttributes(attribute.String("manipd.operation", op)))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, LockKey, m.lockTTL)
		if err != nil {
			err = fmt.Errorf("failed to acquire distributed lock: %w", err)
			recordError(span, err)
			return err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"operation", op,
					"err", err,
				)
			}
		}()
	}

	err := fn(ctx, m.registry)
	m.publish(op, err)
	if err != nil {
		recordError(span, err)
	}
	return err
}

// Subscribe returns a channel receiving an Event after every mutation that
// succeeded, and a function to stop the subscription.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	return m.events.subscribe()
}

// Read runs fn with shared access to the registry. fn must not mutate.
func (m *Manager) Read(ctx context.Context, op string, fn func(context.Context, *problem.Registry) error) error {
	ctx, span := m.tracer.Start(ctx, "session.Read "+op, trace.WithAttributes(attribute.String("manipd.operation", op)))
	defer span.End()

	m.mu.RLock()
	defer m.mu.RUnlock()

	err := fn(ctx, m.registry)
	if err != nil {
		recordError(span, err)
	}
	return err
}

// MutateActive runs fn on the selected problem with exclusive access.
func (m *Manager) MutateActive(ctx context.Context, op string, fn func(context.Context, *problem.Problem) error) error {
	return m.Mutate(ctx, op, func(ctx context.Context, r *problem.Registry) error {
		p, err := r.Active()
		if err != nil {
			return err
		}
		return fn(ctx, p)
	})
}

// ReadActive runs fn on the selected problem with shared access.
func (m *Manager) ReadActive(ctx context.Context, op string, fn func(context.Context, *problem.Problem) error) error {
	return m.Read(ctx, op, func(ctx context.Context, r *problem.Registry) error {
		p, err := r.Active()
		if err != nil {
			return err
		}
		return fn(ctx, p)
	})
}

// publish runs under the write lock, after fn.
func (m *Manager) publish(op string, err error) {
	keys := m.registry.Keys()
	selected, _ := m.registry.Selected()

	if m.metrics != nil {
		obstacles := 0
		if p, err := m.registry.Active(); err == nil {
			obstacles = len(p.Obstacles())
		}
		m.metrics.SetWorld(len(keys), obstacles)
	}
	if err != nil {
		return
	}
	if dropped := m.events.broadcast(Event{Operation: op, Selected: selected, Problems: len(keys), Time: time.Now()}); dropped > 0 {
		m.logger.Warn("Event subscribers are lagging, dropping event", "operation", op, "dropped", dropped)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("manipd.error_kind", domain.KindOf(err)))
}
