// Package core implements the registry operations of the problem front-end:
// creating, selecting and resetting planning problems.
package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/manipd/internal/logging"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/metrics"
	"github.com/aretw0/manipd/pkg/problem"
	"github.com/aretw0/manipd/pkg/session"
	"github.com/aretw0/manipd/pkg/spatial"
)

// ServiceName is the metrics label of this service.
const ServiceName = "problem"

// Problems lists the registry keys and the selection.
type Problems struct {
	Problems []string `json:"problems"`
	Selected string   `json:"selected,omitempty"`
}

// ObstacleView is an obstacle as reported to remote callers.
type ObstacleView struct {
	Name      string                `json:"name"`
	Geometry  kinematics.Geometry   `json:"geometry"`
	Position  [spatial.Size]float64 `json:"position"`
	Collision bool                  `json:"collision"`
	Distance  bool                  `json:"distance"`
	Permanent bool                  `json:"permanent"`
}

// Service runs registry operations against a session manager.
type Service struct {
	mgr     *session.Manager
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics records each call.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = r
	}
}

// WithLogger configures a logger for the Service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a Service sharing mgr.
func NewService(mgr *session.Manager, opts ...Option) *Service {
	s := &Service{
		mgr:    mgr,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProblem inserts an empty problem under key, replacing any previous
// entry. The first problem ever created becomes the selection.
func (s *Service) CreateProblem(ctx context.Context, key string) error {
	return s.observe("create_problem", func() error {
		if key == "" {
			return domain.Errorf(domain.ErrInvalidArgument, "problem key is empty")
		}
		return s.mgr.Mutate(ctx, "create_problem", func(_ context.Context, r *problem.Registry) error {
			if r.Has(key) {
				s.logger.Warn("Replacing existing problem", "key", key)
			}
			r.Create(key)
			return nil
		})
	})
}

// SelectProblem makes key the active problem.
func (s *Service) SelectProblem(ctx context.Context, key string) error {
	return s.observe("select_problem", func() error {
		return s.mgr.Mutate(ctx, "select_problem", func(_ context.Context, r *problem.Registry) error {
			return r.Select(key)
		})
	})
}

// ResetProblem replaces the active problem with an empty one.
func (s *Service) ResetProblem(ctx context.Context) error {
	return s.observe("reset_problem", func() error {
		return s.mgr.Mutate(ctx, "reset_problem", func(_ context.Context, r *problem.Registry) error {
			return r.ReplaceSelected(problem.New())
		})
	})
}

// ListProblems returns every key and the current selection.
func (s *Service) ListProblems(ctx context.Context) (Problems, error) {
	var out Problems
	err := s.observe("list_problems", func() error {
		return s.mgr.Read(ctx, "list_problems", func(_ context.Context, r *problem.Registry) error {
			out.Problems = r.Keys()
			out.Selected, _ = r.Selected()
			return nil
		})
	})
	return out, err
}

// Obstacles returns the obstacles of the active problem.
func (s *Service) Obstacles(ctx context.Context) ([]ObstacleView, error) {
	var out []ObstacleView
	err := s.observe("get_obstacles", func() error {
		return s.mgr.ReadActive(ctx, "get_obstacles", func(_ context.Context, p *problem.Problem) error {
			out = ViewObstacles(p.Obstacles())
			return nil
		})
	})
	return out, err
}

// Obstacle returns one obstacle of the active problem.
func (s *Service) Obstacle(ctx context.Context, name string) (ObstacleView, error) {
	var out ObstacleView
	err := s.observe("get_obstacle", func() error {
		return s.mgr.ReadActive(ctx, "get_obstacle", func(_ context.Context, p *problem.Problem) error {
			o, err := p.Obstacle(name)
			if err != nil {
				return err
			}
			out = ViewObstacles([]*problem.Obstacle{o})[0]
			return nil
		})
	})
	return out, err
}

// ViewObstacles converts obstacles for remote callers.
func ViewObstacles(obs []*problem.Obstacle) []ObstacleView {
	out := make([]ObstacleView, 0, len(obs))
	for _, o := range obs {
		out = append(out, ObstacleView{
			Name:      o.Name,
			Geometry:  o.Geometry,
			Position:  spatial.Encode(o.Placement),
			Collision: o.Collision,
			Distance:  o.Distance,
			Permanent: o.Permanent,
		})
	}
	return out
}

func (s *Service) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.Observe(ServiceName, op, metrics.Result(err), time.Since(start))
	if err != nil {
		s.logger.Warn("Call failed", "service", ServiceName, "operation", op, "kind", domain.KindOf(err), "err", err)
	}
	return err
}
