// Package manipulation implements the robot and problem operations of the
// manipulation front-ends. Every call runs as one locked operation of the
// shared session manager.
//
// A Service either follows the selected problem of the registry or is
// pinned to one problem instance with WithProblem.
package manipulation

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/manipd/internal/logging"
	"github.com/aretw0/manipd/pkg/assembler"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/metrics"
	"github.com/aretw0/manipd/pkg/ports"
	"github.com/aretw0/manipd/pkg/problem"
	"github.com/aretw0/manipd/pkg/session"
	"github.com/aretw0/manipd/pkg/spatial"
)

// DefaultName is the service name used in metrics and logs.
const DefaultName = "manipulation"

// Service runs manipulation operations.
type Service struct {
	name    string
	mgr     *session.Manager
	asm     *assembler.Assembler
	pinned  *problem.Problem
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithName sets the service name reported in metrics and logs.
func WithName(name string) Option {
	return func(s *Service) {
		s.name = name
	}
}

// WithProblem pins the service to p instead of the selected problem.
func WithProblem(p *problem.Problem) Option {
	return func(s *Service) {
		s.pinned = p
	}
}

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

// NewService creates a Service editing problems of mgr through asm.
func NewService(mgr *session.Manager, asm *assembler.Assembler, opts ...Option) *Service {
	s := &Service{
		name:   DefaultName,
		mgr:    mgr,
		asm:    asm,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the service name.
func (s *Service) Name() string { return s.name }

// mutate runs fn on the target problem under the write lock and records the call.
func (s *Service) mutate(ctx context.Context, op string, fn func(context.Context, *problem.Problem) error) error {
	return s.observe(op, func() error {
		if s.pinned == nil {
			return s.mgr.MutateActive(ctx, s.name+"."+op, fn)
		}
		return s.mgr.Mutate(ctx, s.name+"."+op, func(ctx context.Context, _ *problem.Registry) error {
			return fn(ctx, s.pinned)
		})
	})
}

// read runs fn on the target problem under the read lock and records the call.
func (s *Service) read(ctx context.Context, op string, fn func(context.Context, *problem.Problem) error) error {
	return s.observe(op, func() error {
		if s.pinned == nil {
			return s.mgr.ReadActive(ctx, s.name+"."+op, fn)
		}
		return s.mgr.Read(ctx, s.name+"."+op, func(ctx context.Context, _ *problem.Registry) error {
			return fn(ctx, s.pinned)
		})
	})
}

func (s *Service) observe(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.Observe(s.name, op, metrics.Result(err), time.Since(start))
	if err != nil {
		s.logger.Warn("Call failed", "service", s.name, "operation", op, "kind", domain.KindOf(err), "err", err)
	} else {
		s.logger.Debug("Call succeeded", "service", s.name, "operation", op)
	}
	return err
}

// InsertModel grafts a model of the given kind: robot, humanoid or object.
func (s *Service) InsertModel(ctx context.Context, kind kinematics.ModelKind, req ports.ModelRequest) error {
	switch kind {
	case kinematics.KindRobot:
		return s.InsertRobotModel(ctx, req)
	case kinematics.KindHumanoid:
		return s.InsertHumanoidModel(ctx, req)
	case kinematics.KindObject:
		return s.InsertObjectModel(ctx, req)
	}
	return s.observe("insert_model", func() error {
		return domain.Errorf(domain.ErrInvalidArgument, "unknown model kind %q", kind)
	})
}

// InsertRobotModel grafts a robot model.
func (s *Service) InsertRobotModel(ctx context.Context, req ports.ModelRequest) error {
	return s.mutate(ctx, "insert_robot_model", func(ctx context.Context, p *problem.Problem) error {
		return s.asm.InsertRobotModel(ctx, p, req)
	})
}

// InsertHumanoidModel grafts a humanoid model.
func (s *Service) InsertHumanoidModel(ctx context.Context, req ports.ModelRequest) error {
	return s.mutate(ctx, "insert_humanoid_model", func(ctx context.Context, p *problem.Problem) error {
		return s.asm.InsertHumanoidModel(ctx, p, req)
	})
}

// InsertObjectModel grafts an object model.
func (s *Service) InsertObjectModel(ctx context.Context, req ports.ModelRequest) error {
	return s.mutate(ctx, "insert_object_model", func(ctx context.Context, p *problem.Problem) error {
		return s.asm.InsertObjectModel(ctx, p, req)
	})
}

// LoadEnvironmentModel flattens an environment into obstacles.
func (s *Service) LoadEnvironmentModel(ctx context.Context, req ports.EnvironmentRequest) error {
	return s.mutate(ctx, "load_environment_model", func(ctx context.Context, p *problem.Problem) error {
		return s.asm.LoadEnvironmentModel(ctx, p, req)
	})
}

// GetRootJointPosition returns the placement of model name as 7 floats.
func (s *Service) GetRootJointPosition(ctx context.Context, name string) ([spatial.Size]float64, error) {
	var out [spatial.Size]float64
	err := s.read(ctx, "get_root_joint_position", func(_ context.Context, p *problem.Problem) error {
		t, err := s.asm.GetRootJointPosition(p, name)
		if err != nil {
			return err
		}
		out = spatial.Encode(t)
		return nil
	})
	return out, err
}

// SetRootJointPosition moves model name.
func (s *Service) SetRootJointPosition(ctx context.Context, name string, position []float64) error {
	return s.mutate(ctx, "set_root_joint_position", func(_ context.Context, p *problem.Problem) error {
		return s.asm.SetRootJointPosition(p, name, position)
	})
}

// AddHandle attaches a handle to a body.
func (s *Service) AddHandle(ctx context.Context, body, frame string, local []float64) error {
	return s.mutate(ctx, "add_handle", func(_ context.Context, p *problem.Problem) error {
		return s.asm.AddHandle(p, body, frame, local)
	})
}

// AddAxialHandle attaches an axial handle to a body.
func (s *Service) AddAxialHandle(ctx context.Context, body, frame string, local []float64) error {
	return s.mutate(ctx, "add_axial_handle", func(_ context.Context, p *problem.Problem) error {
		return s.asm.AddAxialHandle(p, body, frame, local)
	})
}

// AddGripper attaches a gripper to a body.
func (s *Service) AddGripper(ctx context.Context, body, frame string, local []float64, collisionBodies []string) error {
	return s.mutate(ctx, "add_gripper", func(_ context.Context, p *problem.Problem) error {
		return s.asm.AddGripper(p, body, frame, local, collisionBodies)
	})
}

// CreateGraph records a constraint graph for the current robot. Any later
// model insertion drops it.
func (s *Service) CreateGraph(ctx context.Context, name string) (problem.ConstraintGraph, error) {
	var out problem.ConstraintGraph
	err := s.mutate(ctx, "create_graph", func(_ context.Context, p *problem.Problem) error {
		if name == "" {
			return domain.Errorf(domain.ErrInvalidArgument, "graph name is empty")
		}
		if p.Robot() == nil {
			return domain.Errorf(domain.ErrNoRobot, "a graph needs a robot")
		}
		out = *p.CreateGraph(name)
		return nil
	})
	return out, err
}
