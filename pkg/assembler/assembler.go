package assembler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/manipd/internal/logging"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/ports"
	"github.com/aretw0/manipd/pkg/problem"
	"github.com/aretw0/manipd/pkg/spatial"
)

const (
	// DeviceName is the name of the composite device built by insertions.
	DeviceName = "Robot"
	// RootJointName is the anchor joint every model is grafted under.
	RootJointName = "base_joint"
)

// Assembler applies model-editing operations to a problem.
type Assembler struct {
	loader ports.ModelLoader
	logger *slog.Logger
}

// Option configures the Assembler.
type Option func(*Assembler)

// WithLogger configures a logger for the Assembler.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// New creates an Assembler loading models with loader.
func New(loader ports.ModelLoader, opts ...Option) *Assembler {
	a := &Assembler{
		loader: loader,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// InsertRobotModel grafts a robot model under the root joint.
func (a *Assembler) InsertRobotModel(ctx context.Context, p *problem.Problem, req ports.ModelRequest) error {
	return a.insert(ctx, p, kinematics.KindRobot, req)
}

// InsertHumanoidModel grafts a humanoid model under the root joint.
func (a *Assembler) InsertHumanoidModel(ctx context.Context, p *problem.Problem, req ports.ModelRequest) error {
	return a.insert(ctx, p, kinematics.KindHumanoid, req)
}

// InsertObjectModel grafts an object model under the root joint.
func (a *Assembler) InsertObjectModel(ctx context.Context, p *problem.Problem, req ports.ModelRequest) error {
	return a.insert(ctx, p, kinematics.KindObject, req)
}

// insert loads a detached fragment and grafts it. On the first insertion
// the anchored device is built locally and installed only once the graft
// succeeded, so a failed load or graft leaves the tree as it was.
func (a *Assembler) insert(ctx context.Context, p *problem.Problem, kind kinematics.ModelKind, req ports.ModelRequest) error {
	d, fresh, err := deviceFor(p)
	if err != nil {
		return err
	}

	f, err := a.loader.LoadModel(ctx, kind, req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrModelLoad, err)
	}
	if err := d.Graft(d.Root(), f); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrModelLoad, err)
	}
	if fresh {
		p.SetRobot(d)
	}
	p.ResetDerived()

	a.logger.Debug("Model inserted",
		"name", req.Name,
		"kind", kind,
		"package", req.Package,
		"model", req.Model,
	)
	return nil
}

// deviceFor returns the device of p, or a new anchored one that is not yet
// installed.
func deviceFor(p *problem.Problem) (*kinematics.Device, bool, error) {
	if d := p.Robot(); d != nil {
		return d, false, nil
	}
	d := kinematics.NewDevice(DeviceName)
	if err := d.SetRoot(kinematics.NewJoint(RootJointName, kinematics.JointAnchor, spatial.Identity())); err != nil {
		return nil, false, err
	}
	return d, true, nil
}

func robot(p *problem.Problem) (*kinematics.Device, error) {
	d := p.Robot()
	if d == nil || d.Root() == nil {
		return nil, domain.Errorf(domain.ErrNoRobot, "no model has been inserted")
	}
	return d, nil
}

// modelRoot resolves the root joint of the model inserted under name.
func modelRoot(p *problem.Problem, name string) (*kinematics.Joint, error) {
	d, err := robot(p)
	if err != nil {
		return nil, err
	}
	m, err := d.Model(name)
	if err != nil {
		return nil, err
	}
	return m.Root, nil
}

// GetRootJointPosition returns the placement of the model inserted under
// name, relative to the device root.
func (a *Assembler) GetRootJointPosition(p *problem.Problem, name string) (spatial.Transform, error) {
	j, err := modelRoot(p, name)
	if err != nil {
		return spatial.Transform{}, err
	}
	return j.PositionInParentFrame(), nil
}

// SetRootJointPosition moves the model inserted under name.
func (a *Assembler) SetRootJointPosition(p *problem.Problem, name string, position []float64) error {
	j, err := modelRoot(p, name)
	if err != nil {
		return err
	}
	t, err := spatial.Decode(position)
	if err != nil {
		return err
	}
	j.SetPositionInParentFrame(t)
	return nil
}

// AddHandle attaches a handle named frame to the joint carrying body.
func (a *Assembler) AddHandle(p *problem.Problem, body, frame string, local []float64) error {
	return a.addHandle(p, body, frame, local, kinematics.NewHandle)
}

// AddAxialHandle attaches a handle that is symmetric about its local x axis.
func (a *Assembler) AddAxialHandle(p *problem.Problem, body, frame string, local []float64) error {
	return a.addHandle(p, body, frame, local, kinematics.NewAxialHandle)
}

func (a *Assembler) addHandle(p *problem.Problem, body, frame string, local []float64,
	build func(string, *kinematics.Joint, spatial.Transform) *kinematics.Handle,
) error {
	d, j, t, err := resolveFrame(p, body, frame, local)
	if err != nil {
		return err
	}
	if err := d.AddHandle(build(frame, j, t)); err != nil {
		return err
	}
	a.logger.Debug("Handle attached", "handle", frame, "body", body)
	return nil
}

// AddGripper attaches a gripper named frame to the joint carrying body.
// Every entry of collisionBodies must name an existing body; their joints
// are exempted from collision checks while the gripper is active.
func (a *Assembler) AddGripper(p *problem.Problem, body, frame string, local []float64, collisionBodies []string) error {
	d, j, t, err := resolveFrame(p, body, frame, local)
	if err != nil {
		return err
	}
	disabled := make([]*kinematics.Joint, 0, len(collisionBodies))
	for _, name := range collisionBodies {
		cj, err := d.JointByBodyName(name)
		if err != nil {
			return fmt.Errorf("gripper %q collision body: %w", frame, err)
		}
		disabled = append(disabled, cj)
	}
	if err := d.AddGripper(kinematics.NewGripper(frame, j, t, disabled)); err != nil {
		return err
	}
	a.logger.Debug("Gripper attached", "gripper", frame, "body", body, "disabled", len(disabled))
	return nil
}

// resolveFrame runs the checks shared by every frame attachment, in the
// order callers observe them: tree, name, body, transform.
func resolveFrame(p *problem.Problem, body, frame string, local []float64) (*kinematics.Device, *kinematics.Joint, spatial.Transform, error) {
	d, err := robot(p)
	if err != nil {
		return nil, nil, spatial.Transform{}, err
	}
	if frame == "" {
		return nil, nil, spatial.Transform{}, domain.Errorf(domain.ErrInvalidArgument, "frame name is empty")
	}
	j, err := d.JointByBodyName(body)
	if err != nil {
		return nil, nil, spatial.Transform{}, err
	}
	t, err := spatial.Decode(local)
	if err != nil {
		return nil, nil, spatial.Transform{}, err
	}
	return d, j, t, nil
}
