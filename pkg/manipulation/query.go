package manipulation

import (
	"context"
	"strings"

	"github.com/aretw0/manipd/internal/presentation/graph"
	"github.com/aretw0/manipd/pkg/core"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/problem"
	"github.com/aretw0/manipd/pkg/spatial"
)

// Names accepted by GetAvailable, in any case.
const (
	AvailableGripper         = "gripper"
	AvailableHandle          = "handle"
	AvailableJoint           = "joint"
	AvailableObstacle        = "obstacle"
	AvailableAuxiliary       = "auxiliary"
	AvailableModel           = "model"
	AvailableRobotContact    = "robotcontact"
	AvailableEnvContact      = "envcontact"
	AvailableConstraintGraph = "constraintgraph"
	AvailableType            = "type"
)

var availableTypes = []string{
	AvailableGripper, AvailableHandle, AvailableJoint,
	AvailableObstacle, AvailableAuxiliary, AvailableModel,
	AvailableRobotContact, AvailableEnvContact, AvailableConstraintGraph, AvailableType,
}

// Names accepted by GetSelected, in any case.
const (
	SelectedConstraintGraph = "constraintgraph"
	SelectedType            = "type"
)

// GetAvailable lists the names of one kind of element of the problem.
// envcontact is the auxiliary geometry merged from environments.
func (s *Service) GetAvailable(ctx context.Context, what string) ([]string, error) {
	out := []string{}
	err := s.read(ctx, "get_available", func(_ context.Context, p *problem.Problem) error {
		switch w := strings.ToLower(what); w {
		case AvailableType:
			out = append(out, availableTypes...)
		case AvailableObstacle:
			for _, o := range p.Obstacles() {
				out = append(out, o.Name)
			}
		case AvailableAuxiliary, AvailableEnvContact:
			for _, t := range p.Auxiliary() {
				out = append(out, t.Name)
			}
		case AvailableConstraintGraph:
			if g := p.Graph(); g != nil {
				out = append(out, g.Name)
			}
		case AvailableGripper, AvailableHandle, AvailableJoint, AvailableModel, AvailableRobotContact:
			d := p.Robot()
			if d == nil {
				return domain.Errorf(domain.ErrNoRobot, "no model has been inserted")
			}
			out = append(out, deviceNames(d, w)...)
		default:
			return domain.Errorf(domain.ErrInvalidArgument, "unknown type %q, expected one of %v", what, availableTypes)
		}
		return nil
	})
	return out, err
}

func deviceNames(d *kinematics.Device, what string) []string {
	var out []string
	switch what {
	case AvailableGripper:
		for _, g := range d.Grippers() {
			out = append(out, g.Name)
		}
	case AvailableHandle:
		for _, h := range d.Handles() {
			out = append(out, h.Name)
		}
	case AvailableJoint:
		for _, j := range d.Joints() {
			out = append(out, j.Name)
		}
	case AvailableModel:
		for _, m := range d.Models() {
			out = append(out, m.Name)
		}
	case AvailableRobotContact:
		for _, t := range d.Triangles() {
			out = append(out, t.Name)
		}
	}
	return out
}

// GetSelected returns the name of the selected element of kind what. For
// "type" it returns the only selectable kind, constraintgraph.
func (s *Service) GetSelected(ctx context.Context, what string) (string, error) {
	var out string
	err := s.read(ctx, "get_selected", func(_ context.Context, p *problem.Problem) error {
		switch strings.ToLower(what) {
		case SelectedType:
			out = SelectedConstraintGraph
			return nil
		case SelectedConstraintGraph:
			g := p.Graph()
			if g == nil {
				return domain.Errorf(domain.ErrNotFound, "no constraint graph")
			}
			out = g.Name
			return nil
		}
		return domain.Errorf(domain.ErrInvalidArgument, "unknown type %q, expected %q or %q", what, SelectedConstraintGraph, SelectedType)
	})
	return out, err
}

// ContactView is a named contact surface. Joint is empty for environment
// contacts, whose triangles are already expressed in the world frame.
type ContactView struct {
	Name      string                `json:"name"`
	Joint     string                `json:"joint,omitempty"`
	Local     []kinematics.Triangle `json:"local"`
	Triangles []kinematics.Triangle `json:"triangles"`
}

// GetContact returns a contact surface of the robot (robotcontact) or of
// the merged environments (envcontact), with triangles in the world frame.
func (s *Service) GetContact(ctx context.Context, kind, name string) (ContactView, error) {
	var out ContactView
	err := s.read(ctx, "get_contact", func(_ context.Context, p *problem.Problem) error {
		var (
			t   kinematics.NamedTriangles
			err error
		)
		switch strings.ToLower(kind) {
		case AvailableRobotContact:
			d := p.Robot()
			if d == nil {
				return domain.Errorf(domain.ErrNoRobot, "no model has been inserted")
			}
			t, err = d.TriangleList(name)
		case AvailableEnvContact:
			t, err = p.AuxiliaryNamed(name)
		default:
			return domain.Errorf(domain.ErrInvalidArgument, "unknown contact kind %q, expected %q or %q", kind, AvailableRobotContact, AvailableEnvContact)
		}
		if err != nil {
			return err
		}
		out = ContactView{
			Name:      t.Name,
			Local:     append([]kinematics.Triangle{}, t.Triangles...),
			Triangles: append([]kinematics.Triangle{}, t.World()...),
		}
		if t.Joint != nil {
			out.Joint = t.Joint.Name
		}
		return nil
	})
	return out, err
}

// ModelView summarizes a grafted model.
type ModelView struct {
	Name     string                `json:"name"`
	Kind     kinematics.ModelKind  `json:"kind"`
	Position [spatial.Size]float64 `json:"position"`
}

// Snapshot is a read-only summary of the target problem.
type Snapshot struct {
	Models    []ModelView         `json:"models"`
	Joints    int                 `json:"joints"`
	Handles   []string            `json:"handles"`
	Grippers  []string            `json:"grippers"`
	Obstacles []core.ObstacleView `json:"obstacles"`
	Auxiliary []string            `json:"auxiliary"`
	Graph     string              `json:"constraint_graph,omitempty"`
	Revision  uint64              `json:"revision"`
}

// Describe summarizes the target problem.
func (s *Service) Describe(ctx context.Context) (Snapshot, error) {
	var out Snapshot
	err := s.read(ctx, "describe", func(_ context.Context, p *problem.Problem) error {
		out = Snapshot{
			Models:    []ModelView{},
			Handles:   []string{},
			Grippers:  []string{},
			Obstacles: core.ViewObstacles(p.Obstacles()),
			Auxiliary: []string{},
			Revision:  p.Revision(),
		}
		for _, t := range p.Auxiliary() {
			out.Auxiliary = append(out.Auxiliary, t.Name)
		}
		if g := p.Graph(); g != nil {
			out.Graph = g.Name
		}
		d := p.Robot()
		if d == nil {
			return nil
		}
		for _, m := range d.Models() {
			out.Models = append(out.Models, ModelView{Name: m.Name, Kind: m.Kind, Position: spatial.Encode(m.Root.PositionInParentFrame())})
		}
		out.Joints = len(d.Joints())
		out.Handles = append(out.Handles, deviceNames(d, AvailableHandle)...)
		out.Grippers = append(out.Grippers, deviceNames(d, AvailableGripper)...)
		return nil
	})
	return out, err
}

// KinematicTree renders the robot of the target problem as a Mermaid
// flowchart. A non-empty model highlights that model's joints and must exist.
func (s *Service) KinematicTree(ctx context.Context, model string) (string, error) {
	var out string
	err := s.read(ctx, "kinematic_tree", func(_ context.Context, p *problem.Problem) error {
		d := p.Robot()
		if d == nil {
			return domain.Errorf(domain.ErrNoRobot, "no model has been inserted")
		}
		if model != "" {
			if _, err := d.Model(model); err != nil {
				return err
			}
		}
		out = graph.GenerateMermaid(d, &graph.Overlay{Model: model})
		return nil
	})
	return out, err
}
