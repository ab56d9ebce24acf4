// Package problem holds planning-problem instances and the keyed registry
// that selects one of them as active.
//
// Neither type is synchronized. session.Manager serializes every access.
package problem

import (
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/spatial"
)

// Obstacle is jointless collision geometry registered with a problem.
type Obstacle struct {
	Name      string
	Geometry  kinematics.Geometry
	Placement spatial.Transform
	Collision bool
	Distance  bool
	Permanent bool
}

// ConstraintGraph is the derived structure built on top of the robot. Any
// change to the robot invalidates it.
type ConstraintGraph struct {
	Name     string `json:"name"`
	Revision uint64 `json:"revision"`
}

// Problem is one planning session: a robot, obstacles and auxiliary geometry.
type Problem struct {
	robot     *kinematics.Device
	obstacles []*Obstacle
	byName    map[string]*Obstacle
	auxiliary []kinematics.NamedTriangles
	auxNames  map[string]bool

	graph    *ConstraintGraph
	revision uint64
}

// New creates an empty problem.
func New() *Problem {
	return &Problem{
		byName:   make(map[string]*Obstacle),
		auxNames: make(map[string]bool),
	}
}

// Robot returns the kinematic tree, nil until the first model insertion.
func (p *Problem) Robot() *kinematics.Device { return p.robot }

// SetRobot installs the kinematic tree.
func (p *Problem) SetRobot(d *kinematics.Device) { p.robot = d }

// AddObstacle injects o. Obstacle names are unique within a problem.
func (p *Problem) AddObstacle(o *Obstacle) error {
	if _, ok := p.byName[o.Name]; ok {
		return domain.Errorf(domain.ErrDuplicateName, "obstacle %q", o.Name)
	}
	p.byName[o.Name] = o
	p.obstacles = append(p.obstacles, o)
	return nil
}

// Obstacle returns the obstacle named name.
func (p *Problem) Obstacle(name string) (*Obstacle, error) {
	o, ok := p.byName[name]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "obstacle %q", name)
	}
	return o, nil
}

// Obstacles returns the obstacles in injection order.
func (p *Problem) Obstacles() []*Obstacle { return p.obstacles }

// AddAuxiliary registers auxiliary geometry under name.
func (p *Problem) AddAuxiliary(name string, tl kinematics.TriangleList) error {
	if p.auxNames[name] {
		return domain.Errorf(domain.ErrDuplicateName, "auxiliary geometry %q", name)
	}
	p.auxNames[name] = true
	p.auxiliary = append(p.auxiliary, kinematics.NamedTriangles{Name: name, Triangles: tl})
	return nil
}

// Auxiliary returns the auxiliary geometry in registration order.
func (p *Problem) Auxiliary() []kinematics.NamedTriangles { return p.auxiliary }

// AuxiliaryNamed returns the auxiliary geometry registered under name.
func (p *Problem) AuxiliaryNamed(name string) (kinematics.NamedTriangles, error) {
	for _, t := range p.auxiliary {
		if t.Name == name {
			return t, nil
		}
	}
	return kinematics.NamedTriangles{}, domain.Errorf(domain.ErrNotFound, "contact %q", name)
}

// CreateGraph records a constraint graph built for the current robot.
func (p *Problem) CreateGraph(name string) *ConstraintGraph {
	p.graph = &ConstraintGraph{Name: name, Revision: p.revision}
	return p.graph
}

// Graph returns the current constraint graph, nil if none or invalidated.
func (p *Problem) Graph() *ConstraintGraph { return p.graph }

// Revision counts how many times derived state was reset.
func (p *Problem) Revision() uint64 { return p.revision }

// ResetDerived drops every structure computed from the robot.
func (p *Problem) ResetDerived() {
	p.graph = nil
	p.revision++
}
