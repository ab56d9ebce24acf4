package kinematics

import "github.com/aretw0/manipd/pkg/spatial"

// JointType names the articulation of a joint.
type JointType string

const (
	JointAnchor    JointType = "anchor"
	JointFreeFlyer JointType = "freeflyer"
	JointPlanar    JointType = "planar"
	JointRevolute  JointType = "revolute"
	JointPrismatic JointType = "prismatic"
)

// JointTypes lists the joint types accepted for model roots.
var JointTypes = []JointType{JointAnchor, JointFreeFlyer, JointPlanar, JointRevolute, JointPrismatic}

// ValidJointType reports whether t is a known joint type.
func ValidJointType(t JointType) bool {
	for _, k := range JointTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Geometry describes a collision shape. Params depend on Kind:
// box (x y z), sphere (r), cylinder (r length), mesh (no params, Source set).
type Geometry struct {
	Kind   string    `json:"kind"`
	Params []float64 `json:"params,omitempty"`
	Source string    `json:"source,omitempty"`
}

// CollisionObject is a piece of geometry placed relative to its joint.
type CollisionObject struct {
	Name     string
	Geometry Geometry
	Local    spatial.Transform
}

// Body is the rigid link carried by a joint.
type Body struct {
	Name      string
	Collision []*CollisionObject
}

// Joint is a node of the kinematic tree.
type Joint struct {
	Name string
	Type JointType
	Body *Body

	placement spatial.Transform
	parent    *Joint
	children  []*Joint
}

// NewJoint creates a detached joint.
func NewJoint(name string, typ JointType, placement spatial.Transform) *Joint {
	return &Joint{Name: name, Type: typ, placement: placement}
}

// PositionInParentFrame returns the joint placement relative to its parent.
func (j *Joint) PositionInParentFrame() spatial.Transform { return j.placement }

// SetPositionInParentFrame overwrites the joint placement relative to its parent.
func (j *Joint) SetPositionInParentFrame(t spatial.Transform) { j.placement = t }

// Parent returns the parent joint, nil for a root.
func (j *Joint) Parent() *Joint { return j.parent }

// Children returns the child joints in insertion order.
func (j *Joint) Children() []*Joint { return j.children }

// AddChild appends c under j.
func (j *Joint) AddChild(c *Joint) {
	c.parent = j
	j.children = append(j.children, c)
}

// WorldPosition composes placements from the root down to j.
func (j *Joint) WorldPosition() spatial.Transform {
	if j.parent == nil {
		return j.placement
	}
	return j.parent.WorldPosition().Compose(j.placement)
}

// Walk visits j and its descendants depth-first, parents before children.
func (j *Joint) Walk(fn func(*Joint)) {
	fn(j)
	for _, c := range j.children {
		c.Walk(fn)
	}
}
