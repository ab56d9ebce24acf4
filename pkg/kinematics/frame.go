package kinematics

import "github.com/aretw0/manipd/pkg/spatial"

// Handle is a grasp frame attached to a joint. An axial handle is symmetric
// by rotation about its local x axis: any grasp rotated about that axis is
// equivalent.
type Handle struct {
	Name  string
	Joint *Joint
	Local spatial.Transform
	Axial bool
}

// NewHandle creates a plain handle.
func NewHandle(name string, joint *Joint, local spatial.Transform) *Handle {
	return &Handle{Name: name, Joint: joint, Local: local}
}

// NewAxialHandle creates a handle symmetric about its local x axis.
func NewAxialHandle(name string, joint *Joint, local spatial.Transform) *Handle {
	return &Handle{Name: name, Joint: joint, Local: local, Axial: true}
}

// WorldPosition returns the handle frame in the world.
func (h *Handle) WorldPosition() spatial.Transform {
	return h.Joint.WorldPosition().Compose(h.Local)
}

// Gripper is a tool frame attached to a joint. While the gripper holds an
// object, collisions between that object and the bodies of
// DisabledCollisions are not checked.
type Gripper struct {
	Name               string
	Joint              *Joint
	Local              spatial.Transform
	DisabledCollisions []*Joint
}

// NewGripper creates a gripper. disabled must not contain nil joints.
func NewGripper(name string, joint *Joint, local spatial.Transform, disabled []*Joint) *Gripper {
	return &Gripper{Name: name, Joint: joint, Local: local, DisabledCollisions: disabled}
}

// WorldPosition returns the gripper frame in the world.
func (g *Gripper) WorldPosition() spatial.Transform {
	return g.Joint.WorldPosition().Compose(g.Local)
}

// Triangle is one face of an auxiliary mesh.
type Triangle [3]spatial.Vec3

// TriangleList is auxiliary, non-colliding geometry such as contact surfaces.
type TriangleList []Triangle

// Transformed returns the list mapped through t.
func (tl TriangleList) Transformed(t spatial.Transform) TriangleList {
	out := make(TriangleList, len(tl))
	for i, tri := range tl {
		out[i] = Triangle{t.Apply(tri[0]), t.Apply(tri[1]), t.Apply(tri[2])}
	}
	return out
}

// NamedTriangles is a triangle list expressed in the frame of Joint.
// A nil Joint means the world frame.
type NamedTriangles struct {
	Name      string
	Joint     *Joint
	Triangles TriangleList
}

// World returns the triangles expressed in the world frame.
func (n NamedTriangles) World() TriangleList {
	if n.Joint == nil {
		return n.Triangles
	}
	return n.Triangles.Transformed(n.Joint.WorldPosition())
}
