package kinematics

import (
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/spatial"
)

// ModelKind tells how a model fragment was loaded.
type ModelKind string

const (
	KindRobot       ModelKind = "robot"
	KindHumanoid    ModelKind = "humanoid"
	KindObject      ModelKind = "object"
	KindEnvironment ModelKind = "environment"
)

// Model records a fragment grafted onto a device under a caller-chosen name.
type Model struct {
	Name string
	Kind ModelKind
	Root *Joint
}

// PlacedObject is a collision object with its placement baked into the world frame.
type PlacedObject struct {
	Name     string
	Geometry Geometry
	World    spatial.Transform
	Joint    *Joint
}

// Device is a kinematic tree plus the frames attached to it.
type Device struct {
	Name string

	root      *Joint
	joints    map[string]*Joint
	bodies    map[string]*Joint
	handles   *index[*Handle]
	grippers  *index[*Gripper]
	triangles *index[NamedTriangles]
	models    *index[*Model]
}

// NewDevice creates an empty device without root joint.
func NewDevice(name string) *Device {
	return &Device{
		Name:      name,
		joints:    make(map[string]*Joint),
		bodies:    make(map[string]*Joint),
		handles:   newIndex[*Handle](),
		grippers:  newIndex[*Gripper](),
		triangles: newIndex[NamedTriangles](),
		models:    newIndex[*Model](),
	}
}

// Root returns the root joint, nil while the device is empty.
func (d *Device) Root() *Joint { return d.root }

// SetRoot installs root and indexes its subtree. It fails if the device
// already has a root or the subtree contains duplicate names.
func (d *Device) SetRoot(root *Joint) error {
	if d.root != nil {
		return domain.Errorf(domain.ErrDuplicateName, "device %q already has root joint %q", d.Name, d.root.Name)
	}
	if err := d.checkSubtree(root); err != nil {
		return err
	}
	d.root = root
	d.indexSubtree(root)
	return nil
}

// JointByBodyName returns the joint carrying the body named name.
func (d *Device) JointByBodyName(name string) (*Joint, error) {
	j, ok := d.bodies[name]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "no joint carries body %q", name)
	}
	return j, nil
}

// Joints returns every joint depth-first from the root.
func (d *Device) Joints() []*Joint {
	if d.root == nil {
		return nil
	}
	var out []*Joint
	d.root.Walk(func(j *Joint) { out = append(out, j) })
	return out
}

// AddHandle registers h under its name.
func (d *Device) AddHandle(h *Handle) error {
	if !d.handles.add(h.Name, h) {
		return domain.Errorf(domain.ErrDuplicateName, "handle %q", h.Name)
	}
	return nil
}

// Handle returns the handle named name.
func (d *Device) Handle(name string) (*Handle, error) {
	h, ok := d.handles.get(name)
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "handle %q", name)
	}
	return h, nil
}

// Handles returns the handles in insertion order.
func (d *Device) Handles() []*Handle { return d.handles.values() }

// AddGripper registers g under its name.
func (d *Device) AddGripper(g *Gripper) error {
	if !d.grippers.add(g.Name, g) {
		return domain.Errorf(domain.ErrDuplicateName, "gripper %q", g.Name)
	}
	return nil
}

// Gripper returns the gripper named name.
func (d *Device) Gripper(name string) (*Gripper, error) {
	g, ok := d.grippers.get(name)
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "gripper %q", name)
	}
	return g, nil
}

// Grippers returns the grippers in insertion order.
func (d *Device) Grippers() []*Gripper { return d.grippers.values() }

// AddTriangles registers an auxiliary triangle list.
func (d *Device) AddTriangles(t NamedTriangles) error {
	if !d.triangles.add(t.Name, t) {
		return domain.Errorf(domain.ErrDuplicateName, "triangle list %q", t.Name)
	}
	return nil
}

// TriangleList returns the triangle list registered under name.
func (d *Device) TriangleList(name string) (NamedTriangles, error) {
	t, ok := d.triangles.get(name)
	if !ok {
		return NamedTriangles{}, domain.Errorf(domain.ErrNotFound, "contact %q", name)
	}
	return t, nil
}

// Triangles returns the triangle lists in insertion order.
func (d *Device) Triangles() []NamedTriangles { return d.triangles.values() }

// Model returns the fragment grafted under name.
func (d *Device) Model(name string) (*Model, error) {
	m, ok := d.models.get(name)
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "model %q", name)
	}
	return m, nil
}

// Models returns grafted fragments in insertion order.
func (d *Device) Models() []*Model { return d.models.values() }

// CollisionObjects returns every collision object with its world placement,
// joints visited depth-first and objects in body order.
func (d *Device) CollisionObjects() []PlacedObject {
	var out []PlacedObject
	for _, j := range d.Joints() {
		if j.Body == nil {
			continue
		}
		world := j.WorldPosition()
		for _, o := range j.Body.Collision {
			out = append(out, PlacedObject{
				Name:     o.Name,
				Geometry: o.Geometry,
				World:    world.Compose(o.Local),
				Joint:    j,
			})
		}
	}
	return out
}

func (d *Device) checkSubtree(root *Joint) error {
	seenJ := make(map[string]bool)
	seenB := make(map[string]bool)
	var err error
	root.Walk(func(j *Joint) {
		if err != nil {
			return
		}
		if _, ok := d.joints[j.Name]; ok || seenJ[j.Name] {
			err = domain.Errorf(domain.ErrDuplicateName, "joint %q", j.Name)
			return
		}
		seenJ[j.Name] = true
		if j.Body == nil {
			return
		}
		if _, ok := d.bodies[j.Body.Name]; ok || seenB[j.Body.Name] {
			err = domain.Errorf(domain.ErrDuplicateName, "body %q", j.Body.Name)
			return
		}
		seenB[j.Body.Name] = true
	})
	return err
}

func (d *Device) indexSubtree(root *Joint) {
	root.Walk(func(j *Joint) {
		d.joints[j.Name] = j
		if j.Body != nil {
			d.bodies[j.Body.Name] = j
		}
	})
}

// index is a name-keyed map remembering insertion order.
type index[T any] struct {
	items map[string]T
	order []string
}

func newIndex[T any]() *index[T] {
	return &index[T]{items: make(map[string]T)}
}

func (x *index[T]) add(name string, v T) bool {
	if _, ok := x.items[name]; ok {
		return false
	}
	x.items[name] = v
	x.order = append(x.order, name)
	return true
}

func (x *index[T]) has(name string) bool {
	_, ok := x.items[name]
	return ok
}

func (x *index[T]) get(name string) (T, bool) {
	v, ok := x.items[name]
	return v, ok
}

func (x *index[T]) values() []T {
	out := make([]T, 0, len(x.order))
	for _, k := range x.order {
		out = append(out, x.items[k])
	}
	return out
}
