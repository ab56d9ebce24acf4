package kinematics

import "github.com/aretw0/manipd/pkg/domain"

// Fragment is a detached model produced by a loader, waiting to be grafted.
// Frames reference joints of the fragment's own subtree.
type Fragment struct {
	Name      string
	Kind      ModelKind
	Root      *Joint
	Handles   []*Handle
	Grippers  []*Gripper
	Triangles []NamedTriangles
}

// Graft attaches f under parent and registers its frames and its model
// name. Every name is checked before anything is mutated, so a failed graft
// leaves d unchanged.
func (d *Device) Graft(parent *Joint, f *Fragment) error {
	if f.Root == nil {
		return domain.Errorf(domain.ErrInvalidArgument, "model %q has no root joint", f.Name)
	}
	if p, ok := d.joints[parent.Name]; !ok || p != parent {
		return domain.Errorf(domain.ErrNotFound, "joint %q is not part of device %q", parent.Name, d.Name)
	}
	if d.models.has(f.Name) {
		return domain.Errorf(domain.ErrDuplicateName, "model %q", f.Name)
	}
	if err := d.checkSubtree(f.Root); err != nil {
		return err
	}
	if err := checkFrames(f.Handles, d.handles, "handle", func(h *Handle) (string, *Joint) { return h.Name, h.Joint }); err != nil {
		return err
	}
	if err := checkFrames(f.Grippers, d.grippers, "gripper", func(g *Gripper) (string, *Joint) { return g.Name, g.Joint }); err != nil {
		return err
	}
	for _, g := range f.Grippers {
		for _, j := range g.DisabledCollisions {
			if j == nil {
				return domain.Errorf(domain.ErrInvalidArgument, "gripper %q has an unresolved collision joint", g.Name)
			}
		}
	}
	seen := make(map[string]bool)
	for _, t := range f.Triangles {
		if d.triangles.has(t.Name) || seen[t.Name] {
			return domain.Errorf(domain.ErrDuplicateName, "triangle list %q", t.Name)
		}
		seen[t.Name] = true
	}

	parent.AddChild(f.Root)
	d.indexSubtree(f.Root)
	for _, h := range f.Handles {
		d.handles.add(h.Name, h)
	}
	for _, g := range f.Grippers {
		d.grippers.add(g.Name, g)
	}
	for _, t := range f.Triangles {
		d.triangles.add(t.Name, t)
	}
	d.models.add(f.Name, &Model{Name: f.Name, Kind: f.Kind, Root: f.Root})
	return nil
}

func checkFrames[T any](frames []T, existing *index[T], what string, key func(T) (string, *Joint)) error {
	seen := make(map[string]bool)
	for _, fr := range frames {
		name, joint := key(fr)
		if existing.has(name) || seen[name] {
			return domain.Errorf(domain.ErrDuplicateName, "%s %q", what, name)
		}
		if joint == nil {
			return domain.Errorf(domain.ErrInvalidArgument, "%s %q is not attached to a joint", what, name)
		}
		seen[name] = true
	}
	return nil
}
