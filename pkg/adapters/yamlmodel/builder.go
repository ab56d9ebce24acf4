package yamlmodel

import (
	"fmt"
	"strconv"

	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/spatial"
)

// builder turns decoded files into a joint tree. joints maps a link name
// (as written in the file) to the joint carrying it.
type builder struct {
	prefix string
	joints map[string]*kinematics.Joint
}

func (b *builder) tree(st *StructureFile, rootType kinematics.JointType) (*kinematics.Joint, error) {
	links := make(map[string]LinkSpec, len(st.Links))
	for _, l := range st.Links {
		if l.Name == "" {
			return nil, domain.Errorf(domain.ErrInvalidArgument, "link without name")
		}
		if _, ok := links[l.Name]; ok {
			return nil, domain.Errorf(domain.ErrDuplicateName, "link %q", l.Name)
		}
		links[l.Name] = l
	}

	rootLink, err := findRoot(st, links)
	if err != nil {
		return nil, err
	}

	b.joints = make(map[string]*kinematics.Joint, len(links))
	root := kinematics.NewJoint(b.prefix+"root_joint", rootType, spatial.Identity())
	if root.Body, err = b.body(links[rootLink]); err != nil {
		return nil, err
	}
	b.joints[rootLink] = root

	// Joints may be listed in any order; attach them as their parent link appears.
	pending := st.Joints
	for len(pending) > 0 {
		var next []JointSpec
		for _, js := range pending {
			parent, ok := b.joints[js.Parent]
			if !ok {
				next = append(next, js)
				continue
			}
			j, err := b.joint(js, links)
			if err != nil {
				return nil, err
			}
			parent.AddChild(j)
		}
		if len(next) == len(pending) {
			return nil, domain.Errorf(domain.ErrNotFound, "joint %q: parent link %q is not connected to root %q", next[0].Name, next[0].Parent, rootLink)
		}
		pending = next
	}

	for name := range links {
		if _, ok := b.joints[name]; !ok {
			return nil, domain.Errorf(domain.ErrInvalidArgument, "link %q is not connected to root %q", name, rootLink)
		}
	}
	return root, nil
}

func findRoot(st *StructureFile, links map[string]LinkSpec) (string, error) {
	if st.Root != "" {
		if _, ok := links[st.Root]; !ok {
			return "", domain.Errorf(domain.ErrNotFound, "root link %q", st.Root)
		}
		return st.Root, nil
	}
	children := make(map[string]bool, len(st.Joints))
	for _, j := range st.Joints {
		children[j.Child] = true
	}
	var candidates []string
	for _, l := range st.Links {
		if !children[l.Name] {
			candidates = append(candidates, l.Name)
		}
	}
	if len(candidates) != 1 {
		return "", domain.Errorf(domain.ErrInvalidArgument, "expected exactly one root link, found %d", len(candidates))
	}
	return candidates[0], nil
}

func (b *builder) joint(js JointSpec, links map[string]LinkSpec) (*kinematics.Joint, error) {
	typ := kinematics.JointType(js.Type)
	if !kinematics.ValidJointType(typ) {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "joint %q: unknown type %q", js.Name, js.Type)
	}
	child, ok := links[js.Child]
	if !ok {
		return nil, domain.Errorf(domain.ErrNotFound, "joint %q: child link %q", js.Name, js.Child)
	}
	if _, placed := b.joints[js.Child]; placed {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "link %q has two parent joints", js.Child)
	}
	placement, err := origin(js.Origin)
	if err != nil {
		return nil, err
	}

	j := kinematics.NewJoint(b.prefix+js.Name, typ, placement)
	if j.Body, err = b.body(child); err != nil {
		return nil, err
	}
	b.joints[js.Child] = j
	return j, nil
}

func (b *builder) body(l LinkSpec) (*kinematics.Body, error) {
	body := &kinematics.Body{Name: b.prefix + l.Name}
	for i, c := range l.Collision {
		local, err := origin(c.Origin)
		if err != nil {
			return nil, err
		}
		if err := checkGeometry(c.Geometry); err != nil {
			return nil, domain.Errorf(domain.ErrInvalidArgument, "link %q collision %d: %v", l.Name, i, err)
		}
		name := c.Name
		if name == "" {
			name = l.Name
			if len(l.Collision) > 1 {
				name = l.Name + "_" + strconv.Itoa(i)
			}
		}
		body.Collision = append(body.Collision, &kinematics.CollisionObject{
			Name:     b.prefix + name,
			Geometry: kinematics.Geometry{Kind: c.Geometry.Type, Params: c.Geometry.Params, Source: c.Geometry.Source},
			Local:    local,
		})
	}
	return body, nil
}

func (b *builder) frames(sem *SemanticFile, f *kinematics.Fragment) error {
	for _, h := range sem.Handles {
		j, ok := b.joints[h.Link]
		if !ok {
			return domain.Errorf(domain.ErrNotFound, "handle %q: link %q", h.Name, h.Link)
		}
		local, err := origin(h.Origin)
		if err != nil {
			return err
		}
		if h.Axial {
			f.Handles = append(f.Handles, kinematics.NewAxialHandle(b.prefix+h.Name, j, local))
		} else {
			f.Handles = append(f.Handles, kinematics.NewHandle(b.prefix+h.Name, j, local))
		}
	}

	for _, g := range sem.Grippers {
		j, ok := b.joints[g.Link]
		if !ok {
			return domain.Errorf(domain.ErrNotFound, "gripper %q: link %q", g.Name, g.Link)
		}
		local, err := origin(g.Origin)
		if err != nil {
			return err
		}
		disabled := make([]*kinematics.Joint, 0, len(g.DisableCollisions))
		for _, link := range g.DisableCollisions {
			dj, ok := b.joints[link]
			if !ok {
				return domain.Errorf(domain.ErrNotFound, "gripper %q: collision link %q", g.Name, link)
			}
			disabled = append(disabled, dj)
		}
		f.Grippers = append(f.Grippers, kinematics.NewGripper(b.prefix+g.Name, j, local, disabled))
	}

	for _, c := range sem.Contacts {
		j, ok := b.joints[c.Link]
		if !ok {
			return domain.Errorf(domain.ErrNotFound, "contact %q: link %q", c.Name, c.Link)
		}
		tl := make(kinematics.TriangleList, len(c.Triangles))
		for i, tri := range c.Triangles {
			tl[i] = kinematics.Triangle{tri[0], tri[1], tri[2]}
		}
		f.Triangles = append(f.Triangles, kinematics.NamedTriangles{Name: b.prefix + c.Name, Joint: j, Triangles: tl})
	}
	return nil
}

func origin(v []float64) (spatial.Transform, error) {
	if len(v) == 0 {
		return spatial.Identity(), nil
	}
	return spatial.Decode(v)
}

var geometryParams = map[string]int{
	"box":      3,
	"sphere":   1,
	"cylinder": 2,
	"capsule":  2,
	"mesh":     0,
}

func checkGeometry(g GeometrySpec) error {
	n, ok := geometryParams[g.Type]
	if !ok {
		return fmt.Errorf("unknown geometry %q", g.Type)
	}
	if len(g.Params) != n {
		return fmt.Errorf("geometry %q expects %d params, got %d", g.Type, n, len(g.Params))
	}
	if g.Type == "mesh" && g.Source == "" {
		return fmt.Errorf("mesh geometry without source")
	}
	return nil
}
