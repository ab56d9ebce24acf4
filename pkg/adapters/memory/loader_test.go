package memory_test

import (
	"testing"

	"github.com/aretw0/manipd/pkg/adapters/memory"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/ports"
	"github.com/aretw0/manipd/pkg/ports/tests"
	"github.com/aretw0/manipd/pkg/spatial"
)

func TestMemoryLoader_Contract(t *testing.T) {
	loader := memory.NewLoader().
		AddModel("pkg", "arm", func(req ports.ModelRequest) (*kinematics.Fragment, error) {
			root := kinematics.NewJoint(req.Name+"/root_joint", kinematics.JointType(req.RootJointType), spatial.Identity())
			root.Body = &kinematics.Body{Name: req.Name + "/base_link"}
			return &kinematics.Fragment{Name: req.Name, Root: root}, nil
		}).
		AddEnvironment("pkg", "room", func() (*kinematics.Device, error) {
			d := kinematics.NewDevice("room")
			root := kinematics.NewJoint("root_joint", kinematics.JointAnchor, spatial.Identity())
			root.Body = &kinematics.Body{Name: "walls", Collision: []*kinematics.CollisionObject{
				{Name: "wall", Geometry: kinematics.Geometry{Kind: "box", Params: []float64{4, 0.1, 2}}, Local: spatial.Identity()},
			}}
			return d, d.SetRoot(root)
		})

	tests.ModelLoaderContractTest(t, loader, tests.LoaderFixture{
		Robot:       ports.ModelRequest{Name: "r", RootJointType: "planar", Package: "pkg", Model: "arm"},
		Environment: ports.EnvironmentRequest{Package: "pkg", Model: "room", Prefix: "env1_"},
		Missing:     ports.ModelRequest{Name: "r", RootJointType: "planar", Package: "pkg", Model: "ghost"},
	})
}
