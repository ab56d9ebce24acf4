package assembler_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/manipd/internal/testutils"
	"github.com/aretw0/manipd/pkg/adapters/memory"
	"github.com/aretw0/manipd/pkg/adapters/yamlmodel"
	"github.com/aretw0/manipd/pkg/assembler"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/ports"
	"github.com/aretw0/manipd/pkg/problem"
	"github.com/aretw0/manipd/pkg/session"
	"github.com/aretw0/manipd/pkg/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identity = []float64{0, 0, 0, 0, 0, 0, 1}

func armRequest(name string) ports.ModelRequest {
	return ports.ModelRequest{Name: name, RootJointType: "freeflyer", Package: "fixtures", Model: "arm"}
}

func boxRequest(name string) ports.ModelRequest {
	return ports.ModelRequest{Name: name, RootJointType: "freeflyer", Package: "fixtures", Model: "box"}
}

func setup(t *testing.T) (*assembler.Assembler, *problem.Problem) {
	t.Helper()
	return assembler.New(yamlmodel.NewLoader(testutils.SetupModelRoot(t))), problem.New()
}

func TestAssembler_InsertCreatesAnchoredRoot(t *testing.T) {
	a, p := setup(t)
	assert.Nil(t, p.Robot())

	require.NoError(t, a.InsertRobotModel(context.Background(), p, armRequest("ur")))

	d := p.Robot()
	require.NotNil(t, d)
	assert.Equal(t, assembler.DeviceName, d.Name)
	assert.Equal(t, assembler.RootJointName, d.Root().Name)
	assert.Equal(t, kinematics.JointAnchor, d.Root().Type)
	assert.True(t, d.Root().PositionInParentFrame().ApproxEqual(spatial.Identity(), 0))

	m, err := d.Model("ur")
	require.NoError(t, err)
	assert.Equal(t, kinematics.KindRobot, m.Kind)
	assert.Same(t, d.Root(), m.Root.Parent())
}

func TestAssembler_InsertGraftsAdditionalModels(t *testing.T) {
	a, p := setup(t)
	ctx := context.Background()

	require.NoError(t, a.InsertRobotModel(ctx, p, armRequest("ur")))
	root := p.Robot().Root()
	require.NoError(t, a.InsertObjectModel(ctx, p, boxRequest("box")))
	require.NoError(t, a.InsertHumanoidModel(ctx, p, armRequest("romeo")))

	assert.Same(t, root, p.Robot().Root(), "insertions graft, they do not replace the tree")
	assert.Len(t, root.Children(), 3)

	var kinds []kinematics.ModelKind
	for _, m := range p.Robot().Models() {
		kinds = append(kinds, m.Kind)
	}
	assert.Equal(t, []kinematics.ModelKind{kinematics.KindRobot, kinematics.KindObject, kinematics.KindHumanoid}, kinds)

	_, err := p.Robot().Handle("box/handle")
	assert.NoError(t, err, "frames declared by the model are registered")
}

func TestAssembler_InsertFailureLeavesTreeUnchanged(t *testing.T) {
	a, p := setup(t)
	ctx := context.Background()
	require.NoError(t, a.InsertRobotModel(ctx, p, armRequest("ur")))
	before := len(p.Robot().Joints())
	revision := p.Revision()

	t.Run("LoaderError", func(t *testing.T) {
		req := armRequest("ghost")
		req.Model = "ghost"
		err := a.InsertRobotModel(ctx, p, req)
		require.ErrorIs(t, err, domain.ErrModelLoad)
		assert.Equal(t, "ModelLoadError", domain.KindOf(err))
		assert.Contains(t, err.Error(), "ghost", "loader message is passed through")
	})

	t.Run("DuplicateModelName", func(t *testing.T) {
		err := a.InsertRobotModel(ctx, p, armRequest("ur"))
		require.ErrorIs(t, err, domain.ErrModelLoad)
		assert.ErrorIs(t, err, domain.ErrDuplicateName)
	})

	assert.Len(t, p.Robot().Joints(), before)
	assert.Len(t, p.Robot().Models(), 1)
	assert.Equal(t, revision, p.Revision(), "derived state kept on failure")
}

func TestAssembler_InsertFailureOnEmptyProblem(t *testing.T) {
	a := assembler.New(memory.NewLoader())
	p := problem.New()

	err := a.InsertObjectModel(context.Background(), p, boxRequest("box"))
	require.ErrorIs(t, err, domain.ErrModelLoad)

	assert.Nil(t, p.Robot(), "tree stays absent")

	err = a.AddHandle(p, "box/base", "h1", identity)
	assert.ErrorIs(t, err, domain.ErrNoRobot)
	_, err = a.GetRootJointPosition(p, "box")
	assert.ErrorIs(t, err, domain.ErrNoRobot)
}

func TestAssembler_InsertResetsDerivedState(t *testing.T) {
	a, p := setup(t)
	ctx := context.Background()
	require.NoError(t, a.InsertRobotModel(ctx, p, armRequest("ur")))

	p.CreateGraph("graph")
	require.NotNil(t, p.Graph())

	require.NoError(t, a.InsertObjectModel(ctx, p, boxRequest("box")))
	assert.Nil(t, p.Graph())
}

func TestAssembler_RequiresRobot(t *testing.T) {
	a, p := setup(t)

	tests := []struct {
		name string
		call func() error
	}{
		{"GetRootJointPosition", func() error { _, err := a.GetRootJointPosition(p, "ur"); return err }},
		{"SetRootJointPosition", func() error { return a.SetRootJointPosition(p, "ur", identity) }},
		{"AddHandle", func() error { return a.AddHandle(p, "ur/wrist", "h1", identity) }},
		{"AddAxialHandle", func() error { return a.AddAxialHandle(p, "ur/wrist", "h1", identity) }},
		{"AddGripper", func() error { return a.AddGripper(p, "ur/wrist", "g1", identity, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			assert.ErrorIs(t, err, domain.ErrNoRobot)
			assert.Equal(t, "NoRobot", domain.KindOf(err))
		})
	}
}

func TestAssembler_RootJointPosition(t *testing.T) {
	a, p := setup(t)
	require.NoError(t, a.InsertRobotModel(context.Background(), p, armRequest("ur")))
	require.NoError(t, a.InsertRobotModel(context.Background(), p, armRequest("ur5")))

	pos, err := a.GetRootJointPosition(p, "ur")
	require.NoError(t, err)
	assert.True(t, pos.ApproxEqual(spatial.Identity(), 0))

	require.NoError(t, a.SetRootJointPosition(p, "ur5", []float64{1, 2, 3, 0, 0, 0, 2}))

	pos, err = a.GetRootJointPosition(p, "ur5")
	require.NoError(t, err)
	assert.True(t, pos.ApproxEqual(spatial.MustDecode(1, 2, 3, 0, 0, 0, 1), 1e-12), "quaternion normalized")

	pos, err = a.GetRootJointPosition(p, "ur")
	require.NoError(t, err)
	assert.True(t, pos.ApproxEqual(spatial.Identity(), 0), "exact name lookup, no prefix match")

	// World placements of descendants follow the root joint.
	wrist, err := p.Robot().JointByBodyName("ur5/wrist")
	require.NoError(t, err)
	assert.True(t, wrist.WorldPosition().ApproxEqual(spatial.MustDecode(1, 2, 3.7, 0, 0, 0, 1), 1e-12))
}

func TestAssembler_RootJointPositionNotFound(t *testing.T) {
	a, p := setup(t)
	require.NoError(t, a.InsertRobotModel(context.Background(), p, armRequest("ur5")))

	for _, name := range []string{"ur", "ur5/root_joint", "nothing", ""} {
		_, err := a.GetRootJointPosition(p, name)
		assert.ErrorIs(t, err, domain.ErrNotFound, name)
		assert.ErrorIs(t, a.SetRootJointPosition(p, name, identity), domain.ErrNotFound, name)
	}

	err := a.SetRootJointPosition(p, "ur5", []float64{0, 0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, domain.ErrInvalidTransform)
}

func TestAssembler_AddHandle(t *testing.T) {
	a, p := setup(t)
	require.NoError(t, a.InsertRobotModel(context.Background(), p, armRequest("ur")))

	require.NoError(t, a.AddHandle(p, "ur/wrist", "h1", []float64{0, 0, 0.1, 0, 0, 0, 1}))
	err := a.AddHandle(p, "ur/upper_arm", "h1", identity)
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	assert.ErrorIs(t, a.AddAxialHandle(p, "ur/wrist", "h1", identity), domain.ErrDuplicateName)

	require.NoError(t, a.AddAxialHandle(p, "ur/upper_arm", "h2", identity))

	h1, err := p.Robot().Handle("h1")
	require.NoError(t, err)
	assert.False(t, h1.Axial)
	assert.Equal(t, "ur/elbow", h1.Joint.Name)
	assert.True(t, h1.WorldPosition().ApproxEqual(spatial.MustDecode(0, 0, 0.8, 0, 0, 0, 1), 1e-12))

	h2, err := p.Robot().Handle("h2")
	require.NoError(t, err)
	assert.True(t, h2.Axial)
}

func TestAssembler_AddFrameErrors(t *testing.T) {
	a, p := setup(t)
	require.NoError(t, a.InsertRobotModel(context.Background(), p, armRequest("ur")))

	err := a.AddHandle(p, "ur/missing", "h1", identity)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = a.AddHandle(p, "ur/wrist", "h1", []float64{0, 0, 0})
	assert.ErrorIs(t, err, domain.ErrInvalidTransform)

	err = a.AddHandle(p, "ur/wrist", "", identity)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	assert.Empty(t, p.Robot().Handles())
}

func TestAssembler_AddGripper(t *testing.T) {
	a, p := setup(t)
	require.NoError(t, a.InsertRobotModel(context.Background(), p, armRequest("ur")))

	require.NoError(t, a.AddGripper(p, "ur/wrist", "g1", identity, []string{"ur/wrist", "ur/upper_arm"}))

	g, err := p.Robot().Gripper("g1")
	require.NoError(t, err)
	require.Len(t, g.DisabledCollisions, 2)
	assert.Equal(t, "ur/elbow", g.DisabledCollisions[0].Name)
	assert.Equal(t, "ur/shoulder", g.DisabledCollisions[1].Name)

	assert.ErrorIs(t, a.AddGripper(p, "ur/wrist", "g1", identity, nil), domain.ErrDuplicateName)
	assert.ErrorIs(t, a.AddGripper(p, "ur/wrist", "ur/hand", identity, nil), domain.ErrDuplicateName, "clashes with a gripper from the model")
}

func TestAssembler_AddGripperUnresolvedCollisionBody(t *testing.T) {
	a, p := setup(t)
	require.NoError(t, a.InsertRobotModel(context.Background(), p, armRequest("ur")))

	err := a.AddGripper(p, "ur/wrist", "g1", identity, []string{"ur/wrist", "ghost", "phantom"})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), `"ghost"`, "names the first unresolved entry")
	assert.NotContains(t, err.Error(), "phantom")

	_, err = p.Robot().Gripper("g1")
	assert.ErrorIs(t, err, domain.ErrNotFound, "nothing attached")
}

func TestAssembler_ConcurrentRootJointAccess(t *testing.T) {
	a, p := setup(t)
	ctx := context.Background()
	require.NoError(t, a.InsertRobotModel(ctx, p, armRequest("ur")))

	reg := problem.NewRegistry()
	reg.Create(problem.DefaultKey)
	require.NoError(t, reg.ReplaceSelected(p))
	mgr := session.NewManager(reg)

	positions := [][]float64{
		{1, 1, 1, 0, 0, 0, 1},
		{-2, -2, -2, 0, 0, 0.7071067811865476, 0.7071067811865476},
	}
	valid := []spatial.Transform{spatial.MustDecode(positions[0]...), spatial.MustDecode(positions[1]...), spatial.Identity()}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = mgr.MutateActive(ctx, "set_root_joint_position", func(_ context.Context, p *problem.Problem) error {
					return a.SetRootJointPosition(p, "ur", positions[(w+i)%2])
				})
			}
		}(w)
	}

	torn := make(chan spatial.Transform, 1)
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = mgr.ReadActive(ctx, "get_root_joint_position", func(_ context.Context, p *problem.Problem) error {
					pos, err := a.GetRootJointPosition(p, "ur")
					if err != nil {
						return err
					}
					for _, v := range valid {
						if pos.ApproxEqual(v, 1e-12) {
							return nil
						}
					}
					select {
					case torn <- pos:
					default:
					}
					return errors.New("torn transform")
				})
			}
		}()
	}
	wg.Wait()

	select {
	case pos := <-torn:
		t.Fatalf("observed torn transform %v", spatial.Encode(pos))
	default:
	}
}
