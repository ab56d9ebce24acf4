package assembler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/manipd/internal/testutils"
	"github.com/aretw0/manipd/pkg/adapters/memory"
	"github.com/aretw0/manipd/pkg/adapters/yamlmodel"
	"github.com/aretw0/manipd/pkg/assembler"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/kinematics"
	"github.com/aretw0/manipd/pkg/ports"
	"github.com/aretw0/manipd/pkg/problem"
	"github.com/aretw0/manipd/pkg/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kitchen(prefix string) ports.EnvironmentRequest {
	return ports.EnvironmentRequest{Package: "fixtures", Model: "kitchen", Prefix: prefix}
}

func TestLoadEnvironmentModel(t *testing.T) {
	a, p := setup(t)

	require.NoError(t, a.LoadEnvironmentModel(context.Background(), p, kitchen("env1_")))

	obs := p.Obstacles()
	require.Len(t, obs, 2)

	table, err := p.Obstacle("env1_table")
	require.NoError(t, err)
	assert.Same(t, obs[0], table)
	assert.True(t, table.Placement.ApproxEqual(spatial.MustDecode(2, 0, 0.75, 0, 0, 0, 1), 1e-12), "world placement baked in")
	assert.True(t, table.Collision)
	assert.True(t, table.Distance)
	assert.True(t, table.Permanent)
	assert.Equal(t, "box", table.Geometry.Kind)

	shelf, err := p.Obstacle("env1_shelf")
	require.NoError(t, err)
	assert.True(t, shelf.Placement.ApproxEqual(spatial.MustDecode(2, 0, 1, 0, 0, 0, 1), 1e-12))

	aux := p.Auxiliary()
	require.Len(t, aux, 1)
	assert.Equal(t, "env1_table_top", aux[0].Name)
	assert.Nil(t, aux[0].Joint, "auxiliary geometry is detached")
	assert.InDelta(t, 1.5, aux[0].Triangles[0][0][0], 1e-12, "triangles expressed in the world frame")

	assert.Nil(t, p.Robot(), "environment does not touch the robot")
}

func TestLoadEnvironmentModel_TwoPrefixes(t *testing.T) {
	a, p := setup(t)
	ctx := context.Background()

	require.NoError(t, a.LoadEnvironmentModel(ctx, p, kitchen("env1_")))
	require.NoError(t, a.LoadEnvironmentModel(ctx, p, kitchen("env2_")))

	var names []string
	for _, o := range p.Obstacles() {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"env1_table", "env1_shelf", "env2_table", "env2_shelf"}, names)

	err := a.LoadEnvironmentModel(ctx, p, kitchen("env1_"))
	require.ErrorIs(t, err, domain.ErrEnvironmentLoad)
	assert.Equal(t, "EnvironmentLoadError", domain.KindOf(err))
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
}

func TestLoadEnvironmentModel_LoaderFailure(t *testing.T) {
	a, p := setup(t)

	err := a.LoadEnvironmentModel(context.Background(), p, ports.EnvironmentRequest{Package: "fixtures", Model: "garage", Prefix: "g_"})
	require.ErrorIs(t, err, domain.ErrEnvironmentLoad)
	assert.Contains(t, err.Error(), "garage")
	assert.Empty(t, p.Obstacles())
}

func TestLoadEnvironmentModel_PartialEffect(t *testing.T) {
	loader := memory.NewLoader().AddEnvironment("pkg", "room", func() (*kinematics.Device, error) {
		d := kinematics.NewDevice("room")
		root := kinematics.NewJoint("root_joint", kinematics.JointAnchor, spatial.Identity())
		root.Body = &kinematics.Body{Name: "walls", Collision: []*kinematics.CollisionObject{
			{Name: "north", Geometry: kinematics.Geometry{Kind: "box", Params: []float64{4, 0.1, 2}}, Local: spatial.Identity()},
			{Name: "door", Geometry: kinematics.Geometry{Kind: "box", Params: []float64{1, 0.1, 2}}, Local: spatial.Identity()},
		}}
		return d, d.SetRoot(root)
	})
	a := assembler.New(loader)
	p := problem.New()
	require.NoError(t, p.AddObstacle(&problem.Obstacle{Name: "r_door"}))

	err := a.LoadEnvironmentModel(context.Background(), p, ports.EnvironmentRequest{Package: "pkg", Model: "room", Prefix: "r_"})
	require.ErrorIs(t, err, domain.ErrEnvironmentLoad)

	_, err = p.Obstacle("r_north")
	assert.NoError(t, err, "obstacles injected before the failure stay")
	assert.Len(t, p.Obstacles(), 2)
}

func TestLoadEnvironmentModel_Canceled(t *testing.T) {
	a := assembler.New(yamlmodel.NewLoader(testutils.SetupModelRoot(t)))
	p := problem.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := a.LoadEnvironmentModel(ctx, p, kitchen("env1_"))
	require.ErrorIs(t, err, domain.ErrEnvironmentLoad)
	assert.True(t, errors.Is(err, context.Canceled))
}
