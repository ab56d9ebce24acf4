package problem_test

import (
	"testing"

	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/problem"
	"github.com/aretw0/manipd/pkg/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblem_Obstacles(t *testing.T) {
	p := problem.New()
	table := &problem.Obstacle{Name: "env1_table", Placement: spatial.Identity(), Permanent: true}
	cup := &problem.Obstacle{Name: "cup", Placement: spatial.Identity()}

	require.NoError(t, p.AddObstacle(table))
	require.NoError(t, p.AddObstacle(cup))
	assert.ErrorIs(t, p.AddObstacle(&problem.Obstacle{Name: "cup"}), domain.ErrDuplicateName)

	got, err := p.Obstacle("cup")
	require.NoError(t, err)
	assert.Same(t, cup, got)
	_, err = p.Obstacle("plate")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.Len(t, p.Obstacles(), 2)
	assert.Equal(t, "env1_table", p.Obstacles()[0].Name)
}

func TestProblem_ResetDerived(t *testing.T) {
	p := problem.New()
	g := p.CreateGraph("graph")
	assert.Equal(t, uint64(0), g.Revision)

	p.ResetDerived()
	assert.Nil(t, p.Graph())
	assert.Equal(t, uint64(1), p.Revision())
	assert.Equal(t, uint64(1), p.CreateGraph("graph").Revision)
}

func TestProblem_Auxiliary(t *testing.T) {
	p := problem.New()
	require.NoError(t, p.AddAuxiliary("env1_contact", nil))
	assert.ErrorIs(t, p.AddAuxiliary("env1_contact", nil), domain.ErrDuplicateName)
	assert.Len(t, p.Auxiliary(), 1)

	aux, err := p.AuxiliaryNamed("env1_contact")
	require.NoError(t, err)
	assert.Equal(t, "env1_contact", aux.Name)
	_, err = p.AuxiliaryNamed("env2_contact")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
