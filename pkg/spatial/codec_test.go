package spatial_test

import (
	"math"
	"testing"

	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-12

func TestDecode_ComponentOrder(t *testing.T) {
	tf, err := spatial.Decode([]float64{1, 2, 3, 0, 0, 0, 1})
	require.NoError(t, err)

	assert.Equal(t, spatial.Vec3{1, 2, 3}, tf.Translation)
	assert.Equal(t, spatial.IdentityQuaternion, tf.Rotation, "quaternion is read as x, y, z, w")
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := math.Sqrt(0.5)
	inputs := [][]float64{
		{0, 0, 0, 0, 0, 0, 1},
		{1.5, -2, 0.25, 0, 0, s, s},
		{-3, 4, 5, 0.5, 0.5, 0.5, 0.5},
		{1e-9, 1e9, -7, s, 0, 0, -s},
	}

	for _, in := range inputs {
		tf, err := spatial.Decode(in)
		require.NoError(t, err)

		out := spatial.Encode(tf)
		for i := range in {
			assert.InDelta(t, in[i], out[i], tol, "element %d of %v", i, in)
		}

		again, err := spatial.Decode(out[:])
		require.NoError(t, err)
		assert.True(t, again.ApproxEqual(tf, tol))
	}
}

func TestDecode_NormalizesQuaternion(t *testing.T) {
	tf, err := spatial.Decode([]float64{0, 0, 0, 0, 0, 2, 2})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, tf.Rotation.SquaredNorm(), tol)
	assert.InDelta(t, math.Sqrt(0.5), tf.Rotation.Z, tol)
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
	}{
		{"too short", []float64{0, 0, 0, 0, 0, 1}},
		{"too long", []float64{0, 0, 0, 0, 0, 0, 1, 0}},
		{"zero quaternion", []float64{1, 2, 3, 0, 0, 0, 0}},
		{"nan translation", []float64{math.NaN(), 0, 0, 0, 0, 0, 1}},
		{"inf rotation", []float64{0, 0, 0, math.Inf(1), 0, 0, 1}},
		{"overflowing norm", []float64{0, 0, 0, 1e200, 1e200, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := spatial.Decode(tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidTransform)
		})
	}
}

func TestTransform_Compose(t *testing.T) {
	s := math.Sqrt(0.5)
	a := spatial.MustDecode(1, 0, 0, 0, 0, s, s) // 90° about z
	b := spatial.MustDecode(1, 0, 0, 0, 0, 0, 1)

	c := a.Compose(b)
	assert.InDelta(t, 1.0, c.Translation[0], tol)
	assert.InDelta(t, 1.0, c.Translation[1], tol)

	assert.True(t, c.Compose(a).ApproxEqual(a.Compose(b.Compose(a)), tol), "associative")
	assert.True(t, a.Compose(spatial.Identity()).ApproxEqual(a, tol))
	assert.True(t, spatial.Identity().Compose(a).ApproxEqual(a, tol))
}

func TestTransform_ApproxEqualOppositeQuaternion(t *testing.T) {
	a := spatial.MustDecode(0, 0, 0, 0, 0, 0, 1)
	b := spatial.MustDecode(0, 0, 0, 0, 0, 0, -1)
	assert.True(t, a.ApproxEqual(b, tol))
}
