package spatial

import (
	"math"

	"github.com/aretw0/manipd/pkg/domain"
)

// Size is the length of the remote transform representation.
const Size = 7

// Decode reads [x y z qx qy qz qw] into a Transform. The quaternion is stored
// xyzw, not wxyz. Non-unit quaternions are normalised; a quaternion whose
// squared norm is zero or not finite is rejected with domain.ErrInvalidTransform.
func Decode(v []float64) (Transform, error) {
	if len(v) != Size {
		return Transform{}, domain.Errorf(domain.ErrInvalidTransform, "expected %d values, got %d", Size, len(v))
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Transform{}, domain.Errorf(domain.ErrInvalidTransform, "element %d is not finite", i)
		}
	}

	q := Quaternion{X: v[3], Y: v[4], Z: v[5], W: v[6]}
	n2 := q.SquaredNorm()
	if !(n2 > 0) || math.IsInf(n2, 0) {
		return Transform{}, domain.Errorf(domain.ErrInvalidTransform, "quaternion squared norm %g is not positive and finite", n2)
	}
	if n := math.Sqrt(n2); n != 1 {
		q = Quaternion{X: q.X / n, Y: q.Y / n, Z: q.Z / n, W: q.W / n}
	}

	return Transform{
		Translation: Vec3{v[0], v[1], v[2]},
		Rotation:    q,
	}, nil
}

// Encode writes t as [x y z qx qy qz qw].
func Encode(t Transform) [Size]float64 {
	return [Size]float64{
		t.Translation[0], t.Translation[1], t.Translation[2],
		t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W,
	}
}

// MustDecode is Decode for literals known to be valid. It panics otherwise.
func MustDecode(v ...float64) Transform {
	t, err := Decode(v)
	if err != nil {
		panic(err)
	}
	return t
}
