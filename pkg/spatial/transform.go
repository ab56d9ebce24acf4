// Package spatial holds the rigid-transform value used across manipd and the
// codec converting it to and from the flat 7-float remote representation.
package spatial

import "math"

// Vec3 is a point or direction in 3D space.
type Vec3 [3]float64

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Quaternion is a rotation stored as x, y, z, w.
type Quaternion struct {
	X, Y, Z, W float64
}

// IdentityQuaternion is the null rotation.
var IdentityQuaternion = Quaternion{W: 1}

// SquaredNorm returns x²+y²+z²+w².
func (q Quaternion) SquaredNorm() float64 {
	return q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W
}

// Mul returns the Hamilton product q*o, i.e. rotation o followed by q.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Rotate applies q to v. q must be unit.
func (q Quaternion) Rotate(v Vec3) Vec3 {
	// v' = v + 2w(u×v) + 2u×(u×v)
	u := Vec3{q.X, q.Y, q.Z}
	t := cross(u, v)
	t = Vec3{2 * t[0], 2 * t[1], 2 * t[2]}
	c := cross(u, t)
	return Vec3{
		v[0] + q.W*t[0] + c[0],
		v[1] + q.W*t[1] + c[1],
		v[2] + q.W*t[2] + c[2],
	}
}

func cross(a, b Vec3) Vec3 {
	return Vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Transform is a rigid transform: rotation followed by translation.
type Transform struct {
	Translation Vec3
	Rotation    Quaternion
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Rotation: IdentityQuaternion}
}

// Compose returns t∘o: o expressed in the frame that t maps to its parent.
// A joint's world placement composed with a local placement yields the
// local object's world placement.
func (t Transform) Compose(o Transform) Transform {
	return Transform{
		Translation: t.Rotation.Rotate(o.Translation).Add(t.Translation),
		Rotation:    t.Rotation.Mul(o.Rotation),
	}
}

// Apply maps a point from the local frame of t to its parent frame.
func (t Transform) Apply(v Vec3) Vec3 {
	return t.Rotation.Rotate(v).Add(t.Translation)
}

// ApproxEqual compares translations and rotations component-wise within tol.
// q and -q encode the same rotation and are treated as equal.
func (t Transform) ApproxEqual(o Transform, tol float64) bool {
	for i := range 3 {
		if math.Abs(t.Translation[i]-o.Translation[i]) > tol {
			return false
		}
	}
	return quatClose(t.Rotation, o.Rotation, tol) ||
		quatClose(t.Rotation, Quaternion{-o.Rotation.X, -o.Rotation.Y, -o.Rotation.Z, -o.Rotation.W}, tol)
}

func quatClose(a, b Quaternion, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Z-b.Z) <= tol && math.Abs(a.W-b.W) <= tol
}
