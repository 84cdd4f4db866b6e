package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Quat represents a rotation quaternion.
// Components are stored as X, Y, Z, W where W is the scalar part, which is also
// the order the intermediate formats write them in.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{W: 1}
}

// QuatFromMat4 extracts the rotation of a scale-free matrix.
func QuatFromMat4(m mgl64.Mat4) Quat {
	q := mgl64.Mat4ToQuat(m)
	n := Quat{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W}.Normalize()
	return Quat{X: clean(n.X), Y: clean(n.Y), Z: clean(n.Z), W: clean(n.W)}
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := math.Sqrt(q.Dot(q))
	if length < 1e-12 {
		return QuatIdentity()
	}
	inv := 1 / length
	return Quat{X: q.X * inv, Y: q.Y * inv, Z: q.Z * inv, W: q.W * inv}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float64 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// ToMat4 converts the quaternion to a rotation matrix.
func (q Quat) ToMat4() mgl64.Mat4 {
	return mgl64.Quat{W: q.W, V: mgl64.Vec3{q.X, q.Y, q.Z}}.Normalize().Mat4()
}

// Rotate applies the rotation to v.
func (q Quat) Rotate(v mgl64.Vec3) mgl64.Vec3 {
	return TransformDirection(q.ToMat4(), v)
}
