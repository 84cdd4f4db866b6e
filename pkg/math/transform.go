// Package math provides the coordinate helpers used by the converter on top of mgl64.
//
// Matrices follow the mgl64 layout: column-major, column vectors, so a transform
// applies to a point as M * p.
package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Basis returns a homogeneous matrix whose first three columns are x, y and z.
func Basis(x, y, z mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Mat3FromCols(x, y, z).Mat4()
}

// EulerXYZ builds a rotation from Euler angles in degrees.
// X is applied first, then Y, then Z.
func EulerXYZ(deg mgl64.Vec3) mgl64.Mat4 {
	rx := mgl64.HomogRotate3DX(mgl64.DegToRad(deg[0]))
	ry := mgl64.HomogRotate3DY(mgl64.DegToRad(deg[1]))
	rz := mgl64.HomogRotate3DZ(mgl64.DegToRad(deg[2]))
	return rz.Mul4(ry).Mul4(rx)
}

// TRS composes translation, rotation (Euler degrees) and scale as T * R * S.
func TRS(t, rDeg, s mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(t[0], t[1], t[2]).
		Mul4(EulerXYZ(rDeg)).
		Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

// UniformScale returns a homogeneous scale matrix with the same factor on every axis.
func UniformScale(s float64) mgl64.Mat4 {
	return mgl64.Scale3D(s, s, s)
}

// Conjugate expresses m in the frame reached through c: c * m * c^-1.
func Conjugate(c, m mgl64.Mat4) mgl64.Mat4 {
	return c.Mul4(m).Mul4(c.Inv())
}

// TransformPoint applies m to p, including translation.
func TransformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// TransformDirection applies the linear part of m to d.
func TransformDirection(m mgl64.Mat4, d mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// Translation returns the translation column of m.
func Translation(m mgl64.Mat4) mgl64.Vec3 {
	return m.Col(3).Vec3()
}

// ScaleOf returns the length of each basis column of m.
func ScaleOf(m mgl64.Mat4) mgl64.Vec3 {
	return mgl64.Vec3{
		m.Col(0).Vec3().Len(),
		m.Col(1).Vec3().Len(),
		m.Col(2).Vec3().Len(),
	}
}

// RemoveScale returns the rotation part of m: unit basis columns, no translation.
func RemoveScale(m mgl64.Mat4) mgl64.Mat4 {
	return Basis(
		Normalize(m.Col(0).Vec3()),
		Normalize(m.Col(1).Vec3()),
		Normalize(m.Col(2).Vec3()),
	)
}

// Decompose splits an affine matrix into translation, rotation and scale.
func Decompose(m mgl64.Mat4) (mgl64.Vec3, Quat, mgl64.Vec3) {
	return Translation(m), QuatFromMat4(RemoveScale(m)), ScaleOf(m)
}

// Normalize returns v with unit length. A zero vector is returned unchanged.
func Normalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l == 0 || math.IsNaN(l) {
		return v
	}
	return v.Mul(1 / l)
}
