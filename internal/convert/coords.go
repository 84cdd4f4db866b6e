package convert

import (
	"github.com/go-gl/mathgl/mgl64"

	smath "github.com/Faultbox/sr-convert/pkg/math"
	"github.com/Faultbox/sr-convert/pkg/scene"
)

// cmToMeters converts the centimeter based scale factor into meters.
const cmToMeters = 0.01

// decimals is the precision vertex attributes are rounded to before comparison.
const decimals = 5

// intermediateFrame is the Z-up right-handed target: right is +X, up is +Z, front is -Y.
var intermediateFrame = smath.Basis(
	mgl64.Vec3{1, 0, 0},
	mgl64.Vec3{0, 0, 1},
	mgl64.Vec3{0, -1, 0},
)

func axisVector(a scene.Axis, sign int) mgl64.Vec3 {
	var v mgl64.Vec3
	v[int(a)] = 1
	if sign < 0 {
		v = v.Mul(-1)
	}
	return v
}

// SourceBasis returns the right, up and front vectors of an axis declaration
// as the columns of a matrix.
func SourceBasis(axis scene.AxisSystem) mgl64.Mat4 {
	up := axisVector(axis.Up, axis.UpSign)
	front := axisVector(axis.FrontAxis(), axis.FrontSign)
	var right mgl64.Vec3
	if axis.Handedness == scene.RightHanded {
		right = up.Cross(front)
	} else {
		right = front.Cross(up)
	}
	return smath.Basis(right, up, front)
}

// ResolveTransform computes the source-to-intermediate transform of a scene.
// The result is transposed (row-vector layout); the returned scale is the
// uniform factor applied after the basis change.
func ResolveTransform(axis scene.AxisSystem, scaleFactor float64, conv Convention) (mgl64.Mat4, float64) {
	switch conv {
	case ConventionMax:
		axis = scene.Max3ds
	case ConventionMaya:
		axis = scene.MayaYUp
	}

	basis := intermediateFrame.Mul4(SourceBasis(axis).Transpose())

	s := scaleFactor * cmToMeters
	if scaleFactor == 1.0 {
		s = cmToMeters
	}

	m := basis.Mul4(smath.UniformScale(s))
	return m.Transpose(), s
}

// WorldTransform returns the bind pose of a node in the intermediate frame.
func (c *Context) WorldTransform(n *scene.Node) mgl64.Mat4 {
	return smath.Conjugate(c.Matrix(), n.Global)
}

// VertexTransform returns the matrix that takes a node's control points into
// the intermediate frame, including its geometric pivot offset.
func (c *Context) VertexTransform(n *scene.Node) mgl64.Mat4 {
	geometric := smath.TRS(n.GeometricTranslation, n.GeometricRotation, n.GeometricScaling)
	return c.Matrix().Mul4(geometric)
}

// TransformPosition applies a vertex transform and rounds the result.
func TransformPosition(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return smath.RoundVec3(smath.TransformPoint(m, p), decimals)
}

// TransformNormal applies the linear part of a vertex transform, renormalizes
// and rounds the result.
func TransformNormal(m mgl64.Mat4, n mgl64.Vec3) mgl64.Vec3 {
	return smath.RoundVec3(smath.Normalize(smath.TransformDirection(m, n)), decimals)
}

// FlipUV converts a source UV into the engine convention (v' = 1 - v).
func FlipUV(uv mgl64.Vec2) mgl64.Vec2 {
	return smath.RoundVec2(mgl64.Vec2{uv[0], 1 - uv[1]}, decimals)
}
