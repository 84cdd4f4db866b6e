package math

import "github.com/go-gl/mathgl/mgl64"

// EngineAxes maps the Z-up right-handed intermediate frame onto the engine's
// Y-up left-handed frame: (x, y, z) -> (-x, z, -y).
var EngineAxes = mgl64.Mat4{
	-1, 0, 0, 0,
	0, 0, -1, 0,
	0, 1, 0, 0,
	0, 0, 0, 1,
}

// ToEngine permutes a position, normal or delta into engine axes.
func ToEngine(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{clean(-v[0]), clean(v[2]), clean(-v[1])}
}

// ToEngineRotation expresses a rotation in engine axes.
// EngineAxes is orthogonal, so its inverse is its transpose.
func ToEngineRotation(q Quat) Quat {
	r := EngineAxes.Mul4(q.ToMat4()).Mul4(EngineAxes.Transpose())
	return QuatFromMat4(r)
}
