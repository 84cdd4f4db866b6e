package convert

import (
	"math"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/sr-convert/pkg/formats"
	"github.com/Faultbox/sr-convert/pkg/scene"
)

const eps = 1e-9

func abs(v float64) float64 {
	return math.Abs(v)
}

func vecNear(a, b mgl64.Vec3) bool {
	for i := range a {
		if abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// identityScene declares the intermediate frame itself in meters, so the
// resolved transform is the identity.
func identityScene() *scene.Scene {
	return &scene.Scene{
		Root:        scene.NewNode("RootNode", scene.AttributeNone),
		Axis:        scene.Max3ds,
		ScaleFactor: 100,
		Source:      "test.gltf",
	}
}

func identityContext() *Context {
	transform, scale := ResolveTransform(scene.Max3ds, 100, ConventionNone)
	return NewContext(transform, scale, nil)
}

func translated(n *scene.Node, x, y, z float64) *scene.Node {
	n.Global = mgl64.Translate3D(x, y, z)
	return n
}

func triangle(a, b, c int, normal mgl64.Vec3) scene.Polygon {
	return scene.Polygon{Corners: []scene.Corner{
		{ControlPoint: a, Normal: normal, UV: mgl64.Vec2{0, 0}},
		{ControlPoint: b, Normal: normal, UV: mgl64.Vec2{1, 0}},
		{ControlPoint: c, Normal: normal, UV: mgl64.Vec2{0, 1}},
	}}
}

// gridMesh returns n control points along X with no polygons.
func gridMesh(n int) *scene.Mesh {
	m := &scene.Mesh{}
	for i := 0; i < n; i++ {
		m.ControlPoints = append(m.ControlPoints, mgl64.Vec3{float64(i), 0, 0})
	}
	return m
}

func testLibrary(t *testing.T) *formats.ShaderLibrary {
	t.Helper()
	lib, err := formats.ParseShaderLibrary(strings.NewReader(`<root><materials>
		<material><shader>ir_bbsimple1</shader><mtl_id></mtl_id><Diffuse_Map></Diffuse_Map></material>
		<material><shader>character_skin</shader><mtl_id></mtl_id><Normal_Map></Normal_Map></material>
	</materials></root>`))
	if err != nil {
		t.Fatalf("ParseShaderLibrary: %v", err)
	}
	return lib
}
