package convert

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/sr-convert/pkg/formats"
	smath "github.com/Faultbox/sr-convert/pkg/math"
	"github.com/Faultbox/sr-convert/pkg/scene"
)

// BlendShapeNames maps authored target names onto the engine's morph names.
var BlendShapeNames = map[string]string{
	"body_gender_female": "body gender female",
	"body_gender_male":   "body gender male",
	"body_fat_plus":      "body fat +",
	"body_fat_minus":     "body fat -",
	"body_muscle":        "body muscle",
}

// BlendShapeName returns the engine name of a blend shape target.
func BlendShapeName(name string) string {
	if mapped, ok := BlendShapeNames[name]; ok {
		return mapped
	}
	return name
}

// ExtractBlendShapes computes the sparse position deltas of every blend shape
// target against the consolidated vertices. Normal deltas are left zero:
// authored target normals are not reliable.
func ExtractBlendShapes(cc *Context, node *scene.Node, g *Geometry) []formats.BlendShape {
	m := node.Mesh
	if m == nil {
		return nil
	}
	vt := cc.VertexTransform(node)

	var shapes []formats.BlendShape
	for _, bs := range m.BlendShapes {
		for _, ch := range bs.Channels {
			for _, target := range ch.Targets {
				shape := formats.BlendShape{
					Name:   BlendShapeName(target.Name),
					Deltas: make(map[int]formats.MorphDelta),
				}
				positions := make(map[int]mgl64.Vec3, len(target.ControlPoints))
				for _, v := range g.Vertices {
					if v.Original >= len(target.ControlPoints) {
						continue
					}
					p, ok := positions[v.Original]
					if !ok {
						p = TransformPosition(vt, target.ControlPoints[v.Original])
						positions[v.Original] = p
					}
					delta := smath.RoundVec3(p.Sub(v.Position), decimals)
					if delta == (mgl64.Vec3{}) {
						continue
					}
					shape.Deltas[v.Index] = formats.MorphDelta{Position: delta}
				}
				shapes = append(shapes, shape)
			}
		}
	}
	return shapes
}
