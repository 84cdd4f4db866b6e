package convert

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/Faultbox/sr-convert/pkg/formats"
	"github.com/Faultbox/sr-convert/pkg/scene"
)

// Consolidation errors.
var (
	ErrNotTriangulated = errors.New("mesh is not triangulated")
	ErrUnresolvedSplit = errors.New("no vertex matches the requested attributes")
	ErrNoGeometry      = errors.New("node has no mesh")
)

// Geometry is the consolidated vertex and face buffer of one mesh.
//
// Vertex i for i < ControlPoints is the first use of control point i; splits
// created for divergent normals or UVs follow.
type Geometry struct {
	Vertices      []formats.Vertex
	Faces         []formats.Face
	ControlPoints int

	splits map[int][]int
}

// Indices returns every vertex built from a control point, the claimed slot first.
func (g *Geometry) Indices(original int) []int {
	if original < 0 || original >= g.ControlPoints {
		return nil
	}
	return append([]int{original}, g.splits[original]...)
}

// Lookup finds the vertex holding exactly the given attributes for a control point.
func (g *Geometry) Lookup(original int, position, normal mgl64.Vec3, uv mgl64.Vec2) (int, error) {
	for _, idx := range g.Indices(original) {
		if g.matches(idx, position, normal, uv) {
			return idx, nil
		}
	}
	return -1, errors.Wrapf(ErrUnresolvedSplit, "control point %d", original)
}

func (g *Geometry) matches(idx int, position, normal mgl64.Vec3, uv mgl64.Vec2) bool {
	v := &g.Vertices[idx]
	return v.Position == position && v.Normal == normal && v.UV == uv
}

// resolve returns the vertex for a corner, claiming the control point slot on
// first use and splitting when the attributes diverge.
func (g *Geometry) resolve(original int, position, normal mgl64.Vec3, uv mgl64.Vec2) int {
	slot := &g.Vertices[original]
	if !slot.Used {
		slot.Position = position
		slot.Normal = normal
		slot.UV = uv
		slot.Used = true
		return original
	}
	if idx, err := g.Lookup(original, position, normal, uv); err == nil {
		return idx
	}

	idx := len(g.Vertices)
	g.Vertices = append(g.Vertices, formats.Vertex{
		Index:    idx,
		Original: original,
		Position: position,
		Normal:   normal,
		UV:       uv,
		Used:     true,
	})
	g.splits[original] = append(g.splits[original], idx)
	return idx
}

// Consolidate builds the vertex and face buffers of a mesh node in the
// intermediate frame. Every polygon must be a triangle.
func Consolidate(ctx context.Context, cc *Context, node *scene.Node, progress Progress) (*Geometry, error) {
	m := node.Mesh
	if m == nil {
		return nil, errors.Wrap(ErrNoGeometry, node.Name)
	}
	vt := cc.VertexTransform(node)

	g := &Geometry{
		Vertices:      make([]formats.Vertex, len(m.ControlPoints)),
		Faces:         make([]formats.Face, 0, len(m.Polygons)),
		ControlPoints: len(m.ControlPoints),
		splits:        make(map[int][]int),
	}
	// unreferenced control points keep their position with no normal or UV
	for i, p := range m.ControlPoints {
		g.Vertices[i] = formats.Vertex{Index: i, Original: i, Position: TransformPosition(vt, p)}
	}

	total := len(m.Polygons)
	for t, poly := range m.Polygons {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(poly.Corners) != 3 {
			return nil, errors.Wrapf(ErrNotTriangulated, "%s: polygon %d has %d corners", node.Name, t, len(poly.Corners))
		}

		face := formats.Face{Material: poly.Material}
		if face.Material < 0 {
			face.Material = 0
		}
		for c := 0; c < 3; c++ {
			cp := m.PolygonVertex(t, c)
			if cp < 0 {
				return nil, errors.Wrapf(ErrNotTriangulated, "%s: polygon %d corner %d has no control point", node.Name, t, c)
			}
			corner := poly.Corners[c]
			face.Indices[c] = g.resolve(cp,
				TransformPosition(vt, m.ControlPoints[cp]),
				TransformNormal(vt, corner.Normal),
				FlipUV(corner.UV))
		}
		g.Faces = append(g.Faces, face)
		progress.report(StageTriangles, t+1, total)
	}
	return g, nil
}
