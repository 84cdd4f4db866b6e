package scene

import "github.com/go-gl/mathgl/mgl64"

// Mesh is the geometry attached to a mesh node.
// Control points are in scene space.
type Mesh struct {
	ControlPoints []mgl64.Vec3
	Polygons      []Polygon
	Skins         []Skin
	BlendShapes   []BlendShape
}

// Polygon is one authored face.
type Polygon struct {
	Corners []Corner
	// Material indexes the owning node's material list.
	Material int
}

// Corner carries the per-corner attributes of a polygon.
type Corner struct {
	ControlPoint int
	Normal       mgl64.Vec3
	UV           mgl64.Vec2
}

// Skin is a skin deformer.
type Skin struct {
	Clusters []Cluster
}

// Cluster binds control points to one link node.
type Cluster struct {
	Link    *Node
	Indices []int
	Weights []float64
}

// BlendShape is a blend shape deformer.
type BlendShape struct {
	Channels []BlendShapeChannel
}

// BlendShapeChannel groups the target shapes of one channel.
type BlendShapeChannel struct {
	Name    string
	Targets []Shape
}

// Shape is a blend shape target: a full set of control points.
type Shape struct {
	Name          string
	ControlPoints []mgl64.Vec3
	Normals       []mgl64.Vec3
}

// Material is an authored material with its texture channels.
type Material struct {
	Name string
	// Textures maps a channel name (DiffuseColor, NormalMap, ...) to a file path.
	Textures map[string]string
}

// PolygonVertexCount returns the number of polygon corners in the mesh.
func (m *Mesh) PolygonVertexCount() int {
	n := 0
	for _, p := range m.Polygons {
		n += len(p.Corners)
	}
	return n
}

// PolygonVertex returns the control point referenced by a polygon corner,
// or -1 when the polygon or corner does not exist.
func (m *Mesh) PolygonVertex(polygon, corner int) int {
	if polygon < 0 || polygon >= len(m.Polygons) {
		return -1
	}
	p := m.Polygons[polygon]
	if corner < 0 || corner >= len(p.Corners) {
		return -1
	}
	cp := p.Corners[corner].ControlPoint
	if cp < 0 || cp >= len(m.ControlPoints) {
		return -1
	}
	return cp
}

// HasSkin reports whether any skin cluster carries weights.
func (m *Mesh) HasSkin() bool {
	for _, s := range m.Skins {
		for _, c := range s.Clusters {
			if len(c.Indices) > 0 {
				return true
			}
		}
	}
	return false
}
