package formats

import (
	"github.com/go-gl/mathgl/mgl64"

	smath "github.com/Faultbox/sr-convert/pkg/math"
)

// Vertex is a consolidated vertex.
// Index is its position in the vertex buffer; Original is the control point it came from.
type Vertex struct {
	Index    int
	Original int
	Position mgl64.Vec3
	Normal   mgl64.Vec3
	UV       mgl64.Vec2
	// Used is false for control points no face references.
	Used bool
}

// Face is a triangle. Indices point into the consolidated vertex buffer.
type Face struct {
	Indices  [3]int
	Material int
}

// Bone is a resolved skeleton bone.
// Rotation and Position are the bind pose in the intermediate frame.
type Bone struct {
	Name     string
	Index    int
	ID       int
	Parent   int
	ParentID int
	Rotation smath.Quat
	Position mgl64.Vec3
}

// Tag is an attachment point. Parent is a bone index.
type Tag struct {
	Name     string
	Parent   int
	Rotation smath.Quat
	Position mgl64.Vec3
}

// Rig is the ordered skeleton of a character mesh.
type Rig struct {
	Bones []Bone
	Tags  []Tag
}

// BoneIndex returns the serialized index of every bone by name.
func (r *Rig) BoneIndex() map[string]int {
	m := make(map[string]int, len(r.Bones))
	for i, b := range r.Bones {
		m[b.Name] = i
	}
	return m
}

// Influence is one bone's contribution to a vertex.
type Influence struct {
	Bone   string
	Weight float64
}

// Weights maps a final vertex index to its influences in insertion order.
type Weights map[int][]Influence

// Set records a bone weight on a vertex. A bone that already influences the
// vertex keeps its position and takes the new weight.
func (w Weights) Set(vertex int, bone string, weight float64) {
	list := w[vertex]
	for i := range list {
		if list[i].Bone == bone {
			list[i].Weight = weight
			return
		}
	}
	w[vertex] = append(list, Influence{Bone: bone, Weight: weight})
}

// MorphDelta is a per-vertex blend shape offset.
type MorphDelta struct {
	Position mgl64.Vec3
	Normal   mgl64.Vec3
}

// BlendShape is a sparse morph target keyed by final vertex index.
type BlendShape struct {
	Name   string
	Deltas map[int]MorphDelta
}

// MeshDocument is everything a .cmeshx or .smeshx file carries.
type MeshDocument struct {
	Name      string
	Vertices  []Vertex
	Faces     []Face
	Materials []*Material
	// Rig is nil for static meshes.
	Rig     *Rig
	Weights Weights
}

// Skinned reports whether the mesh is written as a character mesh.
func (d *MeshDocument) Skinned() bool {
	return d.Rig != nil
}

// EmitOrder returns the order vertices are written in: first use across the
// faces (corners 0, 1, 2), then vertices no face references. remap maps a
// vertex buffer index to its emitted position.
func EmitOrder(vertices []Vertex, faces []Face) (order, remap []int) {
	remap = make([]int, len(vertices))
	for i := range remap {
		remap[i] = -1
	}
	order = make([]int, 0, len(vertices))
	for _, f := range faces {
		for _, idx := range f.Indices {
			if idx < 0 || idx >= len(vertices) || remap[idx] >= 0 {
				continue
			}
			remap[idx] = len(order)
			order = append(order, idx)
		}
	}
	for i := range vertices {
		if remap[i] < 0 {
			remap[i] = len(order)
			order = append(order, i)
		}
	}
	return order, remap
}
