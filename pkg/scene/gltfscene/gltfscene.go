// Package gltfscene loads glTF 2.0 files into the scene graph model.
//
// glTF is Y-up, right-handed and measured in meters. Vertices are welded by
// exact position into control points and baked into world space, so mesh
// nodes carry no geometric pivot.
package gltfscene

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"

	"github.com/Faultbox/sr-convert/pkg/scene"
)

// centimeters per glTF unit
const metersToCentimeters = 100

var (
	ErrNodeCycle            = errors.New("gltfscene: node hierarchy contains a cycle")
	ErrUnsupportedPrimitive = errors.New("gltfscene: only triangle primitives are supported")
)

// Loader implements scene.Loader for .gltf and .glb files.
type Loader struct{}

// Load opens path and converts it.
func (Loader) Load(ctx context.Context, path string) (*scene.Scene, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(path)
}

// Load opens a .gltf or .glb file.
func Load(path string) (*scene.Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return FromDocument(doc, path)
}

type builder struct {
	doc    *gltf.Document
	dir    string
	nodes  map[uint32]*scene.Node
	worlds map[uint32]mgl64.Mat4
	joints map[uint32]bool
	order  []uint32
}

// FromDocument converts an already decoded document. source names the file the
// document came from and anchors relative texture paths.
func FromDocument(doc *gltf.Document, source string) (*scene.Scene, error) {
	b := &builder{
		doc:    doc,
		dir:    filepath.Dir(source),
		nodes:  make(map[uint32]*scene.Node),
		worlds: make(map[uint32]mgl64.Mat4),
		joints: make(map[uint32]bool),
	}
	for _, skin := range doc.Skins {
		for _, j := range skin.Joints {
			b.joints[j] = true
		}
	}

	root := scene.NewNode("RootNode", scene.AttributeNone)
	for _, idx := range b.rootNodes() {
		if err := b.addNode(root, idx, mgl64.Ident4()); err != nil {
			return nil, err
		}
	}

	// meshes go last so every skin joint already has a node
	for _, idx := range b.order {
		gn := doc.Nodes[idx]
		if gn.Mesh == nil {
			continue
		}
		if err := b.buildMesh(idx, gn); err != nil {
			return nil, errors.Wrapf(err, "mesh node %q", b.nodes[idx].Name)
		}
	}

	return &scene.Scene{
		Root:        root,
		Axis:        scene.MayaYUp,
		ScaleFactor: metersToCentimeters,
		Source:      source,
	}, nil
}

func (b *builder) rootNodes() []uint32 {
	if len(b.doc.Scenes) > 0 {
		si := uint32(0)
		if b.doc.Scene != nil && int(*b.doc.Scene) < len(b.doc.Scenes) {
			si = *b.doc.Scene
		}
		return b.doc.Scenes[si].Nodes
	}

	hasParent := make(map[uint32]bool)
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			hasParent[c] = true
		}
	}
	var roots []uint32
	for i := range b.doc.Nodes {
		if !hasParent[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

func (b *builder) addNode(parent *scene.Node, idx uint32, parentWorld mgl64.Mat4) error {
	if int(idx) >= len(b.doc.Nodes) {
		return errors.Errorf("gltfscene: node index %d out of range", idx)
	}
	if _, seen := b.nodes[idx]; seen {
		return errors.Wrapf(ErrNodeCycle, "node %d", idx)
	}
	gn := b.doc.Nodes[idx]

	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", idx)
	}
	attr := scene.AttributeNull
	switch {
	case gn.Mesh != nil:
		attr = scene.AttributeMesh
	case b.joints[idx]:
		attr = scene.AttributeSkeleton
	}

	n := scene.NewNode(name, attr)
	n.Global = parentWorld.Mul4(localMatrix(gn))
	copyExtras(n.Properties, gn.Extras)
	parent.AddChild(n)

	b.nodes[idx] = n
	b.worlds[idx] = n.Global
	b.order = append(b.order, idx)

	for _, c := range gn.Children {
		if err := b.addNode(n, c, n.Global); err != nil {
			return err
		}
	}
	return nil
}

func localMatrix(n *gltf.Node) mgl64.Mat4 {
	var zero, ident [16]float32
	for i := 0; i < 4; i++ {
		ident[i*5] = 1
	}
	if n.Matrix != zero && n.Matrix != ident {
		var m mgl64.Mat4
		for i, v := range n.Matrix {
			m[i] = float64(v)
		}
		return m
	}

	t := n.Translation
	s := n.Scale
	if s == [3]float32{} {
		s = [3]float32{1, 1, 1}
	}
	q := mgl64.QuatIdent()
	if r := n.Rotation; r != [4]float32{} {
		q = mgl64.Quat{W: float64(r[3]), V: mgl64.Vec3{float64(r[0]), float64(r[1]), float64(r[2])}}.Normalize()
	}
	return mgl64.Translate3D(float64(t[0]), float64(t[1]), float64(t[2])).
		Mul4(q.Mat4()).
		Mul4(mgl64.Scale3D(float64(s[0]), float64(s[1]), float64(s[2])))
}

func copyExtras(dst scene.Properties, extras interface{}) {
	m, ok := extras.(map[string]interface{})
	if !ok {
		return
	}
	for k, v := range m {
		switch val := v.(type) {
		case string, float64, int:
			dst[k] = val
		case float32:
			dst[k] = float64(val)
		}
	}
}
