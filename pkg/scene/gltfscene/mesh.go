package gltfscene

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	smath "github.com/Faultbox/sr-convert/pkg/math"
	"github.com/Faultbox/sr-convert/pkg/scene"
)

// meshBuild accumulates the primitives of one glTF mesh into a single scene mesh.
type meshBuild struct {
	mesh      *scene.Mesh
	world     mgl64.Mat4
	normalMat mgl64.Mat4
	weld      map[[3]float32]int

	// per cluster, control point -> weight
	clusterWeights []map[int]float64
	clusterOrder   [][]int

	shapes    [][]mgl64.Vec3
	shapeSeen [][]bool

	materials   []*scene.Material
	materialIdx map[uint32]int
}

func (b *builder) buildMesh(idx uint32, gn *gltf.Node) error {
	if int(*gn.Mesh) >= len(b.doc.Meshes) {
		return errors.Errorf("mesh index %d out of range", *gn.Mesh)
	}
	gm := b.doc.Meshes[*gn.Mesh]
	node := b.nodes[idx]
	world := b.worlds[idx]

	mb := &meshBuild{
		mesh:        &scene.Mesh{},
		world:       world,
		normalMat:   world.Inv().Transpose(),
		weld:        make(map[[3]float32]int),
		materialIdx: make(map[uint32]int),
	}

	var joints []uint32
	if gn.Skin != nil && int(*gn.Skin) < len(b.doc.Skins) {
		joints = b.doc.Skins[*gn.Skin].Joints
		mb.clusterWeights = make([]map[int]float64, len(joints))
		mb.clusterOrder = make([][]int, len(joints))
		for i := range joints {
			mb.clusterWeights[i] = make(map[int]float64)
		}
	}

	for pi, p := range gm.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			return errors.Wrapf(ErrUnsupportedPrimitive, "primitive %d", pi)
		}
		if err := b.addPrimitive(mb, p, len(joints) > 0); err != nil {
			return errors.Wrapf(err, "primitive %d", pi)
		}
	}

	for i, j := range joints {
		if len(mb.clusterOrder[i]) == 0 {
			continue
		}
		c := scene.Cluster{Link: b.nodes[j]}
		for _, cp := range mb.clusterOrder[i] {
			c.Indices = append(c.Indices, cp)
			c.Weights = append(c.Weights, mb.clusterWeights[i][cp])
		}
		if len(mb.mesh.Skins) == 0 {
			mb.mesh.Skins = []scene.Skin{{}}
		}
		mb.mesh.Skins[0].Clusters = append(mb.mesh.Skins[0].Clusters, c)
	}

	if len(mb.shapes) > 0 {
		names := targetNames(gm.Extras)
		bs := scene.BlendShape{}
		for t, cps := range mb.shapes {
			name := fmt.Sprintf("target_%d", t)
			if t < len(names) {
				name = names[t]
			}
			// unmoved control points keep their base position
			for cp := range cps {
				if !mb.shapeSeen[t][cp] {
					cps[cp] = mb.mesh.ControlPoints[cp]
				}
			}
			bs.Channels = append(bs.Channels, scene.BlendShapeChannel{
				Name:    name,
				Targets: []scene.Shape{{Name: name, ControlPoints: cps}},
			})
		}
		mb.mesh.BlendShapes = []scene.BlendShape{bs}
	}

	node.Mesh = mb.mesh
	node.Materials = mb.materials
	return nil
}

func (b *builder) addPrimitive(mb *meshBuild, p *gltf.Primitive, skinned bool) error {
	doc := b.doc
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return errors.New("primitive has no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return errors.Wrap(err, "read positions")
	}

	var normals [][3]float32
	if a, ok := p.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[a], nil); err != nil {
			return errors.Wrap(err, "read normals")
		}
	}
	var uvs [][2]float32
	if a, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[a], nil); err != nil {
			return errors.Wrap(err, "read texture coordinates")
		}
	}

	var indices []uint32
	if p.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*p.Indices], nil); err != nil {
			return errors.Wrap(err, "read indices")
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	// weld vertices into control points
	cpOf := make([]int, len(positions))
	for i, pos := range positions {
		cp, ok := mb.weld[pos]
		if !ok {
			cp = len(mb.mesh.ControlPoints)
			mb.weld[pos] = cp
			v := mgl64.Vec3{float64(pos[0]), float64(pos[1]), float64(pos[2])}
			mb.mesh.ControlPoints = append(mb.mesh.ControlPoints, smath.TransformPoint(mb.world, v))
		}
		cpOf[i] = cp
	}

	material := 0
	if p.Material != nil {
		material = b.materialSlot(mb, *p.Material)
	}

	for t := 0; t+2 < len(indices); t += 3 {
		poly := scene.Polygon{Material: material}
		for c := 0; c < 3; c++ {
			vi := int(indices[t+c])
			if vi >= len(positions) {
				return errors.Errorf("index %d out of range", vi)
			}
			corner := scene.Corner{ControlPoint: cpOf[vi]}
			if vi < len(normals) {
				n := mgl64.Vec3{float64(normals[vi][0]), float64(normals[vi][1]), float64(normals[vi][2])}
				corner.Normal = smath.Normalize(smath.TransformDirection(mb.normalMat, n))
			}
			if vi < len(uvs) {
				// glTF puts the UV origin top-left; the scene model uses bottom-left
				corner.UV = mgl64.Vec2{float64(uvs[vi][0]), 1 - float64(uvs[vi][1])}
			}
			poly.Corners = append(poly.Corners, corner)
		}
		mb.mesh.Polygons = append(mb.mesh.Polygons, poly)
	}

	if skinned {
		if err := b.addSkin(mb, p, cpOf); err != nil {
			return err
		}
	}
	return b.addTargets(mb, p, cpOf)
}

func (b *builder) addSkin(mb *meshBuild, p *gltf.Primitive, cpOf []int) error {
	ja, jok := p.Attributes[gltf.JOINTS_0]
	wa, wok := p.Attributes[gltf.WEIGHTS_0]
	if !jok || !wok {
		return nil
	}
	joints, err := modeler.ReadJoints(b.doc, b.doc.Accessors[ja], nil)
	if err != nil {
		return errors.Wrap(err, "read joints")
	}
	weights, err := modeler.ReadWeights(b.doc, b.doc.Accessors[wa], nil)
	if err != nil {
		return errors.Wrap(err, "read weights")
	}

	for v := range joints {
		if v >= len(weights) || v >= len(cpOf) {
			break
		}
		cp := cpOf[v]
		for k := 0; k < 4; k++ {
			w := weights[v][k]
			j := int(joints[v][k])
			if w <= 0 || j >= len(mb.clusterWeights) {
				continue
			}
			// welded duplicates keep the first vertex's weights
			if _, ok := mb.clusterWeights[j][cp]; ok {
				continue
			}
			mb.clusterWeights[j][cp] = float64(w)
			mb.clusterOrder[j] = append(mb.clusterOrder[j], cp)
		}
	}
	return nil
}

func (b *builder) addTargets(mb *meshBuild, p *gltf.Primitive, cpOf []int) error {
	for t, target := range p.Targets {
		a, ok := target[gltf.POSITION]
		if !ok {
			continue
		}
		deltas, err := modeler.ReadPosition(b.doc, b.doc.Accessors[a], nil)
		if err != nil {
			return errors.Wrapf(err, "read morph target %d", t)
		}
		for len(mb.shapes) <= t {
			mb.shapes = append(mb.shapes, nil)
			mb.shapeSeen = append(mb.shapeSeen, nil)
		}
		for len(mb.shapes[t]) < len(mb.mesh.ControlPoints) {
			mb.shapes[t] = append(mb.shapes[t], mgl64.Vec3{})
			mb.shapeSeen[t] = append(mb.shapeSeen[t], false)
		}
		for v, d := range deltas {
			if v >= len(cpOf) {
				break
			}
			cp := cpOf[v]
			if mb.shapeSeen[t][cp] {
				continue
			}
			delta := mgl64.Vec3{float64(d[0]), float64(d[1]), float64(d[2])}
			mb.shapes[t][cp] = mb.mesh.ControlPoints[cp].Add(smath.TransformDirection(mb.world, delta))
			mb.shapeSeen[t][cp] = true
		}
	}
	// control points added by later primitives need a slot in every target
	for t := range mb.shapes {
		for len(mb.shapes[t]) < len(mb.mesh.ControlPoints) {
			mb.shapes[t] = append(mb.shapes[t], mgl64.Vec3{})
			mb.shapeSeen[t] = append(mb.shapeSeen[t], false)
		}
	}
	return nil
}

func targetNames(extras interface{}) []string {
	m, ok := extras.(map[string]interface{})
	if !ok {
		return nil
	}
	switch names := m["targetNames"].(type) {
	case []string:
		return names
	case []interface{}:
		out := make([]string, 0, len(names))
		for _, n := range names {
			s, _ := n.(string)
			out = append(out, s)
		}
		return out
	}
	return nil
}

func (b *builder) materialSlot(mb *meshBuild, idx uint32) int {
	if slot, ok := mb.materialIdx[idx]; ok {
		return slot
	}
	slot := len(mb.materials)
	mb.materialIdx[idx] = slot
	mb.materials = append(mb.materials, b.material(idx))
	return slot
}

func (b *builder) material(idx uint32) *scene.Material {
	m := &scene.Material{Name: fmt.Sprintf("material_%d", idx), Textures: map[string]string{}}
	if int(idx) >= len(b.doc.Materials) {
		return m
	}
	gm := b.doc.Materials[idx]
	if gm.Name != "" {
		m.Name = gm.Name
	}

	set := func(channel string, tex uint32) {
		if path := b.texturePath(tex); path != "" {
			m.Textures[channel] = path
		}
	}
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			set("DiffuseColor", pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			set("SpecularColor", pbr.MetallicRoughnessTexture.Index)
		}
	}
	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		set("NormalMap", *gm.NormalTexture.Index)
	}
	if gm.OcclusionTexture != nil && gm.OcclusionTexture.Index != nil {
		set("AmbientColor", *gm.OcclusionTexture.Index)
	}
	if gm.EmissiveTexture != nil {
		set("EmissiveColor", gm.EmissiveTexture.Index)
	}
	return m
}

func (b *builder) texturePath(tex uint32) string {
	if int(tex) >= len(b.doc.Textures) {
		return ""
	}
	t := b.doc.Textures[tex]
	if t.Source == nil || int(*t.Source) >= len(b.doc.Images) {
		return ""
	}
	img := b.doc.Images[*t.Source]
	if img.URI == "" || strings.HasPrefix(img.URI, "data:") {
		return img.Name
	}
	uri, err := url.PathUnescape(img.URI)
	if err != nil {
		uri = img.URI
	}
	if filepath.IsAbs(uri) {
		return uri
	}
	return filepath.Join(b.dir, filepath.FromSlash(uri))
}
