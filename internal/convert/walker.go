package convert

import (
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/sr-convert/pkg/scene"
)

// Kind is the role a scene node plays in the conversion.
type Kind int

const (
	KindIgnored Kind = iota
	KindBone
	KindTag
	KindMesh
)

func (k Kind) String() string {
	switch k {
	case KindBone:
		return "bone"
	case KindTag:
		return "tag"
	case KindMesh:
		return "mesh"
	default:
		return "ignored"
	}
}

// Node naming conventions and user properties that drive classification.
const (
	bonePrefix     = "bone_"
	tagPrefix      = "tag_"
	colliderPrefix = "collider_"

	propBoneName   = "p_bone_name"
	propBoneOrder  = "p_bone_order"
	propBoneParent = "p_bone_parent"
	propTagName    = "p_tag_name"
)

// NoHandle marks a node without a parent in the hierarchy.
const NoHandle = -1

// SceneNode is a visited scene node. Handle is its pre-order traversal index.
type SceneNode struct {
	Handle int
	Name   string
	Parent int
	Kind   Kind
	Source *scene.Node
}

// Hierarchy is the classified node arena of one scene.
type Hierarchy struct {
	Nodes  []SceneNode
	Bones  []int
	Tags   []int
	Meshes []int

	handles map[*scene.Node]int
}

// Walk visits the scene depth first, children of the root first, and
// classifies every node.
func Walk(sc *scene.Scene, log *zap.Logger) *Hierarchy {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hierarchy{handles: make(map[*scene.Node]int)}
	if sc == nil || sc.Root == nil {
		return h
	}

	var visit func(n *scene.Node, parent int)
	visit = func(n *scene.Node, parent int) {
		handle := len(h.Nodes)
		kind := classify(n)
		h.Nodes = append(h.Nodes, SceneNode{
			Handle: handle,
			Name:   n.Name,
			Parent: parent,
			Kind:   kind,
			Source: n,
		})
		h.handles[n] = handle
		if kind == KindIgnored {
			log.Debug("ignoring node",
				zap.String("node", n.Name),
				zap.Stringer("attribute", n.Attribute))
		}
		for _, child := range n.Children {
			visit(child, handle)
		}
	}
	for _, child := range sc.Root.Children {
		visit(child, NoHandle)
	}

	// meshes used as skin cluster links are bones modelled as geometry
	links := make(map[int]bool)
	for _, n := range h.Nodes {
		if n.Kind != KindMesh || n.Source.Mesh == nil {
			continue
		}
		for _, skin := range n.Source.Mesh.Skins {
			for _, cl := range skin.Clusters {
				if handle, ok := h.handles[cl.Link]; ok {
					links[handle] = true
				}
			}
		}
	}
	for handle := range links {
		if h.Nodes[handle].Kind == KindMesh {
			h.Nodes[handle].Kind = KindBone
		}
	}

	for _, n := range h.Nodes {
		switch n.Kind {
		case KindBone:
			h.Bones = append(h.Bones, n.Handle)
		case KindTag:
			h.Tags = append(h.Tags, n.Handle)
		case KindMesh:
			h.Meshes = append(h.Meshes, n.Handle)
		}
	}
	return h
}

func classify(n *scene.Node) Kind {
	switch n.Attribute {
	case scene.AttributeSkeleton:
		return KindBone
	case scene.AttributeMesh:
		if isBoneNode(n) {
			return KindBone
		}
		if strings.HasPrefix(strings.ToLower(n.Name), colliderPrefix) {
			return KindIgnored
		}
		return KindMesh
	case scene.AttributeNull:
		if isBoneNode(n) {
			return KindBone
		}
		if n.Properties.Has(propTagName) || strings.HasPrefix(n.Name, tagPrefix) {
			return KindTag
		}
	}
	return KindIgnored
}

func isBoneNode(n *scene.Node) bool {
	return n.Properties.Has(propBoneName) || strings.HasPrefix(n.Name, bonePrefix)
}

// HandleOf returns the handle of a scene node.
func (h *Hierarchy) HandleOf(n *scene.Node) (int, bool) {
	handle, ok := h.handles[n]
	return handle, ok
}

// Node returns the node with the given handle.
func (h *Hierarchy) Node(handle int) *SceneNode {
	if handle < 0 || handle >= len(h.Nodes) {
		return nil
	}
	return &h.Nodes[handle]
}

// MeshByName finds a mesh candidate by node name.
func (h *Hierarchy) MeshByName(name string) (int, bool) {
	for _, handle := range h.Meshes {
		if h.Nodes[handle].Name == name {
			return handle, true
		}
	}
	return NoHandle, false
}
