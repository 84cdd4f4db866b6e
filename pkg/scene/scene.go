// Package scene is the read-only scene graph the converter consumes.
//
// A Scene is produced by a loader (see the gltfscene package) and is never
// mutated by the conversion pipeline.
package scene

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Attribute is the node attribute type.
type Attribute int

const (
	AttributeNone Attribute = iota
	AttributeNull
	AttributeSkeleton
	AttributeMesh
	AttributeOther
)

func (a Attribute) String() string {
	switch a {
	case AttributeNone:
		return "none"
	case AttributeNull:
		return "null"
	case AttributeSkeleton:
		return "skeleton"
	case AttributeMesh:
		return "mesh"
	default:
		return "other"
	}
}

// Scene is a loaded scene graph.
type Scene struct {
	Root *Node
	Axis AxisSystem
	// ScaleFactor is the number of centimeters in one scene unit.
	ScaleFactor float64
	// Source is the file the scene was loaded from.
	Source string
}

// Node is a scene graph node.
type Node struct {
	Name      string
	Attribute Attribute
	Parent    *Node
	Children  []*Node

	// Global is the evaluated world transform in scene units.
	Global mgl64.Mat4

	// Geometric pivot, applied to geometry only. Rotation is Euler XYZ in degrees.
	GeometricTranslation mgl64.Vec3
	GeometricRotation    mgl64.Vec3
	GeometricScaling     mgl64.Vec3

	Properties Properties
	Mesh       *Mesh
	Materials  []*Material
}

// NewNode creates a detached node with identity transforms.
func NewNode(name string, attr Attribute) *Node {
	return &Node{
		Name:             name,
		Attribute:        attr,
		Global:           mgl64.Ident4(),
		GeometricScaling: mgl64.Vec3{1, 1, 1},
		Properties:       Properties{},
	}
}

// AddChild attaches child to n and returns the child.
func (n *Node) AddChild(child *Node) *Node {
	child.Parent = n
	n.Children = append(n.Children, child)
	return child
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Properties holds user-defined node properties.
// Values are strings or numbers depending on the loader.
type Properties map[string]interface{}

// Has reports whether the property is present.
func (p Properties) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns a property as text.
func (p Properties) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case int:
		return strconv.Itoa(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Int returns a numeric property. Text values are parsed.
func (p Properties) Int(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case float64:
		return int(val), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
