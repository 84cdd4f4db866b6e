package convert

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/sr-convert/pkg/formats"
	smath "github.com/Faultbox/sr-convert/pkg/math"
)

// ErrDuplicateBoneName is returned when two bones resolve to the same name.
// Vertex weights reference bones by name, so the rig would be ambiguous.
var ErrDuplicateBoneName = errors.New("duplicate bone name")

// ErrUnresolvedParent is returned when an authored p_bone_parent names an
// order no bone carries. A negative p_bone_parent marks the bone parentless.
var ErrUnresolvedParent = errors.New("unresolved bone parent")

// RootBone is the resolved name of the bone that always takes index 0.
const RootBone = "bone_root"

// BoneNames maps authored limb names onto the engine's side-qualified names.
var BoneNames = map[string]string{
	"bone_l_thigh":          "bone_l-thigh",
	"bone_l_calf":           "bone_l-calf",
	"bone_l_calftwist1":     "bone_l-calftwist1",
	"bone_l_foot":           "bone_l-foot",
	"bone_l_toe0":           "bone_l-toe0",
	"bone_l_knee":           "bone_l-knee",
	"bone_l_thightwist1":    "bone_l-thightwist1",
	"bone_r_thigh":          "bone_r-thigh",
	"bone_r_calf":           "bone_r-calf",
	"bone_r_calftwist1":     "bone_r-calftwist1",
	"bone_r_foot":           "bone_r-foot",
	"bone_r_toe0":           "bone_r-toe0",
	"bone_r_knee":           "bone_r-knee",
	"bone_r_thightwist1":    "bone_r-thightwist1",
	"bone_l_clavicle":       "bone_l-clavicle",
	"bone_l_upperarmtwist1": "bone_l-upperarmtwist1",
	"bone_l_foretwist":      "bone_l-foretwist",
	"bone_l_elbow":          "bone_l-elbow",
	"bone_l_foretwist1":     "bone_l-foretwist1",
	"bone_l_hand":           "bone_l-hand",
	"bone_l_finger1":        "bone_l-finger1",
	"bone_l_finger11":       "bone_l-finger11",
	"bone_l_finger2":        "bone_l-finger2",
	"bone_l_finger21":       "bone_l-finger21",
	"bone_l_finger3":        "bone_l-finger3",
	"bone_l_finger31":       "bone_l-finger31",
	"bone_l_finger4":        "bone_l-finger4",
	"bone_l_finger41":       "bone_l-finger41",
	"bone_l_handprop":       "bone_l-handprop",
	"bone_l_thumb1":         "bone_l-thumb1",
	"bone_l_thumb11":        "bone_l-thumb11",
	"bone_l_upperarmtwist2": "bone_l-upperarmtwist2",
	"bone_l_upperarmtwist3": "bone_l-upperarmtwist3",
	"bone_l_eye":            "bone_l-eye",
	"bone_r_eye":            "bone_r-eye",
	"bone_r_clavicle":       "bone_r-clavicle",
	"bone_r_upperarmtwist1": "bone_r-upperarmtwist1",
	"bone_r_foretwist":      "bone_r-foretwist",
	"bone_r_elbow":          "bone_r-elbow",
	"bone_r_foretwist1":     "bone_r-foretwist1",
	"bone_r_hand":           "bone_r-hand",
	"bone_r_finger1":        "bone_r-finger1",
	"bone_r_finger11":       "bone_r-finger11",
	"bone_r_finger2":        "bone_r-finger2",
	"bone_r_finger21":       "bone_r-finger21",
	"bone_r_finger3":        "bone_r-finger3",
	"bone_r_finger31":       "bone_r-finger31",
	"bone_r_finger4":        "bone_r-finger4",
	"bone_r_finger41":       "bone_r-finger41",
	"bone_r_handprop":       "bone_r-handprop",
	"bone_r_thumb1":         "bone_r-thumb1",
	"bone_r_thumb11":        "bone_r-thumb11",
	"bone_r_upperarmtwist2": "bone_r-upperarmtwist2",
	"bone_r_upperarmtwist3": "bone_r-upperarmtwist3",
}

// BoneName resolves the rig name of a bone node from its scene name.
//
// Known limb names keep their side ("bone_l_thigh" becomes "l-thigh"). Other
// names are lowercased, then: a name with a dash keeps the part after the
// first dash, any name containing "bone_root" becomes "bone_root", and the
// "bone_" prefix is stripped.
func BoneName(name string) string {
	lower := strings.ToLower(name)
	if mapped, ok := BoneNames[lower]; ok {
		return strings.TrimPrefix(mapped, bonePrefix)
	}
	switch {
	case strings.Contains(lower, "-"):
		return strings.SplitN(lower, "-", 2)[1]
	case strings.Contains(lower, RootBone):
		return RootBone
	case strings.HasPrefix(lower, bonePrefix):
		if strings.Contains(lower, "bone_bone_") {
			return lower[len(bonePrefix):]
		}
		return strings.SplitN(lower, bonePrefix, 3)[1]
	}
	return lower
}

// TagName resolves the name of an attachment point from its scene name.
func TagName(name string) string {
	lower := strings.ToLower(name)
	lower = strings.TrimPrefix(lower, "$prop-")
	return strings.TrimPrefix(lower, tagPrefix)
}

// Skeleton is the resolved rig of a scene together with the node handle of each bone.
type Skeleton struct {
	Rig *formats.Rig

	// bones maps a node handle to its bone index.
	bones map[int]int
}

// BoneIndex returns the bone index of a node handle.
func (s *Skeleton) BoneIndex(handle int) (int, bool) {
	i, ok := s.bones[handle]
	return i, ok
}

// Empty reports whether the scene has no bones.
func (s *Skeleton) Empty() bool {
	return len(s.Rig.Bones) == 0
}

type pendingBone struct {
	handle int
	name   string
	order  int
	root   bool
	parent int
	hasRaw bool
}

// BuildRig orders the bones of a hierarchy, links their parents and resolves
// the attachment points.
//
// The root bone always sorts first. The rest are sorted by their authored
// order (the traversal index when none is authored), then by traversal index;
// index and id are then reassigned densely from 0. A bone's parent is its
// scene parent when that is a bone, otherwise the bone whose authored order
// matches p_bone_parent.
func BuildRig(cc *Context, h *Hierarchy) (*Skeleton, error) {
	pending := make([]pendingBone, 0, len(h.Bones))
	for _, handle := range h.Bones {
		n := h.Nodes[handle]
		props := n.Source.Properties

		b := pendingBone{handle: handle, order: handle}
		if name, ok := props.String(propBoneName); ok {
			b.name = name
		} else {
			b.name = BoneName(n.Name)
		}
		if order, ok := props.Int(propBoneOrder); ok {
			b.order = order
		}
		if parent, ok := props.Int(propBoneParent); ok {
			b.parent, b.hasRaw = parent, true
		}
		if b.name == RootBone {
			b.root = true
			b.order = 0
		}
		pending = append(pending, b)
	}

	sort.SliceStable(pending, func(i, j int) bool {
		a, b := pending[i], pending[j]
		if a.root != b.root {
			return a.root
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.handle < b.handle
	})

	skel := &Skeleton{Rig: &formats.Rig{}, bones: make(map[int]int, len(pending))}
	byOrder := make(map[int]int, len(pending))
	names := make(map[string]int, len(pending))
	for i, b := range pending {
		if prev, dup := names[b.name]; dup {
			return nil, errors.Wrapf(ErrDuplicateBoneName, "%q used by %q and %q",
				b.name, h.Nodes[pending[prev].handle].Name, h.Nodes[b.handle].Name)
		}
		names[b.name] = i
		skel.bones[b.handle] = i
		if prev, taken := byOrder[b.order]; taken {
			cc.Log.Warn("bones share an order, keeping traversal order",
				zap.String("bone", b.name),
				zap.String("other", pending[prev].name),
				zap.Int("order", b.order))
		} else {
			byOrder[b.order] = i
		}
	}

	for i, b := range pending {
		node := h.Nodes[b.handle]
		pos, rot, _ := smath.Decompose(cc.WorldTransform(node.Source))

		parent := -1
		if p, ok := skel.bones[node.Parent]; ok {
			parent = p
		} else if b.hasRaw && b.parent >= 0 {
			p, ok := byOrder[b.parent]
			if !ok {
				return nil, errors.Wrapf(ErrUnresolvedParent, "bone %q has p_bone_parent %d", b.name, b.parent)
			}
			parent = p
		}

		skel.Rig.Bones = append(skel.Rig.Bones, formats.Bone{
			Name:     b.name,
			Index:    i,
			ID:       i,
			Parent:   parent,
			ParentID: parent,
			Rotation: rot,
			Position: pos,
		})
	}

	for _, handle := range h.Tags {
		skel.Rig.Tags = append(skel.Rig.Tags, buildTag(cc, h, skel, handle))
	}
	return skel, nil
}

func buildTag(cc *Context, h *Hierarchy, skel *Skeleton, handle int) formats.Tag {
	n := h.Nodes[handle]
	tag := formats.Tag{}
	if name, ok := n.Source.Properties.String(propTagName); ok {
		tag.Name = name
	} else {
		tag.Name = TagName(n.Name)
	}
	if p, ok := skel.bones[n.Parent]; ok {
		tag.Parent = p
	}

	world := cc.WorldTransform(n.Source)
	tag.Rotation = smath.QuatFromMat4(smath.RemoveScale(world))
	tag.Position = smath.Translation(world)
	if parent := n.Source.Parent; parent != nil {
		tag.Position = tag.Position.Sub(smath.Translation(cc.WorldTransform(parent)))
	}
	return tag
}
