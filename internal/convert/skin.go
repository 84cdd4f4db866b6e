package convert

import (
	"github.com/Faultbox/sr-convert/pkg/formats"
	"github.com/Faultbox/sr-convert/pkg/scene"
)

// ExtractWeights collects the skin cluster weights of a mesh onto its
// consolidated vertices. Every vertex split from a control point receives the
// control point's weights. Cluster links resolve to their rig bone name; a
// link that is not a bone keeps its node name and fails at serialization.
func ExtractWeights(m *scene.Mesh, g *Geometry, h *Hierarchy, skel *Skeleton) formats.Weights {
	weights := formats.Weights{}
	for _, skin := range m.Skins {
		for _, cl := range skin.Clusters {
			if cl.Link == nil {
				continue
			}
			bone := cl.Link.Name
			if handle, ok := h.HandleOf(cl.Link); ok {
				if idx, ok := skel.BoneIndex(handle); ok {
					bone = skel.Rig.Bones[idx].Name
				}
			}
			for i, cp := range cl.Indices {
				if i >= len(cl.Weights) {
					break
				}
				for _, v := range g.Indices(cp) {
					weights.Set(v, bone, cl.Weights[i])
				}
			}
		}
	}
	return weights
}
