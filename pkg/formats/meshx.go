package formats

import (
	"errors"
	"fmt"
	"io"

	smath "github.com/Faultbox/sr-convert/pkg/math"
)

// ErrUnknownInfluence is returned when a vertex weight names a bone the rig does not have.
var ErrUnknownInfluence = errors.New("vertex weight references a bone missing from the rig")

// maxInfluences is the number of weight slots per vertex.
const maxInfluences = 4

// WeightSlots collapses influences into the four (byte weight, bone index)
// pairs of a weight record. Influences past the fourth are dropped; unused
// slots hold weight 0 and bone -1.
func WeightSlots(influences []Influence, boneIndex map[string]int) ([8]int, error) {
	slots := [8]int{0, -1, 0, -1, 0, -1, 0, -1}
	for i, inf := range influences {
		if i == maxInfluences {
			break
		}
		idx, ok := boneIndex[inf.Bone]
		if !ok {
			return slots, fmt.Errorf("%w: %s", ErrUnknownInfluence, inf.Bone)
		}
		slots[i*2] = int(inf.Weight*255.0 + 0.5)
		slots[i*2+1] = idx
	}
	return slots, nil
}

// WriteMeshx writes a character mesh (.cmeshx) when the document has a rig,
// otherwise a static mesh (.smeshx). It returns the vertex emission order
// (see EmitOrder).
func WriteMeshx(w io.Writer, doc *MeshDocument) ([]int, error) {
	order, remap := EmitOrder(doc.Vertices, doc.Faces)
	skinned := doc.Skinned()

	var boneIndex map[string]int
	if skinned {
		boneIndex = doc.Rig.BoneIndex()
	}

	d := newDocWriter(w)
	d.str("<root>\n")
	d.str("\t<header>\n")
	d.str("\t\t<signature>RFCM</signature>\n")
	d.str("\t\t<version>1</version>\n")
	if skinned {
		d.str("\t\t<rig_version>1</rig_version>\n")
	}
	d.str("\t</header>\n")

	if skinned {
		writeMeshRig(d, doc.Rig)
	}

	d.str("\t\t<mesh>\n")
	d.printf("\t\t\t<name>%s</name>\n", doc.Name)
	d.str("\t\t\t<parentname>none</parentname>\n")
	d.printf("\t\t\t<numverts>%d</numverts>\n", len(order))
	d.printf("\t\t\t<numfaces>%d</numfaces>\n", len(doc.Faces))

	d.str("\t\t\t<materials>\n")
	for _, m := range doc.Materials {
		d.str("\t\t\t\t<material>\n")
		if err := writeMaterial(d, m, "\t\t\t\t\t", MaterialOptions{}); err != nil {
			return nil, err
		}
		d.str("\t\t\t\t</material>\n")
	}
	d.str("\t\t\t</materials>\n")

	d.str("\t\t\t<verts>\n")
	d.str("\t\t\t\t<hex>1</hex>\n")
	for _, vi := range order {
		d.printf("\t\t\t\t<v>%s</v>\n", HexVec3(smath.ToEngine(doc.Vertices[vi].Position)))
	}
	d.str("\t\t\t</verts>\n")

	d.str("\t\t\t<normals>\n")
	d.str("\t\t\t\t<hex>1</hex>\n")
	for _, vi := range order {
		d.printf("\t\t\t\t<n>%s</n>\n", HexVec3(smath.ToEngine(doc.Vertices[vi].Normal)))
	}
	d.str("\t\t\t</normals>\n")

	// winding is reversed: corners are written 0, 2, 1
	d.str("\t\t\t<faces>\n")
	for _, f := range doc.Faces {
		d.printf("\t\t\t\t<f>%d %d %d %d</f>\n", remap[f.Indices[0]], remap[f.Indices[2]], remap[f.Indices[1]], f.Material)
	}
	d.str("\t\t\t</faces>\n")

	d.str("\t\t\t<faceuvs>\n")
	d.str("\t\t\t<hex>1</hex>\n")
	for _, f := range doc.Faces {
		uv0 := doc.Vertices[f.Indices[0]].UV
		uv1 := doc.Vertices[f.Indices[1]].UV
		uv2 := doc.Vertices[f.Indices[2]].UV
		d.printf("\t\t\t\t<uv>%s %s %s %s %s %s</uv>\n",
			HexFloat(uv0[0]), HexFloat(uv0[1]),
			HexFloat(uv2[0]), HexFloat(uv2[1]),
			HexFloat(uv1[0]), HexFloat(uv1[1]))
	}
	d.str("\t\t\t</faceuvs>\n")

	if skinned {
		d.str("\t\t\t<vertexweights>\n")
		d.printf("\t\t\t\t<numvweights>%d</numvweights>\n", len(order))
		d.str("\t\t\t\t<vweights>\n")
		for _, vi := range order {
			s, err := WeightSlots(doc.Weights[vi], boneIndex)
			if err != nil {
				return nil, fmt.Errorf("vertex %d: %w", vi, err)
			}
			d.printf("\t\t\t\t\t<weight>%d %d %d %d %d %d %d %d</weight>\n",
				s[0], s[1], s[2], s[3], s[4], s[5], s[6], s[7])
		}
		d.str("\t\t\t\t</vweights>\n")
		d.str("\t\t\t</vertexweights>\n")
	}
	d.str("\t\t</mesh>\n")

	if skinned {
		d.str("\t<AutoGenerateLODs>true</AutoGenerateLODs>\n")
		d.str("\t<LODParameterOverrides>\n")
		d.str("\t</LODParameterOverrides>\n")
	}
	d.str("</root>")

	if err := d.flush(); err != nil {
		return nil, err
	}
	return order, nil
}

func writeMeshRig(d *docWriter, rig *Rig) {
	d.str("\t<bones>\n")
	for i, b := range rig.Bones {
		q := smath.ToEngineRotation(b.Rotation)
		p := smath.ToEngine(b.Position)
		d.str("\t\t<bone>\n")
		d.printf("\t\t\t<name>bone-%s</name>\n", b.Name)
		d.printf("\t\t\t<index>%d</index>\n", i)
		d.printf("\t\t\t<id>%d</id>\n", b.ID)
		d.str("\t\t\t<transform>\n")
		d.printf("\t\t\t\t%.6f %.6f %.6f\n", p[0], p[1], p[2])
		d.printf("\t\t\t\t%.6f %.6f %.6f %.6f\n", q.X, q.Y, q.Z, q.W)
		d.str("\t\t\t</transform>\n")
		d.printf("\t\t\t<parentbone>%d</parentbone>\n", b.Parent)
		d.printf("\t\t\t<parent_id>%d</parent_id>\n", b.ParentID)
		d.str("\t\t\t<flags></flags>\n")
		d.str("\t\t</bone>\n")
	}
	d.str("\t</bones>\n")

	d.str("\t<tags>\n")
	for _, t := range rig.Tags {
		q := smath.ToEngineRotation(t.Rotation)
		p := smath.ToEngine(t.Position)
		d.str("\t\t<tag>\n")
		d.printf("\t\t\t<name>$prop-%s</name>\n", t.Name)
		d.printf("\t\t\t<parentbone>%d</parentbone>\n", t.Parent)
		d.str("\t\t\t<transform>\n")
		d.printf("\t\t\t\t%.6f %.6f %.6f\n", p[0], p[1], p[2])
		d.printf("\t\t\t\t%.6f %.6f %.6f %.6f\n", q.X, q.Y, q.Z, q.W)
		d.str("\t\t\t</transform>\n")
		d.str("\t\t</tag>\n")
	}
	d.str("\t</tags>\n")

	d.str("\t<rigindices>\n")
	for i := range rig.Bones {
		d.printf("\t\t<index>%d</index>\n", i)
	}
	d.str("\t</rigindices>\n")
	d.str("\t<collision_prims>\n")
	d.str("\t</collision_prims>\n")
}
