package formats

import (
	"io"
	"path/filepath"

	smath "github.com/Faultbox/sr-convert/pkg/math"
)

// MorphDocument is the content of a .morphx file.
type MorphDocument struct {
	// MeshFile is the character mesh the targets apply to; only its base name is written.
	MeshFile string
	Targets  []BlendShape
	// Order is the vertex emission order returned by WriteMeshx.
	Order []int
}

// WriteMorphx writes a morph target document. Deltas are listed in vertex
// emission order and reference the emitted vertex index.
func WriteMorphx(w io.Writer, doc *MorphDocument) error {
	d := newDocWriter(w)
	d.str("<root>\n")
	d.str("\t<morph_version>65537</morph_version>\n")
	d.printf("\t<vcm_filename>%s</vcm_filename>\n", filepath.Base(doc.MeshFile))
	d.str("\t<compress>true</compress>\n")
	d.str("\t<targets>\n")
	for _, t := range doc.Targets {
		d.str("\t\t<target>\n")
		d.printf("\t\t\t<name>%s</name>\n", t.Name)
		d.printf("\t\t\t<num_verts>%d</num_verts>\n", len(t.Deltas))
		d.str("\t\t\t<verts>\n")
		for emitted, vi := range doc.Order {
			delta, ok := t.Deltas[vi]
			if !ok {
				continue
			}
			p := smath.ToEngine(delta.Position)
			n := smath.ToEngine(delta.Normal)
			d.str("\t\t\t\t<vert>\n")
			d.printf("\t\t\t\t\t<orig_index>%d</orig_index>\n", emitted)
			d.printf("\t\t\t\t\t<delta_pos>%.5f %.5f %.5f</delta_pos>\n", p[0], p[1], p[2])
			d.printf("\t\t\t\t\t<delta_norms>%.5f %.5f %.5f</delta_norms>\n", n[0], n[1], n[2])
			d.str("\t\t\t\t</vert>\n")
		}
		d.str("\t\t\t</verts>\n")
		d.str("\t\t</target>\n")
	}
	d.str("\t</targets>\n")
	d.str("</root>\n")
	return d.flush()
}
