package formats

import (
	"io"

	smath "github.com/Faultbox/sr-convert/pkg/math"
)

// WriteRigx writes a skeleton document. Bones are written in slice order,
// which must already be the resolved bone order.
func WriteRigx(w io.Writer, rig *Rig) error {
	d := newDocWriter(w)
	d.str("<rig>\n")
	d.str("\t<version>1</version>\n")
	d.str("\t<bones>\n")
	for i, b := range rig.Bones {
		q := smath.ToEngineRotation(b.Rotation)
		p := smath.ToEngine(b.Position)
		d.str("\t\t<bone>\n")
		d.printf("\t\t\t<name>bone-%s</name>\n", b.Name)
		d.printf("\t\t\t<index>%d</index>\n", i)
		d.printf("\t\t\t<id>%d</id>\n", b.ID)
		d.printf("\t\t\t<quat>%.6f %.6f %.6f %.6f</quat>\n", q.X, q.Y, q.Z, q.W)
		d.printf("\t\t\t<pos>%.6f %.6f %.6f</pos>\n", p[0], p[1], p[2])
		d.printf("\t\t\t<parent>%d</parent>\n", b.Parent)
		d.printf("\t\t\t<parent_id>%d</parent_id>\n", b.ParentID)
		d.str("\t\t</bone>\n")
	}
	d.str("\t</bones>\n")
	d.str("\t<tags>\n")
	for _, t := range rig.Tags {
		q := smath.ToEngineRotation(t.Rotation)
		p := smath.ToEngine(t.Position)
		d.str("\t\t<tag>\n")
		d.printf("\t\t\t<name>$prop-%s</name>\n", t.Name)
		d.printf("\t\t\t<parent>%d</parent>\n", t.Parent)
		d.printf("\t\t\t<quat>%.6f %.6f %.6f %.6f</quat>\n", q.X, q.Y, q.Z, q.W)
		d.printf("\t\t\t<pos>%.6f %.6f %.6f</pos>\n", p[0], p[1], p[2])
		d.str("\t\t</tag>\n")
	}
	d.str("\t</tags>\n")
	d.str("</rig>")
	return d.flush()
}
