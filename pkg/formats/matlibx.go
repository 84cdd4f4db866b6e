package formats

import (
	"io"
	"strings"
)

// IsHighMatlib reports whether a library file name selects the high resolution variant.
func IsHighMatlib(filename string) bool {
	return strings.HasSuffix(filename, highMatlibSuffix)
}

// WriteMatlibx writes a material library document.
func WriteMatlibx(w io.Writer, materials []*Material, opts MaterialOptions) error {
	d := newDocWriter(w)
	d.str("<root>\n")
	d.str("\t<header>\n")
	d.str("\t\t<signature>RFMT</signature>\n")
	d.str("\t\t<version>1</version>\n")
	d.str("\t</header>\n")
	d.str("\t\t<material_library>\n")
	for _, m := range materials {
		d.str("\t\t\t<material>\n")
		if err := writeMaterial(d, m, "\t\t\t\t", opts); err != nil {
			return err
		}
		d.str("\t\t\t</material>\n")
	}
	d.str("\t\t</material_library>\n")
	d.str("</root>\n")
	return d.flush()
}
