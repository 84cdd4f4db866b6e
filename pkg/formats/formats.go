// Package formats writes the Saints Row intermediate documents.
//
// Four document types are produced: rigs (.rigx), character and static
// meshes (.cmeshx, .smeshx), material libraries (.matlibx) and morph
// targets (.morphx). The package also reads the shader template library
// that drives material blocks and builds the rule files consumed by the
// external crunchers.
//
// Geometry handed to the writers is in the Z-up right-handed intermediate
// frame, in meters. Writers permute it into engine axes on output.
package formats

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// File extensions of the intermediate documents.
const (
	ExtRig           = ".rigx"
	ExtCharacter     = ".cmeshx"
	ExtStatic        = ".smeshx"
	ExtMaterialLib   = ".matlibx"
	ExtMorph         = ".morphx"
	ExtPeg           = ".peg"
	ExtTexture       = ".texture"
	highMatlibSuffix = "_high" + ExtMaterialLib
)

// HexFloat encodes v as a big-endian IEEE-754 single, 8 lowercase hex digits.
func HexFloat(v float64) string {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(v)))
	return hex.EncodeToString(b[:])
}

// HexVec3 encodes the three components separated by spaces.
func HexVec3(v mgl64.Vec3) string {
	return HexFloat(v[0]) + " " + HexFloat(v[1]) + " " + HexFloat(v[2])
}

// docWriter buffers output and keeps the first write error.
type docWriter struct {
	w   *bufio.Writer
	err error
}

func newDocWriter(w io.Writer) *docWriter {
	return &docWriter{w: bufio.NewWriter(w)}
}

func (d *docWriter) printf(format string, args ...interface{}) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format, args...)
}

func (d *docWriter) str(s string) {
	if d.err != nil {
		return
	}
	_, d.err = d.w.WriteString(s)
}

func (d *docWriter) flush() error {
	if d.err != nil {
		return d.err
	}
	return d.w.Flush()
}
