// Package convert turns a scene graph into the documents pkg/formats writes.
//
// A conversion runs as a Session: the coordinate transform is resolved once,
// the hierarchy is walked once and the rig is built once, then each mesh is
// consolidated, skinned and given materials on demand. All state a session
// needs lives in its Context; nothing is kept at package level.
package convert

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Convention forces the axis declaration of a known authoring tool over the one
// a file carries. Some exporters write wrong axis metadata.
type Convention int

const (
	ConventionNone Convention = iota
	ConventionMax
	ConventionMaya
)

func (c Convention) String() string {
	switch c {
	case ConventionMax:
		return "max"
	case ConventionMaya:
		return "maya"
	default:
		return "none"
	}
}

// ParseConvention parses a convention name as used in config files.
func ParseConvention(s string) (Convention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ConventionNone, nil
	case "max", "3dsmax":
		return ConventionMax, nil
	case "maya", "maya-y", "mayayup":
		return ConventionMaya, nil
	}
	return ConventionNone, fmt.Errorf("unknown axis convention %q", s)
}

// Context is the per-session conversion state.
type Context struct {
	ID string

	// Transform maps source space into the intermediate frame, stored
	// transposed (row-vector layout) the way the documents consume it.
	Transform mgl64.Mat4
	Scale     float64

	// Large maps a standard texture path to its high resolution variant.
	Large map[string]string

	Log *zap.Logger
}

// NewContext creates a context with a fresh session id.
func NewContext(transform mgl64.Mat4, scale float64, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.New().String()
	return &Context{
		ID:        id,
		Transform: transform,
		Scale:     scale,
		Large:     make(map[string]string),
		Log:       log.With(zap.String("session", id)),
	}
}

// Matrix returns the transform in column-vector layout (M * p).
func (c *Context) Matrix() mgl64.Mat4 {
	return c.Transform.Transpose()
}
