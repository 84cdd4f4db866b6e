package convert

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/sr-convert/pkg/formats"
	"github.com/Faultbox/sr-convert/pkg/scene"
)

// Progress stages.
const (
	StageMeshes    = "meshes"
	StageTriangles = "triangles"
)

// Progress receives progress at mesh and triangle boundaries.
type Progress func(stage string, done, total int)

func (p Progress) report(stage string, done, total int) {
	if p != nil {
		p(stage, done, total)
	}
}

// TextureProber finds high resolution variants of textures.
type TextureProber interface {
	LargeVariants(textures []string) map[string]string
}

// Options configures a session.
type Options struct {
	Convention Convention

	Shaders       *formats.ShaderLibrary
	DefaultShader string
	// Assignments maps a material name to a shader name.
	Assignments map[string]string

	// Textures is optional; without it no high resolution variants are used.
	Textures TextureProber

	Log      *zap.Logger
	Progress Progress
}

// Session converts the meshes of one loaded scene.
type Session struct {
	Scene     *scene.Scene
	Context   *Context
	Hierarchy *Hierarchy
	Skeleton  *Skeleton

	opts Options
}

// NewSession resolves the coordinate transform, walks the hierarchy and builds the rig.
func NewSession(sc *scene.Scene, opts Options) (*Session, error) {
	if sc == nil || sc.Root == nil {
		return nil, errors.New("scene has no root node")
	}
	transform, scale := ResolveTransform(sc.Axis, sc.ScaleFactor, opts.Convention)
	cc := NewContext(transform, scale, opts.Log)
	cc.Log.Info("session started",
		zap.String("source", sc.Source),
		zap.Stringer("convention", opts.Convention),
		zap.Float64("scale", scale))

	h := Walk(sc, cc.Log)
	skel, err := BuildRig(cc, h)
	if err != nil {
		return nil, errors.Wrap(err, "building rig")
	}
	cc.Log.Debug("hierarchy classified",
		zap.Int("nodes", len(h.Nodes)),
		zap.Int("bones", len(h.Bones)),
		zap.Int("tags", len(h.Tags)),
		zap.Int("meshes", len(h.Meshes)))

	return &Session{Scene: sc, Context: cc, Hierarchy: h, Skeleton: skel, opts: opts}, nil
}

// MeshHandles returns the mesh handles to convert: the named meshes in the
// given order, or every mesh when names is empty.
func (s *Session) MeshHandles(names []string) ([]int, error) {
	if len(names) == 0 {
		return append([]int(nil), s.Hierarchy.Meshes...), nil
	}
	handles := make([]int, 0, len(names))
	for _, name := range names {
		handle, ok := s.Hierarchy.MeshByName(name)
		if !ok {
			return nil, errors.Errorf("mesh %q not found in %s", name, s.Scene.Source)
		}
		handles = append(handles, handle)
	}
	return handles, nil
}

// MeshResult is a converted mesh ready to be written.
type MeshResult struct {
	Name        string
	Document    *formats.MeshDocument
	BlendShapes []formats.BlendShape
	// Textures are the authored textures in discovery order.
	Textures []string
	// Large maps textures to their high resolution variants.
	Large map[string]string
}

// Skinned reports whether the mesh is written as a character mesh.
func (r *MeshResult) Skinned() bool {
	return r.Document.Skinned()
}

// ConvertMesh consolidates a mesh and gathers its weights, blend shapes and materials.
// A mesh without weights converts as a static mesh.
func (s *Session) ConvertMesh(ctx context.Context, handle int) (*MeshResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := s.Hierarchy.Node(handle)
	if n == nil || n.Kind != KindMesh {
		return nil, errors.Errorf("node %d is not a mesh", handle)
	}
	log := s.Context.Log.With(zap.String("mesh", n.Name))

	g, err := Consolidate(ctx, s.Context, n.Source, s.opts.Progress)
	if err != nil {
		return nil, errors.Wrapf(err, "consolidating %s", n.Name)
	}

	materials, textures := CollectMaterials(n.Source)
	if err := AssignShaders(materials, s.opts.Shaders, s.opts.Assignments, s.opts.DefaultShader); err != nil {
		return nil, errors.Wrapf(err, "mesh %s", n.Name)
	}

	doc := &formats.MeshDocument{
		Name:      n.Name,
		Vertices:  g.Vertices,
		Faces:     g.Faces,
		Materials: materials,
	}
	res := &MeshResult{Name: n.Name, Document: doc, Textures: textures, Large: map[string]string{}}

	if weights := ExtractWeights(n.Source.Mesh, g, s.Hierarchy, s.Skeleton); len(weights) > 0 && !s.Skeleton.Empty() {
		doc.Rig = s.Skeleton.Rig
		doc.Weights = weights
		res.BlendShapes = ExtractBlendShapes(s.Context, n.Source, g)
	}

	if s.opts.Textures != nil {
		for small, large := range s.opts.Textures.LargeVariants(textures) {
			res.Large[small] = large
			s.Context.Large[small] = large
		}
	}

	log.Info("mesh converted",
		zap.Int("control_points", g.ControlPoints),
		zap.Int("vertices", len(g.Vertices)),
		zap.Int("faces", len(g.Faces)),
		zap.Bool("skinned", doc.Skinned()),
		zap.Int("blend_shapes", len(res.BlendShapes)),
		zap.Int("materials", len(materials)))
	return res, nil
}

// ConvertMeshes converts handles in order and passes each result to done.
// A mesh that fails to convert, or whose done callback fails, is logged and
// counted while the remaining meshes still convert. Cancellation stops the
// batch and is returned as the error.
func (s *Session) ConvertMeshes(ctx context.Context, handles []int, done func(*MeshResult) error) (failed int, err error) {
	total := len(handles)
	for i, handle := range handles {
		if err := ctx.Err(); err != nil {
			return failed + total - i, err
		}
		s.opts.Progress.report(StageMeshes, i, total)

		res, err := s.ConvertMesh(ctx, handle)
		if err == nil && done != nil {
			err = done(res)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return failed + total - i, err
			}
			failed++
			name := ""
			if n := s.Hierarchy.Node(handle); n != nil {
				name = n.Name
			}
			s.Context.Log.Error("mesh failed", zap.String("mesh", name), zap.Error(err))
		}
	}
	s.opts.Progress.report(StageMeshes, total, total)
	return failed, nil
}

// WriteOptions selects the documents WriteOutputs produces.
type WriteOptions struct {
	Rig    bool
	Mesh   bool
	Matlib bool
	Morph  bool
	// HighMatlib names the library <mesh>_high.matlibx and swaps in large textures.
	HighMatlib bool
}

// DefaultWriteOptions writes every document.
func DefaultWriteOptions() WriteOptions {
	return WriteOptions{Rig: true, Mesh: true, Matlib: true, Morph: true, HighMatlib: true}
}

// Outputs lists the files written for one mesh. Empty paths were not written.
type Outputs struct {
	Mesh   string
	Rig    string
	Matlib string
	Morph  string
	// Textures are the textures the crunch step converts, large variants included.
	Textures []string
	// Authored are the unique authored textures, assembled into the mesh peg.
	Authored []string
	// PegTextures are the textures the material library peg assembles.
	PegTextures []string
}

// OutputNames returns the document paths of a mesh in dir.
func OutputNames(dir, mesh string, skinned, high bool) Outputs {
	out := Outputs{
		Mesh:   filepath.Join(dir, mesh+formats.ExtStatic),
		Matlib: filepath.Join(dir, mesh+formats.ExtMaterialLib),
	}
	if skinned {
		out.Mesh = filepath.Join(dir, mesh+formats.ExtCharacter)
		out.Rig = filepath.Join(dir, mesh+formats.ExtRig)
		out.Morph = filepath.Join(dir, mesh+"_"+formats.DefaultPlatform+formats.ExtMorph)
	}
	if high {
		out.Matlib = filepath.Join(dir, mesh+"_high"+formats.ExtMaterialLib)
	}
	return out
}

// WriteOutputs writes the documents of a converted mesh into dir.
func WriteOutputs(res *MeshResult, dir string, opts WriteOptions) (*Outputs, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating output directory")
	}
	names := OutputNames(dir, res.Name, res.Skinned(), opts.HighMatlib)
	out := &Outputs{}

	order, _ := formats.EmitOrder(res.Document.Vertices, res.Document.Faces)
	if opts.Mesh {
		err := writeFile(names.Mesh, func(w io.Writer) error {
			var err error
			order, err = formats.WriteMeshx(w, res.Document)
			return err
		})
		if err != nil {
			return nil, err
		}
		out.Mesh = names.Mesh
	}

	if opts.Rig && res.Skinned() {
		err := writeFile(names.Rig, func(w io.Writer) error {
			return formats.WriteRigx(w, res.Document.Rig)
		})
		if err != nil {
			return nil, err
		}
		out.Rig = names.Rig
	}

	if opts.Matlib {
		mo := formats.MaterialOptions{High: formats.IsHighMatlib(names.Matlib), Large: res.Large}
		err := writeFile(names.Matlib, func(w io.Writer) error {
			return formats.WriteMatlibx(w, res.Document.Materials, mo)
		})
		if err != nil {
			return nil, err
		}
		out.Matlib = names.Matlib
	}

	if opts.Morph && res.Skinned() && len(res.BlendShapes) > 0 {
		doc := &formats.MorphDocument{MeshFile: names.Mesh, Targets: res.BlendShapes, Order: order}
		err := writeFile(names.Morph, func(w io.Writer) error {
			return formats.WriteMorphx(w, doc)
		})
		if err != nil {
			return nil, err
		}
		out.Morph = names.Morph
	}

	seen := make(map[string]bool)
	for _, t := range res.Textures {
		if !seen[t] {
			seen[t] = true
			out.Textures = append(out.Textures, t)
			out.Authored = append(out.Authored, t)
		}
		tex := t
		if large, ok := res.Large[t]; ok {
			if !seen[large] {
				seen[large] = true
				out.Textures = append(out.Textures, large)
			}
			if opts.HighMatlib {
				tex = large
			}
		}
		out.PegTextures = append(out.PegTextures, tex)
	}
	return out, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", path)
	}
	return nil
}
