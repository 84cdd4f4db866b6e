// srconv converts authored scenes into Saints Row intermediate files and
// optionally runs the crunchers over them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/sr-convert/internal/assets"
	"github.com/Faultbox/sr-convert/internal/config"
	"github.com/Faultbox/sr-convert/internal/convert"
	"github.com/Faultbox/sr-convert/internal/crunch"
	"github.com/Faultbox/sr-convert/internal/logger"
	"github.com/Faultbox/sr-convert/pkg/formats"
	"github.com/Faultbox/sr-convert/pkg/scene"
	"github.com/Faultbox/sr-convert/pkg/scene/gltfscene"
)

var loader scene.Loader = gltfscene.Loader{}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "convert", "c":
		cmdConvert(args)
	case "inspect", "i":
		cmdInspect(args)
	case "shaders":
		cmdShaders(args)
	case "crunch":
		cmdCrunch(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`srconv - Saints Row scene converter

Usage:
  srconv <command> [options]

Commands:
  convert <scene.gltf>          Write rig, mesh, material and morph files
  inspect [-dump] <scene.gltf>  Show how the scene is classified
  shaders                       List the shaders in the template library
  crunch <file.rule>...         Run the crunchers on existing rule files
  config [path]                 Write the effective configuration

Options:
  -config <file>       Config file (default ./srconv.yaml)
  -debug               Enable debug logging
  -force-max           Treat the scene as authored in 3ds Max
  -force-maya          Treat the scene as authored in Maya
  -shader <name>       Default shader for unassigned materials
  -out <dir>           Output directory (default: next to the scene)
  -working-dir <dir>   Directory holding the crunchers and sr_shaders.xml
  -crunch              Crunch the written files
  -mesh <name>         Mesh to convert, repeatable (default: all)

Examples:
  srconv convert -force-maya -shader ir_bbsimple1 character.gltf
  srconv convert -mesh body,head -crunch -working-dir C:/sdk/tools character.glb
  srconv inspect -dump character.gltf`)
}

// setup parses a command's flags, loads the configuration and starts logging.
func setup(f *config.Flags, args []string) *config.Config {
	if err := f.Parse(args); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitFromConfig(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)
	return cfg
}

func fatal(msg string, err error) {
	logger.Error(msg, zap.Error(err))
	logger.Sync()
	os.Exit(1)
}

// openSession loads the scene and classifies it.
func openSession(ctx context.Context, cfg *config.Config, path string, opts convert.Options) *convert.Session {
	conv, err := convert.ParseConvention(cfg.Convert.Convention)
	if err != nil {
		fatal("invalid convention", err)
	}
	opts.Convention = conv
	opts.Log = logger.Log

	sc, err := loader.Load(ctx, path)
	if err != nil {
		fatal("failed to load scene", err)
	}
	sess, err := convert.NewSession(sc, opts)
	if err != nil {
		fatal("failed to read scene", err)
	}
	return sess
}

func cmdConvert(args []string) {
	f := config.NewFlags("convert")
	cfg := setup(f, args)
	if len(f.Args()) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: srconv convert [options] <scene.gltf>")
		os.Exit(1)
	}
	input := f.Args()[0]
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lib, err := formats.LoadShaderLibrary(cfg.ShaderTemplatePath())
	if err != nil {
		fatal("failed to load shader templates", err)
	}

	textures := assets.NewManager(logger.Log)
	defer textures.Close()

	sess := openSession(ctx, cfg, input, convert.Options{
		Shaders:       lib,
		DefaultShader: cfg.Shaders.Default,
		Assignments:   cfg.Shaders.Assignments,
		Textures:      textures,
		Progress: func(stage string, done, total int) {
			if stage == convert.StageMeshes && done < total {
				logger.Info("converting mesh", zap.Int("mesh", done+1), zap.Int("of", total))
			}
		},
	})
	log := sess.Context.Log

	handles, err := sess.MeshHandles(cfg.Convert.Meshes)
	if err != nil {
		fatal("mesh selection", err)
	}
	if len(handles) == 0 {
		log.Warn("scene has no meshes to convert")
		return
	}

	outDir := cfg.Paths.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	wopts := convert.WriteOptions{
		Rig:        cfg.Convert.WriteRig,
		Mesh:       cfg.Convert.WriteMesh,
		Matlib:     cfg.Convert.WriteMatlib,
		Morph:      cfg.Convert.WriteMorph,
		HighMatlib: cfg.Convert.HighMatlib,
	}

	var runner *crunch.Runner
	if cfg.Crunch.Enabled {
		runner = crunch.NewRunner(cfg.Paths.WorkingDir, cfg.ShadersPackPath(), log.Named("crunch"))
	}

	failed, err := sess.ConvertMeshes(ctx, handles, func(res *convert.MeshResult) error {
		return writeMesh(ctx, sess, res, outDir, wopts, cfg.Crunch.Platform, runner)
	})
	if err != nil {
		log.Warn("conversion cancelled", zap.Error(err))
	}

	if runner != nil && cfg.Crunch.RemoveTemp {
		removed, err := crunch.CleanIntermediates(outDir, log)
		if err != nil {
			log.Warn("failed to remove temp files", zap.Error(err))
		}
		log.Info("removed temp files", zap.Int("count", len(removed)))
	}

	hits, misses := textures.Stats()
	log.Debug("texture probes", zap.Int("hits", hits), zap.Int("misses", misses))

	if failed > 0 {
		log.Error("conversion finished with errors", zap.Int("failed", failed), zap.Int("meshes", len(handles)))
		logger.Sync()
		os.Exit(1)
	}
	log.Info("conversion completed", zap.Int("meshes", len(handles)), zap.String("output", outDir))
}

// writeMesh writes the documents of one converted mesh and optionally crunches them.
func writeMesh(ctx context.Context, sess *convert.Session, res *convert.MeshResult, outDir string, wopts convert.WriteOptions, platform string, runner *crunch.Runner) error {
	out, err := convert.WriteOutputs(res, outDir, wopts)
	if err != nil {
		return err
	}
	if !res.Skinned() && wopts.Rig {
		sess.Context.Log.Info("static mesh, no rig written", zap.String("mesh", res.Name))
	}
	if runner == nil {
		return nil
	}

	rules, err := crunch.Rules(out, platform)
	if err != nil {
		return err
	}
	return runner.RunAll(ctx, rules).Err()
}

func cmdInspect(args []string) {
	f := config.NewFlags("inspect")
	dump := f.FlagSet().Bool("dump", false, "Dump the rig and hierarchy")
	cfg := setup(f, args)
	if len(f.Args()) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: srconv inspect [-dump] <scene.gltf>")
		os.Exit(1)
	}
	defer logger.Sync()

	sess := openSession(context.Background(), cfg, f.Args()[0], convert.Options{})
	h := sess.Hierarchy

	fmt.Printf("Scene:      %s\n", sess.Scene.Source)
	fmt.Printf("Up axis:    %v\n", sess.Scene.Axis.Up)
	fmt.Printf("Scale:      %g\n", sess.Context.Scale)
	fmt.Printf("Nodes:      %d\n", len(h.Nodes))
	fmt.Printf("Bones:      %d\n", len(sess.Skeleton.Rig.Bones))
	fmt.Printf("Tags:       %d\n", len(sess.Skeleton.Rig.Tags))
	fmt.Printf("Meshes:     %d\n", len(h.Meshes))
	fmt.Println()

	for _, n := range h.Nodes {
		indent := strings.Repeat("  ", depth(h, n))
		fmt.Printf("%4d %s%s (%s)\n", n.Handle, indent, n.Name, n.Kind)
	}

	if len(sess.Skeleton.Rig.Bones) > 0 {
		fmt.Println()
		fmt.Println("Bones:")
		for _, b := range sess.Skeleton.Rig.Bones {
			fmt.Printf("  %3d %-24s parent %d\n", b.Index, b.Name, b.Parent)
		}
	}

	if *dump {
		fmt.Println()
		spew.Dump(sess.Skeleton.Rig)
	}
}

func depth(h *convert.Hierarchy, n convert.SceneNode) int {
	d := 0
	for p := n.Parent; p != convert.NoHandle; p = h.Node(p).Parent {
		d++
	}
	return d
}

func cmdShaders(args []string) {
	f := config.NewFlags("shaders")
	cfg := setup(f, args)
	defer logger.Sync()

	lib, err := formats.LoadShaderLibrary(cfg.ShaderTemplatePath())
	if err != nil {
		fatal("failed to load shader templates", err)
	}
	for _, name := range lib.Names() {
		tpl, _ := lib.Lookup(name)
		fmt.Printf("%-32s %d fields\n", name, len(tpl.Fields))
	}
}

func cmdCrunch(args []string) {
	f := config.NewFlags("crunch")
	cfg := setup(f, args)
	if len(f.Args()) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: srconv crunch [options] <file.rule>...")
		os.Exit(1)
	}
	defer logger.Sync()

	var rules []*formats.Rule
	for _, path := range f.Args() {
		rule, err := readRule(path)
		if err != nil {
			fatal("failed to read rule", err)
		}
		rules = append(rules, rule)
	}

	runner := crunch.NewRunner(cfg.Paths.WorkingDir, cfg.ShadersPackPath(), logger.ForSession(uuid.New().String()))
	rep := runner.RunAll(context.Background(), rules)
	for _, r := range rep.Results {
		fmt.Printf("%-8s %s\n", r.Severity, filepath.Base(r.Rule))
		if r.Severity == crunch.Warning {
			logger.Warn("cruncher reported warnings", zap.String("rule", r.Rule), zap.Int("code", r.Code))
		}
	}
	if err := rep.Err(); err != nil {
		fatal("crunch failed", err)
	}
}

func readRule(path string) (*formats.Rule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	rule, err := formats.ReadRule(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rule.Path = path
	return rule, nil
}

func cmdConfig(args []string) {
	f := config.NewFlags("config")
	cfg := setup(f, args)
	defer logger.Sync()

	var err error
	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if len(f.Args()) > 0 {
		path = f.Args()[0]
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fatal("failed to write config", err)
	}
	fmt.Printf("Config written to %s\n", path)
}
