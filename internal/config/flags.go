package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrConflictingConventions is returned when both -force-max and -force-maya are set.
var ErrConflictingConventions = errors.New("-force-max and -force-maya are mutually exclusive")

// meshList collects -mesh values; each value may also be a comma separated list.
type meshList []string

func (m *meshList) String() string { return strings.Join(*m, ",") }

func (m *meshList) Set(v string) error {
	for _, name := range strings.Split(v, ",") {
		if name = strings.TrimSpace(name); name != "" {
			*m = append(*m, name)
		}
	}
	return nil
}

// Flags holds command-line overrides for one subcommand.
type Flags struct {
	set *flag.FlagSet

	config     string
	debug      bool
	forceMax   bool
	forceMaya  bool
	shader     string
	out        string
	workingDir string
	crunch     bool
	meshes     meshList
}

// NewFlags registers the override flags on a new flag set.
func NewFlags(name string) *Flags {
	f := &Flags{set: flag.NewFlagSet(name, flag.ContinueOnError)}
	f.set.StringVar(&f.config, "config", "", "Path to config file")
	f.set.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	f.set.BoolVar(&f.forceMax, "force-max", false, "Treat the scene as authored in 3ds Max")
	f.set.BoolVar(&f.forceMaya, "force-maya", false, "Treat the scene as authored in Maya")
	f.set.StringVar(&f.shader, "shader", "", "Default shader for unassigned materials")
	f.set.StringVar(&f.out, "out", "", "Output directory")
	f.set.StringVar(&f.workingDir, "working-dir", "", "Directory holding the crunchers and shader files")
	f.set.BoolVar(&f.crunch, "crunch", false, "Run the crunchers on the written files")
	f.set.Var(&f.meshes, "mesh", "Mesh to convert (repeatable, comma separated)")
	return f
}

// FlagSet exposes the underlying flag set so commands can add their own flags.
func (f *Flags) FlagSet() *flag.FlagSet {
	return f.set
}

// Parse parses a subcommand's arguments. Like flag parse errors, a rejected
// flag combination is reported on the flag set's output.
func (f *Flags) Parse(args []string) error {
	if err := f.set.Parse(args); err != nil {
		return err
	}
	if f.forceMax && f.forceMaya {
		fmt.Fprintln(f.set.Output(), ErrConflictingConventions)
		return ErrConflictingConventions
	}
	return nil
}

// Args returns the positional arguments left after parsing.
func (f *Flags) Args() []string {
	return f.set.Args()
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	return f.config
}

// ParseFlags parses args with the default override flags.
func ParseFlags(name string, args []string) (*Flags, error) {
	f := NewFlags(name)
	if err := f.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// applyFlags applies CLI flag overrides to the config.
func (f *Flags) applyFlags(cfg *Config) {
	if f.debug {
		cfg.Logging.Level = "debug"
	}
	switch {
	case f.forceMax:
		cfg.Convert.Convention = "max"
	case f.forceMaya:
		cfg.Convert.Convention = "maya"
	}
	if f.shader != "" {
		cfg.Shaders.Default = f.shader
	}
	if f.out != "" {
		cfg.Paths.OutputDir = f.out
	}
	if f.workingDir != "" {
		cfg.Paths.WorkingDir = f.workingDir
	}
	if f.crunch {
		cfg.Crunch.Enabled = true
	}
	if len(f.meshes) > 0 {
		cfg.Convert.Meshes = append([]string(nil), f.meshes...)
	}
}
