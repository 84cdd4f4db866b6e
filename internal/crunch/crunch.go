// Package crunch drives the external crunchers that turn intermediate
// documents into platform files.
//
// A cruncher is picked from the prefix of the rule file name and run from
// the working directory. Runs are sequential and awaited: the morph rule
// reads the key file the mesh cruncher writes.
package crunch

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/sr-convert/pkg/formats"
)

// Cruncher executables, in prefix match order.
const (
	PegCruncher      = "peg_assemble_wd"
	RigCruncher      = "rig_cruncher_wd"
	MaterialCruncher = "material_library_crunch_wd"
	MeshCruncher     = "mesh_crunch_wd"
	TextureCruncher  = "texture_crunch_wd"
	MorphCruncher    = "morph_crunch_wd"
)

var crunchers = []string{PegCruncher, RigCruncher, MaterialCruncher, MeshCruncher, TextureCruncher, MorphCruncher}

var (
	ErrRuleMissing     = errors.New("rule file does not exist")
	ErrShadersMissing  = errors.New("shaders pack does not exist")
	ErrCruncherMissing = errors.New("cruncher does not exist")
	ErrUnknownRule     = errors.New("no cruncher for rule")
)

// Severity classifies a cruncher exit code.
type Severity int

const (
	OK Severity = iota
	Warning
	Failed
)

func (s Severity) String() string {
	switch s {
	case OK:
		return "ok"
	case Warning:
		return "warning"
	default:
		return "failed"
	}
}

// Classify maps an exit code to a severity: 0 is ok, 3-5 are warnings,
// everything else (1-2 included) failed.
func Classify(code int) Severity {
	switch {
	case code == 0:
		return OK
	case code >= 3 && code <= 5:
		return Warning
	default:
		return Failed
	}
}

// CruncherFor returns the cruncher that handles a rule file.
func CruncherFor(rulePath string) (string, bool) {
	base := filepath.Base(rulePath)
	for _, c := range crunchers {
		if strings.HasPrefix(base, c) {
			return c, true
		}
	}
	return "", false
}

// Executor runs a process to completion and returns its exit code.
// err is set only when the process could not be run at all.
type Executor interface {
	Exec(ctx context.Context, name string, args ...string) (code int, output string, err error)
}

// ShellExecutor runs crunchers through mage's sh package.
// Output streams to stdout when mage verbose mode is on.
type ShellExecutor struct{}

func (ShellExecutor) Exec(ctx context.Context, name string, args ...string) (int, string, error) {
	if err := ctx.Err(); err != nil {
		return -1, "", err
	}
	var b bytes.Buffer
	var out io.Writer = &b
	if mg.Verbose() {
		out = io.MultiWriter(&b, os.Stdout)
	}
	ran, err := sh.Exec(nil, out, out, name, args...)
	if !ran {
		return -1, b.String(), errors.Wrapf(err, "running %s", name)
	}
	return sh.ExitStatus(err), b.String(), nil
}

// Runner crunches rule files.
type Runner struct {
	WorkingDir  string
	ShadersPack string
	Exec        Executor
	Log         *zap.Logger
}

// NewRunner returns a runner for the crunchers in workDir.
func NewRunner(workDir, shadersPack string, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{WorkingDir: workDir, ShadersPack: shadersPack, Exec: ShellExecutor{}, Log: log}
}

// Command returns the executable and arguments that crunch a rule file.
// The mesh and material library crunchers also get the shaders pack.
func (r *Runner) Command(rulePath string) (string, []string, error) {
	cruncher, ok := CruncherFor(rulePath)
	if !ok {
		return "", nil, errors.Wrap(ErrUnknownRule, filepath.Base(rulePath))
	}
	exe := filepath.Join(r.WorkingDir, cruncher+".exe")
	if cruncher == MeshCruncher || cruncher == MaterialCruncher {
		return exe, []string{"-p", r.ShadersPack, rulePath}, nil
	}
	return exe, []string{rulePath}, nil
}

// Result is the outcome of one cruncher run.
type Result struct {
	Rule     string
	Cruncher string
	Code     int
	Severity Severity
	Output   string
	Err      error
}

// WriteRule writes a rule file, creating its logs and output directories.
func WriteRule(rule *formats.Rule) error {
	logDir := filepath.Dir(rule.Path)
	outDir := filepath.Join(filepath.Dir(logDir), formats.OutputDir)
	for _, dir := range []string{logDir, outDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "creating %s", dir)
		}
	}
	f, err := os.Create(rule.Path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", rule.Path)
	}
	if err := formats.WriteRule(f, rule); err != nil {
		f.Close()
		return errors.Wrapf(err, "writing %s", rule.Path)
	}
	return f.Close()
}

// Run writes a rule and crunches it, waiting for the cruncher to exit.
func (r *Runner) Run(ctx context.Context, rule *formats.Rule) Result {
	res := Result{Rule: rule.Path, Severity: Failed, Code: -1}
	if err := WriteRule(rule); err != nil {
		res.Err = err
		return res
	}
	res.Err = r.run(ctx, &res)
	return res
}

func (r *Runner) run(ctx context.Context, res *Result) error {
	if _, err := os.Stat(res.Rule); err != nil {
		return errors.Wrap(ErrRuleMissing, res.Rule)
	}
	if _, err := os.Stat(r.ShadersPack); err != nil {
		return errors.Wrap(ErrShadersMissing, r.ShadersPack)
	}
	exe, args, err := r.Command(res.Rule)
	if err != nil {
		return err
	}
	res.Cruncher, _ = CruncherFor(res.Rule)
	if _, err := os.Stat(exe); err != nil {
		return errors.Wrap(ErrCruncherMissing, exe)
	}

	r.Log.Debug("crunching", zap.String("cruncher", res.Cruncher), zap.Strings("args", args))
	code, output, err := r.Exec.Exec(ctx, exe, args...)
	res.Output = output
	if err != nil {
		return err
	}
	res.Code = code
	res.Severity = Classify(code)
	switch res.Severity {
	case Failed:
		return errors.Errorf("%s exited with %d", res.Cruncher, code)
	case Warning:
		r.Log.Warn("cruncher reported issues",
			zap.String("rule", filepath.Base(res.Rule)),
			zap.Int("code", code))
	}
	return nil
}

// Report collects the results of a batch.
type Report struct {
	Results []Result
}

// Failed returns the runs that did not succeed.
func (rep *Report) Failed() []Result {
	var out []Result
	for _, r := range rep.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Warnings returns the runs that finished with warnings.
func (rep *Report) Warnings() []Result {
	var out []Result
	for _, r := range rep.Results {
		if r.Err == nil && r.Severity == Warning {
			out = append(out, r)
		}
	}
	return out
}

// Err combines the errors of every failed run.
func (rep *Report) Err() error {
	var err error
	for _, r := range rep.Results {
		if r.Err != nil {
			err = multierr.Append(err, errors.Wrap(r.Err, filepath.Base(r.Rule)))
		}
	}
	return err
}

// RunAll crunches rules in order. A failed rule is logged and recorded and
// the remaining rules still run; only cancellation stops the batch.
func (r *Runner) RunAll(ctx context.Context, rules []*formats.Rule) *Report {
	rep := &Report{}
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			rep.Results = append(rep.Results, Result{Rule: rule.Path, Code: -1, Severity: Failed, Err: err})
			break
		}
		res := r.Run(ctx, rule)
		if res.Err != nil {
			r.Log.Error("crunch failed",
				zap.String("rule", filepath.Base(rule.Path)),
				zap.Error(res.Err))
		} else {
			r.Log.Info("crunched", zap.String("rule", filepath.Base(rule.Path)))
		}
		rep.Results = append(rep.Results, res)
	}
	return rep
}
