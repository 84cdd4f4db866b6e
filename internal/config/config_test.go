package config

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Paths.WorkingDir != "." {
		t.Errorf("expected working dir '.', got %s", cfg.Paths.WorkingDir)
	}
	if cfg.Paths.OutputDir != "" {
		t.Errorf("expected empty output dir, got %s", cfg.Paths.OutputDir)
	}

	if cfg.Convert.Convention != "" {
		t.Errorf("expected no convention, got %s", cfg.Convert.Convention)
	}
	if !cfg.Convert.WriteRig || !cfg.Convert.WriteMesh || !cfg.Convert.WriteMatlib || !cfg.Convert.WriteMorph {
		t.Error("expected every document to be written by default")
	}
	if !cfg.Convert.HighMatlib {
		t.Error("expected high_matlib to be true by default")
	}

	if cfg.Crunch.Enabled {
		t.Error("expected crunching to be disabled by default")
	}
	if cfg.Crunch.Platform != "pc" {
		t.Errorf("expected platform 'pc', got %s", cfg.Crunch.Platform)
	}
	if cfg.Crunch.ShadersPack != "shaders.vpp_pc" {
		t.Errorf("expected shaders pack 'shaders.vpp_pc', got %s", cfg.Crunch.ShadersPack)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestShaderTemplatePath(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "custom.xml")
	tests := []struct {
		name     string
		workDir  string
		template string
		want     string
	}{
		{"default", "tools", "", filepath.Join("tools", DefaultShaderTemplate)},
		{"relative", "tools", "other.xml", filepath.Join("tools", "other.xml")},
		{"absolute", "tools", abs, abs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Paths.WorkingDir = tt.workDir
			cfg.Paths.ShaderTemplate = tt.template
			if got := cfg.ShaderTemplatePath(); got != tt.want {
				t.Errorf("ShaderTemplatePath() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestShadersPackPath(t *testing.T) {
	cfg := Default()
	cfg.Paths.WorkingDir = "tools"
	if got, want := cfg.ShadersPackPath(), filepath.Join("tools", "shaders.vpp_pc"); got != want {
		t.Errorf("ShadersPackPath() = %s, want %s", got, want)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
paths:
  working_dir: "/opt/sr"
  shader_template: "shaders.xml"
  output_dir: "out"

convert:
  convention: "maya"
  meshes: ["body", "head"]
  write_rig: false
  high_matlib: false

shaders:
  default: "ir_bbsimple1"
  assignments:
    skin: "character_skin"

crunch:
  enabled: true
  remove_temp: true

logging:
  level: "debug"
  log_file: "srconv.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Paths.WorkingDir != "/opt/sr" {
		t.Errorf("expected working dir /opt/sr, got %s", cfg.Paths.WorkingDir)
	}
	if cfg.Paths.ShaderTemplate != "shaders.xml" {
		t.Errorf("expected shader template shaders.xml, got %s", cfg.Paths.ShaderTemplate)
	}
	if cfg.Paths.OutputDir != "out" {
		t.Errorf("expected output dir out, got %s", cfg.Paths.OutputDir)
	}

	if cfg.Convert.Convention != "maya" {
		t.Errorf("expected convention maya, got %s", cfg.Convert.Convention)
	}
	if !reflect.DeepEqual(cfg.Convert.Meshes, []string{"body", "head"}) {
		t.Errorf("expected meshes [body head], got %v", cfg.Convert.Meshes)
	}
	if cfg.Convert.WriteRig {
		t.Error("expected write_rig to be false")
	}
	if !cfg.Convert.WriteMesh {
		t.Error("expected write_mesh to keep its default")
	}
	if cfg.Convert.HighMatlib {
		t.Error("expected high_matlib to be false")
	}

	if cfg.Shaders.Default != "ir_bbsimple1" {
		t.Errorf("expected default shader ir_bbsimple1, got %s", cfg.Shaders.Default)
	}
	if cfg.Shaders.Assignments["skin"] != "character_skin" {
		t.Errorf("expected skin -> character_skin, got %v", cfg.Shaders.Assignments)
	}

	if !cfg.Crunch.Enabled {
		t.Error("expected crunch to be enabled")
	}
	if !cfg.Crunch.RemoveTemp {
		t.Error("expected remove_temp to be true")
	}
	if cfg.Crunch.Platform != "pc" {
		t.Errorf("expected platform to keep default pc, got %s", cfg.Crunch.Platform)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "srconv.log" {
		t.Errorf("expected log file 'srconv.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
convert:
  write_rig: not a bool
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "srconv.yaml")
	if err := os.WriteFile(configPath, []byte("logging:\n  level: warn\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find srconv.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "force max",
			args: []string{"-force-max"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.Convention != "max" {
					t.Errorf("expected convention max, got %s", cfg.Convert.Convention)
				}
			},
		},
		{
			name: "force maya",
			args: []string{"-force-maya"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Convert.Convention != "maya" {
					t.Errorf("expected convention maya, got %s", cfg.Convert.Convention)
				}
			},
		},
		{
			name: "paths and shader",
			args: []string{"-shader", "ir_bbsimple1", "-out", "build", "-working-dir", "tools"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Shaders.Default != "ir_bbsimple1" {
					t.Errorf("expected default shader ir_bbsimple1, got %s", cfg.Shaders.Default)
				}
				if cfg.Paths.OutputDir != "build" {
					t.Errorf("expected output dir build, got %s", cfg.Paths.OutputDir)
				}
				if cfg.Paths.WorkingDir != "tools" {
					t.Errorf("expected working dir tools, got %s", cfg.Paths.WorkingDir)
				}
			},
		},
		{
			name: "crunch",
			args: []string{"-crunch"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Crunch.Enabled {
					t.Error("expected crunch to be enabled")
				}
			},
		},
		{
			name: "meshes",
			args: []string{"-mesh", "body,head", "-mesh", " hair "},
			verify: func(t *testing.T, cfg *Config) {
				want := []string{"body", "head", "hair"}
				if !reflect.DeepEqual(cfg.Convert.Meshes, want) {
					t.Errorf("expected meshes %v, got %v", want, cfg.Convert.Meshes)
				}
			},
		},
		{
			name: "no flags",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if !reflect.DeepEqual(cfg, Default()) {
					t.Errorf("expected defaults, got %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFlags("test", tt.args)
			if err != nil {
				t.Fatalf("ParseFlags: %v", err)
			}
			cfg := Default()
			f.applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestParseFlagsConflictingConventions(t *testing.T) {
	f := NewFlags("convert")
	f.FlagSet().SetOutput(io.Discard)
	err := f.Parse([]string{"-force-max", "-force-maya", "scene.gltf"})
	if !errors.Is(err, ErrConflictingConventions) {
		t.Fatalf("expected ErrConflictingConventions, got %v", err)
	}

	if _, err := ParseFlags("convert", []string{"-force-maya", "scene.gltf"}); err != nil {
		t.Errorf("single convention rejected: %v", err)
	}
}

func TestParseFlagsArgs(t *testing.T) {
	f, err := ParseFlags("convert", []string{"-debug", "scene.gltf", "extra"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	if got := f.Args(); !reflect.DeepEqual(got, []string{"scene.gltf", "extra"}) {
		t.Errorf("Args() = %v", got)
	}
}

func TestParseFlagsUnknown(t *testing.T) {
	f := NewFlags("convert")
	f.FlagSet().SetOutput(io.Discard)
	if err := f.Parse([]string{"-nope"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
paths:
  working_dir: "/from/file"
  output_dir: "file-out"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	f, err := ParseFlags("convert", []string{"-config", configPath, "-out", "flag-out"})
	if err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Output dir comes from the flag, not the file
	if cfg.Paths.OutputDir != "flag-out" {
		t.Errorf("expected output dir flag-out, got %s", cfg.Paths.OutputDir)
	}
	// Working dir comes from the file since no flag overrides it
	if cfg.Paths.WorkingDir != "/from/file" {
		t.Errorf("expected working dir /from/file, got %s", cfg.Paths.WorkingDir)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Shaders.Default = "ir_bbsimple1"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}
	if loaded.Shaders.Default != "ir_bbsimple1" {
		t.Errorf("expected saved default shader, got %s", loaded.Shaders.Default)
	}
}
