// Package config handles converter configuration loading and management.
package config

import "path/filepath"

// DefaultShaderTemplate is the shader template file looked up in the working directory.
const DefaultShaderTemplate = "sr_shaders.xml"

// Config holds all converter settings.
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Convert ConvertConfig `yaml:"convert"`
	Shaders ShadersConfig `yaml:"shaders"`
	Crunch  CrunchConfig  `yaml:"crunch"`
	Logging LoggingConfig `yaml:"logging"`
}

// PathsConfig holds tool and output locations.
type PathsConfig struct {
	WorkingDir     string `yaml:"working_dir"`     // Crunchers, shader pack and default textures
	ShaderTemplate string `yaml:"shader_template"` // Empty means sr_shaders.xml in WorkingDir
	OutputDir      string `yaml:"output_dir"`      // Empty means next to the input file
}

// ConvertConfig selects what a conversion produces.
type ConvertConfig struct {
	Convention  string   `yaml:"convention"` // "", "max" or "maya"
	Meshes      []string `yaml:"meshes"`     // Empty converts every mesh
	WriteRig    bool     `yaml:"write_rig"`
	WriteMesh   bool     `yaml:"write_mesh"`
	WriteMatlib bool     `yaml:"write_matlib"`
	WriteMorph  bool     `yaml:"write_morph"`
	HighMatlib  bool     `yaml:"high_matlib"`
}

// ShadersConfig maps materials to shaders.
type ShadersConfig struct {
	Default     string            `yaml:"default"`
	Assignments map[string]string `yaml:"assignments"` // Material name to shader name
}

// CrunchConfig holds cruncher settings.
type CrunchConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Platform    string `yaml:"platform"`
	ShadersPack string `yaml:"shaders_pack"`
	RemoveTemp  bool   `yaml:"remove_temp"` // Delete intermediates after crunching
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			WorkingDir: ".",
		},
		Convert: ConvertConfig{
			WriteRig:    true,
			WriteMesh:   true,
			WriteMatlib: true,
			WriteMorph:  true,
			HighMatlib:  true,
		},
		Shaders: ShadersConfig{
			Assignments: map[string]string{},
		},
		Crunch: CrunchConfig{
			Enabled:     false,
			Platform:    "pc",
			ShadersPack: "shaders.vpp_pc",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ShaderTemplatePath returns the shader template file, resolved against the working directory.
func (c *Config) ShaderTemplatePath() string {
	path := c.Paths.ShaderTemplate
	if path == "" {
		path = DefaultShaderTemplate
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Paths.WorkingDir, path)
}

// ShadersPackPath returns the shader pack handed to the mesh and material crunchers.
func (c *Config) ShadersPackPath() string {
	if filepath.IsAbs(c.Crunch.ShadersPack) {
		return c.Crunch.ShadersPack
	}
	return filepath.Join(c.Paths.WorkingDir, c.Crunch.ShadersPack)
}
