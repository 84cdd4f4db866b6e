package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LocalConfigFile is the per-project config looked up in the current directory.
const LocalConfigFile = "srconv.yaml"

// Load loads configuration with priority: defaults < file < flags.
// A nil f loads defaults and the discovered config file only.
func Load(f *Flags) (*Config, error) {
	cfg := Default()

	// -config wins over discovery.
	var configPath string
	if f != nil {
		configPath = f.ConfigPath()
	}
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, errors.Wrapf(err, "config %s", configPath)
		}
	}

	if f != nil {
		f.applyFlags(cfg)
	}

	return cfg, nil
}

// findConfigFile returns srconv.yaml from the current directory when present,
// else config.yaml from ConfigDir, else "".
func findConfigFile() string {
	for _, path := range []string{LocalConfigFile, filepath.Join(ConfigDir(), "config.yaml")} {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir is where "srconv config" writes and Load falls back to:
// SRConvert under the platform settings directory, or sr-convert under XDG.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "SRConvert")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "SRConvert")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "sr-convert")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "sr-convert")
	}
}

// loadFromFile overlays the YAML file at path onto cfg; keys the file omits keep their current values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
