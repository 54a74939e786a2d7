// Package config loads the optional per-project analysis configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileNames are the recognized config files, checked in order.
var fileNames = []string{"codeatlas.yml", "codeatlas.yaml"}

// Config is the per-project configuration. All fields are optional; CLI
// flags override whatever is set here.
type Config struct {
	// Language forces the extraction language instead of autodetection.
	Language string `yaml:"language"`

	// OutputDir overrides where docs.md and the diagram are written.
	OutputDir string `yaml:"output_dir"`

	// ExcludeDirs are directory names skipped during the scan, in addition
	// to the built-in ignore set.
	ExcludeDirs []string `yaml:"exclude_dirs"`

	// MaxSymbolsPerFile caps call-edge inference per file.
	MaxSymbolsPerFile int `yaml:"max_symbols_per_file"`

	// NoRender disables diagram rasterization.
	NoRender bool `yaml:"no_render"`
}

// Load reads the project config from dir. A missing file is not an error:
// the zero-value config is returned so every setting falls back to flag or
// built-in defaults.
func Load(dir string) (Config, error) {
	var cfg Config
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", name, err)
		}
		return cfg, nil
	}
	return cfg, nil
}
