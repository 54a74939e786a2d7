package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileIsZeroValue(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoad_Yml(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`language: python
output_dir: build/docs
exclude_dirs:
  - generated
  - migrations
max_symbols_per_file: 50
no_render: true
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeatlas.yml"), data, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "python", cfg.Language)
	assert.Equal(t, "build/docs", cfg.OutputDir)
	assert.Equal(t, []string{"generated", "migrations"}, cfg.ExcludeDirs)
	assert.Equal(t, 50, cfg.MaxSymbolsPerFile)
	assert.True(t, cfg.NoRender)
}

func TestLoad_YamlExtensionFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeatlas.yaml"),
		[]byte("language: go\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "go", cfg.Language)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codeatlas.yml"),
		[]byte("language: [unclosed\n"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}
