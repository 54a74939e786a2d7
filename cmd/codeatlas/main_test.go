package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Version(t *testing.T) {
	assert.NoError(t, run([]string{"-version"}))
}

func TestRun_UnknownFlag(t *testing.T) {
	assert.Error(t, run([]string{"-definitely-not-a-flag"}))
}

func TestRun_AnalyzesFixture(t *testing.T) {
	t.Setenv("CODEATLAS_CACHE_DIR", t.TempDir())
	out := filepath.Join(t.TempDir(), "outputs")

	err := run([]string{
		"-root", "../../testdata/fixtures/py_project",
		"-out", out,
		"-lang", "python",
		"-no-render",
	})
	require.NoError(t, err)

	md, err := os.ReadFile(filepath.Join(out, "docs.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "Ledger Demo")
	assert.Contains(t, string(md), "Files analyzed: 2")
}

func TestRun_TreeListing(t *testing.T) {
	err := run([]string{
		"-root", "../../testdata/fixtures/py_project",
		"-tree",
	})
	assert.NoError(t, err)
}
