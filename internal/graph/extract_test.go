package graph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakhurstlabs/codeatlas/internal/grammar"
)

// pyHandle returns a pattern-only Python handle. Extraction behavior under
// test is the declaration scan; parse health is covered by the full handle
// in TestExtract_Fixture.
func pyHandle(t *testing.T) *grammar.Handle {
	t.Helper()
	spec, ok := grammar.SpecFor(grammar.LangPython)
	require.True(t, ok)
	return &grammar.Handle{Spec: spec}
}

// writeTree materializes a map of relative path -> content under a temp dir.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func TestExtract_Provenance(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py":     "def alpha():\n    pass\n",
		"sub/b.py": "class Beta:\n    pass\n",
	})

	ex, err := Extract(context.Background(), root, pyHandle(t), ExtractOptions{})
	require.NoError(t, err)

	require.Equal(t, []string{"a.py", "sub/b.py"}, ex.Files)
	for _, s := range ex.Symbols() {
		_, statErr := os.Stat(filepath.Join(root, filepath.FromSlash(s.FilePath)))
		assert.NoError(t, statErr, "symbol %s points at a missing file", s.ID)
	}
}

func TestExtract_SymbolOrderAndLines(t *testing.T) {
	root := writeTree(t, map[string]string{
		"m.py": "class First:\n    pass\n\ndef second():\n    pass\n\ndef third():\n    pass\n",
	})

	ex, err := Extract(context.Background(), root, pyHandle(t), ExtractOptions{})
	require.NoError(t, err)

	symbols := ex.SymbolsByFile["m.py"]
	require.Len(t, symbols, 3)

	assert.Equal(t, "class::First", symbols[0].ID)
	assert.Equal(t, SymbolKindClass, symbols[0].Kind)
	assert.Equal(t, 1, symbols[0].Line)

	assert.Equal(t, "func::second", symbols[1].ID)
	assert.Equal(t, 4, symbols[1].Line)

	assert.Equal(t, "func::third", symbols[2].ID)
	assert.Equal(t, 7, symbols[2].Line)
}

func TestExtract_NestedDeclarationsAreFlat(t *testing.T) {
	root := writeTree(t, map[string]string{
		"n.py": "class Outer:\n    def method(self):\n        pass\n",
	})

	ex, err := Extract(context.Background(), root, pyHandle(t), ExtractOptions{})
	require.NoError(t, err)

	symbols := ex.SymbolsByFile["n.py"]
	require.Len(t, symbols, 2)
	assert.Equal(t, "class::Outer", symbols[0].ID)
	assert.Equal(t, "func::method", symbols[1].ID)
}

func TestExtract_SkipsUndecodableFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"ok.py": "def ok():\n    pass\n",
	})
	require.NoError(t, os.WriteFile(filepath.Join(root, "junk.py"), []byte{0xff, 0xfe, 0x00, 0x80}, 0o644))

	ex, err := Extract(context.Background(), root, pyHandle(t), ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"ok.py"}, ex.Files)
	assert.Equal(t, 1, ex.Skipped)
}

func TestExtract_IgnoresDefaultAndConfiguredDirs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"keep.py":             "def keep():\n    pass\n",
		"__pycache__/gone.py": "def gone():\n    pass\n",
		".venv/gone.py":       "def gone():\n    pass\n",
		"generated/gone.py":   "def gone():\n    pass\n",
	})

	ex, err := Extract(context.Background(), root, pyHandle(t), ExtractOptions{
		ExcludeDirs: []string{"generated"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.py"}, ex.Files)
}

func TestExtract_MissingRoot(t *testing.T) {
	_, err := Extract(context.Background(), filepath.Join(t.TempDir(), "nope"), pyHandle(t), ExtractOptions{})
	assert.ErrorIs(t, err, ErrIOFailure)
}

func TestExtract_Fixture(t *testing.T) {
	p, err := grammar.NewProvisioner(grammar.WithCacheDir(t.TempDir()))
	require.NoError(t, err)
	h, err := p.Ensure(context.Background(), grammar.LangPython)
	require.NoError(t, err)

	ex, err := Extract(context.Background(), "../../testdata/fixtures/py_project", h, ExtractOptions{})
	require.NoError(t, err)

	require.Equal(t, []string{"app.py", "util.py"}, ex.Files)
	assert.Zero(t, ex.Skipped)

	ids := make([]string, 0)
	for _, s := range ex.Symbols() {
		ids = append(ids, s.ID)
	}
	assert.Contains(t, ids, "class::Ledger")
	assert.Contains(t, ids, "func::build_ledger")
	assert.Contains(t, ids, "func::run_report")
	assert.Contains(t, ids, "func::format_amount")
}

func TestExtract_GoFixture(t *testing.T) {
	p, err := grammar.NewProvisioner(grammar.WithCacheDir(t.TempDir()))
	require.NoError(t, err)
	h, err := p.Ensure(context.Background(), grammar.LangGo)
	require.NoError(t, err)

	ex, err := Extract(context.Background(), "../../testdata/fixtures/go_project", h, ExtractOptions{})
	require.NoError(t, err)

	require.Equal(t, []string{"model.go", "service.go"}, ex.Files)

	ids := make(map[string]string)
	for _, s := range ex.Symbols() {
		ids[s.ID] = s.FilePath
	}
	assert.Equal(t, "model.go", ids["class::User"])
	assert.Equal(t, "model.go", ids["class::Repository"])
	assert.Equal(t, "model.go", ids["func::newUser"])
	assert.Equal(t, "service.go", ids["class::UserService"])
	assert.Equal(t, "service.go", ids["func::NewUserService"])
	assert.Equal(t, "service.go", ids["func::GetUser"])
	assert.Equal(t, "service.go", ids["func::CreateUser"])
}

func TestExtract_Deterministic(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.py": "def a():\n    pass\n",
		"b.py": "def b():\n    a()\n",
		"c.py": "def c():\n    pass\n",
	})

	first, err := Extract(context.Background(), root, pyHandle(t), ExtractOptions{Workers: 4})
	require.NoError(t, err)
	for range 5 {
		again, err := Extract(context.Background(), root, pyHandle(t), ExtractOptions{Workers: 4})
		require.NoError(t, err)
		assert.Equal(t, first.Files, again.Files)
		assert.Equal(t, first.Symbols(), again.Symbols())
	}
}
