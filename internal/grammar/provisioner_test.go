package grammar

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFetch records invocations and writes a minimal grammar source tree.
func countingFetch(calls *int) FetchFunc {
	return func(_ context.Context, _ Spec, destDir string) error {
		*calls++
		src := filepath.Join(destDir, "src")
		if err := os.MkdirAll(src, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(src, "parser.c"), []byte("/* stub */\n"), 0o644)
	}
}

// fakeBuild writes a placeholder artifact without invoking a compiler.
func fakeBuild(_ context.Context, _ string, artifact string) error {
	return os.WriteFile(artifact, []byte("\x7fELF"), 0o644)
}

func TestEnsure_BuiltinNeedsNoFetch(t *testing.T) {
	fetchCalls := 0
	p, err := NewProvisioner(
		WithCacheDir(t.TempDir()),
		WithFetchFunc(countingFetch(&fetchCalls)),
		WithBuildFunc(fakeBuild),
	)
	require.NoError(t, err)

	for _, lang := range []Language{LangPython, LangGo, LangTypeScript, LangRust} {
		h, err := p.Ensure(context.Background(), lang)
		require.NoError(t, err, lang)
		assert.NotNil(t, h.Language, lang)
		assert.Empty(t, h.ArtifactPath, lang)
	}
	assert.Zero(t, fetchCalls)
}

func TestEnsure_UnknownLanguage(t *testing.T) {
	p, err := NewProvisioner(WithCacheDir(t.TempDir()))
	require.NoError(t, err)

	_, err = p.Ensure(context.Background(), "cobol")
	assert.ErrorIs(t, err, ErrGrammarUnavailable)
}

func TestEnsure_FetchAndBuildOnce(t *testing.T) {
	fetchCalls := 0
	p, err := NewProvisioner(
		WithCacheDir(t.TempDir()),
		WithFetchFunc(countingFetch(&fetchCalls)),
		WithBuildFunc(fakeBuild),
	)
	require.NoError(t, err)

	h, err := p.Ensure(context.Background(), LangJavaScript)
	require.NoError(t, err)
	assert.Nil(t, h.Language)
	assert.FileExists(t, h.ArtifactPath)
	assert.Equal(t, 1, fetchCalls)
}

func TestEnsure_CacheHitSkipsFetch(t *testing.T) {
	fetchCalls := 0
	cacheDir := t.TempDir()
	p, err := NewProvisioner(
		WithCacheDir(cacheDir),
		WithFetchFunc(countingFetch(&fetchCalls)),
		WithBuildFunc(fakeBuild),
	)
	require.NoError(t, err)

	_, err = p.Ensure(context.Background(), LangJavaScript)
	require.NoError(t, err)
	require.Equal(t, 1, fetchCalls)

	// Second provisioner sharing the cache must not fetch at all.
	p2, err := NewProvisioner(
		WithCacheDir(cacheDir),
		WithFetchFunc(countingFetch(&fetchCalls)),
		WithBuildFunc(fakeBuild),
	)
	require.NoError(t, err)

	h, err := p2.Ensure(context.Background(), LangJavaScript)
	require.NoError(t, err)
	assert.FileExists(t, h.ArtifactPath)
	assert.Equal(t, 1, fetchCalls)
}

func TestEnsure_FetchFailure(t *testing.T) {
	p, err := NewProvisioner(
		WithCacheDir(t.TempDir()),
		WithFetchFunc(func(context.Context, Spec, string) error {
			return errors.New("connection refused")
		}),
		WithBuildFunc(fakeBuild),
	)
	require.NoError(t, err)

	_, err = p.Ensure(context.Background(), LangJavaScript)
	assert.ErrorIs(t, err, ErrGrammarUnavailable)
}

func TestEnsure_BuildFailure(t *testing.T) {
	fetchCalls := 0
	p, err := NewProvisioner(
		WithCacheDir(t.TempDir()),
		WithFetchFunc(countingFetch(&fetchCalls)),
		WithBuildFunc(func(context.Context, string, string) error {
			return errors.New("cc: not found")
		}),
	)
	require.NoError(t, err)

	_, err = p.Ensure(context.Background(), LangJavaScript)
	assert.ErrorIs(t, err, ErrGrammarBuildFailed)
}

func TestEnsure_BuildFailureLeavesNoArtifact(t *testing.T) {
	fetchCalls := 0
	p, err := NewProvisioner(
		WithCacheDir(t.TempDir()),
		WithFetchFunc(countingFetch(&fetchCalls)),
		WithBuildFunc(func(context.Context, string, string) error {
			return errors.New("interrupted")
		}),
	)
	require.NoError(t, err)

	_, err = p.Ensure(context.Background(), LangJavaScript)
	require.Error(t, err)
	assert.NoFileExists(t, p.ArtifactPath(LangJavaScript))
}

func TestLangMutex_PerLanguage(t *testing.T) {
	p, err := NewProvisioner(WithCacheDir(t.TempDir()))
	require.NoError(t, err)

	js := p.langMutex(LangJavaScript)
	assert.Same(t, js, p.langMutex(LangJavaScript))
	assert.NotSame(t, js, p.langMutex(LangRust))
}

func TestEnsure_ConcurrentBuildsFetchOnce(t *testing.T) {
	fetchCalls := 0
	var fetchMu sync.Mutex
	fetch := func(_ context.Context, _ Spec, destDir string) error {
		fetchMu.Lock()
		fetchCalls++
		fetchMu.Unlock()
		src := filepath.Join(destDir, "src")
		if err := os.MkdirAll(src, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(src, "parser.c"), []byte("/* stub */\n"), 0o644)
	}

	p, err := NewProvisioner(
		WithCacheDir(t.TempDir()),
		WithFetchFunc(fetch),
		WithBuildFunc(fakeBuild),
	)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = p.Ensure(context.Background(), LangJavaScript)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fetchCalls)
}

func TestCacheDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CODEATLAS_CACHE_DIR", dir)

	got, err := CacheDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "grammars"), got)
}
