package grammar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

var (
	// ErrGrammarUnavailable is returned when a grammar cannot be obtained:
	// the language is unknown or its source could not be fetched.
	ErrGrammarUnavailable = errors.New("grammar unavailable")

	// ErrGrammarBuildFailed is returned when the grammar source was fetched
	// but could not be compiled into a loadable artifact.
	ErrGrammarBuildFailed = errors.New("grammar build failed")
)

// Handle is a provisioned grammar ready for extraction. Exactly one of
// Language and ArtifactPath is set: compiled-in grammars carry a live
// tree-sitter language, on-demand grammars carry the path of the built
// shared object and extraction proceeds pattern-only.
type Handle struct {
	Spec         Spec
	Language     *tree_sitter.Language
	ArtifactPath string
}

// FetchFunc populates destDir with a grammar's source tree.
type FetchFunc func(ctx context.Context, spec Spec, destDir string) error

// BuildFunc compiles the grammar source in srcDir into a shared object at
// artifact. The artifact path is a temporary location; the provisioner moves
// it into the cache atomically on success.
type BuildFunc func(ctx context.Context, srcDir, artifact string) error

// Provisioner ensures a loadable grammar exists before extraction starts.
// Compiled-in grammars resolve immediately. Other grammars are fetched and
// built once into a shared cache directory; the cache write is guarded by an
// advisory file lock so concurrent runs do not duplicate the build.
type Provisioner struct {
	cacheDir string
	fetch    FetchFunc
	build    BuildFunc

	// mu guards building only; fetch-and-build itself holds the
	// per-language mutex, so provisioning different languages proceeds in
	// parallel, matching the per-language granularity of the file lock.
	mu       sync.Mutex
	building map[Language]*sync.Mutex
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithCacheDir overrides the artifact cache directory.
func WithCacheDir(dir string) Option {
	return func(p *Provisioner) { p.cacheDir = dir }
}

// WithFetchFunc overrides the grammar source fetcher.
func WithFetchFunc(f FetchFunc) Option {
	return func(p *Provisioner) { p.fetch = f }
}

// WithBuildFunc overrides the grammar compiler.
func WithBuildFunc(b BuildFunc) Option {
	return func(p *Provisioner) { p.build = b }
}

// NewProvisioner creates a Provisioner with the default cache directory,
// HTTP fetcher, and cc-based builder.
func NewProvisioner(opts ...Option) (*Provisioner, error) {
	p := &Provisioner{
		fetch: fetchTarball,
		build: buildSharedObject,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.cacheDir == "" {
		dir, err := CacheDir()
		if err != nil {
			return nil, err
		}
		p.cacheDir = dir
	}
	return p, nil
}

// CacheDir returns the grammar artifact cache directory.
// Priority: $CODEATLAS_CACHE_DIR -> $XDG_CACHE_HOME/codeatlas/grammars
// -> ~/.cache/codeatlas/grammars.
func CacheDir() (string, error) {
	if dir := os.Getenv("CODEATLAS_CACHE_DIR"); dir != "" {
		return filepath.Join(dir, "grammars"), nil
	}

	if runtime.GOOS != "windows" {
		if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
			return filepath.Join(xdgCache, "codeatlas", "grammars"), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(home, "AppData", "Local", "codeatlas", "grammars"), nil
	}
	return filepath.Join(home, ".cache", "codeatlas", "grammars"), nil
}

// ArtifactPath returns the cache location of a built grammar artifact.
func (p *Provisioner) ArtifactPath(lang Language) string {
	return filepath.Join(p.cacheDir, string(lang), "lib"+string(lang)+".so")
}

// Ensure makes the grammar for lang available and returns a handle to it.
// Idempotent: compiled-in grammars and previously built artifacts resolve
// without any network or build action.
func (p *Provisioner) Ensure(ctx context.Context, lang Language) (*Handle, error) {
	spec, ok := SpecFor(lang)
	if !ok {
		return nil, fmt.Errorf("%w: unknown language %q", ErrGrammarUnavailable, lang)
	}

	if spec.Builtin() {
		return &Handle{Spec: spec, Language: spec.sitterLanguage()}, nil
	}

	artifact := p.ArtifactPath(lang)
	if _, err := os.Stat(artifact); err == nil {
		return &Handle{Spec: spec, ArtifactPath: artifact}, nil
	}

	if err := p.fetchAndBuild(ctx, spec, artifact); err != nil {
		return nil, err
	}
	return &Handle{Spec: spec, ArtifactPath: artifact}, nil
}

// langMutex returns the build mutex for one language, creating it on first
// use.
func (p *Provisioner) langMutex(lang Language) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.building == nil {
		p.building = make(map[Language]*sync.Mutex)
	}
	m, ok := p.building[lang]
	if !ok {
		m = &sync.Mutex{}
		p.building[lang] = m
	}
	return m
}

// fetchAndBuild downloads the grammar source and compiles it into the cache.
// The per-language mutex serializes goroutines building the same grammar;
// the advisory file lock serializes separate pipeline processes sharing the
// cache. Build output goes to a temporary file and is renamed into place, so
// a cancelled run never leaves a partial artifact at the cache path.
func (p *Provisioner) fetchAndBuild(ctx context.Context, spec Spec, artifact string) error {
	mu := p.langMutex(spec.Lang)
	mu.Lock()
	defer mu.Unlock()

	langDir := filepath.Dir(artifact)
	if err := os.MkdirAll(langDir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	lock, err := acquireLock(filepath.Join(langDir, ".lock"))
	if err != nil {
		return fmt.Errorf("lock grammar cache: %w", err)
	}
	defer lock.release()

	// Another process may have completed the build while we waited.
	if _, err := os.Stat(artifact); err == nil {
		return nil
	}

	srcDir, err := os.MkdirTemp("", "codeatlas-grammar-")
	if err != nil {
		return fmt.Errorf("create build dir: %w", err)
	}
	defer os.RemoveAll(srcDir)

	if err := p.fetch(ctx, spec, srcDir); err != nil {
		return fmt.Errorf("%w: fetch %s: %v", ErrGrammarUnavailable, spec.Lang, err)
	}

	tmpArtifact := filepath.Join(srcDir, filepath.Base(artifact))
	if err := p.build(ctx, srcDir, tmpArtifact); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrGrammarBuildFailed, spec.Lang, err)
	}

	if err := os.Rename(tmpArtifact, artifact); err != nil {
		// Rename can fail across filesystems; fall back to copy-then-rename
		// within the cache directory to keep the install atomic.
		staged := artifact + ".tmp"
		if copyErr := copyFile(tmpArtifact, staged); copyErr != nil {
			return fmt.Errorf("install artifact: %w", copyErr)
		}
		if renameErr := os.Rename(staged, artifact); renameErr != nil {
			return fmt.Errorf("install artifact: %w", renameErr)
		}
	}
	return nil
}

// buildSharedObject compiles parser.c (and scanner.c when present) with the
// system C compiler. A missing compiler is a build failure, not a fetch
// failure.
func buildSharedObject(ctx context.Context, srcDir, artifact string) error {
	cc, err := exec.LookPath("cc")
	if err != nil {
		return fmt.Errorf("no C compiler in PATH: %w", err)
	}

	grammarSrc, err := findGrammarSrc(srcDir)
	if err != nil {
		return err
	}

	args := []string{"-fPIC", "-shared", "-I", grammarSrc, "-o", artifact,
		filepath.Join(grammarSrc, "parser.c")}
	if _, err := os.Stat(filepath.Join(grammarSrc, "scanner.c")); err == nil {
		args = append(args, filepath.Join(grammarSrc, "scanner.c"))
	}

	cmd := exec.CommandContext(ctx, cc, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("cc: %w: %s", err, out)
	}
	return nil
}

// findGrammarSrc locates the src/ directory inside an extracted grammar
// tarball. Tarballs unpack into a single <repo>-<ref> directory.
func findGrammarSrc(root string) (string, error) {
	direct := filepath.Join(root, "src")
	if _, err := os.Stat(filepath.Join(direct, "parser.c")); err == nil {
		return direct, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("read build dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(root, e.Name(), "src")
		if _, err := os.Stat(filepath.Join(candidate, "parser.c")); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no parser.c under %s", root)
}
