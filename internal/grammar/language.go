package grammar

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Language identifies a programming language for extraction.
type Language string

// DefaultIgnoreDirs are directory names never descended into when scanning a
// repository. Autodetection and extraction share this set, so the language
// vote only counts files extraction would actually analyze.
var DefaultIgnoreDirs = []string{
	".git", ".hg", ".svn", ".idea", ".vscode", ".venv", "venv",
	"__pycache__", "node_modules", "vendor", "dist", "build", "target",
	"out", "bin", ".cache",
}

var defaultIgnoreSet = func() map[string]bool {
	m := make(map[string]bool, len(DefaultIgnoreDirs))
	for _, d := range DefaultIgnoreDirs {
		m[d] = true
	}
	return m
}()

// IgnoredDir reports whether a directory name belongs to the built-in ignore
// set. Dot-directories are always ignored.
func IgnoredDir(name string) bool {
	return defaultIgnoreSet[name] || strings.HasPrefix(name, ".")
}

const (
	LangPython     Language = "python"
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangRust       Language = "rust"
	LangJavaScript Language = "javascript"
)

// Spec describes how one language's source is recognized: which file
// extensions belong to it, the line-anchored declaration patterns used by the
// symbol extractor, and where its grammar comes from. Declaration patterns
// match a keyword after leading whitespace and capture the identifier in
// group 1; they deliberately ignore nesting, so symbols inside inner scopes
// are extracted flatly.
type Spec struct {
	Lang       Language
	Extensions []string

	// FuncDecl and TypeDecl recognize function and class/type declarations.
	FuncDecl *regexp.Regexp
	TypeDecl *regexp.Regexp

	// RepoURL is the source tarball for grammars that are not compiled in.
	// The provisioner fetches and builds these on demand.
	RepoURL string

	// language returns the compiled-in grammar, or nil when the grammar must
	// be provisioned from RepoURL.
	language func() unsafe.Pointer
}

// Builtin reports whether the grammar is compiled into the binary.
func (s Spec) Builtin() bool {
	return s.language != nil
}

// sitterLanguage instantiates the compiled-in grammar. Grammars are
// instantiated lazily, one per Ensure call, rather than all up front.
func (s Spec) sitterLanguage() *tree_sitter.Language {
	if s.language == nil {
		return nil
	}
	return tree_sitter.NewLanguage(s.language())
}

var specs = []Spec{
	{
		Lang:       LangPython,
		Extensions: []string{".py"},
		FuncDecl:   regexp.MustCompile(`(?m)^[ \t]*def\s+([A-Za-z_]\w*)\s*\(`),
		TypeDecl:   regexp.MustCompile(`(?m)^[ \t]*class\s+([A-Za-z_]\w*)\s*[:(]`),
		language:   tree_sitter_python.Language,
	},
	{
		Lang:       LangGo,
		Extensions: []string{".go"},
		FuncDecl:   regexp.MustCompile(`(?m)^func(?:\s*\([^)]+\))?\s+([A-Za-z_]\w*)\s*[([]`),
		TypeDecl:   regexp.MustCompile(`(?m)^type\s+([A-Za-z_]\w*)`),
		language:   tree_sitter_go.Language,
	},
	{
		Lang:       LangTypeScript,
		Extensions: []string{".ts", ".tsx"},
		FuncDecl:   regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s+([A-Za-z_$][\w$]*)\s*[(<]`),
		TypeDecl:   regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`),
		language:   tree_sitter_typescript.LanguageTypescript,
	},
	{
		Lang:       LangRust,
		Extensions: []string{".rs"},
		FuncDecl:   regexp.MustCompile(`(?m)^[ \t]*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?(?:unsafe\s+)?fn\s+([A-Za-z_]\w*)`),
		TypeDecl:   regexp.MustCompile(`(?m)^[ \t]*(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum)\s+([A-Za-z_]\w*)`),
		language:   tree_sitter_rust.Language,
	},
	{
		// JavaScript has no compiled-in grammar; the provisioner builds one
		// from source on first use. Extraction falls back to pattern-only
		// scanning when the built artifact cannot be loaded in-process.
		Lang:       LangJavaScript,
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		FuncDecl:   regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s+([A-Za-z_$][\w$]*)\s*\(`),
		TypeDecl:   regexp.MustCompile(`(?m)^[ \t]*(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$][\w$]*)`),
		RepoURL:    "https://codeload.github.com/tree-sitter/tree-sitter-javascript/tar.gz/refs/heads/master",
	},
}

// SpecFor returns the Spec for a language.
func SpecFor(lang Language) (Spec, bool) {
	for _, s := range specs {
		if s.Lang == lang {
			return s, true
		}
	}
	return Spec{}, false
}

// SpecForExtension returns the Spec owning the given file extension
// (including the leading dot).
func SpecForExtension(ext string) (Spec, bool) {
	for _, s := range specs {
		for _, e := range s.Extensions {
			if e == ext {
				return s, true
			}
		}
	}
	return Spec{}, false
}

// Supported returns all registered languages.
func Supported() []Language {
	out := make([]Language, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Lang)
	}
	return out
}

// Detect walks root and returns the language with the most matching source
// files, applying the same directory ignore rules as extraction so vendored
// trees cannot sway the vote. Ties resolve in registry order; an empty tree
// defaults to Python.
func Detect(root string, excludeDirs []string) Language {
	counts := make(map[Language]int)
	skip := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		skip[d] = true
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && (IgnoredDir(d.Name()) || skip[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}
		if s, ok := SpecForExtension(filepath.Ext(path)); ok {
			counts[s.Lang]++
		}
		return nil
	})

	best := LangPython
	bestCount := 0
	for _, s := range specs {
		if counts[s.Lang] > bestCount {
			best = s.Lang
			bestCount = counts[s.Lang]
		}
	}
	return best
}
