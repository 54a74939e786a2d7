package graph

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/oakhurstlabs/codeatlas/internal/grammar"
)

// Extraction is the output of one scan: the analyzed files in deterministic
// order, the symbols declared per file (top-to-bottom source order), and the
// raw source text the inferrer searches.
type Extraction struct {
	Files         []string // repo-relative paths, walk order
	SymbolsByFile map[string][]SymbolNode
	Sources       map[string]string
	Skipped       int // files skipped because they were unreadable or not text
}

// Symbols returns every extracted symbol in file-scan order, then
// within-file source order.
func (e *Extraction) Symbols() []SymbolNode {
	var out []SymbolNode
	for _, f := range e.Files {
		out = append(out, e.SymbolsByFile[f]...)
	}
	return out
}

// ExtractOptions tunes a scan.
type ExtractOptions struct {
	// ExcludeDirs are directory names skipped in addition to the defaults.
	ExcludeDirs []string

	// Workers bounds per-file parallelism. Zero means GOMAXPROCS.
	Workers int
}

// Extract scans every file under root matching the grammar's extensions and
// returns the declared symbols plus per-file source text. Individual files
// that cannot be read or decoded are skipped and counted; a directory that
// cannot be listed aborts the whole scan with ErrIOFailure.
//
// Declarations are matched line-anchored against the grammar's patterns, so
// nested declarations are extracted flatly. Files are processed in sorted
// walk order; extraction within that list is parallelized per file and the
// results are reassembled in order, keeping output deterministic.
func Extract(ctx context.Context, root string, h *grammar.Handle, opts ExtractOptions) (*Extraction, error) {
	files, err := listSourceFiles(root, h.Spec, opts.ExcludeDirs)
	if err != nil {
		return nil, err
	}

	type fileResult struct {
		symbols []SymbolNode
		source  string
		skipped bool
	}

	results := make([]fileResult, len(files))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(filepath.Join(root, rel))
			if err != nil {
				results[i] = fileResult{skipped: true}
				return nil
			}
			if !utf8.Valid(data) {
				results[i] = fileResult{skipped: true}
				return nil
			}
			if h.Language != nil && !parses(data, h.Language) {
				results[i] = fileResult{skipped: true}
				return nil
			}

			results[i] = fileResult{
				symbols: scanDeclarations(string(data), rel, h.Spec),
				source:  string(data),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ex := &Extraction{
		SymbolsByFile: make(map[string][]SymbolNode),
		Sources:       make(map[string]string),
	}
	for i, rel := range files {
		if results[i].skipped {
			ex.Skipped++
			continue
		}
		ex.Files = append(ex.Files, rel)
		ex.SymbolsByFile[rel] = results[i].symbols
		ex.Sources[rel] = results[i].source
	}
	return ex, nil
}

// listSourceFiles walks root and returns repo-relative paths of files whose
// extension belongs to the grammar, in lexical walk order.
func listSourceFiles(root string, spec grammar.Spec, excludeDirs []string) ([]string, error) {
	ignore := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		ignore[d] = true
	}

	exts := make(map[string]bool, len(spec.Extensions))
	for _, e := range spec.Extensions {
		exts[e] = true
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrIOFailure, path, err)
		}
		if d.IsDir() {
			if path != root && (grammar.IgnoredDir(d.Name()) || ignore[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}
		if !exts[filepath.Ext(path)] {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// scanDeclarations finds function and class declarations in source text and
// returns them in source order.
func scanDeclarations(source, rel string, spec grammar.Spec) []SymbolNode {
	var symbols []SymbolNode

	appendMatches := func(kind SymbolKind, matches [][]int) {
		for _, m := range matches {
			// m[2]:m[3] is capture group 1, the identifier.
			name := source[m[2]:m[3]]
			symbols = append(symbols, SymbolNode{
				ID:       SymbolID(kind, name),
				Name:     name,
				Kind:     kind,
				FilePath: rel,
				Line:     1 + strings.Count(source[:m[2]], "\n"),
				offset:   m[2],
			})
		}
	}

	if spec.FuncDecl != nil {
		appendMatches(SymbolKindFunction, spec.FuncDecl.FindAllStringSubmatchIndex(source, -1))
	}
	if spec.TypeDecl != nil {
		appendMatches(SymbolKindClass, spec.TypeDecl.FindAllStringSubmatchIndex(source, -1))
	}

	sort.SliceStable(symbols, func(i, j int) bool {
		return symbols[i].offset < symbols[j].offset
	})
	return symbols
}

// parses runs the provisioned grammar over the source and reports whether
// tree-sitter produced a tree. The tree itself is discarded; symbol discovery
// stays pattern-based.
func parses(source []byte, lang *tree_sitter.Language) bool {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(lang); err != nil {
		return false
	}
	tree := parser.Parse(source, nil)
	if tree == nil {
		return false
	}
	tree.Close()
	return true
}
