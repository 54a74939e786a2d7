package graph

import (
	"regexp"
	"sync"
)

// Inferrer derives call edges from an extraction. It is an explicit strategy
// interface so a stricter, AST-scoped resolver can replace the textual
// heuristic without touching the graph model or downstream stages.
type Inferrer interface {
	Infer(ex *Extraction) []Edge
}

// DefaultMaxSymbolsPerFile caps the per-file pair loop. Inference is
// O(n²) in the symbols of a file; files beyond the cap contribute edges only
// among their first n symbols.
const DefaultMaxSymbolsPerFile = 200

// WordBoundaryInferrer is the textual call heuristic: a call edge
// caller -> callee exists when the callee's bare identifier, at a word
// boundary and followed by an opening parenthesis, occurs anywhere in the
// file that declares both symbols — excluding the callee's own declaration
// sites. The match is deliberately not scoped to the caller's body, which
// yields false positives within a file and false negatives across files.
type WordBoundaryInferrer struct {
	// MaxSymbolsPerFile bounds the pair loop per file.
	// Zero means DefaultMaxSymbolsPerFile.
	MaxSymbolsPerFile int

	mu    sync.Mutex
	cache map[string]*regexp.Regexp
}

// Compile-time interface check.
var _ Inferrer = (*WordBoundaryInferrer)(nil)

// Infer walks every file in the extraction and emits deduplicated call
// edges between symbols declared in that file. Files without source text
// contribute no edges; inference never fails.
func (w *WordBoundaryInferrer) Infer(ex *Extraction) []Edge {
	maxSymbols := w.MaxSymbolsPerFile
	if maxSymbols <= 0 {
		maxSymbols = DefaultMaxSymbolsPerFile
	}

	type edgeKey struct{ from, to string }
	seen := make(map[edgeKey]bool)
	var edges []Edge

	for _, file := range ex.Files {
		symbols := ex.SymbolsByFile[file]
		if len(symbols) > maxSymbols {
			symbols = symbols[:maxSymbols]
		}

		source, ok := ex.Sources[file]
		if !ok || source == "" {
			continue
		}

		// Declaration sites per name: a match at one of these offsets is the
		// declaration itself, not a call.
		declSites := make(map[string]map[int]bool, len(symbols))
		for _, s := range symbols {
			if declSites[s.Name] == nil {
				declSites[s.Name] = make(map[int]bool)
			}
			declSites[s.Name][s.offset] = true
		}

		for _, caller := range symbols {
			for _, callee := range symbols {
				if caller.ID == callee.ID {
					continue
				}
				key := edgeKey{caller.ID, callee.ID}
				if seen[key] {
					continue
				}
				if !w.invoked(source, callee.Name, declSites[callee.Name]) {
					continue
				}
				seen[key] = true
				edges = append(edges, Edge{
					SourceID: caller.ID,
					TargetID: callee.ID,
					Kind:     EdgeKindCalls,
					FilePath: file,
				})
			}
		}
	}
	return edges
}

// invoked reports whether name occurs in source as an invocation: at a word
// boundary, followed by optional whitespace and an opening parenthesis, at a
// position that is not one of its own declaration sites.
func (w *WordBoundaryInferrer) invoked(source, name string, declSites map[int]bool) bool {
	re := w.pattern(name)
	for _, m := range re.FindAllStringIndex(source, -1) {
		if !declSites[m[0]] {
			return true
		}
	}
	return false
}

// pattern returns the compiled invocation pattern for name, cached across
// files since the same identifiers recur.
func (w *WordBoundaryInferrer) pattern(name string) *regexp.Regexp {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cache == nil {
		w.cache = make(map[string]*regexp.Regexp)
	}
	if re, ok := w.cache[name]; ok {
		return re
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(`)
	w.cache[name] = re
	return re
}
