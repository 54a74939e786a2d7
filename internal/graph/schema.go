package graph

// --- Enums ---

// SymbolKind classifies symbols in the code context graph. The two-valued
// enumeration mirrors what the extractor can recognize: function declarations
// and class/type declarations.
type SymbolKind string

const (
	SymbolKindFunction SymbolKind = "func"
	SymbolKindClass    SymbolKind = "class"
)

// EdgeKind classifies relationships between symbols.
type EdgeKind string

// EdgeKindCalls asserts that the caller's file text appears to invoke the
// callee. It is the only relationship the textual inferrer produces.
const EdgeKindCalls EdgeKind = "calls"

// --- Models ---

// SymbolNode is a named function or class declaration extracted from source.
// Identity is the qualified "<kind>::<name>" ID, so duplicate declarations of
// the same name collapse onto one node regardless of file. That is an
// accepted approximation of the flat extractor, not a defect.
type SymbolNode struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Kind     SymbolKind `json:"kind"`
	FilePath string     `json:"filePath"` // repo-relative, first declaring file wins
	Line     int        `json:"line"`     // 1-based declaration line

	// offset is the byte position of the declaration identifier within its
	// file. The inferrer uses it to ignore declaration sites when searching
	// for call occurrences.
	offset int
}

// SymbolID builds the qualified node identifier for a symbol.
func SymbolID(kind SymbolKind, name string) string {
	return string(kind) + "::" + name
}

// Edge is a directed call relationship between two symbols declared in the
// same file.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
	FilePath string   `json:"filePath"` // file the call was inferred from
}

// Stats summarizes one code context graph. Counter order is significant for
// report output: files analyzed, functions, classes.
type Stats struct {
	FilesAnalyzed int `json:"filesAnalyzed"`
	Functions     int `json:"functions"`
	Classes       int `json:"classes"`
}
