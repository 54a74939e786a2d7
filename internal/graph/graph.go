package graph

import (
	"fmt"
	"sync"
)

// Builder accumulates one run's code context graph. It is mutex-guarded so
// parallel extraction may feed it directly; Seal freezes the result.
type Builder struct {
	mu        sync.Mutex
	files     map[string]bool
	fileOrder []string
	nodes     map[string]SymbolNode
	order     []string
	edges     []Edge
	edgeSet   map[edgeIdentity]bool
	stats     Stats
}

type edgeIdentity struct{ from, to string }

// NewBuilder returns an empty graph builder.
func NewBuilder() *Builder {
	return &Builder{
		files:   make(map[string]bool),
		nodes:   make(map[string]SymbolNode),
		edgeSet: make(map[edgeIdentity]bool),
	}
}

// AddFile records a file as analyzed. Idempotent.
func (b *Builder) AddFile(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.files[path] {
		return
	}
	b.files[path] = true
	b.fileOrder = append(b.fileOrder, path)
	b.stats.FilesAnalyzed++
}

// AddNode inserts a symbol node. Re-adding an existing ID is a no-op, so
// duplicate declarations collapse and the kind counters stay equal to the
// node cardinalities by construction.
func (b *Builder) AddNode(n SymbolNode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.nodes[n.ID]; ok {
		return
	}
	b.nodes[n.ID] = n
	b.order = append(b.order, n.ID)
	switch n.Kind {
	case SymbolKindFunction:
		b.stats.Functions++
	case SymbolKindClass:
		b.stats.Classes++
	}
}

// AddEdge inserts a call edge. Both endpoints must already exist; a missing
// endpoint returns ErrDanglingEdge, which callers treat as an invariant
// violation that aborts the run. Duplicate ordered pairs collapse to one
// edge.
func (b *Builder) AddEdge(e Edge) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.nodes[e.SourceID]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrDanglingEdge, e.SourceID, e.TargetID)
	}
	if _, ok := b.nodes[e.TargetID]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrDanglingEdge, e.SourceID, e.TargetID)
	}
	id := edgeIdentity{e.SourceID, e.TargetID}
	if b.edgeSet[id] {
		return nil
	}
	b.edgeSet[id] = true
	b.edges = append(b.edges, e)
	return nil
}

// Seal returns the immutable graph. The builder must not be used afterwards.
func (b *Builder) Seal() *Graph {
	b.mu.Lock()
	defer b.mu.Unlock()

	g := &Graph{
		files: make([]string, len(b.fileOrder)),
		nodes: make([]SymbolNode, 0, len(b.order)),
		byID:  make(map[string]SymbolNode, len(b.order)),
		edges: make([]Edge, len(b.edges)),
		stats: b.stats,
	}
	copy(g.files, b.fileOrder)
	for _, id := range b.order {
		n := b.nodes[id]
		g.nodes = append(g.nodes, n)
		g.byID[id] = n
	}
	copy(g.edges, b.edges)
	return g
}

// Graph is one run's completed code context graph. It is immutable: the
// render and report stages only read it.
type Graph struct {
	files []string
	nodes []SymbolNode
	byID  map[string]SymbolNode
	edges []Edge
	stats Stats
}

// Files returns the analyzed files in insertion order.
func (g *Graph) Files() []string {
	out := make([]string, len(g.files))
	copy(out, g.files)
	return out
}

// Nodes returns all symbol nodes in insertion order.
func (g *Graph) Nodes() []SymbolNode {
	out := make([]SymbolNode, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns all call edges in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Node returns the node with the given qualified ID.
func (g *Graph) Node(id string) (SymbolNode, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Stats returns the aggregate counters.
func (g *Graph) Stats() Stats {
	return g.stats
}
