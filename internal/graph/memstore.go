package graph

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and in builds where the
// embedded graph database is unavailable. Like KuzuStore, repeat saves of
// the same graph are idempotent: files and nodes dedupe by identity, edges
// by ordered endpoint pair.
type MemoryStore struct {
	mu       sync.Mutex
	files    []string
	fileSet  map[string]bool
	nodes    []SymbolNode
	nodeByID map[string]int
	edges    []Edge
	edgeSeen map[edgeIdentity]bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		fileSet:  make(map[string]bool),
		nodeByID: make(map[string]int),
		edgeSeen: make(map[edgeIdentity]bool),
	}
}

// InitSchema is a no-op for the in-memory store.
func (s *MemoryStore) InitSchema(_ context.Context) error { return nil }

// SaveGraph upserts the graph's files, nodes, and edges into the store.
func (s *MemoryStore) SaveGraph(_ context.Context, g *Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range g.Files() {
		if s.fileSet[f] {
			continue
		}
		s.fileSet[f] = true
		s.files = append(s.files, f)
	}
	for _, n := range g.Nodes() {
		if i, ok := s.nodeByID[n.ID]; ok {
			s.nodes[i] = n
			continue
		}
		s.nodeByID[n.ID] = len(s.nodes)
		s.nodes = append(s.nodes, n)
	}
	for _, e := range g.Edges() {
		id := edgeIdentity{e.SourceID, e.TargetID}
		if s.edgeSeen[id] {
			continue
		}
		s.edgeSeen[id] = true
		s.edges = append(s.edges, e)
	}
	return nil
}

// Stats recounts the stored contents.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{FilesAnalyzed: len(s.files)}
	for _, n := range s.nodes {
		switch n.Kind {
		case SymbolKindFunction:
			st.Functions++
		case SymbolKindClass:
			st.Classes++
		}
	}
	return st, nil
}

// Edges returns the stored edges. Test helper.
func (s *MemoryStore) Edges() []Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Edge, len(s.edges))
	copy(out, s.edges)
	return out
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
