package graph

import (
	"context"
	"io"
)

// Store persists a sealed code context graph. Implementations: KuzuStore
// (embedded graph database, requires CGO), MemoryStore (testing and
// CGO-less builds). Persistence is optional; a run without a store still
// produces the report and diagram.
type Store interface {
	io.Closer

	// InitSchema creates the node and relationship tables. Called once
	// before SaveGraph.
	InitSchema(ctx context.Context) error

	// SaveGraph persists every node and edge of the sealed graph.
	SaveGraph(ctx context.Context, g *Graph) error

	// Stats reports what the store currently holds.
	Stats(ctx context.Context) (Stats, error)
}
