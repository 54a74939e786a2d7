//go:build cgo

package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKuzuStore_SaveAndStats(t *testing.T) {
	store, err := NewKuzuStore(filepath.Join(t.TempDir(), "ccg.kuzu"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.InitSchema(ctx))

	b := NewBuilder()
	b.AddFile("f.py")
	b.AddFile("g.py")
	b.AddNode(node(SymbolKindFunction, "a", "f.py", 1))
	b.AddNode(node(SymbolKindFunction, "b", "f.py", 4))
	b.AddNode(node(SymbolKindClass, "C", "g.py", 1))
	require.NoError(t, b.AddEdge(Edge{SourceID: "func::a", TargetID: "func::b", Kind: EdgeKindCalls, FilePath: "f.py"}))
	g := b.Seal()

	require.NoError(t, store.SaveGraph(ctx, g))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, g.Stats(), stats)

	// Re-saving the same graph must not duplicate anything.
	require.NoError(t, store.SaveGraph(ctx, g))
	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, g.Stats(), stats)
}
