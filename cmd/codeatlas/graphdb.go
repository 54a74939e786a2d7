//go:build cgo

package main

import "github.com/oakhurstlabs/codeatlas/internal/graph"

// openGraphStore opens a KuzuDB-backed store at path, or returns nil when
// persistence was not requested.
func openGraphStore(path string) (graph.Store, error) {
	if path == "" {
		return nil, nil
	}
	return graph.NewKuzuStore(path)
}
