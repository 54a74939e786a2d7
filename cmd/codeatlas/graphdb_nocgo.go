//go:build !cgo

package main

import (
	"errors"

	"github.com/oakhurstlabs/codeatlas/internal/graph"
)

// openGraphStore rejects -graph-db in CGO-less builds, where the embedded
// graph database driver is unavailable.
func openGraphStore(path string) (graph.Store, error) {
	if path == "" {
		return nil, nil
	}
	return nil, errors.New("-graph-db requires a build with CGO enabled")
}
