package graph

import "errors"

var (
	// ErrIOFailure is returned when the scan root (or a directory under it)
	// cannot be listed. Unlike a single unreadable file, this aborts the run.
	ErrIOFailure = errors.New("directory unreadable")

	// ErrDanglingEdge is returned when an edge references a node that was
	// never added. It indicates extractor/inferrer disagreement and is an
	// internal invariant violation, never a user-facing condition.
	ErrDanglingEdge = errors.New("edge references unknown node")
)
