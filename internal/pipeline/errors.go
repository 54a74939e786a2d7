package pipeline

import (
	"errors"

	"github.com/oakhurstlabs/codeatlas/internal/grammar"
	"github.com/oakhurstlabs/codeatlas/internal/graph"
	"github.com/oakhurstlabs/codeatlas/internal/render"
)

// FailureKind is a stable machine-readable classification of pipeline
// failures, suitable for status surfaces and exit messages.
type FailureKind string

const (
	KindIOFailure          FailureKind = "io_failure"
	KindGrammarUnavailable FailureKind = "grammar_unavailable"
	KindGrammarBuildFailed FailureKind = "grammar_build_failed"
	KindDanglingEdge       FailureKind = "dangling_edge"
	KindRenderUnavailable  FailureKind = "render_unavailable"
	KindUnknown            FailureKind = "unknown"
)

// Kind maps an error to its failure classification by unwrapping to the
// package sentinels.
func Kind(err error) FailureKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, graph.ErrIOFailure):
		return KindIOFailure
	case errors.Is(err, grammar.ErrGrammarUnavailable):
		return KindGrammarUnavailable
	case errors.Is(err, grammar.ErrGrammarBuildFailed):
		return KindGrammarBuildFailed
	case errors.Is(err, graph.ErrDanglingEdge):
		return KindDanglingEdge
	case errors.Is(err, render.ErrRenderUnavailable):
		return KindRenderUnavailable
	default:
		return KindUnknown
	}
}
