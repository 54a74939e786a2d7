// Package report assembles the Markdown documentation for one analysis run.
package report

import (
	"fmt"
	"strings"

	"github.com/oakhurstlabs/codeatlas/internal/graph"
)

// NoReadmePlaceholder is emitted verbatim when the project has no README
// summary to show.
const NoReadmePlaceholder = "(No README found)"

// Options extends the report beyond the core sections. The zero value
// produces the minimal report: overview, counters, and the diagram
// reference if one exists.
type Options struct {
	// Title overrides the document title. Empty means "Code Context Graph".
	Title string

	// Mermaid, when non-empty, is embedded as a fenced mermaid diagram
	// section so the report stays useful without the rendered image.
	Mermaid string

	// Files, when non-empty, adds a per-file listing section.
	Files []string
}

// Assemble composes the Markdown report: a project overview (summary text or
// the placeholder), a graph overview listing the counters in fixed order,
// and — only when diagramRef is non-empty — an embedded image reference.
// Composition is purely textual and deterministic; writing the result to
// disk is the caller's job.
func Assemble(summary string, stats graph.Stats, diagramRef string, opts Options) string {
	title := opts.Title
	if title == "" {
		title = "Code Context Graph"
	}
	if strings.TrimSpace(summary) == "" {
		summary = NoReadmePlaceholder
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", title)

	sb.WriteString("## Project Overview\n\n")
	sb.WriteString(strings.TrimSpace(summary))
	sb.WriteString("\n\n")

	sb.WriteString("## Graph Overview\n\n")
	fmt.Fprintf(&sb, "- Files analyzed: %d\n", stats.FilesAnalyzed)
	fmt.Fprintf(&sb, "- Functions: %d\n", stats.Functions)
	fmt.Fprintf(&sb, "- Classes: %d\n", stats.Classes)
	sb.WriteString("\n")

	if diagramRef != "" {
		sb.WriteString("## Call Diagram\n\n")
		fmt.Fprintf(&sb, "![Code context graph](%s)\n\n", diagramRef)
	}

	if opts.Mermaid != "" {
		sb.WriteString("## Call Diagram (Mermaid)\n\n")
		sb.WriteString("```mermaid\n")
		sb.WriteString(strings.TrimRight(opts.Mermaid, "\n"))
		sb.WriteString("\n```\n\n")
	}

	if len(opts.Files) > 0 {
		sb.WriteString("## Analyzed Files\n\n")
		for _, f := range opts.Files {
			fmt.Fprintf(&sb, "- `%s`\n", f)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
