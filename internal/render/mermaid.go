package render

import (
	"fmt"
	"strings"

	"github.com/oakhurstlabs/codeatlas/internal/graph"
)

// GenerateMermaid produces a Mermaid "graph LR" diagram for embedding in
// Markdown, as a text fallback when no raster renderer is available.
// Functions render as rounded nodes, classes as rectangles.
func GenerateMermaid(g *graph.Graph) string {
	// Qualified IDs contain "::" which Mermaid cannot use, so nodes get
	// sequential N0, N1, ... identifiers in insertion order.
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(qualified string) string {
		if id, ok := nodeIDs[qualified]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[qualified] = id
		return id
	}

	var sb strings.Builder
	sb.WriteString("graph LR\n")

	for _, n := range g.Nodes() {
		label := escapeMermaid(n.Name)
		if n.Kind == graph.SymbolKindClass {
			sb.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", getID(n.ID), label))
		} else {
			sb.WriteString(fmt.Sprintf("  %s(\"%s\")\n", getID(n.ID), label))
		}
	}

	for _, e := range g.Edges() {
		sb.WriteString(fmt.Sprintf("  %s -->|%s| %s\n",
			getID(e.SourceID), string(e.Kind), getID(e.TargetID)))
	}

	return sb.String()
}

func escapeMermaid(s string) string {
	r := strings.NewReplacer(`"`, "#quot;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
