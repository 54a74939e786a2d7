package render

import (
	"fmt"
	"strings"

	"github.com/oakhurstlabs/codeatlas/internal/graph"
)

// GenerateDOT produces a Graphviz DOT digraph for the code context graph.
// Layout is left-to-right; functions render as ellipses and classes as
// boxes, each labeled "<kind>\n<name>". Output follows graph insertion
// order, so identical graphs yield byte-identical DOT.
func GenerateDOT(g *graph.Graph) string {
	var sb strings.Builder

	sb.WriteString("digraph ccg {\n")
	sb.WriteString("    rankdir=LR;\n")

	for _, n := range g.Nodes() {
		sb.WriteString(fmt.Sprintf("    %s [label=%s, shape=%s];\n",
			quoteDOT(n.ID),
			quoteDOT(string(n.Kind)+"\n"+n.Name),
			nodeShape(n.Kind)))
	}

	sb.WriteString("\n")
	for _, e := range g.Edges() {
		sb.WriteString(fmt.Sprintf("    %s -> %s [label=%s];\n",
			quoteDOT(e.SourceID), quoteDOT(e.TargetID), quoteDOT(string(e.Kind))))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// nodeShape maps a symbol kind to its Graphviz shape.
func nodeShape(kind graph.SymbolKind) string {
	if kind == graph.SymbolKindClass {
		return "box"
	}
	return "ellipse"
}

// quoteDOT wraps s in a quoted DOT ID, escaping quotes and newlines.
func quoteDOT(s string) string {
	r := strings.NewReplacer(`"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
