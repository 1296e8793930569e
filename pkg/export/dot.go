// Package export renders a finished flow graph to DOT, JSON, and
// Markdown. Exporters only walk the graph; they never mutate it.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/storygraph-dev/storygraph/pkg/graph"
)

// dotShapes maps node kinds to Graphviz shapes.
var dotShapes = map[graph.NodeKind]string{
	graph.KindSceneEntry:  "doublecircle",
	graph.KindChoice:      "diamond",
	graph.KindOption:      "oval",
	graph.KindConditional: "diamond",
	graph.KindMerge:       "point",
	graph.KindFinish:      "doubleoctagon",
	graph.KindGoto:        "cds",
	graph.KindGosub:       "cds",
	graph.KindLabel:       "tab",
}

// WriteDOT renders the graph in Graphviz DOT form.
func WriteDOT(w io.Writer, g *graph.Graph) error {
	var b strings.Builder
	b.WriteString("digraph story {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  node [fontname=\"Helvetica\" fontsize=10];\n")

	for _, n := range g.NodesInOrder() {
		shape := dotShapes[n.Kind]
		if shape == "" {
			shape = "box"
		}
		fmt.Fprintf(&b, "  n%d [label=%q shape=%s];\n", n.ID, dotLabel(n), shape)
	}
	for _, e := range g.Edges {
		if cond := e.Attr("condition"); cond != "" {
			fmt.Fprintf(&b, "  n%d -> n%d [label=%q];\n", e.Source, e.Target, truncate(cond, 40))
		} else {
			fmt.Fprintf(&b, "  n%d -> n%d;\n", e.Source, e.Target)
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func dotLabel(n *graph.Node) string {
	text := n.Text
	if text == "" {
		text = string(n.Kind)
	}
	return fmt.Sprintf("%s\n%s", truncate(text, 60), n.Pos)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
