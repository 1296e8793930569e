package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/storygraph-dev/storygraph/pkg/analysis"
	"github.com/storygraph-dev/storygraph/pkg/graph"
)

// WriteMarkdown renders a human-readable summary of the graph and an
// optional analysis report.
func WriteMarkdown(w io.Writer, g *graph.Graph, report *analysis.Report) error {
	var b strings.Builder

	title := g.Metadata["title"]
	if title == "" {
		title = g.Metadata["entry"]
	}
	fmt.Fprintf(&b, "# Story graph: %s\n\n", title)
	if author := g.Metadata["author"]; author != "" {
		fmt.Fprintf(&b, "by %s\n\n", author)
	}

	kinds := make(map[graph.NodeKind]int)
	for _, n := range g.NodesInOrder() {
		kinds[n.Kind]++
	}
	fmt.Fprintf(&b, "%d nodes, %d edges, %d scenes\n\n",
		len(g.Nodes), len(g.Edges), len(g.EntryPoints))

	b.WriteString("## Scenes\n\n")
	for _, name := range g.SceneNames() {
		entry := g.EntryPoints[name]
		fmt.Fprintf(&b, "- `%s` (entry node %d)\n", name, entry)
	}
	b.WriteString("\n")

	b.WriteString("## Choices\n\n")
	for _, n := range g.NodesInOrder() {
		if n.Kind != graph.KindChoice {
			continue
		}
		fmt.Fprintf(&b, "- %s:\n", n.Pos)
		for _, e := range g.Outgoing(n.ID) {
			opt := g.Node(e.Target)
			if opt == nil || opt.Kind != graph.KindOption {
				continue
			}
			if cond := e.Attr("condition"); cond != "" {
				fmt.Fprintf(&b, "  - %s *(if %s)*\n", opt.Text, cond)
			} else {
				fmt.Fprintf(&b, "  - %s\n", opt.Text)
			}
		}
	}
	b.WriteString("\n")

	if report != nil {
		writeReport(&b, g, report)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeReport(b *strings.Builder, g *graph.Graph, report *analysis.Report) {
	b.WriteString("## Analysis\n\n")

	fmt.Fprintf(b, "- cycles: %d\n", len(report.Cycles))
	fmt.Fprintf(b, "- unreachable nodes: %d\n", len(report.Unreachable))
	fmt.Fprintf(b, "- dead ends: %d\n", len(report.DeadEnds))
	fmt.Fprintf(b, "- variables declared: %d\n", len(report.Variables.Declarations))
	fmt.Fprintf(b, "- undeclared variables: %d\n\n", len(report.Variables.Undeclared))

	for _, id := range report.DeadEnds {
		n := g.Node(id)
		fmt.Fprintf(b, "- dead end at %s: %s %q\n", n.Pos, n.Kind, truncate(n.Text, 40))
	}
	for _, name := range report.Variables.Undeclared {
		fmt.Fprintf(b, "- variable %q used without declaration\n", name)
	}
}
