package export

import (
	"encoding/json"
	"io"

	"github.com/storygraph-dev/storygraph/pkg/graph"
)

type jsonNode struct {
	ID    graph.NodeID      `json:"id"`
	Kind  graph.NodeKind    `json:"kind"`
	Text  string            `json:"text,omitempty"`
	Attrs map[string]string `json:"attributes,omitempty"`
	Scene string            `json:"scene"`
	Line  int               `json:"line"`
}

type jsonEdge struct {
	Source graph.NodeID      `json:"source"`
	Target graph.NodeID      `json:"target"`
	Attrs  map[string]string `json:"attributes,omitempty"`
}

type jsonGraph struct {
	Metadata    map[string]string       `json:"metadata"`
	EntryPoints map[string]graph.NodeID `json:"entryPoints"`
	Labels      map[string]graph.NodeID `json:"labels"`
	Nodes       []jsonNode              `json:"nodes"`
	Edges       []jsonEdge              `json:"edges"`
}

// WriteJSON renders the graph as indented JSON with nodes in insertion
// order, stable enough for generic downstream walkers.
func WriteJSON(w io.Writer, g *graph.Graph) error {
	out := jsonGraph{
		Metadata:    g.Metadata,
		EntryPoints: g.EntryPoints,
		Labels:      g.Labels,
	}
	for _, n := range g.NodesInOrder() {
		out.Nodes = append(out.Nodes, jsonNode{
			ID:    n.ID,
			Kind:  n.Kind,
			Text:  n.Text,
			Attrs: n.Attrs,
			Scene: n.Pos.Scene,
			Line:  n.Pos.Line,
		})
	}
	for _, e := range g.Edges {
		out.Edges = append(out.Edges, jsonEdge{Source: e.Source, Target: e.Target, Attrs: e.Attrs})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
