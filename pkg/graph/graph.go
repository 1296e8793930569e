// Package graph holds the story flow graph and the builder that produces
// it from parsed scenes.
package graph

import (
	"fmt"
	"sort"
)

// NodeID identifies a node. IDs are monotonically assigned and never
// reused.
type NodeID int

// None is the null node id.
const None NodeID = -1

// NodeKind classifies a node.
type NodeKind string

const (
	KindSceneEntry     NodeKind = "scene-entry"
	KindText           NodeKind = "text"
	KindChoice         NodeKind = "choice"
	KindOption         NodeKind = "option"
	KindConditional    NodeKind = "conditional"
	KindMerge          NodeKind = "merge"
	KindGoto           NodeKind = "goto"
	KindGosub          NodeKind = "gosub"
	KindReturn         NodeKind = "return"
	KindVariable       NodeKind = "variable"
	KindSet            NodeKind = "set"
	KindLabel          NodeKind = "label"
	KindFinish         NodeKind = "finish"
	KindPageBreak      NodeKind = "page-break"
	KindComment        NodeKind = "comment"
	KindMetadata       NodeKind = "metadata"
	KindUnknownCommand NodeKind = "unknown-command"
)

// Position locates a node or edge in its source scene.
type Position struct {
	Scene string
	Line  int
}

func (p Position) String() string {
	return fmt.Sprintf("%s:%d", p.Scene, p.Line)
}

// Node is one vertex of the flow graph.
type Node struct {
	ID    NodeID
	Kind  NodeKind
	Text  string
	Attrs map[string]string
	Pos   Position
}

// Attr returns a node attribute, or "" if unset.
func (n *Node) Attr(key string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// Edge is one directed edge. Attrs may carry "condition" (the branch or
// option condition text) and "statChanges" (a variable mutation summary).
type Edge struct {
	Source NodeID
	Target NodeID
	Attrs  map[string]string
	Pos    Position
}

// Attr returns an edge attribute, or "" if unset.
func (e *Edge) Attr(key string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[key]
}

// Graph is the verified control-flow graph of a story. The builder is its
// sole mutator; analysis passes only read it.
type Graph struct {
	Nodes       map[NodeID]*Node
	Edges       []*Edge
	EntryPoints map[string]NodeID // scene name -> scene-entry node
	Labels      map[string]NodeID // qualified "scene/label" -> label node
	Metadata    map[string]string

	nextID NodeID
	order  []NodeID // insertion order, for deterministic walks
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		Nodes:       make(map[NodeID]*Node),
		EntryPoints: make(map[string]NodeID),
		Labels:      make(map[string]NodeID),
		Metadata:    make(map[string]string),
	}
}

// AddNode creates a node with the next id.
func (g *Graph) AddNode(kind NodeKind, text string, pos Position) *Node {
	n := &Node{ID: g.nextID, Kind: kind, Text: text, Pos: pos}
	g.nextID++
	g.Nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return n
}

// AddEdge inserts an edge. Both endpoints must already exist; this is a
// standing invariant checked at insertion time.
func (g *Graph) AddEdge(source, target NodeID, attrs map[string]string, pos Position) (*Edge, error) {
	if _, ok := g.Nodes[source]; !ok {
		return nil, fmt.Errorf("edge source node %d does not exist", source)
	}
	if _, ok := g.Nodes[target]; !ok {
		return nil, fmt.Errorf("edge target node %d does not exist", target)
	}
	e := &Edge{Source: source, Target: target, Attrs: attrs, Pos: pos}
	g.Edges = append(g.Edges, e)
	return e, nil
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id NodeID) *Node {
	return g.Nodes[id]
}

// NodesInOrder returns all nodes in insertion order.
func (g *Graph) NodesInOrder() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.Nodes[id])
	}
	return nodes
}

// Outgoing returns the edges leaving a node, in insertion order.
func (g *Graph) Outgoing(id NodeID) []*Edge {
	var out []*Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Incoming returns the edges entering a node, in insertion order.
func (g *Graph) Incoming(id NodeID) []*Edge {
	var in []*Edge
	for _, e := range g.Edges {
		if e.Target == id {
			in = append(in, e)
		}
	}
	return in
}

// SceneNames returns the scenes with entry points, sorted.
func (g *Graph) SceneNames() []string {
	names := make([]string, 0, len(g.EntryPoints))
	for name := range g.EntryPoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LabelKey qualifies a label name by its scene; label names are only
// unique within a scene.
func LabelKey(scene, label string) string {
	return scene + "/" + label
}
