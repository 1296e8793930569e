// Package analysis provides read-only passes over a finished flow graph:
// cycle detection, reachability, dead-end detection, and variable usage
// extraction. No pass mutates the graph.
package analysis

import (
	"sort"
	"strings"

	"github.com/storygraph-dev/storygraph/pkg/graph"
)

// Report aggregates the results of every analysis pass.
type Report struct {
	Cycles      [][]graph.NodeID
	Unreachable []graph.NodeID
	DeadEnds    []graph.NodeID
	Variables   *VariableReport
}

// Analyze runs all passes over g.
func Analyze(g *graph.Graph) *Report {
	return &Report{
		Cycles:      DetectCycles(g),
		Unreachable: Unreachable(g),
		DeadEnds:    DeadEnds(g),
		Variables:   Variables(g),
	}
}

// DetectCycles finds cycles by depth-first traversal with a recursion
// stack. A node met while still on the stack yields a cycle: the suffix of
// the current path from that node back to itself.
func DetectCycles(g *graph.Graph) [][]graph.NodeID {
	var cycles [][]graph.NodeID
	visited := make(map[graph.NodeID]bool)
	onStack := make(map[graph.NodeID]bool)
	var path []graph.NodeID

	var dfs func(id graph.NodeID)
	dfs = func(id graph.NodeID) {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, e := range g.Outgoing(id) {
			if onStack[e.Target] {
				for i, p := range path {
					if p == e.Target {
						cycle := make([]graph.NodeID, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
				continue
			}
			if !visited[e.Target] {
				dfs(e.Target)
			}
		}

		path = path[:len(path)-1]
		onStack[id] = false
	}

	for _, n := range g.NodesInOrder() {
		if !visited[n.ID] {
			dfs(n.ID)
		}
	}
	return cycles
}

// Unreachable returns the nodes not reachable from any entry point, in id
// order.
func Unreachable(g *graph.Graph) []graph.NodeID {
	visited := make(map[graph.NodeID]bool)
	var queue []graph.NodeID
	for _, name := range g.SceneNames() {
		id := g.EntryPoints[name]
		if !visited[id] {
			visited[id] = true
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.Outgoing(id) {
			if !visited[e.Target] {
				visited[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}

	var missing []graph.NodeID
	for _, n := range g.NodesInOrder() {
		if !visited[n.ID] {
			missing = append(missing, n.ID)
		}
	}
	return missing
}

// DeadEnds returns the nodes with no outgoing edge whose kind does not
// legitimately end flow. Finish nodes end the story; goto and gosub nodes
// may be legitimately dangling when their target is unresolved.
func DeadEnds(g *graph.Graph) []graph.NodeID {
	hasOut := make(map[graph.NodeID]bool)
	for _, e := range g.Edges {
		hasOut[e.Source] = true
	}

	var ends []graph.NodeID
	for _, n := range g.NodesInOrder() {
		if hasOut[n.ID] {
			continue
		}
		switch n.Kind {
		case graph.KindFinish, graph.KindGoto, graph.KindGosub:
			continue
		}
		ends = append(ends, n.ID)
	}
	return ends
}

// Variable is one declared story variable.
type Variable struct {
	Name         string
	Scope        string // create or temp
	DataType     string // numeric, string, or boolean
	InitialValue string
	DeclaredAt   graph.NodeID
}

// VariableReport lists declarations, assignments, and uses, plus any name
// assigned or used without a prior declaration.
type VariableReport struct {
	Declarations []Variable
	Assignments  map[string][]graph.NodeID
	Uses         map[string]int
	Undeclared   []string
}

// wordOperators are excluded when mining identifiers out of condition
// text.
var wordOperators = map[string]bool{
	"and": true, "or": true, "not": true,
	"round": true, "modulo": true, "modulus": true,
	"true": true, "false": true,
}

// Variables extracts declarations from variable nodes, assignments from
// set nodes, and uses from edge condition text.
func Variables(g *graph.Graph) *VariableReport {
	report := &VariableReport{
		Assignments: make(map[string][]graph.NodeID),
		Uses:        make(map[string]int),
	}
	declared := make(map[string]graph.NodeID)

	for _, n := range g.NodesInOrder() {
		switch n.Kind {
		case graph.KindVariable:
			name := n.Attr("name")
			if name == "" {
				continue
			}
			if n.Attr("input") == "true" {
				report.Assignments[name] = append(report.Assignments[name], n.ID)
				continue
			}
			// Redeclaration is not an error; the later one shadows.
			declared[name] = n.ID
			report.Declarations = append(report.Declarations, Variable{
				Name:         name,
				Scope:        n.Attr("scope"),
				DataType:     n.Attr("dataType"),
				InitialValue: n.Attr("initialValue"),
				DeclaredAt:   n.ID,
			})
		case graph.KindSet:
			if name := n.Attr("name"); name != "" {
				report.Assignments[name] = append(report.Assignments[name], n.ID)
			}
		}
	}

	for _, e := range g.Edges {
		for _, name := range identifiers(e.Attr("condition")) {
			report.Uses[name]++
		}
	}

	flagged := make(map[string]bool)
	for name := range report.Assignments {
		if _, ok := declared[name]; !ok && !flagged[name] {
			flagged[name] = true
			report.Undeclared = append(report.Undeclared, name)
		}
	}
	for name := range report.Uses {
		if _, ok := declared[name]; !ok && !flagged[name] {
			flagged[name] = true
			report.Undeclared = append(report.Undeclared, name)
		}
	}
	sort.Strings(report.Undeclared)
	return report
}

// identifiers mines identifier-like substrings out of condition text,
// excluding logical keywords and numbers.
func identifiers(text string) []string {
	var names []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		word := cur.String()
		cur.Reset()
		if wordOperators[word] {
			return
		}
		if word[0] >= '0' && word[0] <= '9' {
			return
		}
		names = append(names, word)
	}
	inString := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			flush()
			inString = true
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
			cur.WriteByte(c)
		default:
			flush()
		}
	}
	flush()
	return names
}
