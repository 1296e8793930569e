package graph

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/storygraph-dev/storygraph/pkg/scene"
)

// fragments are composable scene snippets used to generate arbitrary but
// plausible scene files.
var fragments = []string{
	"Some prose text.",
	"*label here",
	"*goto here",
	"*create gold 10",
	"*set gold %+ 5",
	"*temp mood \"calm\"",
	"*choice\n\t#One\n\t\tfirst\n\t#Two\n\t\tsecond",
	"*fake_choice\n\t#Nod\n\t#Shrug",
	"*if gold > 5\n\trich\n*else\n\tpoor",
	"*page_break",
	"*finish",
	"*goto missing",
	"*goto_scene elsewhere",
	"*comment ignore this",
}

func genSceneText() gopter.Gen {
	return gen.SliceOfN(6, gen.IntRange(0, len(fragments)-1)).Map(func(picks []int) string {
		var lines []string
		for _, p := range picks {
			lines = append(lines, fragments[p])
		}
		return strings.Join(lines, "\n") + "\n"
	})
}

// Every edge in a built graph connects nodes that exist; entry points and
// labels always resolve to real nodes.
func TestProperty_GraphWellFormed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("edges connect existing nodes", prop.ForAll(
		func(text string) bool {
			b := NewBuilder(scene.NewMapProvider(map[string]string{"startup": text}), false)
			g, err := b.Build("startup")
			if err != nil {
				// A bare *return is the one fatal structural case here.
				return strings.Contains(err.Error(), "return")
			}
			for _, e := range g.Edges {
				if g.Nodes[e.Source] == nil || g.Nodes[e.Target] == nil {
					return false
				}
			}
			for _, id := range g.EntryPoints {
				if g.Nodes[id] == nil || g.Nodes[id].Kind != KindSceneEntry {
					return false
				}
			}
			for _, id := range g.Labels {
				if g.Nodes[id] == nil || g.Nodes[id].Kind != KindLabel {
					return false
				}
			}
			return true
		},
		genSceneText(),
	))

	properties.TestingRun(t)
}

// Building the same story twice yields the same shape: node kinds, texts,
// and edge endpoints in identical order.
func TestProperty_BuildDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("two builds agree", prop.ForAll(
		func(text string) bool {
			scenes := map[string]string{"startup": text, "elsewhere": "Far away.\n*finish"}

			first := NewBuilder(scene.NewMapProvider(scenes), false)
			g1, err1 := first.Build("startup")
			second := NewBuilder(scene.NewMapProvider(scenes), false)
			g2, err2 := second.Build("startup")

			if (err1 == nil) != (err2 == nil) {
				return false
			}
			if err1 != nil {
				return true
			}

			n1, n2 := g1.NodesInOrder(), g2.NodesInOrder()
			if len(n1) != len(n2) || len(g1.Edges) != len(g2.Edges) {
				return false
			}
			for i := range n1 {
				if n1[i].Kind != n2[i].Kind || n1[i].Text != n2[i].Text {
					return false
				}
			}
			for i := range g1.Edges {
				if g1.Edges[i].Source != g2.Edges[i].Source || g1.Edges[i].Target != g2.Edges[i].Target {
					return false
				}
			}
			return true
		},
		genSceneText(),
	))

	properties.TestingRun(t)
}
