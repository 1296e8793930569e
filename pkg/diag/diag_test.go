package diag

import (
	"strings"
	"testing"
)

func TestListAccumulates(t *testing.T) {
	var l List
	l.Add(Indentation, "startup", 3, "mixed tabs and spaces")
	l.Add(UnknownCommand, "startup", 7, "unknown command *%s", "frob")
	l.Merge([]Diagnostic{{Kind: BadCharacter, Scene: "other", Line: 1, Message: "bad"}})

	items := l.Items()
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[1].Message != "unknown command *frob" {
		t.Errorf("message = %q", items[1].Message)
	}
	if l.Count(Indentation) != 1 || l.Count(UnknownCommand) != 1 || l.Count(SyntaxRecovered) != 0 {
		t.Error("Count mismatch")
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{Kind: UnresolvedReference, Scene: "forest", Line: 12, Message: "no such label"}
	s := d.String()
	for _, want := range []string{"unresolved-reference", "forest:12", "no such label"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}

	bare := Diagnostic{Kind: BadCharacter, Message: "oops"}
	if got := bare.String(); strings.Contains(got, ":0") {
		t.Errorf("sceneless diagnostic renders a location: %q", got)
	}
}

func TestErrors(t *testing.T) {
	syn := NewSyntaxError(PhaseParser, "startup", 4, 17, 1.5, "unexpected %q", "#")
	for _, want := range []string{"startup", "4", "unexpected"} {
		if !strings.Contains(syn.Error(), want) {
			t.Errorf("syntax error = %q, missing %q", syn.Error(), want)
		}
	}

	structural := NewStructuralError(PhaseBuilder, "startup", 9, "*return without a matching *gosub")
	if !strings.Contains(structural.Error(), "gosub") {
		t.Errorf("structural error = %q", structural.Error())
	}
}
