// Package diag carries the non-fatal diagnostics accumulated while
// scanning, parsing, and linking a story.
package diag

import "fmt"

// Kind classifies a diagnostic.
type Kind string

const (
	Indentation         Kind = "indentation"
	UnresolvedReference Kind = "unresolved-reference"
	InvalidDeclaration  Kind = "invalid-declaration"
	UnknownCommand      Kind = "unknown-command"
	BadCharacter        Kind = "bad-character"
	SyntaxRecovered     Kind = "syntax"
)

// Diagnostic is a warning tied to a source location. Warnings never abort a
// build; fatal conditions are modeled as errors instead.
type Diagnostic struct {
	Kind    Kind
	Scene   string
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	if d.Scene == "" {
		return fmt.Sprintf("[%s] %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("[%s] %s:%d: %s", d.Kind, d.Scene, d.Line, d.Message)
}

// List accumulates diagnostics in emission order.
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic.
func (l *List) Add(kind Kind, scene string, line int, format string, args ...any) {
	l.items = append(l.items, Diagnostic{
		Kind:    kind,
		Scene:   scene,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

// Merge appends another list's diagnostics.
func (l *List) Merge(other []Diagnostic) {
	l.items = append(l.items, other...)
}

// Items returns the accumulated diagnostics.
func (l *List) Items() []Diagnostic {
	return l.items
}

// Count returns the number of diagnostics of the given kind.
func (l *List) Count(kind Kind) int {
	n := 0
	for _, d := range l.items {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
