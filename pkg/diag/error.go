package diag

import "fmt"

// Phase names the pipeline stage that raised a fatal error.
type Phase string

const (
	PhaseParser  Phase = "parser"
	PhaseBuilder Phase = "builder"
)

// Error is a fatal pipeline error with source location. Unlike a
// Diagnostic it aborts the current build; no partial graph survives it.
type Error struct {
	Phase      Phase
	Structural bool // matching-construct violation rather than a grammar one
	Scene      string
	Line       int
	Position   int
	Indent     float64
	Message    string
}

func (e *Error) Error() string {
	kind := "syntax"
	if e.Structural {
		kind = "structural"
	}
	if e.Scene == "" {
		return fmt.Sprintf("%s: %s error: %s", e.Phase, kind, e.Message)
	}
	return fmt.Sprintf("%s: %s error at %s:%d:%d (indent %g): %s",
		e.Phase, kind, e.Scene, e.Line, e.Position, e.Indent, e.Message)
}

// NewSyntaxError reports an unexpected token for the current grammar
// position.
func NewSyntaxError(phase Phase, scene string, line, position int, indent float64, format string, args ...any) *Error {
	return &Error{
		Phase:    phase,
		Scene:    scene,
		Line:     line,
		Position: position,
		Indent:   indent,
		Message:  fmt.Sprintf(format, args...),
	}
}

// NewStructuralError reports a construct with no matching opener, such as
// *else without *if or *return without *gosub.
func NewStructuralError(phase Phase, scene string, line int, format string, args ...any) *Error {
	return &Error{
		Phase:      phase,
		Structural: true,
		Scene:      scene,
		Line:       line,
		Message:    fmt.Sprintf(format, args...),
	}
}
