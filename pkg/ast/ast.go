// Package ast defines the statement and expression trees produced by the
// parser. The tree is strict: every statement owns its children
// exclusively, and expressions are owned by the statement containing them.
package ast

import (
	"bytes"
	"strings"

	"github.com/storygraph-dev/storygraph/pkg/token"
)

type Node interface {
	TokenLiteral() string
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Scene is the root node: the parsed statement list of one scene file.
type Scene struct {
	Name       string
	Statements []Statement
}

func (s *Scene) TokenLiteral() string {
	if len(s.Statements) > 0 {
		return s.Statements[0].TokenLiteral()
	}
	return ""
}

func (s *Scene) String() string {
	var out bytes.Buffer
	for _, st := range s.Statements {
		out.WriteString(st.String())
		out.WriteString("\n")
	}
	return out.String()
}

// VarScope distinguishes *create (global) from *temp declarations.
type VarScope string

const (
	Global    VarScope = "create"
	Temporary VarScope = "temp"
)

// SetOp classifies the operator of a *set statement. Classification is
// total and mutually exclusive over valid input.
type SetOp string

const (
	OpSet              SetOp = "set"
	OpAdd              SetOp = "add"
	OpSubtract         SetOp = "subtract"
	OpFairmathAdd      SetOp = "fairmath_add"
	OpFairmathSubtract SetOp = "fairmath_subtract"
)

// ReusePolicy is the reuse marker preceding a choice option.
type ReusePolicy string

const (
	AllowReuse   ReusePolicy = "allow_reuse"
	HideReuse    ReusePolicy = "hide_reuse"
	DisableReuse ReusePolicy = "disable_reuse"
)

// Expressions

// Identifier is a bare variable reference.
type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// NumberLiteral is a numeric literal, integer or decimal.
type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (n *NumberLiteral) expressionNode()      {}
func (n *NumberLiteral) TokenLiteral() string { return n.Token.Literal }
func (n *NumberLiteral) String() string       { return n.Token.Literal }

// StringLiteral is a quoted string literal.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (s *StringLiteral) expressionNode()      {}
func (s *StringLiteral) TokenLiteral() string { return s.Token.Literal }
func (s *StringLiteral) String() string       { return `"` + s.Value + `"` }

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) expressionNode()      {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Literal }
func (b *BooleanLiteral) String() string       { return b.Token.Literal }

// UnaryExpr is a prefix operation: not, -, +, %+ and %- applied prefix.
type UnaryExpr struct {
	Token    token.Token
	Operator string
	Operand  Expression
}

func (u *UnaryExpr) expressionNode()      {}
func (u *UnaryExpr) TokenLiteral() string { return u.Token.Literal }
func (u *UnaryExpr) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(u.Operator)
	if isWordOperator(u.Operator) {
		out.WriteString(" ")
	}
	out.WriteString(u.Operand.String())
	out.WriteString(")")
	return out.String()
}

// BinaryExpr is a left-associative infix operation.
type BinaryExpr struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (b *BinaryExpr) expressionNode()      {}
func (b *BinaryExpr) TokenLiteral() string { return b.Token.Literal }
func (b *BinaryExpr) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(b.Left.String())
	out.WriteString(" " + b.Operator + " ")
	out.WriteString(b.Right.String())
	out.WriteString(")")
	return out.String()
}

// GroupingExpr is a parenthesized sub-expression.
type GroupingExpr struct {
	Token token.Token
	Inner Expression
}

func (g *GroupingExpr) expressionNode()      {}
func (g *GroupingExpr) TokenLiteral() string { return g.Token.Literal }
func (g *GroupingExpr) String() string       { return "(" + g.Inner.String() + ")" }

func isWordOperator(op string) bool {
	switch op {
	case "not", "round", "and", "or", "modulo":
		return true
	}
	return false
}

// Statements

// Prose is a run of narrative text.
type Prose struct {
	Token token.Token
	Text  string
}

func (p *Prose) statementNode()       {}
func (p *Prose) TokenLiteral() string { return p.Token.Literal }
func (p *Prose) String() string       { return p.Text }

// Comment is a *comment line; its text is kept verbatim.
type Comment struct {
	Token token.Token
	Text  string
}

func (c *Comment) statementNode()       {}
func (c *Comment) TokenLiteral() string { return c.Token.Literal }
func (c *Comment) String() string       { return "*comment " + c.Text }

// Label marks a jump target within its scene.
type Label struct {
	Token token.Token
	Name  string
}

func (l *Label) statementNode()       {}
func (l *Label) TokenLiteral() string { return l.Token.Literal }
func (l *Label) String() string       { return "*label " + l.Name }

// GotoLabel jumps to a label in the current scene.
type GotoLabel struct {
	Token token.Token
	Label string
}

func (g *GotoLabel) statementNode()       {}
func (g *GotoLabel) TokenLiteral() string { return g.Token.Literal }
func (g *GotoLabel) String() string       { return "*goto " + g.Label }

// GotoScene jumps to another scene, optionally at a label. An empty Label
// targets the scene's first statement.
type GotoScene struct {
	Token token.Token
	Scene string
	Label string
}

func (g *GotoScene) statementNode()       {}
func (g *GotoScene) TokenLiteral() string { return g.Token.Literal }
func (g *GotoScene) String() string {
	if g.Label != "" {
		return "*goto_scene " + g.Scene + " " + g.Label
	}
	return "*goto_scene " + g.Scene
}

// GoSub calls a label in the current scene as a subroutine.
type GoSub struct {
	Token token.Token
	Label string
}

func (g *GoSub) statementNode()       {}
func (g *GoSub) TokenLiteral() string { return g.Token.Literal }
func (g *GoSub) String() string       { return "*gosub " + g.Label }

// GoSubScene calls into another scene as a subroutine.
type GoSubScene struct {
	Token token.Token
	Scene string
	Label string
}

func (g *GoSubScene) statementNode()       {}
func (g *GoSubScene) TokenLiteral() string { return g.Token.Literal }
func (g *GoSubScene) String() string {
	if g.Label != "" {
		return "*gosub_scene " + g.Scene + " " + g.Label
	}
	return "*gosub_scene " + g.Scene
}

// Return pops the innermost gosub call.
type Return struct {
	Token token.Token
}

func (r *Return) statementNode()       {}
func (r *Return) TokenLiteral() string { return r.Token.Literal }
func (r *Return) String() string       { return "*return" }

// Choice is a *choice or *fake_choice block. Body elements are
// *ChoiceOption, nested *If, or *Comment.
type Choice struct {
	Token token.Token
	Fake  bool
	Body  []Statement
}

func (c *Choice) statementNode()       {}
func (c *Choice) TokenLiteral() string { return c.Token.Literal }
func (c *Choice) String() string {
	var out bytes.Buffer
	if c.Fake {
		out.WriteString("*fake_choice")
	} else {
		out.WriteString("*choice")
	}
	for _, st := range c.Body {
		out.WriteString("\n  ")
		out.WriteString(st.String())
	}
	return out.String()
}

// ChoiceOption is one #-prefixed option of a choice block.
type ChoiceOption struct {
	Token      token.Token
	Text       string
	Reuse      ReusePolicy
	Condition  Expression // from *selectable_if or *if prefix, nil if none
	Selectable bool       // condition came from *selectable_if
	Body       []Statement
}

func (o *ChoiceOption) statementNode()       {}
func (o *ChoiceOption) TokenLiteral() string { return o.Token.Literal }
func (o *ChoiceOption) String() string {
	var out bytes.Buffer
	if o.Reuse != AllowReuse && o.Reuse != "" {
		out.WriteString("*" + string(o.Reuse) + " ")
	}
	if o.Condition != nil {
		if o.Selectable {
			out.WriteString("*selectable_if ")
		} else {
			out.WriteString("*if ")
		}
		out.WriteString(o.Condition.String())
		out.WriteString(" ")
	}
	out.WriteString("#" + o.Text)
	return out.String()
}

// ElseIf is one *elseif branch of an if cascade.
type ElseIf struct {
	Token     token.Token
	Condition Expression
	Body      []Statement
}

func (e *ElseIf) String() string {
	return "*elseif " + e.Condition.String()
}

// Else is the final branch of an if cascade.
type Else struct {
	Token token.Token
	Body  []Statement
}

// If is an *if cascade: the first branch plus zero or more *elseif
// branches and an optional *else branch.
type If struct {
	Token     token.Token
	Condition Expression
	Body      []Statement
	ElseIfs   []*ElseIf
	Else      *Else
}

func (i *If) statementNode()       {}
func (i *If) TokenLiteral() string { return i.Token.Literal }
func (i *If) String() string {
	var out bytes.Buffer
	out.WriteString("*if ")
	out.WriteString(i.Condition.String())
	for _, e := range i.ElseIfs {
		out.WriteString("\n" + e.String())
	}
	if i.Else != nil {
		out.WriteString("\n*else")
	}
	out.WriteString("\n*endif")
	return out.String()
}

// DeclareVariable is a *create (global) or *temp (scene-local) statement.
type DeclareVariable struct {
	Token token.Token
	Scope VarScope
	Name  string
	Init  Expression // may be nil for *temp
}

func (d *DeclareVariable) statementNode()       {}
func (d *DeclareVariable) TokenLiteral() string { return d.Token.Literal }
func (d *DeclareVariable) String() string {
	var out bytes.Buffer
	out.WriteString("*" + string(d.Scope) + " " + d.Name)
	if d.Init != nil {
		out.WriteString(" " + d.Init.String())
	}
	return out.String()
}

// SetVariable is a *set statement with its classified operator.
type SetVariable struct {
	Token    token.Token
	Name     string
	Operator SetOp
	Value    Expression
}

func (s *SetVariable) statementNode()       {}
func (s *SetVariable) TokenLiteral() string { return s.Token.Literal }
func (s *SetVariable) String() string {
	var out bytes.Buffer
	out.WriteString("*set " + s.Name)
	switch s.Operator {
	case OpAdd:
		out.WriteString(" +")
	case OpSubtract:
		out.WriteString(" -")
	case OpFairmathAdd:
		out.WriteString(" %+")
	case OpFairmathSubtract:
		out.WriteString(" %-")
	default:
		out.WriteString(" ")
	}
	if s.Value != nil {
		out.WriteString(s.Value.String())
	}
	return out.String()
}

// Finish ends the scene, optionally with button text.
type Finish struct {
	Token token.Token
	Text  string
}

func (f *Finish) statementNode()       {}
func (f *Finish) TokenLiteral() string { return f.Token.Literal }
func (f *Finish) String() string {
	if f.Text != "" {
		return "*finish " + f.Text
	}
	return "*finish"
}

// PageBreak pauses the narrative, optionally with button text.
type PageBreak struct {
	Token token.Token
	Text  string
}

func (p *PageBreak) statementNode()       {}
func (p *PageBreak) TokenLiteral() string { return p.Token.Literal }
func (p *PageBreak) String() string {
	if p.Text != "" {
		return "*page_break " + p.Text
	}
	return "*page_break"
}

// LineBreak forces a line break in prose.
type LineBreak struct {
	Token token.Token
}

func (l *LineBreak) statementNode()       {}
func (l *LineBreak) TokenLiteral() string { return l.Token.Literal }
func (l *LineBreak) String() string       { return "*line_break" }

// InputText reads player input into a variable.
type InputText struct {
	Token token.Token
	Name  string
}

func (i *InputText) statementNode()       {}
func (i *InputText) TokenLiteral() string { return i.Token.Literal }
func (i *InputText) String() string       { return "*input_text " + i.Name }

// SceneList declares the story's scene order; only valid in startup.
type SceneList struct {
	Token  token.Token
	Scenes []string
}

func (s *SceneList) statementNode()       {}
func (s *SceneList) TokenLiteral() string { return s.Token.Literal }
func (s *SceneList) String() string {
	return "*scene_list\n  " + strings.Join(s.Scenes, "\n  ")
}

// Achievement declares an achievement; the indented description lines that
// follow the command are collected verbatim.
type Achievement struct {
	Token       token.Token
	Args        string
	Description []string
}

func (a *Achievement) statementNode()       {}
func (a *Achievement) TokenLiteral() string { return a.Token.Literal }
func (a *Achievement) String() string       { return "*achievement " + a.Args }

// StatChart declares the stat screen layout; lines are kept verbatim.
type StatChart struct {
	Token token.Token
	Lines []string
}

func (s *StatChart) statementNode()       {}
func (s *StatChart) TokenLiteral() string { return s.Token.Literal }
func (s *StatChart) String() string       { return "*stat_chart" }

// Title is the story title declaration.
type Title struct {
	Token token.Token
	Text  string
}

func (t *Title) statementNode()       {}
func (t *Title) TokenLiteral() string { return t.Token.Literal }
func (t *Title) String() string       { return "*title " + t.Text }

// Author is the story author declaration.
type Author struct {
	Token token.Token
	Text  string
}

func (a *Author) statementNode()       {}
func (a *Author) TokenLiteral() string { return a.Token.Literal }
func (a *Author) String() string       { return "*author " + a.Text }

// UnknownCommand preserves a command the grammar does not recognize.
type UnknownCommand struct {
	Token token.Token
	Name  string
	Text  string
}

func (u *UnknownCommand) statementNode()       {}
func (u *UnknownCommand) TokenLiteral() string { return u.Token.Literal }
func (u *UnknownCommand) String() string       { return "*" + u.Name + " " + u.Text }
