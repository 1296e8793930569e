package graph

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/storygraph-dev/storygraph/pkg/ast"
	"github.com/storygraph-dev/storygraph/pkg/diag"
	"github.com/storygraph-dev/storygraph/pkg/lexer"
	"github.com/storygraph-dev/storygraph/pkg/parser"
)

// SceneSource supplies scene text on demand. The builder never performs
// I/O itself; timeout and retry policy belong to the implementation.
type SceneSource interface {
	ListScenes() ([]string, error)
	LoadScene(name string) (string, error)
	HasScene(name string) bool
}

// pendingLink is a jump whose target may live in a scene not yet loaded.
// Links are resolved once scene discovery reaches a fixed point.
type pendingLink struct {
	from  NodeID
	scene string
	label string // empty targets the scene's entry node
	pos   Position
}

// conditionalFrame tracks one open if cascade: the node flow came from,
// the conditions seen so far, and the branch-terminal nodes to be merged.
type conditionalFrame struct {
	pre       NodeID
	preDead   bool
	seen      []string
	terminals []NodeID
}

// Builder walks parsed scenes into a Graph. It is strictly single-writer:
// its traversal state must not be shared across goroutines, and scenes are
// linked sequentially in a deterministic order (scene-list order, then
// discovery order).
type Builder struct {
	source SceneSource
	strict bool

	g     *Graph
	diags diag.List

	cur      NodeID
	flowDead bool // flow cannot continue past the cursor (after goto etc.)
	curScene string

	choiceStack []NodeID
	condStack   []*conditionalFrame
	subStack    []NodeID

	processed map[string]bool
	queue     []string
	queued    map[string]bool
	pending   []pendingLink

	proseBuf   []string
	proseStart int
}

// NewBuilder creates a Builder reading scenes from source. In strict mode
// the first grammar violation aborts the build; otherwise parsing is
// best-effort and violations become diagnostics.
func NewBuilder(source SceneSource, strict bool) *Builder {
	return &Builder{
		source:    source,
		strict:    strict,
		processed: make(map[string]bool),
		queued:    make(map[string]bool),
	}
}

// Diagnostics returns the warnings accumulated during the last build.
func (b *Builder) Diagnostics() []diag.Diagnostic {
	return b.diags.Items()
}

// Build constructs the flow graph starting from entryScene. Scenes
// referenced only through goto_scene/gosub_scene targets are discovered
// and loaded on demand until no new scene name appears; the loop is
// bounded by the number of distinct scene names ever referenced. A fatal
// error aborts the whole build; no partial graph is returned.
func (b *Builder) Build(entryScene string) (*Graph, error) {
	b.g = New()
	b.g.Metadata["build_id"] = uuid.NewString()
	b.g.Metadata["entry"] = entryScene
	b.cur = None

	b.enqueue(entryScene)
	for len(b.queue) > 0 {
		name := b.queue[0]
		b.queue = b.queue[1:]
		if err := b.processScene(name, name == entryScene); err != nil {
			return nil, err
		}
		if len(b.queue) == 0 {
			// Fixed-point iteration: scan for scenes reachable only
			// through jump targets and load them too.
			b.discover()
		}
	}

	b.resolveLinks()
	return b.g, nil
}

func (b *Builder) enqueue(name string) {
	if name == "" || b.processed[name] || b.queued[name] {
		return
	}
	b.queued[name] = true
	b.queue = append(b.queue, name)
}

// discover scans pending links for scene names not yet processed and
// queues those the source can supply, in first-reference order.
func (b *Builder) discover() {
	for _, link := range b.pending {
		if link.scene == "" || b.processed[link.scene] || b.queued[link.scene] {
			continue
		}
		if !b.source.HasScene(link.scene) {
			continue
		}
		b.enqueue(link.scene)
	}
}

// processScene lexes, parses, and links one scene. A scene is processed at
// most once; reprocessing is a no-op.
func (b *Builder) processScene(name string, required bool) error {
	if b.processed[name] {
		return nil
	}
	b.processed[name] = true
	delete(b.queued, name)

	text, err := b.source.LoadScene(name)
	if err != nil {
		if required {
			return fmt.Errorf("load scene %q: %w", name, err)
		}
		b.diags.Add(diag.UnresolvedReference, name, 0, "scene could not be loaded: %v", err)
		return nil
	}

	tokens, lexDiags := lexer.Scan(name, text)
	b.diags.Merge(lexDiags)

	p := parser.New(name, tokens)
	var scn *ast.Scene
	if b.strict {
		if scn, err = p.Parse(); err != nil {
			return err
		}
	} else {
		var errs []error
		scn, errs = p.ParseBestEffort()
		for _, e := range errs {
			b.diags.Add(diag.SyntaxRecovered, name, 0, "recovered from parse error: %v", e)
		}
	}

	entry := b.g.AddNode(KindSceneEntry, name, Position{Scene: name, Line: 1})
	b.g.EntryPoints[name] = entry.ID
	b.curScene = name
	b.cur = entry.ID
	b.flowDead = false

	if err := b.emitAll(scn.Statements); err != nil {
		return err
	}
	b.flushProse()
	return nil
}

// resolveLinks connects every recorded jump whose target is now known.
// Misses leave the jump node dangling and add a warning; authored stories
// are allowed to have broken links during active authoring.
func (b *Builder) resolveLinks() {
	for _, link := range b.pending {
		var target NodeID
		var ok bool
		if link.label == "" {
			target, ok = b.g.EntryPoints[link.scene]
		} else {
			target, ok = b.g.Labels[LabelKey(link.scene, link.label)]
		}
		if !ok {
			what := "label " + link.label
			if link.label == "" {
				what = "scene " + link.scene
			} else if link.scene != "" {
				what = fmt.Sprintf("label %s in scene %s", link.label, link.scene)
			}
			b.diags.Add(diag.UnresolvedReference, link.pos.Scene, link.pos.Line,
				"jump target %s could not be resolved", what)
			continue
		}
		b.mustEdge(link.from, target, nil, link.pos)
	}
	b.pending = nil
}

// Emission.

func (b *Builder) emitAll(stmts []ast.Statement) error {
	for _, st := range stmts {
		if err := b.emitStatement(st); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) emitStatement(st ast.Statement) error {
	if prose, ok := st.(*ast.Prose); ok {
		if len(b.proseBuf) == 0 {
			b.proseStart = prose.Token.Line
		}
		b.proseBuf = append(b.proseBuf, prose.Text)
		return nil
	}
	// Narrative text always flushes before a structural node so that text
	// never straddles a flush boundary.
	b.flushProse()

	switch s := st.(type) {
	case *ast.Comment:
		b.emitNode(KindComment, s.Text, s.Token.Line, nil, nil)
	case *ast.LineBreak:
		// purely presentational
	case *ast.Label:
		n := b.emitNode(KindLabel, s.Name, s.Token.Line, nil, nil)
		b.g.Labels[LabelKey(b.curScene, s.Name)] = n.ID
	case *ast.GotoLabel:
		n := b.emitNode(KindGoto, "goto "+s.Label, s.Token.Line, map[string]string{"label": s.Label}, nil)
		b.pending = append(b.pending, pendingLink{from: n.ID, scene: b.curScene, label: s.Label, pos: n.Pos})
		b.flowDead = true
	case *ast.GotoScene:
		attrs := map[string]string{"scene": s.Scene}
		if s.Label != "" {
			attrs["label"] = s.Label
		}
		n := b.emitNode(KindGoto, "goto_scene "+s.Scene, s.Token.Line, attrs, nil)
		b.pending = append(b.pending, pendingLink{from: n.ID, scene: s.Scene, label: s.Label, pos: n.Pos})
		b.flowDead = true
	case *ast.GoSub:
		n := b.emitNode(KindGosub, "gosub "+s.Label, s.Token.Line, map[string]string{"label": s.Label}, nil)
		b.pending = append(b.pending, pendingLink{from: n.ID, scene: b.curScene, label: s.Label, pos: n.Pos})
		b.subStack = append(b.subStack, n.ID)
	case *ast.GoSubScene:
		attrs := map[string]string{"scene": s.Scene}
		if s.Label != "" {
			attrs["label"] = s.Label
		}
		n := b.emitNode(KindGosub, "gosub_scene "+s.Scene, s.Token.Line, attrs, nil)
		b.pending = append(b.pending, pendingLink{from: n.ID, scene: s.Scene, label: s.Label, pos: n.Pos})
		b.subStack = append(b.subStack, n.ID)
	case *ast.Return:
		n := b.emitNode(KindReturn, "return", s.Token.Line, nil, nil)
		if len(b.subStack) == 0 {
			return diag.NewStructuralError(diag.PhaseBuilder, b.curScene, s.Token.Line,
				"*return without a matching *gosub")
		}
		cont := b.subStack[len(b.subStack)-1]
		b.subStack = b.subStack[:len(b.subStack)-1]
		b.mustEdge(n.ID, cont, map[string]string{"return": "true"}, n.Pos)
		b.flowDead = true
	case *ast.Choice:
		return b.emitChoice(s)
	case *ast.If:
		return b.emitIf(s)
	case *ast.DeclareVariable:
		b.emitDeclare(s)
	case *ast.SetVariable:
		b.emitSet(s)
	case *ast.Finish:
		b.emitNode(KindFinish, s.Text, s.Token.Line, nil, nil)
		b.flowDead = true
	case *ast.PageBreak:
		b.emitNode(KindPageBreak, s.Text, s.Token.Line, nil, nil)
	case *ast.InputText:
		b.emitNode(KindVariable, s.Name, s.Token.Line,
			map[string]string{"name": s.Name, "input": "true"}, nil)
	case *ast.SceneList:
		b.emitNode(KindMetadata, "scene_list", s.Token.Line,
			map[string]string{"scenes": strings.Join(s.Scenes, " ")}, nil)
		b.g.Metadata["scene_list"] = strings.Join(s.Scenes, " ")
		for _, name := range s.Scenes {
			b.enqueue(name)
		}
	case *ast.Achievement:
		b.emitNode(KindMetadata, "achievement "+s.Args, s.Token.Line, nil, nil)
	case *ast.StatChart:
		b.emitNode(KindMetadata, "stat_chart", s.Token.Line, nil, nil)
	case *ast.Title:
		b.emitNode(KindMetadata, "title "+s.Text, s.Token.Line, nil, nil)
		b.g.Metadata["title"] = s.Text
	case *ast.Author:
		b.emitNode(KindMetadata, "author "+s.Text, s.Token.Line, nil, nil)
		b.g.Metadata["author"] = s.Text
	case *ast.UnknownCommand:
		b.emitNode(KindUnknownCommand, s.Name+" "+s.Text, s.Token.Line, nil, nil)
	default:
		return diag.NewStructuralError(diag.PhaseBuilder, b.curScene, 0,
			"statement %T cannot appear here", st)
	}
	return nil
}

// emitNode creates a node, links it from the cursor if flow is alive, and
// advances the cursor to it.
func (b *Builder) emitNode(kind NodeKind, text string, line int, attrs, edgeAttrs map[string]string) *Node {
	pos := Position{Scene: b.curScene, Line: line}
	n := b.g.AddNode(kind, text, pos)
	n.Attrs = attrs
	if b.cur != None && !b.flowDead {
		b.mustEdge(b.cur, n.ID, edgeAttrs, pos)
	}
	b.cur = n.ID
	b.flowDead = false
	return n
}

// mustEdge inserts an edge between nodes the builder itself created; the
// endpoint invariant cannot fail here.
func (b *Builder) mustEdge(source, target NodeID, attrs map[string]string, pos Position) {
	if _, err := b.g.AddEdge(source, target, attrs, pos); err != nil {
		panic(err)
	}
}

func (b *Builder) flushProse() {
	if len(b.proseBuf) == 0 {
		return
	}
	text := strings.Join(b.proseBuf, "\n")
	b.proseBuf = b.proseBuf[:0]
	b.emitNode(KindText, text, b.proseStart, nil, nil)
}

func (b *Builder) emitDeclare(s *ast.DeclareVariable) {
	if s.Name == "" {
		b.diags.Add(diag.InvalidDeclaration, b.curScene, s.Token.Line,
			"*%s is missing a variable name", s.Scope)
	} else if s.Scope == ast.Global && s.Init == nil {
		b.diags.Add(diag.InvalidDeclaration, b.curScene, s.Token.Line,
			"*create %s is missing an initial value", s.Name)
	}
	attrs := map[string]string{
		"name":  s.Name,
		"scope": string(s.Scope),
	}
	if s.Init != nil {
		attrs["initialValue"] = renderExpr(s.Init)
		attrs["dataType"] = literalType(s.Init)
	}
	b.emitNode(KindVariable, s.Name, s.Token.Line, attrs, nil)
}

func (b *Builder) emitSet(s *ast.SetVariable) {
	if s.Name == "" {
		b.diags.Add(diag.InvalidDeclaration, b.curScene, s.Token.Line,
			"*set is missing a variable name")
	} else if s.Value == nil {
		b.diags.Add(diag.InvalidDeclaration, b.curScene, s.Token.Line,
			"*set %s is missing a value", s.Name)
	}
	attrs := map[string]string{
		"name":      s.Name,
		"operation": string(s.Operator),
	}
	value := ""
	if s.Value != nil {
		value = renderExpr(s.Value)
		attrs["value"] = value
	}
	// Fairmath operations are recorded distinctly so consumers can apply
	// the diminishing-returns adjustment instead of plain arithmetic.
	statChange := fmt.Sprintf("%s %s %s", s.Name, s.Operator, value)
	b.emitNode(KindSet, s.Name, s.Token.Line, attrs,
		map[string]string{"statChanges": strings.TrimSpace(statChange)})
}

// emitChoice emits a choice node and one option node per reachable option.
// Nested if cascades inside the block fold their conditions into the
// option edges they gate.
func (b *Builder) emitChoice(s *ast.Choice) error {
	attrs := map[string]string{"isFake": "false"}
	if s.Fake {
		attrs["isFake"] = "true"
	}
	choice := b.emitNode(KindChoice, "", s.Token.Line, attrs, nil)
	b.choiceStack = append(b.choiceStack, choice.ID)

	if err := b.emitChoiceBody(choice.ID, s.Body, ""); err != nil {
		return err
	}

	b.choiceStack = b.choiceStack[:len(b.choiceStack)-1]
	b.cur = choice.ID
	// A fake choice falls through to the next statement; a real choice
	// transfers control into its options.
	b.flowDead = !s.Fake
	return nil
}

func (b *Builder) emitChoiceBody(choiceID NodeID, body []ast.Statement, gate string) error {
	for _, el := range body {
		switch e := el.(type) {
		case *ast.ChoiceOption:
			if err := b.emitOption(choiceID, e, gate); err != nil {
				return err
			}
		case *ast.If:
			conds := []string{renderExpr(e.Condition)}
			if err := b.emitChoiceBody(choiceID, e.Body, combineConditions(gate, conds[0])); err != nil {
				return err
			}
			for _, branch := range e.ElseIfs {
				cond := branchCondition(conds, renderExpr(branch.Condition))
				conds = append(conds, renderExpr(branch.Condition))
				if err := b.emitChoiceBody(choiceID, branch.Body, combineConditions(gate, cond)); err != nil {
					return err
				}
			}
			if e.Else != nil {
				cond := elseCondition(conds)
				if err := b.emitChoiceBody(choiceID, e.Else.Body, combineConditions(gate, cond)); err != nil {
					return err
				}
			}
		case *ast.Comment:
			pos := Position{Scene: b.curScene, Line: e.Token.Line}
			n := b.g.AddNode(KindComment, e.Text, pos)
			b.mustEdge(choiceID, n.ID, nil, pos)
		default:
			return diag.NewStructuralError(diag.PhaseBuilder, b.curScene, 0,
				"statement %T cannot appear directly inside a choice block", el)
		}
	}
	return nil
}

func (b *Builder) emitOption(choiceID NodeID, opt *ast.ChoiceOption, gate string) error {
	pos := Position{Scene: b.curScene, Line: opt.Token.Line}
	n := b.g.AddNode(KindOption, opt.Text, pos)

	edgeAttrs := map[string]string{}
	cond := gate
	if opt.Condition != nil {
		cond = combineConditions(gate, renderExpr(opt.Condition))
		if opt.Selectable {
			edgeAttrs["selectable_if"] = "true"
		}
	}
	if cond != "" {
		edgeAttrs["condition"] = cond
	}
	if opt.Reuse != ast.AllowReuse && opt.Reuse != "" {
		edgeAttrs["reuse"] = string(opt.Reuse)
	}
	if len(edgeAttrs) == 0 {
		edgeAttrs = nil
	}
	b.mustEdge(choiceID, n.ID, edgeAttrs, pos)

	b.cur = n.ID
	b.flowDead = false
	if err := b.emitAll(opt.Body); err != nil {
		return err
	}
	b.flushProse()
	return nil
}

// emitIf emits one conditional node per branch, all linked from the node
// preceding the if, and a single merge node that every branch-terminal
// node rejoins. Downstream analysis can then treat the cascade as
// transparent.
func (b *Builder) emitIf(s *ast.If) error {
	frame := &conditionalFrame{pre: b.cur, preDead: b.flowDead}
	b.condStack = append(b.condStack, frame)

	first := renderExpr(s.Condition)
	frame.seen = append(frame.seen, first)
	if err := b.emitBranch(frame, first, s.Token.Line, s.Body); err != nil {
		return err
	}

	for _, branch := range s.ElseIfs {
		cond := branchCondition(frame.seen, renderExpr(branch.Condition))
		frame.seen = append(frame.seen, renderExpr(branch.Condition))
		if err := b.emitBranch(frame, cond, branch.Token.Line, branch.Body); err != nil {
			return err
		}
	}

	if s.Else != nil {
		cond := elseCondition(frame.seen)
		if err := b.emitBranch(frame, cond, s.Else.Token.Line, s.Else.Body); err != nil {
			return err
		}
	}

	merge := b.g.AddNode(KindMerge, "", Position{Scene: b.curScene, Line: s.Token.Line})
	for _, t := range frame.terminals {
		b.mustEdge(t, merge.ID, nil, merge.Pos)
	}
	b.condStack = b.condStack[:len(b.condStack)-1]
	b.cur = merge.ID
	b.flowDead = false
	return nil
}

// emitBranch emits one conditional node linked from the original pre-if
// node, runs its body, and records the branch-terminal node. Branches that
// end the story (finish) or pop a subroutine (return) have no terminal.
func (b *Builder) emitBranch(frame *conditionalFrame, cond string, line int, body []ast.Statement) error {
	pos := Position{Scene: b.curScene, Line: line}
	n := b.g.AddNode(KindConditional, cond, pos)
	n.Attrs = map[string]string{"condition": cond}
	if frame.pre != None && !frame.preDead {
		b.mustEdge(frame.pre, n.ID, map[string]string{"condition": cond}, pos)
	}
	b.cur = n.ID
	b.flowDead = false

	if err := b.emitAll(body); err != nil {
		return err
	}
	b.flushProse()

	if b.cur != None {
		switch b.g.Nodes[b.cur].Kind {
		case KindFinish, KindReturn:
		default:
			frame.terminals = append(frame.terminals, b.cur)
		}
	}
	return nil
}
