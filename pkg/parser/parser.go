// Package parser builds statement trees from scene token streams.
//
// Block structure is delimited by indentation rather than braces: a
// statement's children are the following tokens whose indent is strictly
// greater than its own (childScope), and an if cascade's elseif/else/endif
// clauses must sit at exactly the indent of the opening if (siblingScope,
// strict). The expression grammar is a precedence-climbing descent.
package parser

import (
	"strconv"

	"github.com/storygraph-dev/storygraph/pkg/ast"
	"github.com/storygraph-dev/storygraph/pkg/diag"
	"github.com/storygraph-dev/storygraph/pkg/token"
)

// Parser consumes one scene's token stream.
type Parser struct {
	scene      string
	tokens     []token.Token
	pos        int
	bestEffort bool
	errs       []error
}

// New creates a Parser for one scene's tokens.
func New(scene string, tokens []token.Token) *Parser {
	return &Parser{scene: scene, tokens: tokens}
}

// Parse parses the whole scene in strict mode: the first grammar violation
// aborts with a fatal error.
func (p *Parser) Parse() (*ast.Scene, error) {
	scn := &ast.Scene{Name: p.scene}
	for !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			scn.Statements = append(scn.Statements, stmt)
		}
	}
	return scn, nil
}

// ParseBestEffort parses the whole scene, reporting grammar violations and
// resuming at the next reliable boundary instead of aborting.
func (p *Parser) ParseBestEffort() (*ast.Scene, []error) {
	p.bestEffort = true
	scn := &ast.Scene{Name: p.scene}
	for !p.atEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			p.errs = append(p.errs, err)
			p.synchronize()
			continue
		}
		if stmt != nil {
			scn.Statements = append(scn.Statements, stmt)
		}
	}
	return scn, p.errs
}

// synchronize advances to a reliable statement boundary: past a return or
// goto, or to end of scene.
func (p *Parser) synchronize() {
	for !p.atEnd() {
		tok := p.cur()
		p.advance()
		switch tok.Kind {
		case token.RETURN, token.GOTO, token.GOTO_SCENE:
			p.skipLine(tok.Line)
			return
		}
	}
}

// Stream primitives.

func (p *Parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *Parser) cur() token.Token {
	if p.atEnd() {
		line := 0
		if n := len(p.tokens); n > 0 {
			line = p.tokens[n-1].Line
		}
		return token.Token{Kind: token.EOF, Scene: p.scene, Line: line}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() token.Token {
	tok := p.cur()
	if !p.atEnd() {
		p.pos++
	}
	return tok
}

// check reports whether the next token has the given kind, optionally
// constrained to the same line and indent as ref.
func (p *Parser) check(kind token.Kind, ref token.Token, sameLine, sameIndent bool) bool {
	if p.atEnd() || p.cur().Kind != kind {
		return false
	}
	if sameLine && p.cur().Line != ref.Line {
		return false
	}
	if sameIndent && p.cur().Indent != ref.Indent {
		return false
	}
	return true
}

// match consumes the next token if its kind is one of kinds.
func (p *Parser) match(kinds ...token.Kind) (token.Token, bool) {
	for _, k := range kinds {
		if !p.atEnd() && p.cur().Kind == k {
			return p.advance(), true
		}
	}
	return token.Token{}, false
}

// childScope reports whether the next token opens a child block of a
// statement at parentIndent: strictly deeper indentation.
func (p *Parser) childScope(parentIndent float64) bool {
	return !p.atEnd() && p.cur().Indent > parentIndent
}

// siblingScope reports whether the next token continues a cascade opened at
// parentIndent: exactly the same indentation.
func (p *Parser) siblingScope(parentIndent float64) bool {
	return !p.atEnd() && p.cur().Indent == parentIndent
}

func (p *Parser) syntaxError(tok token.Token, format string, args ...any) error {
	return diag.NewSyntaxError(diag.PhaseParser, p.scene, tok.Line, tok.Position, tok.Indent, format, args...)
}

func (p *Parser) structuralError(tok token.Token, format string, args ...any) error {
	return diag.NewStructuralError(diag.PhaseParser, p.scene, tok.Line, format, args...)
}

// Statements.

func (p *Parser) parseStatement() (ast.Statement, error) {
	tok := p.cur()
	switch tok.Kind {
	case token.TEXT:
		p.advance()
		return &ast.Prose{Token: tok, Text: tok.Literal}, nil
	case token.COMMENT:
		return p.parseComment(), nil
	case token.LABEL:
		return p.parseLabel()
	case token.GOTO:
		p.advance()
		name, err := p.sameLineIdent(tok, "label")
		if err != nil {
			return nil, err
		}
		return &ast.GotoLabel{Token: tok, Label: name}, nil
	case token.GOTO_SCENE:
		p.advance()
		scene, err := p.sameLineIdent(tok, "scene")
		if err != nil {
			return nil, err
		}
		label := ""
		if p.check(token.IDENT, tok, true, false) {
			label = p.advance().Literal
		}
		return &ast.GotoScene{Token: tok, Scene: scene, Label: label}, nil
	case token.GOSUB:
		p.advance()
		name, err := p.sameLineIdent(tok, "label")
		if err != nil {
			return nil, err
		}
		return &ast.GoSub{Token: tok, Label: name}, nil
	case token.GOSUB_SCENE:
		p.advance()
		scene, err := p.sameLineIdent(tok, "scene")
		if err != nil {
			return nil, err
		}
		label := ""
		if p.check(token.IDENT, tok, true, false) {
			label = p.advance().Literal
		}
		return &ast.GoSubScene{Token: tok, Scene: scene, Label: label}, nil
	case token.RETURN:
		p.advance()
		return &ast.Return{Token: tok}, nil
	case token.CHOICE, token.FAKE_CHOICE:
		return p.parseChoice()
	case token.IF:
		return p.parseIf(false)
	case token.ELSEIF:
		return nil, p.structuralError(tok, "*elseif without a matching *if")
	case token.ELSE:
		return nil, p.structuralError(tok, "*else without a matching *if")
	case token.ENDIF:
		return nil, p.structuralError(tok, "*endif without a matching *if")
	case token.CREATE:
		return p.parseDeclare(ast.Global), nil
	case token.TEMP:
		return p.parseDeclare(ast.Temporary), nil
	case token.SET:
		return p.parseSet(), nil
	case token.FINISH:
		p.advance()
		return &ast.Finish{Token: tok, Text: p.proseTail(tok)}, nil
	case token.PAGE_BREAK:
		p.advance()
		return &ast.PageBreak{Token: tok, Text: p.proseTail(tok)}, nil
	case token.LINE_BREAK:
		p.advance()
		return &ast.LineBreak{Token: tok}, nil
	case token.INPUT_TEXT:
		p.advance()
		name, err := p.sameLineIdent(tok, "variable")
		if err != nil {
			return nil, err
		}
		return &ast.InputText{Token: tok, Name: name}, nil
	case token.SCENE_LIST:
		return p.parseSceneList(), nil
	case token.ACHIEVEMENT:
		return p.parseAchievement(), nil
	case token.STAT_CHART:
		return p.parseStatChart(), nil
	case token.TITLE:
		p.advance()
		return &ast.Title{Token: tok, Text: p.proseTail(tok)}, nil
	case token.AUTHOR:
		p.advance()
		return &ast.Author{Token: tok, Text: p.proseTail(tok)}, nil
	case token.OPTION:
		return nil, p.syntaxError(tok, "choice option outside a *choice block")
	case token.UNKNOWN_COMMAND:
		if !p.bestEffort {
			return nil, p.syntaxError(tok, "unknown command *%s", tok.Literal)
		}
		p.advance()
		return &ast.UnknownCommand{Token: tok, Name: tok.Literal, Text: p.proseTail(tok)}, nil
	}
	return nil, p.syntaxError(tok, "unexpected token %q at statement start", tok.Literal)
}

func (p *Parser) parseComment() ast.Statement {
	tok := p.advance()
	text := ""
	if p.check(token.TEXT, tok, true, false) {
		text = p.advance().Literal
	}
	return &ast.Comment{Token: tok, Text: text}
}

func (p *Parser) parseLabel() (ast.Statement, error) {
	tok := p.advance()
	name, err := p.sameLineIdent(tok, "label")
	if err != nil {
		return nil, err
	}
	return &ast.Label{Token: tok, Name: name}, nil
}

// parseDeclare parses *create and *temp. Malformed declarations are kept
// with partial data; the builder reports them as warnings.
func (p *Parser) parseDeclare(scope ast.VarScope) ast.Statement {
	tok := p.advance()
	stmt := &ast.DeclareVariable{Token: tok, Scope: scope}
	if p.check(token.IDENT, tok, true, false) {
		stmt.Name = p.advance().Literal
	}
	if p.exprFollows(tok.Line) {
		if expr, err := p.parseExpression(tok.Line); err == nil {
			stmt.Init = expr
		} else {
			p.skipLine(tok.Line)
		}
	}
	return stmt
}

// parseSet parses *set, classifying its operator into exactly one of set,
// add, subtract, fairmath_add, fairmath_subtract.
func (p *Parser) parseSet() ast.Statement {
	tok := p.advance()
	stmt := &ast.SetVariable{Token: tok, Operator: ast.OpSet}
	if p.check(token.IDENT, tok, true, false) {
		stmt.Name = p.advance().Literal
	}
	if p.cur().Line == tok.Line {
		switch p.cur().Kind {
		case token.PLUS:
			stmt.Operator = ast.OpAdd
			p.advance()
		case token.MINUS:
			stmt.Operator = ast.OpSubtract
			p.advance()
		case token.FAIRMATH_ADD:
			stmt.Operator = ast.OpFairmathAdd
			p.advance()
		case token.FAIRMATH_SUB:
			stmt.Operator = ast.OpFairmathSubtract
			p.advance()
		}
	}
	if p.exprFollows(tok.Line) {
		if expr, err := p.parseExpression(tok.Line); err == nil {
			stmt.Value = expr
		} else {
			p.skipLine(tok.Line)
		}
	}
	return stmt
}

// skipLine discards any remaining tokens on the given line.
func (p *Parser) skipLine(line int) {
	for !p.atEnd() && p.cur().Line == line {
		p.advance()
	}
}

func (p *Parser) parseSceneList() ast.Statement {
	tok := p.advance()
	stmt := &ast.SceneList{Token: tok}
	for p.childScope(tok.Indent) && p.cur().Kind == token.TEXT {
		stmt.Scenes = append(stmt.Scenes, p.advance().Literal)
	}
	return stmt
}

func (p *Parser) parseAchievement() ast.Statement {
	tok := p.advance()
	stmt := &ast.Achievement{Token: tok}
	if p.check(token.TEXT, tok, true, false) {
		stmt.Args = p.advance().Literal
	}
	for p.childScope(tok.Indent) && p.cur().Kind == token.TEXT {
		stmt.Description = append(stmt.Description, p.advance().Literal)
	}
	return stmt
}

func (p *Parser) parseStatChart() ast.Statement {
	tok := p.advance()
	stmt := &ast.StatChart{Token: tok}
	for p.childScope(tok.Indent) && p.cur().Kind == token.TEXT {
		stmt.Lines = append(stmt.Lines, p.advance().Literal)
	}
	return stmt
}

// parseChoice parses a *choice or *fake_choice block. Its children are
// options, nested if cascades, and comments.
func (p *Parser) parseChoice() (ast.Statement, error) {
	tok := p.advance()
	stmt := &ast.Choice{Token: tok, Fake: tok.Kind == token.FAKE_CHOICE}
	for p.childScope(tok.Indent) {
		el, err := p.parseChoiceElement()
		if err != nil {
			return nil, err
		}
		stmt.Body = append(stmt.Body, el)
	}
	if len(stmt.Body) == 0 {
		return nil, p.syntaxError(tok, "*%s with no options", tok.Literal)
	}
	return stmt, nil
}

func (p *Parser) parseChoiceElement() (ast.Statement, error) {
	tok := p.cur()
	switch tok.Kind {
	case token.OPTION, token.HIDE_REUSE, token.DISABLE_REUSE, token.ALLOW_REUSE, token.SELECTABLE_IF:
		return p.parseOption()
	case token.IF:
		if p.optionOnLine(tok.Line) {
			return p.parseOption()
		}
		return p.parseIf(true)
	case token.COMMENT:
		return p.parseComment(), nil
	}
	return nil, p.syntaxError(tok, "unexpected %q inside a choice block", tok.Literal)
}

// optionOnLine reports whether an OPTION token appears later on this line,
// which distinguishes an *if option prefix from a nested if cascade.
func (p *Parser) optionOnLine(line int) bool {
	for i := p.pos; i < len(p.tokens) && p.tokens[i].Line == line; i++ {
		if p.tokens[i].Kind == token.OPTION {
			return true
		}
	}
	return false
}

func (p *Parser) parseOption() (ast.Statement, error) {
	first := p.cur()
	opt := &ast.ChoiceOption{Token: first, Reuse: ast.AllowReuse}

	if tok, ok := p.match(token.HIDE_REUSE, token.DISABLE_REUSE, token.ALLOW_REUSE); ok {
		switch tok.Kind {
		case token.HIDE_REUSE:
			opt.Reuse = ast.HideReuse
		case token.DISABLE_REUSE:
			opt.Reuse = ast.DisableReuse
		}
	}
	if tok, ok := p.match(token.SELECTABLE_IF, token.IF); ok {
		cond, err := p.parseExpression(tok.Line)
		if err != nil {
			return nil, err
		}
		opt.Condition = cond
		opt.Selectable = tok.Kind == token.SELECTABLE_IF
	}

	optTok := p.cur()
	if optTok.Kind != token.OPTION {
		return nil, p.syntaxError(optTok, "expected a #option after choice option prefix")
	}
	p.advance()
	opt.Text = optTok.Literal

	for p.childScope(first.Indent) {
		child, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		opt.Body = append(opt.Body, child)
	}
	return opt, nil
}

// parseIf parses an if cascade. elseif/else/endif clauses must sit at
// exactly the opening if's indent; a clause at any other indent belongs to
// some other cascade or to none. inChoice switches the branch bodies to
// choice-element parsing so that cascades can gate options.
func (p *Parser) parseIf(inChoice bool) (ast.Statement, error) {
	ifTok := p.advance()
	cond, err := p.parseExpression(ifTok.Line)
	if err != nil {
		return nil, err
	}
	stmt := &ast.If{Token: ifTok, Condition: cond}

	if stmt.Body, err = p.parseBody(ifTok.Indent, inChoice); err != nil {
		return nil, err
	}

	for p.check(token.ELSEIF, ifTok, false, true) {
		elseifTok := p.advance()
		branchCond, err := p.parseExpression(elseifTok.Line)
		if err != nil {
			return nil, err
		}
		branch := &ast.ElseIf{Token: elseifTok, Condition: branchCond}
		if branch.Body, err = p.parseBody(ifTok.Indent, inChoice); err != nil {
			return nil, err
		}
		stmt.ElseIfs = append(stmt.ElseIfs, branch)
	}

	if p.check(token.ELSE, ifTok, false, true) {
		elseTok := p.advance()
		stmt.Else = &ast.Else{Token: elseTok}
		if stmt.Else.Body, err = p.parseBody(ifTok.Indent, inChoice); err != nil {
			return nil, err
		}
	}

	// *endif closes the cascade explicitly; a dedent closes it implicitly.
	if p.check(token.ENDIF, ifTok, false, true) {
		p.advance()
	}
	return stmt, nil
}

func (p *Parser) parseBody(parentIndent float64, inChoice bool) ([]ast.Statement, error) {
	var body []ast.Statement
	for p.childScope(parentIndent) {
		var child ast.Statement
		var err error
		if inChoice {
			child, err = p.parseChoiceElement()
		} else {
			child, err = p.parseStatement()
		}
		if err != nil {
			return nil, err
		}
		body = append(body, child)
	}
	return body, nil
}

// sameLineIdent consumes an identifier required on the same line as cmd.
func (p *Parser) sameLineIdent(cmd token.Token, what string) (string, error) {
	if !p.check(token.IDENT, cmd, true, false) {
		return "", p.syntaxError(cmd, "*%s expects a %s name on the same line", cmd.Literal, what)
	}
	return p.advance().Literal, nil
}

// proseTail consumes an optional TEXT token on the same line as cmd.
func (p *Parser) proseTail(cmd token.Token) string {
	if p.check(token.TEXT, cmd, true, false) {
		return p.advance().Literal
	}
	return ""
}

// Expressions: precedence-climbing descent, lowest precedence first.
// logical -> equality -> comparison -> term -> factor -> unary -> primary.
// All binary operators are left-associative.

func (p *Parser) exprFollows(line int) bool {
	if p.atEnd() || p.cur().Line != line {
		return false
	}
	switch p.cur().Kind {
	case token.NUMBER, token.STRING, token.BOOLEAN, token.IDENT,
		token.NOT, token.ROUND, token.MINUS, token.PLUS,
		token.FAIRMATH_ADD, token.FAIRMATH_SUB, token.LPAREN:
		return true
	}
	return false
}

func (p *Parser) parseExpression(line int) (ast.Expression, error) {
	return p.parseLogical(line)
}

func (p *Parser) parseLogical(line int) (ast.Expression, error) {
	left, err := p.parseEquality(line)
	if err != nil {
		return nil, err
	}
	for p.onLine(line, token.AND, token.OR) {
		op := p.advance()
		right, err := p.parseEquality(line)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: op, Left: left, Operator: op.Literal, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality(line int) (ast.Expression, error) {
	left, err := p.parseComparison(line)
	if err != nil {
		return nil, err
	}
	for p.onLine(line, token.EQ, token.NOT_EQ) {
		op := p.advance()
		right, err := p.parseComparison(line)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: op, Left: left, Operator: op.Literal, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison(line int) (ast.Expression, error) {
	left, err := p.parseTerm(line)
	if err != nil {
		return nil, err
	}
	for p.onLine(line, token.GT, token.GTE, token.LT, token.LTE) {
		op := p.advance()
		right, err := p.parseTerm(line)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: op, Left: left, Operator: op.Literal, Right: right}
	}
	return left, nil
}

func (p *Parser) parseTerm(line int) (ast.Expression, error) {
	left, err := p.parseFactor(line)
	if err != nil {
		return nil, err
	}
	for p.onLine(line, token.PLUS, token.MINUS, token.AMPERSAND) {
		op := p.advance()
		right, err := p.parseFactor(line)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: op, Left: left, Operator: op.Literal, Right: right}
	}
	return left, nil
}

func (p *Parser) parseFactor(line int) (ast.Expression, error) {
	left, err := p.parseUnary(line)
	if err != nil {
		return nil, err
	}
	for p.onLine(line, token.ASTERISK, token.SLASH, token.PERCENT, token.MODULO) {
		op := p.advance()
		right, err := p.parseUnary(line)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Token: op, Left: left, Operator: op.Literal, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary(line int) (ast.Expression, error) {
	if p.onLine(line, token.NOT, token.ROUND, token.MINUS, token.PLUS, token.FAIRMATH_ADD, token.FAIRMATH_SUB) {
		op := p.advance()
		operand, err := p.parseUnary(line)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Token: op, Operator: op.Literal, Operand: operand}, nil
	}
	return p.parsePrimary(line)
}

func (p *Parser) parsePrimary(line int) (ast.Expression, error) {
	tok := p.cur()
	if tok.Line != line || tok.Kind == token.EOF {
		return nil, p.syntaxError(tok, "expected an expression")
	}
	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		value, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, p.syntaxError(tok, "malformed number %q", tok.Literal)
		}
		return &ast.NumberLiteral{Token: tok, Value: value}, nil
	case token.STRING:
		p.advance()
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}, nil
	case token.BOOLEAN:
		p.advance()
		return &ast.BooleanLiteral{Token: tok, Value: tok.Literal == "true"}, nil
	case token.IDENT:
		p.advance()
		return &ast.Identifier{Token: tok, Value: tok.Literal}, nil
	case token.LPAREN:
		p.advance()
		inner, err := p.parseExpression(line)
		if err != nil {
			return nil, err
		}
		if _, ok := p.match(token.RPAREN); !ok {
			return nil, p.syntaxError(p.cur(), "expected ')'")
		}
		return &ast.GroupingExpr{Token: tok, Inner: inner}, nil
	}
	return nil, p.syntaxError(tok, "unexpected %q in expression", tok.Literal)
}

// onLine reports whether the next token is one of kinds and on this line.
func (p *Parser) onLine(line int, kinds ...token.Kind) bool {
	if p.atEnd() || p.cur().Line != line {
		return false
	}
	for _, k := range kinds {
		if p.cur().Kind == k {
			return true
		}
	}
	return false
}
