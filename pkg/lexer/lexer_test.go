package lexer

import (
	"testing"

	"github.com/storygraph-dev/storygraph/pkg/diag"
	"github.com/storygraph-dev/storygraph/pkg/token"
)

type expectedToken struct {
	kind    token.Kind
	literal string
}

func checkTokens(t *testing.T, input string, expected []expectedToken) []diag.Diagnostic {
	t.Helper()
	toks, diags := Scan("test", input)
	if len(toks) != len(expected) {
		t.Fatalf("token count wrong. expected=%d, got=%d\ntokens: %v", len(expected), len(toks), toks)
	}
	for i, tt := range expected {
		if toks[i].Kind != tt.kind {
			t.Fatalf("tokens[%d] - kind wrong. expected=%q, got=%q (literal %q)",
				i, tt.kind, toks[i].Kind, toks[i].Literal)
		}
		if toks[i].Literal != tt.literal {
			t.Fatalf("tokens[%d] - literal wrong. expected=%q, got=%q",
				i, tt.literal, toks[i].Literal)
		}
	}
	return diags
}

func TestScanProse(t *testing.T) {
	input := "You wake up in a dark room.\n\nThe walls are damp.\n"
	checkTokens(t, input, []expectedToken{
		{token.TEXT, "You wake up in a dark room."},
		{token.TEXT, "The walls are damp."},
	})
}

func TestScanCommands(t *testing.T) {
	input := `*title The Cave
*create gold 10
*label start
You stand at the entrance.
*goto start
*finish Next chapter
`
	checkTokens(t, input, []expectedToken{
		{token.TITLE, "title"},
		{token.TEXT, "The Cave"},
		{token.CREATE, "create"},
		{token.IDENT, "gold"},
		{token.NUMBER, "10"},
		{token.LABEL, "label"},
		{token.IDENT, "start"},
		{token.TEXT, "You stand at the entrance."},
		{token.GOTO, "goto"},
		{token.IDENT, "start"},
		{token.FINISH, "finish"},
		{token.TEXT, "Next chapter"},
	})
}

func TestScanChoice(t *testing.T) {
	input := "*choice\n\t#Open the door\n\t\tYou open it.\n\t*hide_reuse #Knock\n\t\tNo answer.\n"
	toks, _ := Scan("test", input)

	expected := []expectedToken{
		{token.CHOICE, "choice"},
		{token.OPTION, "Open the door"},
		{token.TEXT, "You open it."},
		{token.HIDE_REUSE, "hide_reuse"},
		{token.OPTION, "Knock"},
		{token.TEXT, "No answer."},
	}
	if len(toks) != len(expected) {
		t.Fatalf("token count wrong. expected=%d, got=%d\ntokens: %v", len(expected), len(toks), toks)
	}
	for i, tt := range expected {
		if toks[i].Kind != tt.kind || toks[i].Literal != tt.literal {
			t.Fatalf("tokens[%d] = {%q %q}, want {%q %q}",
				i, toks[i].Kind, toks[i].Literal, tt.kind, tt.literal)
		}
	}

	// The reuse prefix and its option share a line and an indent level.
	if toks[3].Line != toks[4].Line {
		t.Errorf("hide_reuse and option on different lines: %d vs %d", toks[3].Line, toks[4].Line)
	}
	if toks[1].Indent != 1.0 {
		t.Errorf("option indent = %v, want 1.0", toks[1].Indent)
	}
	if toks[2].Indent != 2.0 {
		t.Errorf("option body indent = %v, want 2.0", toks[2].Indent)
	}
}

func TestScanSelectableIfOption(t *testing.T) {
	input := "*choice\n\t*selectable_if (gold > 5) #Buy the sword\n\t\tSold.\n"
	checkTokens(t, input, []expectedToken{
		{token.CHOICE, "choice"},
		{token.SELECTABLE_IF, "selectable_if"},
		{token.LPAREN, "("},
		{token.IDENT, "gold"},
		{token.GT, ">"},
		{token.NUMBER, "5"},
		{token.RPAREN, ")"},
		{token.OPTION, "Buy the sword"},
		{token.TEXT, "Sold."},
	})
}

func TestScanSetExpressions(t *testing.T) {
	input := "*set gold %+ 20\n*set name \"Alice\"\n*set strength (str + 2) * 3\n"
	checkTokens(t, input, []expectedToken{
		{token.SET, "set"},
		{token.IDENT, "gold"},
		{token.FAIRMATH_ADD, "%+"},
		{token.NUMBER, "20"},
		{token.SET, "set"},
		{token.IDENT, "name"},
		{token.STRING, "Alice"},
		{token.SET, "set"},
		{token.IDENT, "strength"},
		{token.LPAREN, "("},
		{token.IDENT, "str"},
		{token.PLUS, "+"},
		{token.NUMBER, "2"},
		{token.RPAREN, ")"},
		{token.ASTERISK, "*"},
		{token.NUMBER, "3"},
	})
}

func TestScanIfElse(t *testing.T) {
	input := "*if gold >= 10 and not broke\nrich\n*else\npoor\n*endif\n"
	checkTokens(t, input, []expectedToken{
		{token.IF, "if"},
		{token.IDENT, "gold"},
		{token.GTE, ">="},
		{token.NUMBER, "10"},
		{token.AND, "and"},
		{token.NOT, "not"},
		{token.IDENT, "broke"},
		{token.TEXT, "rich"},
		{token.ELSE, "else"},
		{token.TEXT, "poor"},
		{token.ENDIF, "endif"},
	})
}

func TestScanComment(t *testing.T) {
	input := "*comment TODO rewrite this *choice later\nreal text\n"
	checkTokens(t, input, []expectedToken{
		{token.COMMENT, "comment"},
		{token.TEXT, "TODO rewrite this *choice later"},
		{token.TEXT, "real text"},
	})
}

func TestScanSceneList(t *testing.T) {
	input := "*scene_list\n\tstartup\n\tchapter1\n\tending\nAfter the block.\n"
	checkTokens(t, input, []expectedToken{
		{token.SCENE_LIST, "scene_list"},
		{token.TEXT, "startup"},
		{token.TEXT, "chapter1"},
		{token.TEXT, "ending"},
		{token.TEXT, "After the block."},
	})
}

func TestScanSceneListBlankLineInside(t *testing.T) {
	// A blank line has no meaningful indent, so it must not end the block.
	input := "*scene_list\n\tstartup\n\n\tending\n"
	checkTokens(t, input, []expectedToken{
		{token.SCENE_LIST, "scene_list"},
		{token.TEXT, "startup"},
		{token.TEXT, "ending"},
	})
}

func TestScanUnknownCommand(t *testing.T) {
	toks, diags := Scan("test", "*frobnicate all the things\n")
	if len(toks) != 2 {
		t.Fatalf("token count = %d, want 2: %v", len(toks), toks)
	}
	if toks[0].Kind != token.UNKNOWN_COMMAND {
		t.Errorf("kind = %q, want UNKNOWN_COMMAND", toks[0].Kind)
	}
	if toks[1].Kind != token.TEXT || toks[1].Literal != "all the things" {
		t.Errorf("tail = {%q %q}", toks[1].Kind, toks[1].Literal)
	}
	if len(diags) != 1 || diags[0].Kind != diag.UnknownCommand {
		t.Errorf("diags = %v, want one UnknownCommand", diags)
	}
}

func TestScanMixedIndentationWarnsOnce(t *testing.T) {
	input := "*choice\n\t#One\n\t\ta\n  #Two\n    b\n  #Three\n    c\n"
	_, diags := Scan("test", input)

	count := 0
	for _, d := range diags {
		if d.Kind == diag.Indentation {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Indentation warnings = %d, want exactly 1", count)
	}
}

func TestScanIndentMeasurement(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		indent float64
	}{
		{"no indent", "text", 0},
		{"one tab", "\ttext", 1.0},
		{"two tabs", "\t\ttext", 2.0},
		{"two spaces", "  text", 1.0},
		{"one space", " text", 0.5},
		{"three spaces", "   text", 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, _ := Scan("test", tt.input)
			if len(toks) != 1 {
				t.Fatalf("token count = %d, want 1", len(toks))
			}
			if toks[0].Indent != tt.indent {
				t.Errorf("indent = %v, want %v", toks[0].Indent, tt.indent)
			}
		})
	}
}

func TestScanUnterminatedMarkup(t *testing.T) {
	_, diags := Scan("test", "*choice\n\t#Take the ${item\n\t\tok\n")
	found := false
	for _, d := range diags {
		if d.Kind == diag.BadCharacter {
			found = true
		}
	}
	if !found {
		t.Errorf("expected BadCharacter for unterminated markup, got %v", diags)
	}
}

func TestScanCRLF(t *testing.T) {
	checkTokens(t, "line one\r\nline two\r\n", []expectedToken{
		{token.TEXT, "line one"},
		{token.TEXT, "line two"},
	})
}

func TestScanPositionsMonotonic(t *testing.T) {
	input := "*create gold 10\nSome prose here.\n*set gold %+ 5\n"
	toks, _ := Scan("test", input)
	for i, tok := range toks {
		if tok.Position != i {
			t.Fatalf("tokens[%d].Position = %d", i, tok.Position)
		}
		if tok.Scene != "test" {
			t.Fatalf("tokens[%d].Scene = %q", i, tok.Scene)
		}
	}
}
