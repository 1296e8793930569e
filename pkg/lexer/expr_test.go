package lexer

import (
	"testing"

	"github.com/storygraph-dev/storygraph/pkg/diag"
	"github.com/storygraph-dev/storygraph/pkg/token"
)

func TestTokenizeExpression(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []expectedToken
	}{
		{
			name:  "comparison",
			input: "gold >= 10",
			expected: []expectedToken{
				{token.IDENT, "gold"},
				{token.GTE, ">="},
				{token.NUMBER, "10"},
			},
		},
		{
			name:  "logical operators",
			input: "not (alive and gold != 0)",
			expected: []expectedToken{
				{token.NOT, "not"},
				{token.LPAREN, "("},
				{token.IDENT, "alive"},
				{token.AND, "and"},
				{token.IDENT, "gold"},
				{token.NOT_EQ, "!="},
				{token.NUMBER, "0"},
				{token.RPAREN, ")"},
			},
		},
		{
			name:  "fairmath",
			input: "gold %+ 20",
			expected: []expectedToken{
				{token.IDENT, "gold"},
				{token.FAIRMATH_ADD, "%+"},
				{token.NUMBER, "20"},
			},
		},
		{
			name:  "decimal number",
			input: "3.14",
			expected: []expectedToken{
				{token.NUMBER, "3.14"},
			},
		},
		{
			name:  "double quoted string with escape",
			input: `"she said \"hi\""`,
			expected: []expectedToken{
				{token.STRING, `she said "hi"`},
			},
		},
		{
			name:  "single quoted string",
			input: "'plain'",
			expected: []expectedToken{
				{token.STRING, "plain"},
			},
		},
		{
			name:  "booleans and keywords",
			input: "true or false modulo round",
			expected: []expectedToken{
				{token.BOOLEAN, "true"},
				{token.OR, "or"},
				{token.BOOLEAN, "false"},
				{token.MODULO, "modulo"},
				{token.ROUND, "round"},
			},
		},
		{
			name:  "concatenation",
			input: `name & " the brave"`,
			expected: []expectedToken{
				{token.IDENT, "name"},
				{token.AMPERSAND, "&"},
				{token.STRING, " the brave"},
			},
		},
		{
			name:  "multireplace markers",
			input: "@{mood happy|sad}",
			expected: []expectedToken{
				{token.MULTIREPLACE, "@{"},
				{token.IDENT, "mood"},
				{token.IDENT, "happy"},
				{token.IDENT, "sad"},
				{token.RBRACE, "}"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, _ := TokenizeExpression(tt.input, 1, 0)
			if len(toks) != len(tt.expected) {
				t.Fatalf("token count wrong. expected=%d, got=%d\ntokens: %v",
					len(tt.expected), len(toks), toks)
			}
			for i, want := range tt.expected {
				if toks[i].Kind != want.kind || toks[i].Literal != want.literal {
					t.Fatalf("tokens[%d] = {%q %q}, want {%q %q}",
						i, toks[i].Kind, toks[i].Literal, want.kind, want.literal)
				}
			}
		})
	}
}

func TestTokenizeExpressionUnterminatedString(t *testing.T) {
	toks, warns := TokenizeExpression(`"never closed`, 3, 5)
	if len(toks) != 1 || toks[0].Kind != token.STRING {
		t.Fatalf("tokens = %v, want one STRING", toks)
	}
	if len(warns) != 1 || warns[0].Kind != diag.BadCharacter {
		t.Errorf("warns = %v, want one BadCharacter", warns)
	}
}

func TestTokenizeExpressionSkipsBadCharacters(t *testing.T) {
	toks, warns := TokenizeExpression("gold ? 10", 1, 0)
	if len(toks) != 2 {
		t.Fatalf("tokens = %v, want gold and 10", toks)
	}
	if len(warns) != 1 || warns[0].Kind != diag.BadCharacter {
		t.Errorf("warns = %v, want one BadCharacter", warns)
	}
}
