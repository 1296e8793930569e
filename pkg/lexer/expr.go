package lexer

import (
	"strings"

	"github.com/storygraph-dev/storygraph/pkg/diag"
	"github.com/storygraph-dev/storygraph/pkg/token"
)

// twoCharOps are checked before any one-character operator. Order matters
// only for the multi-replace markers, longest first.
var twoCharOps = []struct {
	text string
	kind token.Kind
}{
	{"$!!{", token.PRINT_VAR_CAPS},
	{"$!{", token.PRINT_VAR_CAP},
	{"${", token.PRINT_VAR},
	{"@{", token.MULTIREPLACE},
	{"%+", token.FAIRMATH_ADD},
	{"%-", token.FAIRMATH_SUB},
	{">=", token.GTE},
	{"<=", token.LTE},
	{"!=", token.NOT_EQ},
}

var oneCharOps = map[byte]token.Kind{
	'+': token.PLUS,
	'-': token.MINUS,
	'*': token.ASTERISK,
	'/': token.SLASH,
	'%': token.PERCENT,
	'&': token.AMPERSAND,
	'=': token.EQ,
	'<': token.LT,
	'>': token.GT,
	'(': token.LPAREN,
	')': token.RPAREN,
	'}': token.RBRACE,
}

// TokenizeExpression breaks command argument text into literals,
// identifiers, and operators. It is a pure function and cannot fail:
// unrecognized characters are skipped with a diagnostic. Token positions
// are relative to the expression; the caller renumbers them into its
// stream. columnOffset is the column of text within its source line, used
// only for diagnostics.
func TokenizeExpression(text string, line, columnOffset int) ([]token.Token, []diag.Diagnostic) {
	var toks []token.Token
	var warns diag.List

	emit := func(kind token.Kind, literal string) {
		toks = append(toks, token.Token{
			Kind:     kind,
			Literal:  literal,
			Line:     line,
			Position: len(toks),
		})
	}

	i := 0
scan:
	for i < len(text) {
		c := text[i]

		if c == ' ' || c == '\t' {
			i++
			continue
		}

		if isDigit(c) {
			start := i
			seenDot := false
			for i < len(text) && (isDigit(text[i]) || (text[i] == '.' && !seenDot && i+1 < len(text) && isDigit(text[i+1]))) {
				if text[i] == '.' {
					seenDot = true
				}
				i++
			}
			emit(token.NUMBER, text[start:i])
			continue
		}

		if c == '"' || c == '\'' {
			quote := c
			i++
			var sb strings.Builder
			for i < len(text) && text[i] != quote {
				if text[i] == '\\' && i+1 < len(text) {
					i++
				}
				sb.WriteByte(text[i])
				i++
			}
			if i >= len(text) {
				warns.Add(diag.BadCharacter, "", line,
					"unterminated string at column %d", columnOffset+i)
			} else {
				i++ // closing quote
			}
			emit(token.STRING, sb.String())
			continue
		}

		for _, op := range twoCharOps {
			if strings.HasPrefix(text[i:], op.text) {
				emit(op.kind, op.text)
				i += len(op.text)
				continue scan
			}
		}

		if kind, ok := oneCharOps[c]; ok {
			emit(kind, string(c))
			i++
			continue
		}

		if isLetter(c) || c == '_' {
			start := i
			for i < len(text) && (isLetter(text[i]) || isDigit(text[i]) || text[i] == '_') {
				i++
			}
			word := text[start:i]
			emit(token.LookupWord(word), word)
			continue
		}

		warns.Add(diag.BadCharacter, "", line,
			"skipping unrecognized character %q at column %d", c, columnOffset+i)
		i++
	}

	return toks, warns.Items()
}
