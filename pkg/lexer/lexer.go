// Package lexer tokenizes ChoiceScript scene text.
//
// The scanner is modal: a line begins in indentation mode, falls into prose
// mode, and switches strategy when it meets a '*' command marker or a '#'
// option marker. Command tails are handed to the expression sub-tokenizer,
// comment and option tails are swallowed to end of line, and scene_list /
// achievement blocks harvest the indented lines that follow them. Scanning
// never fails; malformed input degrades to best-effort tokens plus
// diagnostics.
package lexer

import (
	"strings"

	"github.com/storygraph-dev/storygraph/pkg/diag"
	"github.com/storygraph-dev/storygraph/pkg/token"
)

// Scanner converts one scene's raw text into a flat token stream.
type Scanner struct {
	scene string
	input string

	line int // current line number, 1-based
	seq  int // next token position, monotonic within the scene

	tokens []token.Token
	diags  diag.List

	sawTab   bool
	sawSpace bool
	warned   bool // tab/space mixing reported once per scene

	// multi-line token collection (*scene_list, *achievement)
	collecting    bool
	collectIndent float64
}

// New creates a Scanner for one scene.
func New(scene, input string) *Scanner {
	return &Scanner{scene: scene, input: input}
}

// Scan tokenizes the whole scene. It never fails: every line yields either
// tokens or diagnostics.
func Scan(scene, input string) ([]token.Token, []diag.Diagnostic) {
	s := New(scene, input)
	toks := s.Run()
	return toks, s.Diagnostics()
}

// Run consumes the input and returns the token stream.
func (s *Scanner) Run() []token.Token {
	lines := strings.Split(strings.ReplaceAll(s.input, "\r\n", "\n"), "\n")
	for i, raw := range lines {
		s.line = i + 1
		s.scanLine(raw)
	}
	return s.tokens
}

// Diagnostics returns the warnings accumulated during scanning.
func (s *Scanner) Diagnostics() []diag.Diagnostic {
	return s.diags.Items()
}

func (s *Scanner) scanLine(raw string) {
	indent, rest := s.measureIndent(raw)

	if strings.TrimSpace(rest) == "" {
		// Blank lines separate paragraphs; they do not end a multi-line
		// block because their indent is meaningless.
		return
	}

	if s.collecting {
		if indent > s.collectIndent {
			s.emit(token.TEXT, strings.TrimSpace(rest), indent)
			return
		}
		s.collecting = false
	}

	// Fast path: a line with no structural markers is one prose token.
	if !strings.ContainsAny(rest, "*#") {
		s.emit(token.TEXT, strings.TrimRight(rest, " \t"), indent)
		return
	}

	var prose strings.Builder
	flush := func() {
		text := strings.TrimSpace(prose.String())
		prose.Reset()
		if text != "" {
			s.emit(token.TEXT, text, indent)
		}
	}

	pos := 0
	for pos < len(rest) {
		switch rest[pos] {
		case '*':
			word, next := readWord(rest, pos+1)
			if word == "" {
				// A bare asterisk is prose, not a command marker.
				prose.WriteByte('*')
				pos++
				continue
			}
			flush()
			pos = s.scanCommand(word, rest, next, indent)
		case '#':
			flush()
			text := strings.TrimSpace(rest[pos+1:])
			s.emit(token.OPTION, text, indent)
			s.checkMarkup(text)
			pos = len(rest)
		default:
			prose.WriteByte(rest[pos])
			pos++
		}
	}
	flush()
}

// scanCommand emits the structural token for a *command and dispatches on
// what follows it. It returns the line offset scanning should resume at.
func (s *Scanner) scanCommand(word, rest string, pos int, indent float64) int {
	kind := token.LookupCommand(word)
	s.emit(kind, word, indent)

	tail := rest[pos:]
	switch {
	case kind == token.COMMENT:
		// Swallow the rest of the line verbatim.
		s.emit(token.TEXT, strings.TrimSpace(tail), indent)
		return len(rest)

	case kind == token.SCENE_LIST || kind == token.STAT_CHART:
		s.collecting = true
		s.collectIndent = indent
		return len(rest)

	case kind == token.ACHIEVEMENT:
		if t := strings.TrimSpace(tail); t != "" {
			s.emit(token.TEXT, t, indent)
		}
		s.collecting = true
		s.collectIndent = indent
		return len(rest)

	case kind == token.UNKNOWN_COMMAND:
		s.diags.Add(diag.UnknownCommand, s.scene, s.line, "unknown command *%s", word)
		if t := strings.TrimSpace(tail); t != "" {
			s.emit(token.TEXT, t, indent)
		}
		return len(rest)

	case token.TakesProse(kind):
		if t := strings.TrimSpace(tail); t != "" {
			s.emit(token.TEXT, t, indent)
		}
		return len(rest)

	case token.TakesExpression(kind):
		// Expression runs to end of line or to a '#' option marker
		// (*if (cond) #Option, *selectable_if (cond) #Option).
		end := unquotedIndex(tail, '#')
		expr := tail
		if end >= 0 {
			expr = tail[:end]
		}
		toks, warns := TokenizeExpression(expr, s.line, pos)
		for _, t := range toks {
			s.emitToken(t, indent)
		}
		for _, w := range warns {
			w.Scene = s.scene
			s.diags.Merge([]diag.Diagnostic{w})
		}
		if end >= 0 {
			return pos + end
		}
		return len(rest)
	}

	// choice, fake_choice, else, endif, return, line_break, reuse prefixes:
	// nothing else is expected, but reuse and selectable_if prefixes are
	// followed by further markers on the same line, so scanning continues.
	return pos
}

// checkMarkup scans option or prose text for multi-replace markup and
// reports unterminated spans. The text itself stays verbatim in its token.
func (s *Scanner) checkMarkup(text string) {
	for _, marker := range []string{"@{", "$!!{", "$!{", "${"} {
		idx := 0
		for {
			i := strings.Index(text[idx:], marker)
			if i < 0 {
				break
			}
			start := idx + i + len(marker)
			closing := strings.IndexByte(text[start:], '}')
			if closing < 0 {
				s.diags.Add(diag.BadCharacter, s.scene, s.line,
					"unterminated %s markup", marker)
				return
			}
			idx = start + closing + 1
		}
	}
}

// measureIndent computes the fractional indent of a line: one tab counts
// 1.0, one space 0.5. Indent is measured per line, never carried over.
func (s *Scanner) measureIndent(raw string) (float64, string) {
	indent := 0.0
	i := 0
	tabs, spaces := false, false
	for i < len(raw) {
		switch raw[i] {
		case '\t':
			indent += 1.0
			tabs = true
		case ' ':
			indent += 0.5
			spaces = true
		default:
			goto done
		}
		i++
	}
done:
	if tabs {
		s.sawTab = true
	}
	if spaces {
		s.sawSpace = true
	}
	if s.sawTab && s.sawSpace && !s.warned {
		s.warned = true
		s.diags.Add(diag.Indentation, s.scene, s.line,
			"scene mixes tabs and spaces for indentation")
	}
	return indent, raw[i:]
}

func (s *Scanner) emit(kind token.Kind, literal string, indent float64) {
	s.tokens = append(s.tokens, token.Token{
		Kind:     kind,
		Literal:  literal,
		Scene:    s.scene,
		Line:     s.line,
		Position: s.seq,
		Indent:   indent,
	})
	s.seq++
}

// emitToken renumbers a sub-tokenizer token into the scene stream.
func (s *Scanner) emitToken(t token.Token, indent float64) {
	t.Scene = s.scene
	t.Line = s.line
	t.Position = s.seq
	t.Indent = indent
	s.tokens = append(s.tokens, t)
	s.seq++
}

// readWord reads a command word (letters and underscores) starting at pos.
func readWord(text string, pos int) (string, int) {
	start := pos
	for pos < len(text) && (isLetter(text[pos]) || text[pos] == '_') {
		pos++
	}
	return text[start:pos], pos
}

// unquotedIndex finds the first occurrence of ch outside quoted spans.
func unquotedIndex(text string, ch byte) int {
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			continue
		}
		if c == ch {
			return i
		}
	}
	return -1
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
