// Package token defines the token types produced by the scanner for
// ChoiceScript scene files.
package token

// Kind identifies the lexical class of a token.
type Kind string

// Token is one lexical unit of a scene. Position is monotonically
// increasing within a scene; Indent is the fractional indentation level of
// the line the token appeared on (one tab = 1.0, one space = 0.5).
type Token struct {
	Kind     Kind
	Literal  string
	Scene    string
	Line     int
	Position int
	Indent   float64
}

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"

	// Narrative text and choice options.
	TEXT   = "TEXT"   // plain prose, or the text tail of *finish etc.
	OPTION = "OPTION" // a #-prefixed choice option line

	// Structural commands (*keyword).
	LABEL       = "LABEL"
	GOTO        = "GOTO"
	GOTO_SCENE  = "GOTO_SCENE"
	GOSUB       = "GOSUB"
	GOSUB_SCENE = "GOSUB_SCENE"
	RETURN      = "RETURN"
	CHOICE      = "CHOICE"
	FAKE_CHOICE = "FAKE_CHOICE"
	IF          = "IF"
	ELSEIF      = "ELSEIF"
	ELSE        = "ELSE"
	ENDIF       = "ENDIF"
	CREATE      = "CREATE"
	TEMP        = "TEMP"
	SET         = "SET"
	FINISH      = "FINISH"
	PAGE_BREAK  = "PAGE_BREAK"
	LINE_BREAK  = "LINE_BREAK"
	COMMENT     = "COMMENT"
	SCENE_LIST  = "SCENE_LIST"
	ACHIEVEMENT = "ACHIEVEMENT"
	STAT_CHART  = "STAT_CHART"
	INPUT_TEXT  = "INPUT_TEXT"
	TITLE       = "TITLE"
	AUTHOR      = "AUTHOR"

	HIDE_REUSE    = "HIDE_REUSE"
	DISABLE_REUSE = "DISABLE_REUSE"
	ALLOW_REUSE   = "ALLOW_REUSE"
	SELECTABLE_IF = "SELECTABLE_IF"

	UNKNOWN_COMMAND = "UNKNOWN_COMMAND"

	// Expression tokens.
	NUMBER  = "NUMBER"
	STRING  = "STRING"
	BOOLEAN = "BOOLEAN"
	IDENT   = "IDENT"

	PLUS         = "+"
	MINUS        = "-"
	ASTERISK     = "ASTERISK" // '*' inside an expression, not a command marker
	SLASH        = "/"
	PERCENT      = "%"
	FAIRMATH_ADD = "%+"
	FAIRMATH_SUB = "%-"
	AMPERSAND    = "&"
	EQ           = "="
	NOT_EQ       = "!="
	LT           = "<"
	GT           = ">"
	LTE          = "<="
	GTE          = ">="
	AND          = "AND"
	OR           = "OR"
	NOT          = "NOT"
	ROUND        = "ROUND"
	MODULO       = "MODULO"
	LPAREN       = "("
	RPAREN       = ")"

	// Multi-replace / variable-print markup inside prose or option text.
	MULTIREPLACE   = "@{"
	PRINT_VAR      = "${"
	PRINT_VAR_CAP  = "$!{"
	PRINT_VAR_CAPS = "$!!{"
	RBRACE         = "}"
)

// commands maps the spelling after '*' to a structural token kind.
var commands = map[string]Kind{
	"label":         LABEL,
	"goto":          GOTO,
	"goto_scene":    GOTO_SCENE,
	"gosub":         GOSUB,
	"gosub_scene":   GOSUB_SCENE,
	"return":        RETURN,
	"choice":        CHOICE,
	"fake_choice":   FAKE_CHOICE,
	"if":            IF,
	"elseif":        ELSEIF,
	"elsif":         ELSEIF,
	"else":          ELSE,
	"endif":         ENDIF,
	"create":        CREATE,
	"temp":          TEMP,
	"set":           SET,
	"finish":        FINISH,
	"page_break":    PAGE_BREAK,
	"line_break":    LINE_BREAK,
	"comment":       COMMENT,
	"scene_list":    SCENE_LIST,
	"achievement":   ACHIEVEMENT,
	"stat_chart":    STAT_CHART,
	"input_text":    INPUT_TEXT,
	"title":         TITLE,
	"author":        AUTHOR,
	"hide_reuse":    HIDE_REUSE,
	"disable_reuse": DISABLE_REUSE,
	"allow_reuse":   ALLOW_REUSE,
	"selectable_if": SELECTABLE_IF,
}

// LookupCommand resolves a *command spelling. Unrecognized commands map to
// UNKNOWN_COMMAND so the scanner can degrade instead of failing.
func LookupCommand(word string) Kind {
	if kind, ok := commands[word]; ok {
		return kind
	}
	return UNKNOWN_COMMAND
}

// LookupWord classifies an identifier-shaped run inside an expression.
func LookupWord(word string) Kind {
	switch word {
	case "true", "false":
		return BOOLEAN
	case "and":
		return AND
	case "or":
		return OR
	case "not":
		return NOT
	case "round":
		return ROUND
	case "modulo", "modulus":
		return MODULO
	}
	return IDENT
}

// TakesExpression reports whether a command kind is followed by expression
// text on the same line.
func TakesExpression(kind Kind) bool {
	switch kind {
	case IF, ELSEIF, SELECTABLE_IF, SET, CREATE, TEMP,
		GOTO, GOTO_SCENE, GOSUB, GOSUB_SCENE, LABEL, INPUT_TEXT:
		return true
	}
	return false
}

// TakesProse reports whether a command kind is followed by narrative text
// consumed to end of line.
func TakesProse(kind Kind) bool {
	switch kind {
	case FINISH, PAGE_BREAK, TITLE, AUTHOR:
		return true
	}
	return false
}
