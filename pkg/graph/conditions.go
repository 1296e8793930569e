package graph

import (
	"strings"

	"github.com/storygraph-dev/storygraph/pkg/ast"
)

// renderExpr renders an expression as condition text, without a redundant
// outer parenthesis pair.
func renderExpr(e ast.Expression) string {
	if e == nil {
		return ""
	}
	return stripOuterParens(e.String())
}

func stripOuterParens(s string) string {
	for len(s) >= 2 && s[0] == '(' && matchingClose(s) == len(s)-1 {
		s = s[1 : len(s)-1]
	}
	return s
}

// matchingClose returns the index of the ')' closing the '(' at index 0,
// or -1.
func matchingClose(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// branchCondition is the effective condition of an elseif branch: none of
// the previously seen conditions held, and this one does.
func branchCondition(seen []string, cond string) string {
	return "not(" + strings.Join(seen, " or ") + ") and (" + cond + ")"
}

// elseCondition is the effective condition of an else branch: none of the
// branch conditions held.
func elseCondition(seen []string) string {
	return "not(" + strings.Join(seen, " or ") + ")"
}

// combineConditions conjoins a surrounding gate condition with a local one.
func combineConditions(gate, cond string) string {
	switch {
	case gate == "":
		return cond
	case cond == "":
		return gate
	}
	return "(" + gate + ") and (" + cond + ")"
}

// literalType classifies a declaration initializer for the variable
// table: numeric, string, or boolean. Non-literal initializers have no
// static type.
func literalType(e ast.Expression) string {
	switch v := e.(type) {
	case *ast.NumberLiteral:
		return "numeric"
	case *ast.StringLiteral:
		return "string"
	case *ast.BooleanLiteral:
		return "boolean"
	case *ast.UnaryExpr:
		if v.Operator == "-" || v.Operator == "+" {
			return literalType(v.Operand)
		}
	case *ast.GroupingExpr:
		return literalType(v.Inner)
	}
	return ""
}
