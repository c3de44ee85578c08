package esiexpr

import (
	"regexp"
	"strconv"
	"strings"
)

var numberRe = regexp.MustCompile(`^(?:\d+(?:\.\d*)?|\.\d+)$`)

// parseAsNumber reports whether s looks numeric per the lexer's number
// grammar and, if so, returns its integer value. Per the documented bug in
// the source behavior, a decimal-looking string is parsed using only its
// integer prefix -- fractional precision is not represented.
func parseAsNumber(s string) (int64, bool) {
	if !numberRe.MatchString(s) {
		return 0, false
	}
	intPart := s
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart = s[:dot]
	}
	if intPart == "" {
		intPart = "0"
	}
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// unquoteString strips a single-quoted string's delimiters and unescapes
// \', per get_value()/get_sub_value()'s quoting convention. Input that
// isn't quoted is returned unchanged.
func unquoteString(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return unescapeQuote(s[1 : len(s)-1])
	}
	return s
}

// Evaluate compiles and runs expr against r, per spec.md §4.6: the result
// is true only when the single residual value is literally Boolean(true);
// Undefined, a non-boolean residue, multiple residues, or a parse error
// (mismatched parentheses) all yield false. The error, when non-nil, is
// purely diagnostic -- callers that only need the esi:when branch decision
// can ignore it.
func Evaluate(expr string, r Resolver) (bool, error) {
	items := resolve(lex(expr), r)
	postfix, err := shuntingYard(items)
	if err != nil {
		return false, err
	}

	var stack []Value
	for _, it := range postfix {
		if it.isOperand {
			stack = append(stack, it.val)
			continue
		}
		switch it.op {
		case "!":
			if len(stack) < 1 {
				return false, nil
			}
			a := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack = append(stack, notValue(a))
		case "&", "|":
			if len(stack) < 2 {
				return false, nil
			}
			b, a := stack[len(stack)-1], stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, logicalValue(a, it.op, b))
		default:
			if len(stack) < 2 {
				return false, nil
			}
			b, a := stack[len(stack)-1], stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			stack = append(stack, compareValue(a, it.op, b))
		}
	}

	if len(stack) != 1 {
		return false, nil
	}
	result := stack[0]
	return result.Kind == KindBoolean && result.Bool, nil
}

func notValue(a Value) Value {
	if a.Kind == KindBoolean {
		return Boolean(!a.Bool)
	}
	return Undefined
}

func logicalValue(a Value, op string, b Value) Value {
	if a.Kind != KindBoolean || b.Kind != KindBoolean {
		return Undefined
	}
	if op == "&" {
		return Boolean(a.Bool && b.Bool)
	}
	return Boolean(a.Bool || b.Bool)
}

func compareValue(a Value, op string, b Value) Value {
	if a.Kind == KindUndefined || b.Kind == KindUndefined {
		return Boolean(false)
	}
	if a.Kind == KindNumber && b.Kind == KindNumber {
		return Boolean(numCompare(a.Num, op, b.Num))
	}
	if isTextual(a) && isTextual(b) {
		return Boolean(strCompare(textOf(a), op, textOf(b)))
	}
	return Undefined
}

func isTextual(v Value) bool {
	return v.Kind == KindString || v.Kind == KindNumber
}

func textOf(v Value) string {
	if v.Kind == KindNumber {
		return strconv.FormatInt(v.Num, 10)
	}
	return v.Str
}

func numCompare(a int64, op string, b int64) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}

func strCompare(a string, op string, b string) bool {
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	}
	return false
}
