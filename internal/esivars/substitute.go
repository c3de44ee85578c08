package esivars

import (
	"regexp"
	"strings"
)

// reVariableRef matches a $(NAME{SUB}|default) text-substitution reference.
// Mirrors internal/esiexpr's variable-token grammar, including the generic
// (not keyword-fixed) default clause.
var reVariableRef = regexp.MustCompile(`\$\(([A-Za-z_][A-Za-z0-9_]*)(?:\{([^}]*)\})?(?:\|(?:'((?:\\'|[^'])*)'|([^)]+)))?\)`)

// Substitute replaces every $(NAME{SUB}|default) reference in text with its
// resolved value, per spec.md §4.5. Resolution falls back to the default
// clause (or the empty string, absent one) when the variable or sub-key is
// absent, resolves to the empty string, or resolves to the literal "false".
// A successfully resolved literal "true"/"false" is rendered as the empty
// string, since $(...) substitution yields text, not a boolean.
func Substitute(text string, r Resolver) string {
	return reVariableRef.ReplaceAllStringFunc(text, func(ref string) string {
		m := reVariableRef.FindStringSubmatch(ref)
		name, sub, hasSub := m[1], m[2], m[2] != ""

		var def string
		var hasDefault bool
		switch {
		case m[3] != "":
			def, hasDefault = unescapeQuote(m[3]), true
		case m[4] != "":
			def, hasDefault = strings.TrimSpace(m[4]), true
		}

		var raw string
		var ok bool
		if r != nil {
			if hasSub {
				raw, ok = r.SubValue(name, sub)
			} else {
				raw, ok = r.Value(name)
			}
		}

		if !ok || raw == "" || raw == "false" {
			if hasDefault {
				return def
			}
			return ""
		}
		if raw == "true" {
			return ""
		}
		return unquoteString(raw)
	})
}
