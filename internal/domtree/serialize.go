package domtree

import "strings"

// Serialize renders el and its subtree back to markup. ReplaceTag wrappers
// still present in the tree (e.g. a transform result that was never passed
// through flattenReplacements) are spliced transparently, exactly like the
// post-transform flatten pass.
func Serialize(el *Element) string {
	var b strings.Builder
	writeElement(&b, el)
	return b.String()
}

// SerializeNodes renders a bare node list (as returned by a TransformFunc
// pipeline) without an enclosing element.
func SerializeNodes(nodes []Node) string {
	var b strings.Builder
	writeNodes(&b, nodes)
	return b.String()
}

func writeNodes(b *strings.Builder, nodes []Node) {
	for _, n := range nodes {
		switch v := n.(type) {
		case Text:
			b.WriteString(escapeText(string(v)))
		case Raw:
			b.WriteString(string(v))
		case *Element:
			if v.LocalName == ReplaceTag && v.LocalPrefix == "" {
				writeNodes(b, v.Children)
				continue
			}
			writeElement(b, v)
		}
	}
}

func writeElement(b *strings.Builder, el *Element) {
	b.WriteByte('<')
	b.WriteString(el.QualifiedName())

	for _, attr := range el.OrderedAttrs() {
		b.WriteByte(' ')
		if attr.Prefix != "" {
			b.WriteString(attr.Prefix)
			b.WriteByte(':')
		}
		b.WriteString(attr.Local)
		b.WriteString(`="`)
		b.WriteString(escapeAttr(attr.Value))
		b.WriteByte('"')
	}
	for prefix, uri := range el.NamespaceDefs {
		b.WriteByte(' ')
		if prefix == "" {
			b.WriteString("xmlns")
		} else {
			b.WriteString("xmlns:")
			b.WriteString(prefix)
		}
		b.WriteString(`="`)
		b.WriteString(escapeAttr(uri))
		b.WriteByte('"')
	}

	if len(el.Children) == 0 {
		b.WriteString(" />")
		return
	}

	b.WriteByte('>')
	writeNodes(b, el.Children)
	b.WriteString("</")
	b.WriteString(el.QualifiedName())
	b.WriteByte('>')
}

// escapeText escapes the five XML-significant characters in text content.
func escapeText(s string) string {
	return replaceAll(s)
}

// escapeAttr escapes the same five characters inside a double-quoted
// attribute value.
func escapeAttr(s string) string {
	return replaceAll(s)
}

func replaceAll(s string) string {
	if !strings.ContainsAny(s, "&<>\"'") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
