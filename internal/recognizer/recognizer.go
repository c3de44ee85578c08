package recognizer

import (
	"regexp"
	"strings"
)

// nameRe matches one name segment: name ::= [A-Za-z][-A-Za-z0-9]*
var nameRe = regexp.MustCompile(`^[A-Za-z][-A-Za-z0-9]*`)

// Recognize classifies the head of buf per spec.md §4.1: it returns the
// token found at offset 0 together with whatever of buf was not consumed by
// it. When buf begins with plain text, the text run up to (but excluding)
// the next '<' is returned and the '<' itself is left in remaining for the
// following call. When ignoreDefaultTags is true, an unprefixed tag is
// reported as KindText instead of KindOpen/KindSelfClose/KindClose, matching
// the "only prefixed tags are recognized" rule.
func Recognize(buf string, ignoreDefaultTags bool) (Token, string) {
	if buf == "" {
		return Token{Kind: KindUnknown}, buf
	}

	lt := strings.IndexByte(buf, '<')
	if lt == -1 {
		// Nothing bounds the end of buf yet, so a trailing unterminated
		// entity ("foo&amp") or a multi-byte rune split by the chunk
		// boundary must wait for more bytes rather than being decoded (or
		// mis-decoded) now; decoding the same bytes differently depending
		// on where the caller happened to split them would violate chunk
		// independence.
		if n := pendingTailLen(buf); n > 0 {
			if n == len(buf) {
				return Token{Kind: KindUnknown}, buf
			}
			safe := buf[:len(buf)-n]
			return Token{Kind: KindText, Text: DecodeEntities(safe)}, buf[len(buf)-n:]
		}
		return Token{Kind: KindText, Text: DecodeEntities(buf)}, ""
	}
	if lt > 0 {
		return Token{Kind: KindText, Text: DecodeEntities(buf[:lt])}, buf[lt:]
	}

	if len(buf) < 2 {
		return Token{Kind: KindUnknown}, buf
	}

	switch {
	case strings.HasPrefix(buf, "<!--"):
		return recognizeVerbatim(buf, "-->")
	case strings.HasPrefix(buf, "<?"):
		return recognizeVerbatim(buf, "?>")
	case strings.HasPrefix(buf, "<!"):
		return recognizeVerbatim(buf, ">")
	case strings.HasPrefix(buf, "</"):
		return recognizeCloseTag(buf, ignoreDefaultTags)
	default:
		return recognizeStartTag(buf, ignoreDefaultTags)
	}
}

// recognizeVerbatim passes a comment, processing instruction, or directive
// through untouched as text, since only the ESI comment preprocessor (which
// runs before the recognizer ever sees the buffer) interprets them.
func recognizeVerbatim(buf, closer string) (Token, string) {
	end := strings.Index(buf, closer)
	if end == -1 {
		return Token{Kind: KindUnknown}, buf
	}
	end += len(closer)
	return Token{Kind: KindVerbatim, Text: buf[:end]}, buf[end:]
}

func recognizeCloseTag(buf string, ignoreDefaultTags bool) (Token, string) {
	gt := strings.IndexByte(buf, '>')
	if gt == -1 {
		return Token{Kind: KindUnknown}, buf
	}
	inner := strings.TrimSpace(buf[2:gt])
	prefix, local, ok := splitQName(inner)
	if !ok {
		// Not a well-formed tag name; treat the '<' as a lone text byte so
		// the caller makes forward progress instead of looping.
		return Token{Kind: KindText, Text: "<"}, buf[1:]
	}
	if prefix == "" && ignoreDefaultTags {
		return Token{Kind: KindText, Text: buf[:gt+1]}, buf[gt+1:]
	}
	return Token{Kind: KindClose, Prefix: prefix, Local: local}, buf[gt+1:]
}

func recognizeStartTag(buf string, ignoreDefaultTags bool) (Token, string) {
	rest := buf[1:]
	m := nameRe.FindString(rest)
	if m == "" {
		return Token{Kind: KindText, Text: "<"}, buf[1:]
	}
	pos := 1 + len(m)
	prefix, local := "", m
	if pos < len(buf) && buf[pos] == ':' {
		m2 := nameRe.FindString(buf[pos+1:])
		if m2 != "" {
			prefix, local = m, m2
			pos += 1 + len(m2)
		}
	}

	var attrs []Attr
	selfClose := false
	prevWasSpace := false

	for {
		if pos >= len(buf) {
			return Token{Kind: KindUnknown}, buf
		}
		c := buf[pos]

		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			prevWasSpace = true
			pos++
			continue
		}

		if c == '/' {
			if pos+1 < len(buf) && buf[pos+1] == '>' && prevWasSpace {
				selfClose = true
				pos += 2
				break
			}
			// No preceding whitespace: the documented quirk where a
			// space-less "<foo/>" is not recognized as self-closing.
			// Drop the stray slash and keep scanning for '>'.
			pos++
			prevWasSpace = false
			continue
		}

		if c == '>' {
			pos++
			break
		}

		attr, newPos, ok := parseAttr(buf, pos)
		if !ok {
			return Token{Kind: KindUnknown}, buf
		}
		attrs = append(attrs, attr)
		pos = newPos
		prevWasSpace = false
	}

	if prefix == "" && IsVoidElement(local) {
		// HTML void elements (br, img, ...) never carry a close tag; treat
		// an un-slashed one as self-closing so it can't stay "open" and
		// swallow everything after it, or outlive its enclosing element on
		// the stack and desync the next close tag.
		selfClose = true
	}

	if prefix == "" && ignoreDefaultTags {
		return Token{Kind: KindText, Text: buf[:pos]}, buf[pos:]
	}

	kind := KindOpen
	if selfClose {
		kind = KindSelfClose
	}
	return Token{Kind: kind, Prefix: prefix, Local: local, Attrs: attrs}, buf[pos:]
}

// parseAttr reads one (prefixed_name|name) = ("…"|'…') pair starting at pos,
// which must not be whitespace. Returns the updated offset just past the
// closing quote.
func parseAttr(buf string, pos int) (Attr, int, bool) {
	m := nameRe.FindString(buf[pos:])
	if m == "" {
		return Attr{}, 0, false
	}
	p := pos + len(m)
	prefix, local := "", m

	if p < len(buf) && buf[p] == ':' {
		m2 := nameRe.FindString(buf[p+1:])
		if m2 != "" {
			prefix, local = m, m2
			p += 1 + len(m2)
		}
	}

	for p < len(buf) && isSpace(buf[p]) {
		p++
	}
	if p >= len(buf) || buf[p] != '=' {
		return Attr{}, 0, false
	}
	p++
	for p < len(buf) && isSpace(buf[p]) {
		p++
	}
	if p >= len(buf) {
		return Attr{}, 0, false
	}
	quote := buf[p]
	if quote != '"' && quote != '\'' {
		return Attr{}, 0, false
	}
	p++
	end := strings.IndexByte(buf[p:], quote)
	if end == -1 {
		return Attr{}, 0, false
	}
	value := DecodeEntities(buf[p : p+end])
	p += end + 1

	return Attr{Prefix: prefix, Local: local, Value: value}, p, true
}

func splitQName(s string) (prefix, local string, ok bool) {
	colon := strings.IndexByte(s, ':')
	if colon == -1 {
		if nameRe.FindString(s) != s {
			return "", "", false
		}
		return "", s, true
	}
	p, l := s[:colon], s[colon+1:]
	if nameRe.FindString(p) != p || nameRe.FindString(l) != l {
		return "", "", false
	}
	return p, l, true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// pendingTailLen returns how many bytes at the end of buf must be held back
// because they could still be completed by bytes from the next chunk: an
// unterminated entity reference, or a multi-byte UTF-8 rune cut off by the
// chunk boundary. 0 means buf can be decoded and emitted as-is.
func pendingTailLen(buf string) int {
	n := utf8TailLen(buf)
	if e := entityTailLen(buf); e > n {
		n = e
	}
	return n
}

// utf8TailLen reports the length of a lead byte's declared multi-byte
// sequence at the very end of buf that hasn't fully arrived yet.
func utf8TailLen(buf string) int {
	limit := 3
	if len(buf) < limit {
		limit = len(buf)
	}
	for i := 1; i <= limit; i++ {
		b := buf[len(buf)-i]
		if b < 0x80 {
			return 0
		}
		if b >= 0xC0 {
			need := 2
			switch {
			case b >= 0xF0:
				need = 4
			case b >= 0xE0:
				need = 3
			}
			if need > i {
				return i
			}
			return 0
		}
		// continuation byte (0x80-0xBF): keep walking backwards
	}
	return 0
}

// entityTailLen reports the length of a trailing "&..." run at the end of
// buf that looks like the start of a named or numeric entity but has no
// terminating ';' yet. A bare '&' not followed by entity-shaped characters
// is not pending: it is decoded as a literal ampersand immediately.
func entityTailLen(buf string) int {
	amp := strings.LastIndexByte(buf, '&')
	if amp == -1 {
		return 0
	}
	tail := buf[amp:]
	if strings.ContainsRune(tail, ';') {
		return 0
	}
	for i := 1; i < len(tail); i++ {
		c := tail[i]
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '#':
			continue
		default:
			return 0
		}
	}
	return len(tail)
}
