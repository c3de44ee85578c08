package streamctx

import "strings"

const (
	esiCommentOpen  = "<!--esi"
	esiCommentClose = "-->"
)

// esiCommentPreprocessor strips "<!--esi ... -->" marker pairs from a
// State's BufferedText in place, carrying an in-comment flag across
// Append calls so a marker split by a chunk boundary is still recognized.
// Installed as Context.Options.BeforeProcess by the esi façade package.
type esiCommentPreprocessor struct {
	inComment bool
}

// NewCommentStripper returns a BeforeProcess hook implementing spec.md
// §4.4. Grounded on the same cross-call-state technique as the recognizer's
// own Unknown/KindUnknown signaling (textual's ScanXML "ask for more"
// contract), applied here to a marker pair instead of a tag.
func NewCommentStripper() func(*State) {
	p := &esiCommentPreprocessor{}
	return p.process
}

func (p *esiCommentPreprocessor) process(s *State) {
	for {
		if !p.inComment {
			idx := strings.Index(s.BufferedText, esiCommentOpen)
			if idx == -1 {
				if tail := postponeOpenPrefix(s.BufferedText); tail != "" {
					s.PostponedText = tail
					s.BufferedText = s.BufferedText[:len(s.BufferedText)-len(tail)]
				}
				return
			}
			s.BufferedText = s.BufferedText[:idx] + s.BufferedText[idx+len(esiCommentOpen):]
			p.inComment = true
			continue
		}

		idx := strings.Index(s.BufferedText, esiCommentClose)
		if idx == -1 {
			if tail := postponeClosePrefix(s.BufferedText); tail != "" {
				s.PostponedText = tail
				s.BufferedText = s.BufferedText[:len(s.BufferedText)-len(tail)]
			}
			return
		}
		s.BufferedText = s.BufferedText[:idx] + s.BufferedText[idx+len(esiCommentClose):]
		p.inComment = false
	}
}

// postponeOpenPrefix returns the longest proper suffix of buf that is also
// a proper prefix of "<!--esi" (<, <!, <!-, <!--, <!--e, <!--es), since that
// suffix might complete into the opener once more bytes arrive.
func postponeOpenPrefix(buf string) string {
	return longestMarkerSuffix(buf, esiCommentOpen)
}

// postponeClosePrefix is the same check against "-->".
func postponeClosePrefix(buf string) string {
	return longestMarkerSuffix(buf, esiCommentClose)
}

func longestMarkerSuffix(buf, marker string) string {
	max := len(marker) - 1
	if max > len(buf) {
		max = len(buf)
	}
	for n := max; n > 0; n-- {
		if buf[len(buf)-n:] == marker[:n] {
			return buf[len(buf)-n:]
		}
	}
	return ""
}
