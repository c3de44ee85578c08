package recognizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognizeText(t *testing.T) {
	tok, rest := Recognize("hello world", false)
	require.Equal(t, KindText, tok.Kind)
	assert.Equal(t, "hello world", tok.Text)
	assert.Empty(t, rest)
}

func TestRecognizeTextBeforeTag(t *testing.T) {
	tok, rest := Recognize("hi <b>", false)
	require.Equal(t, KindText, tok.Kind)
	assert.Equal(t, "hi ", tok.Text)
	assert.Equal(t, "<b>", rest)
}

func TestRecognizeOpenTag(t *testing.T) {
	tok, rest := Recognize(`<esi:include src="/a"/>rest`, false)
	require.Equal(t, KindOpen, tok.Kind)
	assert.Equal(t, "esi", tok.Prefix)
	assert.Equal(t, "include", tok.Local)
	require.Len(t, tok.Attrs, 1)
	assert.Equal(t, "src", tok.Attrs[0].Local)
	assert.Equal(t, "/a", tok.Attrs[0].Value)
	assert.Equal(t, "rest", rest)
}

func TestRecognizeSelfCloseRequiresSpace(t *testing.T) {
	// "<foo/>" with no space before the slash is a documented quirk: the
	// slash is dropped and the tag is reported as an ordinary open tag.
	tok, rest := Recognize("<foo/>rest", false)
	require.Equal(t, KindOpen, tok.Kind)
	assert.Equal(t, "foo", tok.Local)
	assert.Equal(t, "rest", rest)
}

func TestRecognizeSelfCloseWithSpace(t *testing.T) {
	tok, rest := Recognize("<foo />rest", false)
	require.Equal(t, KindSelfClose, tok.Kind)
	assert.Equal(t, "rest", rest)
}

func TestRecognizeCloseTag(t *testing.T) {
	tok, rest := Recognize("</esi:try>rest", false)
	require.Equal(t, KindClose, tok.Kind)
	assert.Equal(t, "esi", tok.Prefix)
	assert.Equal(t, "try", tok.Local)
	assert.Equal(t, "rest", rest)
}

func TestRecognizeUnknownAwaitsMoreBytes(t *testing.T) {
	for _, buf := range []string{"<", "<esi:incl", `<esi:include src="/a`, "</esi:inc"} {
		tok, rest := Recognize(buf, false)
		assert.Equal(t, KindUnknown, tok.Kind, "buf=%q", buf)
		assert.Equal(t, buf, rest, "buf=%q", buf)
	}
}

func TestRecognizeIgnoreDefaultTags(t *testing.T) {
	tok, rest := Recognize("<div>rest", true)
	require.Equal(t, KindText, tok.Kind)
	assert.Equal(t, "<div>", tok.Text)
	assert.Equal(t, "rest", rest)

	tok2, _ := Recognize(`<esi:include src="/a"/>`, true)
	assert.Equal(t, KindOpen, tok2.Kind)
}

func TestRecognizeCommentPassesThroughVerbatim(t *testing.T) {
	tok, rest := Recognize("<!-- not esi -->rest", false)
	require.Equal(t, KindVerbatim, tok.Kind)
	assert.Equal(t, "<!-- not esi -->", tok.Text)
	assert.Equal(t, "rest", rest)
}

func TestRecognizeDirective(t *testing.T) {
	tok, rest := Recognize("<!DOCTYPE html>rest", false)
	require.Equal(t, KindVerbatim, tok.Kind)
	assert.Equal(t, "<!DOCTYPE html>", tok.Text)
	assert.Equal(t, "rest", rest)
}

func TestRecognizeEntityDecoding(t *testing.T) {
	tok, _ := Recognize("a &lt;b&gt; &amp; c &#65; &#x42;", false)
	require.Equal(t, KindText, tok.Kind)
	assert.Equal(t, "a <b> & c A B", tok.Text)
}

func TestRecognizeUnknownEntityPassesThrough(t *testing.T) {
	tok, _ := Recognize("a &nbsp; b", false)
	require.Equal(t, KindText, tok.Kind)
	assert.Equal(t, "a &nbsp; b", tok.Text)
}

func TestLocalFullname(t *testing.T) {
	assert.Equal(t, "esi:include", Token{Prefix: "esi", Local: "include"}.LocalFullname())
	assert.Equal(t, "div", Token{Local: "div"}.LocalFullname())
}

func TestIsVoidElement(t *testing.T) {
	assert.True(t, IsVoidElement("br"))
	assert.True(t, IsVoidElement("img"))
	assert.False(t, IsVoidElement("div"))
}

func TestRecognizeHoldsBackUnterminatedEntityAtChunkBoundary(t *testing.T) {
	tok, rest := Recognize("foo&amp", false)
	require.Equal(t, KindText, tok.Kind)
	assert.Equal(t, "foo", tok.Text)
	assert.Equal(t, "&amp", rest)

	tok2, rest2 := Recognize(rest+";bar", false)
	require.Equal(t, KindText, tok2.Kind)
	assert.Equal(t, "&bar", tok2.Text)
	assert.Equal(t, "", rest2)
}

func TestRecognizeHoldsBackSplitMultibyteRune(t *testing.T) {
	// "é" is 0xC3 0xA9 in UTF-8; split right after the lead byte.
	s := "caf\xc3\xa9"
	tok, rest := Recognize(s[:len(s)-1], false)
	require.Equal(t, KindText, tok.Kind)
	assert.Equal(t, "caf", tok.Text)
	assert.Equal(t, "\xc3", rest)
}

func TestRecognizeVoidElementAutoSelfCloses(t *testing.T) {
	tok, rest := Recognize(`<img src="/a.png">rest`, false)
	require.Equal(t, KindSelfClose, tok.Kind)
	assert.Equal(t, "img", tok.Local)
	assert.Equal(t, "rest", rest)

	tok2, _ := Recognize("<div>rest", false)
	assert.Equal(t, KindOpen, tok2.Kind)
}
