package recognizer

import "golang.org/x/net/html/atom"

// voidElements is consulted (never a full HTML parser, per the module's
// non-goals) for every unprefixed start tag, whether or not IgnoreDefaultTags
// is set, so that a void tag like <br> or <img> is treated as self-closing
// even if the author left off the trailing slash.
var voidElements = map[string]bool{
	atom.Area.String():   true,
	atom.Base.String():   true,
	atom.Br.String():     true,
	atom.Col.String():    true,
	atom.Embed.String():  true,
	atom.Hr.String():     true,
	atom.Img.String():    true,
	atom.Input.String():  true,
	atom.Link.String():   true,
	atom.Meta.String():   true,
	atom.Param.String():  true,
	atom.Source.String(): true,
	atom.Track.String():  true,
	atom.Wbr.String():    true,
}

// IsVoidElement reports whether local (an unprefixed, lowercase tag name) is
// one of the HTML void elements that never carries a close tag.
func IsVoidElement(local string) bool {
	return voidElements[local]
}
