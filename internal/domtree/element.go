package domtree

import "strings"

// RootTag and ReplaceTag are reserved local names used internally by
// BuildTransform to wrap a single node for walking (RootTag) and to splice a
// list of replacement nodes back into a parent's children (ReplaceTag).
// Neither ever crosses the package boundary in a value returned to callers.
const (
	RootTag    = "_root"
	ReplaceTag = "_replace"
)

// Text is a leaf text node. Adjacent Text nodes are merged by the streaming
// context as they're appended, so a Document never has two Text siblings in
// a row.
type Text string

// Raw is a leaf node carrying markup that must be emitted verbatim on
// serialization: XML comments, processing instructions, and directives
// that the recognizer passes through untouched rather than interpreting.
// Unlike Text it is never entity-escaped.
type Raw string

// Node is *Element, Text, or Raw.
type Node interface {
	isNode()
}

func (Text) isNode() {}
func (Raw) isNode()  {}

// AttrKey identifies an attribute once its namespace has been resolved.
type AttrKey struct {
	Namespace string
	Local     string
}

// Attr is an attribute value together with the prefix/namespace it was
// written with.
type Attr struct {
	Prefix    string
	Namespace string
	Local     string
	Value     string
}

// Element is a tree node: a tag name, its resolved namespace, its
// attributes, and its ordered children.
type Element struct {
	LocalName     string
	LocalPrefix   string // "" means the default (unprefixed) namespace
	Namespace     string // resolved lazily; empty until ResolveNamespaces runs
	Attributes    map[AttrKey]Attr
	attrOrder     []AttrKey // preserves insertion order for serialization
	NamespaceDefs map[string]string
	Children      []Node
	Parent        *Element // back-reference only, never owns Parent
	Doc           *Document
}

func (*Element) isNode() {}

// NewElement creates a detached element owned by doc.
func NewElement(doc *Document, prefix, local string) *Element {
	return &Element{
		LocalName:     local,
		LocalPrefix:   prefix,
		Attributes:    make(map[AttrKey]Attr),
		NamespaceDefs: make(map[string]string),
		Doc:           doc,
	}
}

// SetAttr resolves attr's namespace (using e's ancestors, falling back to
// e.Doc) and stores it, preserving first-seen order.
func (e *Element) SetAttr(prefix, local, value string) error {
	ns := ""
	if prefix != "" {
		resolved, err := e.resolvePrefix(prefix)
		if err != nil {
			return err
		}
		ns = resolved
	}
	key := AttrKey{Namespace: ns, Local: local}
	if _, exists := e.Attributes[key]; !exists {
		e.attrOrder = append(e.attrOrder, key)
	}
	e.Attributes[key] = Attr{Prefix: prefix, Namespace: ns, Local: local, Value: value}
	return nil
}

// OrderedAttrs returns the element's attributes in first-seen order.
func (e *Element) OrderedAttrs() []Attr {
	out := make([]Attr, 0, len(e.attrOrder))
	for _, k := range e.attrOrder {
		out = append(out, e.Attributes[k])
	}
	return out
}

// AppendChild appends child to e's children and sets child's Parent if it is
// an *Element. Adjacent Text nodes are merged.
func (e *Element) AppendChild(n Node) {
	e.Children = appendMerging(e.Children, n)
	if child, ok := n.(*Element); ok {
		child.Parent = e
	}
}

func appendMerging(children []Node, n Node) []Node {
	if txt, ok := n.(Text); ok && len(children) > 0 {
		if prev, ok := children[len(children)-1].(Text); ok {
			children[len(children)-1] = prev + txt
			return children
		}
	}
	return append(children, n)
}

// resolvePrefix walks e -> ancestors -> e.Doc looking for prefix's
// namespace URI declaration.
func (e *Element) resolvePrefix(prefix string) (string, error) {
	for cur := e; cur != nil; cur = cur.Parent {
		if uri, ok := cur.NamespaceDefs[prefix]; ok {
			return uri, nil
		}
	}
	if e.Doc != nil {
		if uri, ok := e.Doc.NamespaceURI(prefix); ok {
			return uri, nil
		}
		if e.Doc.AllowUnknownPrefixes() {
			return "", nil
		}
	}
	return "", &NamespaceError{Prefix: prefix}
}

// ResolveNamespace resolves e.Namespace from e.LocalPrefix, recursing into
// e's element children first isn't required by this call; callers use
// ResolveNamespaces for the whole subtree.
func (e *Element) ResolveNamespace() error {
	// Namespace declarations (xmlns / xmlns:prefix) are consumed into
	// NamespaceDefs by the caller (streamctx) before this runs, so prefix
	// resolution here can already see them.
	if e.LocalPrefix == "" {
		// Default (unprefixed) elements resolve against a declared default
		// namespace ("xmlns") if present, else stay in the empty namespace.
		for cur := e; cur != nil; cur = cur.Parent {
			if uri, ok := cur.NamespaceDefs[""]; ok {
				e.Namespace = uri
				return nil
			}
		}
		e.Namespace = ""
		return nil
	}
	uri, err := e.resolvePrefix(e.LocalPrefix)
	if err != nil {
		return err
	}
	e.Namespace = uri
	return nil
}

// ResolveNamespaces resolves e's namespace and recurses into every
// *Element child.
func ResolveNamespaces(e *Element) error {
	if err := e.ResolveNamespace(); err != nil {
		return err
	}
	for _, child := range e.Children {
		if ce, ok := child.(*Element); ok {
			if err := ResolveNamespaces(ce); err != nil {
				return err
			}
		}
	}
	return nil
}

// QualifiedName renders prefix:local (or just local when unprefixed), as
// used for serialization and for matching against "<prefix:local>" tag
// spellings produced by the recognizer.
func (e *Element) QualifiedName() string {
	if e.LocalPrefix == "" {
		return e.LocalName
	}
	var b strings.Builder
	b.WriteString(e.LocalPrefix)
	b.WriteByte(':')
	b.WriteString(e.LocalName)
	return b.String()
}
