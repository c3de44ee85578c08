// Package streamctx drives internal/recognizer over a growing text buffer,
// builds the internal/domtree tree incrementally, and dispatches each
// top-level node to its caller as soon as it is fully closed.
package streamctx

import (
	"fmt"

	"github.com/clems4ever/esi-stream/internal/domtree"
	"github.com/clems4ever/esi-stream/internal/recognizer"
)

// Options configures a Context's behavior. BeforeProcess runs at the start
// of every processing cycle and is the hook the ESI-comment preprocessor
// installs to excise "<!--esi ... -->" markers before the recognizer ever
// sees them.
type Options struct {
	IgnoreDefaultTags bool
	BeforeProcess     func(*State)
}

// State is the streamer's pending-text bookkeeping. PostponedText is always
// re-prepended to the next Append before anything else happens.
type State struct {
	BufferedText  string
	PostponedText string
}

// Context owns the pending buffer, the open-element stack, and the
// top-level dispatch sequence for one stream.
type Context struct {
	Doc     *domtree.Document
	Options Options
	State

	OpenElements []*domtree.Element
	pendingRoot  *domtree.Element

	// Completed accumulates dispatched top-level nodes in order; callers
	// drain it with TakeCompleted. OnChild, if set, additionally fires the
	// instant a node completes, for true streaming output.
	Completed []domtree.Node
	OnChild   func(domtree.Node) error
}

// New creates a Context with an empty buffer and no open elements.
func New(doc *domtree.Document, opts Options) *Context {
	return &Context{Doc: doc, Options: opts}
}

// TakeCompleted returns and clears the nodes dispatched so far.
func (c *Context) TakeCompleted() []domtree.Node {
	out := c.Completed
	c.Completed = nil
	return out
}

// current returns the innermost open element, or nil if the stack is empty
// (meaning the next completed node is itself top-level).
func (c *Context) current() *domtree.Element {
	if len(c.OpenElements) == 0 {
		return nil
	}
	return c.OpenElements[len(c.OpenElements)-1]
}

// Append feeds more decoded text into the stream and runs the
// recognize/dispatch loop until the buffer is exhausted or classified
// Unknown (meaning more bytes are needed).
func (c *Context) Append(text string) error {
	c.BufferedText = c.BufferedText + c.PostponedText + text
	c.PostponedText = ""

	for {
		if c.Options.BeforeProcess != nil {
			c.Options.BeforeProcess(&c.State)
		}

		tok, rest := recognizer.Recognize(c.BufferedText, c.Options.IgnoreDefaultTags)
		if tok.Kind == recognizer.KindUnknown {
			return nil
		}
		c.BufferedText = rest

		if err := c.dispatchToken(tok); err != nil {
			return err
		}
	}
}

func (c *Context) dispatchToken(tok recognizer.Token) error {
	switch tok.Kind {
	case recognizer.KindText:
		if tok.Text == "" {
			return nil
		}
		return c.appendNode(domtree.Text(tok.Text))

	case recognizer.KindVerbatim:
		return c.appendNode(domtree.Raw(tok.Text))

	case recognizer.KindOpen, recognizer.KindSelfClose:
		el, err := c.buildElement(tok)
		if err != nil {
			return err
		}
		if tok.Kind == recognizer.KindOpen {
			c.OpenElements = append(c.OpenElements, el)
			return nil
		}
		if len(c.OpenElements) == 0 {
			return c.closeTopLevel()
		}
		return nil

	case recognizer.KindClose:
		if len(c.OpenElements) == 0 {
			return &RecognizerError{Kind: "closing-empty-stack", Want: tok.LocalFullname()}
		}
		top := c.OpenElements[len(c.OpenElements)-1]
		if top.QualifiedName() != tok.LocalFullname() {
			return &RecognizerError{Kind: "closing-unmatched", Want: top.QualifiedName(), Got: tok.LocalFullname()}
		}
		c.OpenElements = c.OpenElements[:len(c.OpenElements)-1]
		if len(c.OpenElements) == 0 {
			return c.closeTopLevel()
		}
		return nil
	}
	return nil
}

// buildElement materializes a domtree.Element from a recognizer token:
// xmlns(:prefix) attributes become namespace declarations, everything else
// is a regular attribute resolved against the element's (now-complete)
// namespace declarations and its ancestor chain.
func (c *Context) buildElement(tok recognizer.Token) (*domtree.Element, error) {
	el := domtree.NewElement(c.Doc, tok.Prefix, tok.Local)

	for _, a := range tok.Attrs {
		switch {
		case a.Prefix == "" && a.Local == "xmlns":
			el.NamespaceDefs[""] = a.Value
		case a.Prefix == "xmlns":
			el.NamespaceDefs[a.Local] = a.Value
		}
	}

	if parent := c.current(); parent != nil {
		parent.AppendChild(el)
	} else {
		c.pendingRoot = el
	}

	for _, a := range tok.Attrs {
		if a.Prefix == "xmlns" || (a.Prefix == "" && a.Local == "xmlns") {
			continue
		}
		if err := el.SetAttr(a.Prefix, a.Local, a.Value); err != nil {
			return nil, err
		}
	}
	return el, nil
}

// appendNode routes a text node to the current open element's children, or
// dispatches it immediately if we're at top level. Elements never reach
// this function: buildElement handles their placement directly.
func (c *Context) appendNode(n domtree.Node) error {
	if parent := c.current(); parent != nil {
		parent.AppendChild(n)
		return nil
	}
	return c.dispatch(n)
}

// closeTopLevel resolves namespaces across the just-completed top-level
// subtree and dispatches it. Attribute prefixes are already resolved as
// they're parsed (buildElement); this pass additionally resolves each
// element's own tag namespace, per spec: "resolved after the element's
// attributes are fully parsed and before transform".
func (c *Context) closeTopLevel() error {
	if c.pendingRoot == nil {
		return nil
	}
	root := c.pendingRoot
	c.pendingRoot = nil
	if err := domtree.ResolveNamespaces(root); err != nil {
		return err
	}
	return c.dispatch(root)
}

// dispatch records n as completed and, if OnChild is set, hands it off
// immediately for streaming output. An OnChild error aborts the stream: it
// is returned to the original Append/Flush caller.
func (c *Context) dispatch(n domtree.Node) error {
	c.Completed = append(c.Completed, n)
	if c.OnChild != nil {
		return c.OnChild(n)
	}
	return nil
}

// Flush finalizes any remaining buffered text as a trailing text node. If
// force is set, the open-element stack is cleared and whatever was being
// built is dispatched as-is, incomplete.
func (c *Context) Flush(force bool) error {
	text := c.PostponedText + c.BufferedText
	c.PostponedText, c.BufferedText = "", ""
	if text != "" {
		if err := c.appendNode(domtree.Text(recognizer.DecodeEntities(text))); err != nil {
			return err
		}
	}
	if force && len(c.OpenElements) > 0 {
		c.OpenElements = nil
		return c.closeTopLevel()
	}
	return nil
}

// RecognizerError reports a close-tag mismatch detected while draining the
// stream: either a close tag with nothing open, or one that doesn't match
// the innermost open element.
type RecognizerError struct {
	Kind string // "closing-empty-stack" | "closing-unmatched"
	Want string
	Got  string
}

func (e *RecognizerError) Error() string {
	switch e.Kind {
	case "closing-empty-stack":
		return fmt.Sprintf("streamctx: closing tag %q with no open elements", e.Want)
	default:
		return fmt.Sprintf("streamctx: closing tag %q does not match open element %q", e.Got, e.Want)
	}
}

func (e *RecognizerError) Is(target error) bool {
	o, ok := target.(*RecognizerError)
	return ok && o.Kind == e.Kind
}
