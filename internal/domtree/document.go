// Package domtree implements the in-memory element tree built by the
// streaming context: namespace-aware elements, a pre/post-order walker, and
// the transform-builder used to rewrite subtrees in place.
package domtree

import "fmt"

// Document carries the prefix -> namespace URI table shared by every
// Element it owns. A Document is immutable after construction.
type Document struct {
	prefixes             map[string]string
	allowUnknownPrefixes bool
}

// NewDocument builds a Document from a prefix->URI table. A nil map is
// treated as empty. The returned Document never aliases the caller's map.
func NewDocument(prefixes map[string]string, allowUnknownPrefixes bool) *Document {
	cp := make(map[string]string, len(prefixes))
	for k, v := range prefixes {
		cp[k] = v
	}
	return &Document{prefixes: cp, allowUnknownPrefixes: allowUnknownPrefixes}
}

// NamespaceURI returns the URI registered for prefix at the document level,
// or "" with ok=false if the prefix is not declared there.
func (d *Document) NamespaceURI(prefix string) (string, bool) {
	uri, ok := d.prefixes[prefix]
	return uri, ok
}

// AllowUnknownPrefixes reports whether unresolved prefixes should resolve to
// the empty namespace instead of raising a NamespaceError.
func (d *Document) AllowUnknownPrefixes() bool {
	return d.allowUnknownPrefixes
}

// NamespaceError is raised when an element or attribute prefix cannot be
// resolved against the element's ancestors or the owning Document, and the
// Document does not allow unknown prefixes.
type NamespaceError struct {
	Prefix string
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("domtree: unknown namespace prefix %q", e.Prefix)
}

func (e *NamespaceError) Is(target error) bool {
	o, ok := target.(*NamespaceError)
	return ok && o.Prefix == e.Prefix
}
