package domtree

// TransformResult is the sum type a TransformFunc returns: leave the node
// alone and descend into it (Unchanged), delete it (Remove), replace it with
// exactly one node without descending into that node (Replace), or replace
// it with zero-or-many nodes spliced at its position (Splice).
type TransformResult struct {
	kind  transformKind
	node  Node
	nodes []Node
}

type transformKind int

const (
	kindUnchanged transformKind = iota
	kindRemove
	kindReplace
	kindSplice
)

// Unchanged leaves the element in place and lets the walk descend into it.
func Unchanged() TransformResult { return TransformResult{kind: kindUnchanged} }

// Remove deletes the element from its parent's children.
func Remove() TransformResult { return TransformResult{kind: kindRemove} }

// ReplaceWith substitutes the element with a single node. The walk does not
// descend into the replacement.
func ReplaceWith(n Node) TransformResult { return TransformResult{kind: kindReplace, node: n} }

// SpliceWith substitutes the element with zero or more nodes, spliced at its
// position in the parent's children. The walk does not descend into them.
func SpliceWith(nodes []Node) TransformResult { return TransformResult{kind: kindSplice, nodes: nodes} }

// TransformFunc is invoked once per encountered non-root element during a
// BuildTransform walk.
type TransformFunc func(el *Element, parent *Element) (TransformResult, error)

// BuildTransform compiles fn into a function that, given a single element,
// wraps it in a synthetic root, walks it pre-order calling fn on every
// descendant element, and returns the (possibly expanded, possibly empty)
// list of nodes that should replace the original element at its original
// position.
//
// Any TransformResult other than Unchanged prevents descent into that
// element's original children — if fn wants those children processed too
// (e.g. esi:vars enabling variable substitution for its subtree) it must do
// so itself before returning Replace/Splice.
func BuildTransform(doc *Document, fn TransformFunc) func(*Element) ([]Node, error) {
	return func(target *Element) ([]Node, error) {
		root := NewElement(doc, "", RootTag)
		root.AppendChild(target)
		if err := applyTransform(root, fn); err != nil {
			return nil, err
		}
		flattenReplacements(root)
		return root.Children, nil
	}
}

// applyTransform mutates parent.Children in place: each *Element child is
// passed through fn; Unchanged children are recursed into, everything else
// is wrapped in a ReplaceTag placeholder for flattenReplacements to splice
// later.
func applyTransform(parent *Element, fn TransformFunc) error {
	for i, child := range parent.Children {
		ce, ok := child.(*Element)
		if !ok {
			continue
		}

		result, err := fn(ce, parent)
		if err != nil {
			return err
		}

		switch result.kind {
		case kindUnchanged:
			if err := applyTransform(ce, fn); err != nil {
				return err
			}
		case kindRemove:
			parent.Children[i] = wrapReplacement(doc(parent), nil)
		case kindReplace:
			parent.Children[i] = wrapReplacement(doc(parent), []Node{result.node})
		case kindSplice:
			parent.Children[i] = wrapReplacement(doc(parent), result.nodes)
		}
	}
	return nil
}

func doc(el *Element) *Document {
	return el.Doc
}

func wrapReplacement(d *Document, nodes []Node) *Element {
	w := NewElement(d, "", ReplaceTag)
	w.Children = nodes
	return w
}

// flattenReplacements recursively splices ReplaceTag wrapper children into
// their parent's children, merging adjacent Text nodes as it goes. It is
// also what the serializer re-applies so a tree that still contains
// ReplaceTag wrappers (e.g. one under construction) serializes correctly.
func flattenReplacements(el *Element) {
	flattened := make([]Node, 0, len(el.Children))
	for _, child := range el.Children {
		ce, ok := child.(*Element)
		if !ok {
			flattened = appendMerging(flattened, child)
			continue
		}
		if ce.LocalName == ReplaceTag && ce.LocalPrefix == "" {
			flattenReplacements(ce)
			for _, inner := range ce.Children {
				flattened = appendMerging(flattened, inner)
			}
			continue
		}
		flattenReplacements(ce)
		flattened = appendMerging(flattened, ce)
	}
	el.Children = flattened
}
