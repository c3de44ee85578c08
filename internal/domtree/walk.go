package domtree

import "errors"

// Stop halts the whole traversal when returned by a WalkBefore callback.
var Stop = errors.New("domtree: stop walk")

// StopRecursion skips the current node's subtree but lets the walk continue
// with its siblings.
var StopRecursion = errors.New("domtree: stop recursion")

// CycleError is returned by Walk when it detects that an element appears as
// its own descendant.
type CycleError struct {
	At *Element
}

func (e *CycleError) Error() string {
	name := "?"
	if e.At != nil {
		name = e.At.QualifiedName()
	}
	return "domtree: cycle detected at <" + name + ">"
}

// WalkBefore runs pre-order. Returning Stop halts the whole walk, returning
// StopRecursion skips el's children (but not its siblings), any other
// non-nil error aborts the walk and is returned by Walk.
type WalkBefore func(el *Element) error

// WalkAfter runs post-order, after el's children (and their WalkAfter calls)
// have completed.
type WalkAfter func(el *Element) error

// Walk performs a depth-first traversal of root's subtree (including root
// itself), calling before pre-order and after post-order. Either callback
// may be nil.
func Walk(root *Element, before WalkBefore, after WalkAfter) error {
	return walk(root, before, after, map[*Element]bool{})
}

func walk(el *Element, before WalkBefore, after WalkAfter, visiting map[*Element]bool) error {
	if visiting[el] {
		return &CycleError{At: el}
	}
	visiting[el] = true
	defer delete(visiting, el)

	if before != nil {
		switch err := before(el); err {
		case nil:
			// descend
		case StopRecursion:
			if after != nil {
				return after(el)
			}
			return nil
		case Stop:
			return Stop
		default:
			return err
		}
	}

	for _, child := range el.Children {
		ce, ok := child.(*Element)
		if !ok {
			continue
		}
		if err := walk(ce, before, after, visiting); err != nil {
			return err
		}
	}

	if after != nil {
		return after(el)
	}
	return nil
}
