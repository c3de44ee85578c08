package domtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTransformUnchangedDescendsIntoChildren(t *testing.T) {
	doc := NewDocument(nil, false)
	child := NewElement(doc, "", "b")
	root := NewElement(doc, "", "a")
	root.AppendChild(child)

	var visited []string
	transform := BuildTransform(doc, func(el *Element, parent *Element) (TransformResult, error) {
		visited = append(visited, el.LocalName)
		return Unchanged(), nil
	})

	out, err := transform(root)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []string{"a", "b"}, visited)
	assert.Equal(t, "<a><b /></a>", Serialize(out[0].(*Element)))
}

func TestBuildTransformRemoveDropsElement(t *testing.T) {
	doc := NewDocument(nil, false)
	root := NewElement(doc, "", "a")
	root.AppendChild(Text("x"))
	root.AppendChild(NewElement(doc, "", "drop-me"))
	root.AppendChild(Text("y"))

	transform := BuildTransform(doc, func(el *Element, parent *Element) (TransformResult, error) {
		if el.LocalName == "drop-me" {
			return Remove(), nil
		}
		return Unchanged(), nil
	})

	out, err := transform(root)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "<a>xy</a>", Serialize(out[0].(*Element)))
}

func TestBuildTransformReplaceWithSingleNode(t *testing.T) {
	doc := NewDocument(nil, false)
	root := NewElement(doc, "", "a")
	root.AppendChild(NewElement(doc, "", "swap-me"))

	transform := BuildTransform(doc, func(el *Element, parent *Element) (TransformResult, error) {
		if el.LocalName == "swap-me" {
			return ReplaceWith(Text("swapped")), nil
		}
		return Unchanged(), nil
	})

	out, err := transform(root)
	require.NoError(t, err)
	assert.Equal(t, "<a>swapped</a>", Serialize(out[0].(*Element)))
}

func TestBuildTransformSpliceWithMultipleNodesFlattensIntoParent(t *testing.T) {
	doc := NewDocument(nil, false)
	root := NewElement(doc, "", "a")
	root.AppendChild(Text("before-"))
	root.AppendChild(NewElement(doc, "", "choose-me"))
	root.AppendChild(Text("-after"))

	transform := BuildTransform(doc, func(el *Element, parent *Element) (TransformResult, error) {
		if el.LocalName == "choose-me" {
			return SpliceWith([]Node{Text("one"), NewElement(doc, "", "two")}), nil
		}
		return Unchanged(), nil
	})

	out, err := transform(root)
	require.NoError(t, err)
	root2 := out[0].(*Element)
	// the splice's Text("one") merges with the surrounding "before-"/"-after"
	// text only on its own side, since flattenReplacements merges as it goes.
	assert.Equal(t, "<a>before-one<two />-after</a>", Serialize(root2))
}

func TestBuildTransformDoesNotDescendIntoReplacement(t *testing.T) {
	doc := NewDocument(nil, false)
	root := NewElement(doc, "", "a")
	inner := NewElement(doc, "", "should-not-visit")
	replaced := NewElement(doc, "", "replace-me")
	replaced.AppendChild(inner)
	root.AppendChild(replaced)

	var visited []string
	transform := BuildTransform(doc, func(el *Element, parent *Element) (TransformResult, error) {
		visited = append(visited, el.LocalName)
		if el.LocalName == "replace-me" {
			return ReplaceWith(Text("x")), nil
		}
		return Unchanged(), nil
	})

	_, err := transform(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "replace-me"}, visited)
}

func TestBuildTransformPropagatesCallbackError(t *testing.T) {
	doc := NewDocument(nil, false)
	root := NewElement(doc, "", "a")
	root.AppendChild(NewElement(doc, "", "b"))

	boom := &NamespaceError{Prefix: "boom"}
	transform := BuildTransform(doc, func(el *Element, parent *Element) (TransformResult, error) {
		if el.LocalName == "b" {
			return TransformResult{}, boom
		}
		return Unchanged(), nil
	})

	_, err := transform(root)
	require.ErrorIs(t, err, boom)
}
