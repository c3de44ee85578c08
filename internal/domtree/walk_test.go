package domtree

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(doc *Document) (root, a, b, aa *Element) {
	root = NewElement(doc, "", "root")
	a = NewElement(doc, "", "a")
	b = NewElement(doc, "", "b")
	aa = NewElement(doc, "", "aa")
	root.AppendChild(a)
	root.AppendChild(b)
	a.AppendChild(aa)
	return
}

func TestWalkVisitsPreAndPostOrder(t *testing.T) {
	doc := NewDocument(nil, false)
	root, a, b, aa := buildTree(doc)

	var pre, post []string
	err := Walk(root,
		func(el *Element) error { pre = append(pre, el.LocalName); return nil },
		func(el *Element) error { post = append(post, el.LocalName); return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "a", "aa", "b"}, pre)
	assert.Equal(t, []string{"aa", "a", "b", "root"}, post)
	_ = b
}

func TestWalkStopHaltsEntireTraversal(t *testing.T) {
	doc := NewDocument(nil, false)
	root, _, _, _ := buildTree(doc)

	var visited []string
	err := Walk(root, func(el *Element) error {
		visited = append(visited, el.LocalName)
		if el.LocalName == "a" {
			return Stop
		}
		return nil
	}, nil)
	require.ErrorIs(t, err, Stop)
	assert.Equal(t, []string{"root", "a"}, visited)
}

func TestWalkStopRecursionSkipsSubtreeOnly(t *testing.T) {
	doc := NewDocument(nil, false)
	root, _, _, _ := buildTree(doc)

	var visited []string
	err := Walk(root, func(el *Element) error {
		visited = append(visited, el.LocalName)
		if el.LocalName == "a" {
			return StopRecursion
		}
		return nil
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"root", "a", "b"}, visited)
}

func TestWalkPropagatesCallbackError(t *testing.T) {
	doc := NewDocument(nil, false)
	root, _, _, _ := buildTree(doc)
	boom := errors.New("boom")

	err := Walk(root, func(el *Element) error {
		if el.LocalName == "a" {
			return boom
		}
		return nil
	}, nil)
	assert.ErrorIs(t, err, boom)
}

func TestWalkDetectsCycle(t *testing.T) {
	doc := NewDocument(nil, false)
	root := NewElement(doc, "", "root")
	child := NewElement(doc, "", "child")
	root.Children = append(root.Children, child)
	child.Children = append(child.Children, root) // manual cycle, not via AppendChild

	err := Walk(root, nil, nil)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, "root", cycleErr.At.LocalName)
}
