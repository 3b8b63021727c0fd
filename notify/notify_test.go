package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type leaf struct {
	Node
	value int
}

func (l *leaf) set(v int) {
	l.value = v
	l.MarkDirty()
}

type container struct {
	Node
	children []*leaf
}

func (c *container) add(l *leaf) {
	l.SetOwner(c)
	c.children = append(c.children, l)
	c.MarkDirty()
}

func TestNode_Propagation(t *testing.T) {
	root := &Flag{}
	parent := &container{}
	parent.SetOwner(root)
	require.Same(t, root, parent.Owner())

	child := &leaf{}
	parent.add(child)
	require.True(t, root.Dirty())

	root.Clear()
	require.False(t, root.Dirty())

	child.set(3)
	require.True(t, root.Dirty())
}

func TestNode_Detached(t *testing.T) {
	l := &leaf{}
	require.Nil(t, l.Owner())
	require.NotPanics(t, func() { l.set(1) })

	root := &Flag{}
	l.SetOwner(root)
	l.SetOwner(nil)
	l.set(2)
	require.False(t, root.Dirty())
}

func TestFlag_OnChange(t *testing.T) {
	root := &Flag{}
	calls := 0
	root.OnChange(func() { calls++ })
	root.OnChange(nil)

	root.MarkDirty()
	root.MarkDirty()
	require.Equal(t, 2, calls)

	root.Clear()
	require.Equal(t, 2, calls)
}
