package mpt

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestIndexString(t *testing.T) {
	require.Equal(t, "hash:5", hashIndex(5).String())
	require.Equal(t, "memory:3", memoryIndex(3).String())
	require.True(t, Index{}.IsEmpty())
	require.False(t, memoryIndex(0).IsEmpty())
	require.False(t, hashIndex(1).IsEmpty())
}

func TestStoreFresh(t *testing.T) {
	a := NewArena()
	s := newStore(a, zaptest.NewLogger(t))

	require.True(t, s.rootIndex().IsHash())
	d, ok := s.rootDigest(a)
	require.True(t, ok)
	require.Equal(t, emptyRootDigest, d)

	n, ok := s.get(s.rootIndex())
	require.True(t, ok)
	require.Equal(t, EmptyT, n.Type())
}

func TestStoreGetMissing(t *testing.T) {
	a := NewArena()
	s := newStore(a, zaptest.NewLogger(t))

	_, ok := s.get(hashIndex(42))
	require.False(t, ok)
	_, ok = s.get(memoryIndex(0))
	require.False(t, ok)
}

func TestStorePromotion(t *testing.T) {
	a := NewArena()
	s := newStore(a, zaptest.NewLogger(t))

	leaf := &LeafNode{Path: NewNibble([]byte{0x01}, a), Value: a.Push([]byte("v"))}
	h := a.Push([]byte("fake digest"))
	s.hash[h] = leaf

	idx := hashIndex(h)
	n, ok := s.getWrite(&idx)
	require.True(t, ok)
	require.Same(t, leaf, n)
	require.Equal(t, memoryIndex(0), idx)
	require.Len(t, s.memory, 1)
	_, ok = s.hash[h]
	require.False(t, ok, "promoted node must leave the committed tier")

	// Already-dirty nodes are returned in place.
	n, ok = s.getWrite(&idx)
	require.True(t, ok)
	require.Same(t, leaf, n)
	require.Equal(t, memoryIndex(0), idx)
	require.Len(t, s.memory, 1)
}

func TestStorePromotionMovesRoot(t *testing.T) {
	a := NewArena()
	s := newStore(a, zaptest.NewLogger(t))

	idx := s.rootIndex()
	_, ok := s.getWrite(&idx)
	require.True(t, ok)
	require.Equal(t, memoryIndex(0), idx)
	require.Equal(t, idx, s.rootIndex(), "root must follow its node into the dirty tier")

	_, ok = s.rootDigest(a)
	require.False(t, ok, "dirty root has no digest")
}

func TestStorePushRemove(t *testing.T) {
	a := NewArena()
	s := newStore(a, zaptest.NewLogger(t))

	leaf := &LeafNode{Path: NewNibble([]byte{0x01}, a), Value: a.Push([]byte("v"))}
	idx := s.pushNode(leaf)
	require.Equal(t, memoryIndex(0), idx)
	require.Equal(t, memoryIndex(1), s.pushNode(newBranchNode()))

	n, ok := s.remove(idx)
	require.True(t, ok)
	require.Same(t, leaf, n)

	// The slot stays occupied by an empty node, indexes of later nodes
	// are unaffected.
	n, ok = s.get(idx)
	require.True(t, ok)
	require.Equal(t, EmptyT, n.Type())
	n, ok = s.get(memoryIndex(1))
	require.True(t, ok)
	require.Equal(t, BranchT, n.Type())
}

func TestStoreCommitCleanRoot(t *testing.T) {
	a := NewArena()
	s := newStore(a, zaptest.NewLogger(t))

	s.memory = append(s.memory, &LeafNode{}) // unreachable garbage
	s.commit(a)
	require.Len(t, s.memory, 1, "commit of a clean root must not touch the dirty tier")
}

func TestStoreCommitEmptyRoot(t *testing.T) {
	a := NewArena()
	s := newStore(a, zaptest.NewLogger(t))

	// Promote the empty root and commit it back.
	idx := s.rootIndex()
	_, ok := s.getWrite(&idx)
	require.True(t, ok)
	s.commit(a)

	require.Equal(t, hashIndex(s.empty), s.rootIndex())
	require.Empty(t, s.memory)
	d, ok := s.rootDigest(a)
	require.True(t, ok)
	require.Equal(t, emptyRootDigest, d)
}

func TestStoreCommitDangling(t *testing.T) {
	a := NewArena()
	s := newStore(a, zaptest.NewLogger(t))

	b := newBranchNode()
	b.Children[3] = memoryIndex(7) // no such node
	s.root = s.pushNode(b)
	require.Panics(t, func() { s.commit(a) })
}
