package mpt

import (
	"bytes"

	"go.uber.org/zap"
)

// frame is one level of the iterator's descent: the node, the last branch
// slot followed out of it (-1 before the first), and the length of the
// nibble path accumulated before entering it.
type frame struct {
	node  Node
	slot  int
	depth int
}

// Iterator walks the trie depth-first, yielding key-value pairs in
// lexicographic key order. Branch values are yielded before the branch's
// children, matching their position on the path. The trie must not be
// modified while iterating.
type Iterator struct {
	t       *Trie
	stack   []frame
	path    []byte // unpacked, one nibble per element
	key     []byte
	value   []byte
	started bool
	done    bool
}

// Next advances the iterator to the next pair. It returns false when the
// trie is exhausted, and also when a referenced node cannot be resolved, in
// which case the remaining pairs are silently skipped.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}
	idx := it.t.store.rootIndex()
	if it.started {
		var ok bool
		if idx, ok = it.backtrack(); !ok {
			return false
		}
	}
	it.started = true
	return it.descend(idx)
}

// Key returns the key of the current pair. It is valid after a successful
// Next and owned by the caller.
func (it *Iterator) Key() []byte {
	return it.key
}

// Value returns the value of the current pair.
func (it *Iterator) Value() []byte {
	return it.value
}

// descend follows idx downwards until a pair is produced. Branch and
// extension nodes are pushed on the stack, leaves are yielded in place and
// never revisited.
func (it *Iterator) descend(idx Index) bool {
	for {
		n, ok := it.t.store.get(idx)
		if !ok {
			it.t.log.Warn("iteration stopped at a missing node", zap.Stringer("index", idx))
			it.done = true
			return false
		}
		switch n := n.(type) {
		case *LeafNode:
			nibbles := append([]byte{}, it.path...)
			nibbles = appendNibbles(nibbles, n.Path, it.t.arena)
			it.key = packNibbles(nibbles)
			it.value = bytes.Clone(it.t.arena.Get(n.Value))
			return true
		case *ExtensionNode:
			it.stack = append(it.stack, frame{node: n, depth: len(it.path)})
			it.path = appendNibbles(it.path, n.Path, it.t.arena)
			idx = n.Key
		case *BranchNode:
			it.stack = append(it.stack, frame{node: n, slot: -1, depth: len(it.path)})
			if n.Value != 0 {
				it.key = packNibbles(it.path)
				it.value = bytes.Clone(it.t.arena.Get(n.Value))
				return true
			}
			var ok bool
			if idx, ok = it.backtrack(); !ok {
				return false
			}
		case EmptyNode:
			it.done = true
			return false
		default:
			panic("mpt: invalid node type")
		}
	}
}

// backtrack pops the stack until a branch with an unvisited child is found
// and returns that child, truncating the nibble path as frames go.
func (it *Iterator) backtrack() (Index, bool) {
	for len(it.stack) > 0 {
		f := &it.stack[len(it.stack)-1]
		if b, ok := f.node.(*BranchNode); ok {
			for i := f.slot + 1; i < childrenCount; i++ {
				if b.Children[i].IsEmpty() {
					continue
				}
				f.slot = i
				it.path = append(it.path[:f.depth], byte(i))
				return b.Children[i], true
			}
		}
		it.path = it.path[:f.depth]
		it.stack = it.stack[:len(it.stack)-1]
	}
	it.done = true
	return Index{}, false
}
