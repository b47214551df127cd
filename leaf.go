package mpt

import "github.com/ethereum/go-ethereum/rlp"

// LeafNode is a terminal node holding the unconsumed tail of a key and the
// handle of its value.
type LeafNode struct {
	Path  Nibble
	Value int
}

var _ Node = (*LeafNode)(nil)

// Type implements Node interface.
func (n *LeafNode) Type() NodeType {
	return LeafT
}

// encode appends the node's RLP encoding to the arena and returns its
// handle.
func (n *LeafNode) encode(a *Arena) int {
	w := rlp.NewEncoderBuffer(nil)
	l := w.List()
	w.WriteBytes(n.Path.encoded(true, a))
	w.WriteBytes(a.Get(n.Value))
	w.ListEnd(l)
	return a.Push(w.ToBytes())
}
