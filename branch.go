package mpt

import "github.com/ethereum/go-ethereum/rlp"

// BranchNode routes descent by one nibble. Children holds one reference per
// nibble value (the zero Index marks an empty slot); Value is the handle of
// the value stored for the key ending at this node, 0 when there is none.
type BranchNode struct {
	Children [childrenCount]Index
	Value    int
}

var _ Node = (*BranchNode)(nil)

func newBranchNode() *BranchNode {
	return new(BranchNode)
}

// Type implements Node interface.
func (n *BranchNode) Type() NodeType {
	return BranchT
}

// encode appends the node's RLP encoding to the arena and returns its
// handle.
func (n *BranchNode) encode(a *Arena) int {
	w := rlp.NewEncoderBuffer(nil)
	l := w.List()
	for i := range n.Children {
		if n.Children[i].IsEmpty() {
			w.Write(rlp.EmptyString)
			continue
		}
		writeChild(w, n.Children[i], a)
	}
	if n.Value != 0 {
		w.WriteBytes(a.Get(n.Value))
	} else {
		w.Write(rlp.EmptyString)
	}
	w.ListEnd(l)
	return a.Push(w.ToBytes())
}
