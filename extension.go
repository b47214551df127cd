package mpt

import "github.com/ethereum/go-ethereum/rlp"

// ExtensionNode holds a key fragment shared by every key below it and a
// reference to the node the fragment leads to. Its path is never empty:
// splits that would produce one collapse the extension into its child
// reference instead.
type ExtensionNode struct {
	Path Nibble
	Key  Index
}

var _ Node = (*ExtensionNode)(nil)

// Type implements Node interface.
func (n *ExtensionNode) Type() NodeType {
	return ExtensionT
}

// encode appends the node's RLP encoding to the arena and returns its
// handle.
func (n *ExtensionNode) encode(a *Arena) int {
	w := rlp.NewEncoderBuffer(nil)
	l := w.List()
	w.WriteBytes(n.Path.encoded(false, a))
	writeChild(w, n.Key, a)
	w.ListEnd(l)
	return a.Push(w.ToBytes())
}
