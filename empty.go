package mpt

// EmptyNode marks an absent subtree. A fresh trie is a single EmptyNode
// rooted at the empty digest; restructuring leaves EmptyNode in vacated
// storage slots.
type EmptyNode struct{}

var _ Node = EmptyNode{}

// Type implements Node interface.
func (EmptyNode) Type() NodeType {
	return EmptyT
}
