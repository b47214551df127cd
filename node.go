package mpt

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// NodeType represents a trie node kind.
type NodeType byte

// Node kinds.
const (
	EmptyT NodeType = iota
	LeafT
	ExtensionT
	BranchT
)

// Node is implemented by all trie node kinds.
type Node interface {
	Type() NodeType
}

// childrenCount is the number of child slots in a branch node, one per
// nibble value.
const childrenCount = 16

// writeChild splices a committed child reference into an RLP list: short
// encodings are embedded raw, everything else is referenced by digest.
// Memory references must have been resolved by commit before a node can be
// encoded.
func writeChild(w rlp.EncoderBuffer, key Index, a *Arena) {
	if !key.IsHash() {
		panic("mpt: encoding an uncommitted child reference")
	}
	b := a.Get(key.Pos())
	if len(b) < digestLength {
		w.Write(b)
	} else {
		w.WriteBytes(b)
	}
}

// DecodeNode decodes a single node from its wire encoding, storing the key,
// value and child reference bytes in the arena. Child references come back
// as committed-tier indexes; the referenced nodes themselves are not
// decoded.
func DecodeNode(b []byte, a *Arena) (Node, error) {
	k, content, _, err := rlp.Split(b)
	if err != nil {
		return nil, fmt.Errorf("invalid node encoding: %w", err)
	}
	switch k {
	case rlp.String:
		if len(content) == 0 {
			return EmptyNode{}, nil
		}
	case rlp.List:
		cnt, err := rlp.CountValues(content)
		if err != nil {
			return nil, fmt.Errorf("invalid node encoding: %w", err)
		}
		switch cnt {
		case 2:
			return decodeShort(content, a)
		case 17:
			return decodeBranch(content, a)
		default:
			return nil, fmt.Errorf("invalid number of list elements: %d", cnt)
		}
	}
	return nil, fmt.Errorf("invalid node encoding (kind %v)", k)
}

// decodeShort decodes a two-item list into a leaf or an extension depending
// on the hex-prefix flag of the first item.
func decodeShort(elems []byte, a *Arena) (Node, error) {
	kbuf, rest, err := rlp.SplitString(elems)
	if err != nil {
		return nil, fmt.Errorf("invalid node key: %w", err)
	}
	if len(kbuf) == 0 {
		return nil, errors.New("node key is empty")
	}
	flag := kbuf[0]
	if flag&0xc0 != 0 {
		return nil, fmt.Errorf("invalid hex-prefix flag: %#x", flag)
	}
	path := Nibble{Data: a.Push(kbuf), Start: 2, End: 2 * len(kbuf)}
	if flag&oddFlag != 0 {
		path.Start = 1
	}
	if flag&leafFlag != 0 {
		val, _, err := rlp.SplitString(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid leaf value: %w", err)
		}
		return &LeafNode{Path: path, Value: a.Push(val)}, nil
	}
	if path.Length() == 0 {
		return nil, errors.New("extension with an empty path")
	}
	key, _, err := decodeRef(rest, a)
	if err != nil {
		return nil, fmt.Errorf("invalid extension child: %w", err)
	}
	if key.IsEmpty() {
		return nil, errors.New("extension without a child")
	}
	return &ExtensionNode{Path: path, Key: key}, nil
}

// decodeBranch decodes a 17-item list: sixteen child references and an
// optional value.
func decodeBranch(elems []byte, a *Arena) (Node, error) {
	b := newBranchNode()
	rest := elems
	var err error
	for i := 0; i < childrenCount; i++ {
		if b.Children[i], rest, err = decodeRef(rest, a); err != nil {
			return nil, fmt.Errorf("invalid child %d: %w", i, err)
		}
	}
	val, _, err := rlp.SplitString(rest)
	if err != nil {
		return nil, fmt.Errorf("invalid branch value: %w", err)
	}
	if len(val) > 0 {
		b.Value = a.Push(val)
	}
	return b, nil
}

// decodeRef decodes a child reference: an empty string (no child), a
// 32-byte digest, or a short node embedded raw.
func decodeRef(buf []byte, a *Arena) (Index, []byte, error) {
	k, content, rest, err := rlp.Split(buf)
	if err != nil {
		return Index{}, nil, err
	}
	switch {
	case k == rlp.List:
		// Embedded nodes are kept as raw encodings; commit stores
		// inlined children the same way.
		size := len(buf) - len(rest)
		if size >= digestLength {
			return Index{}, nil, fmt.Errorf("embedded node too large: %d bytes", size)
		}
		return hashIndex(a.Push(buf[:size])), rest, nil
	case k == rlp.String && len(content) == 0:
		return Index{}, rest, nil
	case k == rlp.String && len(content) == digestLength:
		return hashIndex(a.Push(content)), rest, nil
	default:
		return Index{}, nil, fmt.Errorf("invalid reference size: %d bytes", len(content))
	}
}
