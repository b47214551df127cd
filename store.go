package mpt

import (
	"strconv"

	"go.uber.org/zap"
)

// Index is a tagged reference to a stored node. Committed nodes are
// addressed by the arena handle of their digest (or of their raw encoding
// when it is short enough to be embedded); dirty nodes by their position in
// the memory tier. The zero Index references nothing, since arena handle 0
// is reserved.
type Index struct {
	pos    int
	memory bool
}

func hashIndex(pos int) Index {
	return Index{pos: pos}
}

func memoryIndex(pos int) Index {
	return Index{pos: pos, memory: true}
}

// IsHash reports whether i references the committed tier.
func (i Index) IsHash() bool {
	return !i.memory
}

// IsMemory reports whether i references the dirty tier.
func (i Index) IsMemory() bool {
	return i.memory
}

// IsEmpty reports whether i references nothing at all.
func (i Index) IsEmpty() bool {
	return i == Index{}
}

// Pos returns the arena handle or memory position i refers to.
func (i Index) Pos() int {
	return i.pos
}

// String implements fmt.Stringer interface.
func (i Index) String() string {
	if i.memory {
		return "memory:" + strconv.Itoa(i.pos)
	}
	return "hash:" + strconv.Itoa(i.pos)
}

// store keeps trie nodes in two tiers: a committed map keyed by the arena
// handle of each node's digest or embedded encoding, and a dirty slice for
// nodes created or unsealed since the last commit. Nodes move from the map
// to the slice on first write access and back in bulk on commit.
type store struct {
	hash   map[int]Node
	memory []Node
	empty  int // arena handle of the empty-trie digest
	root   Index
	log    *zap.Logger
}

func newStore(a *Arena, log *zap.Logger) *store {
	empty := a.Push(emptyRootDigest)
	return &store{
		hash:  map[int]Node{empty: EmptyNode{}},
		empty: empty,
		root:  hashIndex(empty),
		log:   log,
	}
}

func (s *store) rootIndex() Index {
	return s.root
}

// rootDigest returns the root bytes, or false while the root is dirty.
func (s *store) rootDigest(a *Arena) ([]byte, bool) {
	if s.root.memory {
		return nil, false
	}
	return a.Get(s.root.pos), true
}

func (s *store) get(key Index) (Node, bool) {
	if key.memory {
		if key.pos >= len(s.memory) {
			return nil, false
		}
		return s.memory[key.pos], true
	}
	n, ok := s.hash[key.pos]
	return n, ok
}

// getWrite returns the node referenced by *key for mutation. Committed
// nodes are promoted to the memory tier and *key is rewritten through the
// pointer, so the parent slot (or the root) keeps referencing the node it
// is about to see change.
func (s *store) getWrite(key *Index) (Node, bool) {
	if key.memory {
		if key.pos >= len(s.memory) {
			return nil, false
		}
		return s.memory[key.pos], true
	}
	n, ok := s.hash[key.pos]
	if !ok {
		return nil, false
	}
	delete(s.hash, key.pos)
	idx := memoryIndex(len(s.memory))
	s.memory = append(s.memory, n)
	s.log.Debug("node promoted", zap.Stringer("from", *key), zap.Stringer("to", idx))
	if *key == s.root {
		s.root = idx
	}
	*key = idx
	return n, true
}

// insertNode stores n at an existing index, replacing what was there.
func (s *store) insertNode(key Index, n Node) {
	if key.memory {
		s.memory[key.pos] = n
		return
	}
	s.hash[key.pos] = n
}

// pushNode appends n to the memory tier and returns its index.
func (s *store) pushNode(n Node) Index {
	s.memory = append(s.memory, n)
	return memoryIndex(len(s.memory) - 1)
}

// remove takes the node out of the store, leaving an EmptyNode in its
// place.
func (s *store) remove(key Index) (Node, bool) {
	n, ok := s.get(key)
	if ok {
		s.insertNode(key, EmptyNode{})
	}
	return n, ok
}

// commit seals every node reachable from the root into the committed tier
// and drops the memory tier. Committing a store with no dirty root is a
// no-op.
func (s *store) commit(a *Arena) {
	if !s.root.memory {
		return
	}
	dirty := len(s.memory)
	root := s.root
	s.commitNode(&root, a, true)
	s.root = root
	s.memory = s.memory[:0]
	s.log.Debug("trie committed", zap.Int("dirty", dirty), zap.Stringer("root", s.root))
}

// commitNode seals the subtree below *idx post-order and rewrites *idx with
// the committed reference. The root is always referenced by digest; other
// nodes whose encoding is shorter than a digest stay embedded as raw bytes.
func (s *store) commitNode(idx *Index, a *Arena, root bool) {
	if !idx.memory {
		return
	}
	n, ok := s.get(*idx)
	if !ok {
		panic("mpt: dangling memory reference in commit")
	}
	var enc int
	switch n := n.(type) {
	case *LeafNode:
		enc = n.encode(a)
	case *ExtensionNode:
		s.commitNode(&n.Key, a, false)
		enc = n.encode(a)
	case *BranchNode:
		for i := range n.Children {
			if !n.Children[i].IsEmpty() {
				s.commitNode(&n.Children[i], a, false)
			}
		}
		enc = n.encode(a)
	case EmptyNode:
		*idx = hashIndex(s.empty)
		s.hash[s.empty] = n
		return
	default:
		panic("mpt: invalid node type")
	}
	b := a.Get(enc)
	if root || len(b) >= digestLength {
		enc = a.Push(digest(b))
	}
	s.hash[enc] = n
	*idx = hashIndex(enc)
}

// defragment drops every arena item not reachable from the committed tier
// and rewrites all stored handles accordingly. The memory tier is expected
// to be empty, so callers commit first.
func (s *store) defragment(a *Arena) {
	before := a.Len()
	used := make([]int, 0, 2*len(s.hash)+2)
	used = append(used, s.empty)
	for h, n := range s.hash {
		used = append(used, h)
		switch n := n.(type) {
		case *LeafNode:
			used = append(used, n.Path.Data, n.Value)
		case *ExtensionNode:
			used = append(used, n.Path.Data)
			if !n.Key.IsEmpty() && n.Key.IsHash() {
				used = append(used, n.Key.pos)
			}
		case *BranchNode:
			for _, c := range n.Children {
				if !c.IsEmpty() && c.IsHash() {
					used = append(used, c.pos)
				}
			}
			if n.Value != 0 {
				used = append(used, n.Value)
			}
		}
	}
	remap := a.Defragment(used)
	hash := make(map[int]Node, len(s.hash))
	for h, n := range s.hash {
		switch n := n.(type) {
		case *LeafNode:
			n.Path.Data = remap[n.Path.Data]
			n.Value = remap[n.Value]
		case *ExtensionNode:
			n.Path.Data = remap[n.Path.Data]
			if !n.Key.IsEmpty() && n.Key.IsHash() {
				n.Key = hashIndex(remap[n.Key.pos])
			}
		case *BranchNode:
			for i, c := range n.Children {
				if !c.IsEmpty() && c.IsHash() {
					n.Children[i] = hashIndex(remap[c.pos])
				}
			}
			if n.Value != 0 {
				n.Value = remap[n.Value]
			}
		}
		hash[remap[h]] = n
	}
	s.hash = hash
	s.empty = remap[s.empty]
	if !s.root.memory {
		s.root = hashIndex(remap[s.root.pos])
	}
	s.log.Debug("arena defragmented", zap.Int("before", before), zap.Int("after", a.Len()))
}
