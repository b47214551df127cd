// Package mpt implements an in-memory Merkle-Patricia trie with arena-based
// node storage.
//
// Key and value bytes, node encodings and digests all live in a single
// append-only arena and are referenced by integer handles, so the trie
// itself is a small graph of handle-carrying nodes. Mutations stay in a
// dirty in-memory tier until Commit (or Root, which commits first) seals
// them into the committed tier under their keccak-256 digests, with
// sub-digest-size encodings embedded into their parents the way Ethereum's
// trie does it. Defragment rebuilds the arena dropping everything
// unreachable, which is how overwritten values and stale encodings get
// reclaimed.
package mpt

import (
	"bytes"
	"errors"

	"go.uber.org/zap"
)

// ErrNotFound is returned by Get when the key is not in the trie.
var ErrNotFound = errors.New("item not found")

// Config contains Trie creation parameters.
type Config struct {
	// Logger receives debug output of storage maintenance (promotion,
	// commit, defragmentation). When nil, logging is disabled.
	Logger *zap.Logger
}

// Trie is a Merkle-Patricia trie mapping arbitrary byte keys to byte
// values. It is not safe for concurrent use.
type Trie struct {
	arena *Arena
	store *store
	log   *zap.Logger
}

// New returns an empty Trie. Its root is the digest of the empty encoding
// until the first key is committed.
func New(cfg Config) *Trie {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	a := NewArena()
	return &Trie{
		arena: a,
		store: newStore(a, cfg.Logger),
		log:   cfg.Logger,
	}
}

// Get returns the value stored under key. It returns ErrNotFound when the
// key is absent; the returned slice is a copy.
func (t *Trie) Get(key []byte) ([]byte, error) {
	src := rawSource{key}
	path := Nibble{Data: 0, Start: 0, End: 2 * len(key)}
	idx := t.store.rootIndex()
	for {
		n, ok := t.store.get(idx)
		if !ok {
			return nil, ErrNotFound
		}
		switch n := n.(type) {
		case *BranchNode:
			u, rest, ok := path.popFront(src)
			if !ok {
				if n.Value != 0 {
					return bytes.Clone(t.arena.Get(n.Value)), nil
				}
				return nil, ErrNotFound
			}
			if n.Children[u].IsEmpty() {
				return nil, ErrNotFound
			}
			idx, path = n.Children[u], rest
		case *ExtensionNode:
			l := n.Path.Length()
			if path.Length() < l || commonPrefixLen(n.Path, path, t.arena, src) < l {
				return nil, ErrNotFound
			}
			idx, path = n.Key, path.tail(l)
		case *LeafNode:
			if n.Path.equal(path, t.arena, src) {
				return bytes.Clone(t.arena.Get(n.Value)), nil
			}
			return nil, ErrNotFound
		default:
			return nil, ErrNotFound
		}
	}
}

// Insert stores value under key, returning the previous value and whether
// there was one. Both key and value may be empty; inserting never fails.
func (t *Trie) Insert(key, value []byte) ([]byte, bool) {
	src := rawSource{key}
	path := Nibble{Data: 0, Start: 0, End: 2 * len(key)}
	return t.insert(path, t.arena.Push(value), src)
}

// insert walks the trie with write access, promoting every node on the way,
// and resolves the first divergence from the path. The value is already in
// the trie arena; path (and the key bytes it reads through src) is not and
// gets copied at the single point a node takes ownership of a fragment.
func (t *Trie) insert(path Nibble, value int, src source) ([]byte, bool) {
	key := &t.store.root
	for {
		n, _ := t.store.getWrite(key)
		switch n := n.(type) {
		case *BranchNode:
			u, rest, ok := path.popFront(src)
			if !ok {
				prev := n.Value
				n.Value = value
				if prev != 0 {
					return bytes.Clone(t.arena.Get(prev)), true
				}
				return nil, false
			}
			if !n.Children[u].IsEmpty() {
				key, path = &n.Children[u], rest
				continue
			}
			n.Children[u] = t.store.pushNode(&LeafNode{Path: rest.copyTo(src, t.arena), Value: value})
			return nil, false
		case *ExtensionNode:
			l := n.Path.Length()
			p := commonPrefixLen(n.Path, path, t.arena, src)
			if p == l {
				key, path = &n.Key, path.tail(l)
				continue
			}
			t.splitExtension(*key, n, p, path, value, src)
			return nil, false
		case *LeafNode:
			p := commonPrefixLen(n.Path, path, t.arena, src)
			if p == n.Path.Length() && p == path.Length() {
				prev := n.Value
				n.Value = value
				return bytes.Clone(t.arena.Get(prev)), true
			}
			t.splitLeaf(*key, n, p, path, value, src)
			return nil, false
		default:
			// Empty node or an unused slot: it takes a fresh leaf.
			t.store.insertNode(*key, &LeafNode{Path: path.copyTo(src, t.arena), Value: value})
			return nil, false
		}
	}
}

// splitLeaf replaces a leaf with a branch keyed at the first diverging
// nibble. Whichever of the two paths ends at the split point becomes the
// branch value; a non-zero common prefix is kept in an extension wrapping
// the branch.
func (t *Trie) splitLeaf(at Index, leaf *LeafNode, p int, path Nibble, value int, src source) {
	t.store.remove(at)
	branch := newBranchNode()
	if u, rest, ok := path.tail(p).popFront(src); ok {
		branch.Children[u] = t.store.pushNode(&LeafNode{Path: rest.copyTo(src, t.arena), Value: value})
	} else {
		branch.Value = value
	}
	if u, rest, ok := leaf.Path.tail(p).popFront(t.arena); ok {
		branch.Children[u] = t.store.pushNode(&LeafNode{Path: rest, Value: leaf.Value})
	} else {
		branch.Value = leaf.Value
	}
	t.insertSplit(at, branch, leaf.Path, p)
}

// splitExtension splits an extension at offset p the same way, reattaching
// the old child below the branch. The surviving tail never becomes a
// zero-length extension: the child reference is used directly instead.
func (t *Trie) splitExtension(at Index, ext *ExtensionNode, p int, path Nibble, value int, src source) {
	t.store.remove(at)
	branch := newBranchNode()
	if u, rest, ok := path.tail(p).popFront(src); ok {
		branch.Children[u] = t.store.pushNode(&LeafNode{Path: rest.copyTo(src, t.arena), Value: value})
	} else {
		branch.Value = value
	}
	u, rest, ok := ext.Path.tail(p).popFront(t.arena)
	if !ok {
		panic("mpt: splitting an extension it fully matches")
	}
	if rest.Length() == 0 {
		branch.Children[u] = ext.Key
	} else {
		branch.Children[u] = t.store.pushNode(&ExtensionNode{Path: rest, Key: ext.Key})
	}
	t.insertSplit(at, branch, ext.Path, p)
}

// insertSplit writes the branch produced by a split back at the index of
// the node it replaces, behind an extension holding the common prefix when
// there is one.
func (t *Trie) insertSplit(at Index, branch *BranchNode, old Nibble, p int) {
	if p == 0 {
		t.store.insertNode(at, branch)
		return
	}
	prefix, _, _ := old.splitAt(p)
	idx := t.store.pushNode(branch)
	t.store.insertNode(at, &ExtensionNode{Path: prefix, Key: idx})
}

// Root commits any dirty state and returns a copy of the 32-byte root
// digest.
func (t *Trie) Root() []byte {
	t.Commit()
	b, ok := t.store.rootDigest(t.arena)
	if !ok {
		return nil
	}
	return bytes.Clone(b)
}

// Commit seals all nodes touched since the previous commit into the
// committed tier, assigning the trie a new root digest. It is a no-op when
// nothing is dirty.
func (t *Trie) Commit() {
	t.store.commit(t.arena)
}

// Defragment commits and then rebuilds the arena, dropping overwritten
// values and stale encodings accumulated since the trie was created.
func (t *Trie) Defragment() {
	t.Commit()
	t.store.defragment(t.arena)
}

// Close commits any dirty state so the root digest is well-defined. It
// implements io.Closer and never fails.
func (t *Trie) Close() error {
	t.Commit()
	return nil
}

// Iterator returns a depth-first iterator over the whole trie.
func (t *Trie) Iterator() *Iterator {
	return &Iterator{t: t}
}
