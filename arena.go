package mpt

import "sort"

// Arena is an append-only byte pool. Every stored slice is addressed by a
// stable integer handle; handle 0 is reserved and never valid, so a zero
// handle can be used as an "absent" marker by the callers.
type Arena struct {
	data []byte
	pos  []int
}

// source provides byte strings by handle. Arena is the canonical
// implementation; rawSource adapts caller-provided slices so that keys and
// values can be walked without copying them into the trie first.
type source interface {
	Get(i int) []byte
}

// rawSource is a scratch source over raw slices, addressed 0-based.
type rawSource [][]byte

func (s rawSource) Get(i int) []byte { return s[i] }

// NewArena returns an empty arena.
func NewArena() *Arena {
	return NewArenaCapacity(0, 0)
}

// NewArenaCapacity returns an empty arena preallocated for dataCap content
// bytes and itemCap stored items.
func NewArenaCapacity(dataCap, itemCap int) *Arena {
	a := &Arena{
		data: make([]byte, 0, dataCap),
		pos:  make([]int, 1, itemCap+1),
	}
	return a
}

// Push appends a copy of b to the arena and returns its handle.
func (a *Arena) Push(b []byte) int {
	a.data = append(a.data, b...)
	a.pos = append(a.pos, len(a.data))
	return len(a.pos) - 1
}

// Get returns the bytes stored at handle h. The reserved handle 0 and
// handles that were never issued panic.
func (a *Arena) Get(h int) []byte {
	return a.data[a.pos[h-1]:a.pos[h]]
}

// Insert overwrites the bytes stored at handle h in place. The replacement
// must have exactly the length of the stored slice.
func (a *Arena) Insert(h int, b []byte) {
	s := a.data[a.pos[h-1]:a.pos[h]]
	if len(b) != len(s) {
		panic("mpt: arena insert length mismatch")
	}
	copy(s, b)
}

// Len returns the number of stored items.
func (a *Arena) Len() int {
	return len(a.pos) - 1
}

// Defragment rebuilds the arena keeping only the used handles and returns a
// remap table indexed by old handle. Handles not listed in used map to 0.
func (a *Arena) Defragment(used []int) []int {
	sort.Ints(used)
	remap := make([]int, len(a.pos))
	next := NewArenaCapacity(len(a.data), len(used))
	prev := 0
	for _, h := range used {
		if h == prev {
			continue
		}
		prev = h
		remap[h] = next.Push(a.Get(h))
	}
	a.data = next.data
	a.pos = next.pos
	return remap
}
