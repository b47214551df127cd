package mpt

// Hex-prefix flag bits, Appendix C of the yellow paper: leaf nodes carry
// 0x20, paths of odd length pack their first nibble into the flag byte
// together with 0x10.
const (
	oddFlag  = 0x10
	leafFlag = 0x20
)

// Nibble is a non-owning view of a half-byte sequence stored in an arena.
// Start and End are measured in nibbles, so a view can begin or end in the
// middle of a byte. Nibbles are cheap values: descending the trie narrows
// views without touching the underlying bytes.
type Nibble struct {
	Data  int // arena handle of the backing bytes
	Start int
	End   int
}

// NewNibble pushes b into the arena and returns a view covering all of it.
func NewNibble(b []byte, a *Arena) Nibble {
	return Nibble{Data: a.Push(b), Start: 0, End: 2 * len(b)}
}

// Length returns the number of nibbles in the view.
func (n Nibble) Length() int {
	return n.End - n.Start
}

// at returns the i-th nibble of the view.
func (n Nibble) at(i int, src source) byte {
	b := src.Get(n.Data)[(n.Start+i)/2]
	if (n.Start+i)%2 == 0 {
		return b >> 4
	}
	return b & 0x0f
}

// popFront splits off the first nibble, returning it together with the
// advanced view. The third result is false when the view is empty.
func (n Nibble) popFront(src source) (byte, Nibble, bool) {
	if n.Start >= n.End {
		return 0, n, false
	}
	return n.at(0, src), Nibble{Data: n.Data, Start: n.Start + 1, End: n.End}, true
}

// splitAt splits the view after i nibbles. There is no right part when i
// reaches or exceeds the length; descending past a fully consumed prefix
// uses tail instead.
func (n Nibble) splitAt(i int) (Nibble, Nibble, bool) {
	if i >= n.Length() {
		return n, Nibble{}, false
	}
	return Nibble{Data: n.Data, Start: n.Start, End: n.Start + i},
		Nibble{Data: n.Data, Start: n.Start + i, End: n.End}, true
}

// tail returns the view advanced by i nibbles, which may be empty.
func (n Nibble) tail(i int) Nibble {
	if i > n.Length() {
		panic("mpt: nibble tail out of range")
	}
	return Nibble{Data: n.Data, Start: n.Start + i, End: n.End}
}

// equal reports whether two views hold the same nibble sequence. The views
// may live in different sources.
func (n Nibble) equal(m Nibble, nsrc, msrc source) bool {
	if n.Length() != m.Length() {
		return false
	}
	return commonPrefixLen(n, m, nsrc, msrc) == n.Length()
}

// commonPrefixLen returns the length of the longest common prefix of a and b.
func commonPrefixLen(a, b Nibble, asrc, bsrc source) int {
	l := a.Length()
	if m := b.Length(); m < l {
		l = m
	}
	for i := 0; i < l; i++ {
		if a.at(i, asrc) != b.at(i, bsrc) {
			return i
		}
	}
	return l
}

// copyTo materializes the view in dst and returns a view of the copy. The
// copy is byte-granular, so a view starting mid-byte keeps its parity. This
// is the only nibble operation that allocates arena space.
func (n Nibble) copyTo(src source, dst *Arena) Nibble {
	b := src.Get(n.Data)[n.Start/2 : (n.End+1)/2]
	start := n.Start % 2
	return Nibble{Data: dst.Push(b), Start: start, End: start + n.Length()}
}

// encoded returns the hex-prefix encoding of the view: a flag byte
// (possibly sharing the first nibble when the length is odd) followed by the
// remaining nibbles packed two per byte.
func (n Nibble) encoded(isLeaf bool, src source) []byte {
	l := n.Length()
	buf := make([]byte, 0, l/2+1)
	var first byte
	if isLeaf {
		first = leafFlag
	}
	i := 0
	if l%2 == 1 {
		first |= oddFlag | n.at(0, src)
		i = 1
	}
	buf = append(buf, first)
	for ; i < l; i += 2 {
		buf = append(buf, n.at(i, src)<<4|n.at(i+1, src))
	}
	return buf
}

// appendNibbles appends the nibbles of n to dst, one per byte.
func appendNibbles(dst []byte, n Nibble, src source) []byte {
	for i := 0; i < n.Length(); i++ {
		dst = append(dst, n.at(i, src))
	}
	return dst
}

// packNibbles packs an unpacked nibble sequence back into key bytes.
func packNibbles(nibbles []byte) []byte {
	if len(nibbles)%2 != 0 {
		panic("mpt: odd nibble count in key")
	}
	key := make([]byte, len(nibbles)/2)
	for i := range key {
		key[i] = nibbles[2*i]<<4 | nibbles[2*i+1]
	}
	return key
}
