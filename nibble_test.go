package mpt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNibbleNew(t *testing.T) {
	a := NewArena()
	n := NewNibble([]byte{0x12, 0x34}, a)
	require.Equal(t, 4, n.Length())

	var got []byte
	for u, rest, ok := n.popFront(a); ; u, rest, ok = rest.popFront(a) {
		if !ok {
			break
		}
		got = append(got, u)
	}
	require.Equal(t, []byte{1, 2, 3, 4}, got)
}

func TestNibblePopFrontEmpty(t *testing.T) {
	a := NewArena()
	n := NewNibble(nil, a)
	require.Equal(t, 0, n.Length())
	_, _, ok := n.popFront(a)
	require.False(t, ok)
}

func TestNibbleSplitAt(t *testing.T) {
	a := NewArena()
	n := NewNibble([]byte{0x12, 0x34}, a)

	left, right, ok := n.splitAt(2)
	require.True(t, ok)
	require.Equal(t, 2, left.Length())
	require.Equal(t, byte(1), left.at(0, a))
	require.Equal(t, byte(2), left.at(1, a))
	require.Equal(t, byte(3), right.at(0, a))
	require.Equal(t, byte(4), right.at(1, a))

	left, _, ok = n.splitAt(4)
	require.False(t, ok)
	require.Equal(t, n, left)

	_, _, ok = n.splitAt(7)
	require.False(t, ok)
}

func TestNibbleTail(t *testing.T) {
	a := NewArena()
	n := NewNibble([]byte{0x12, 0x34}, a)
	require.Equal(t, 3, n.tail(1).Length())
	require.Equal(t, byte(2), n.tail(1).at(0, a))
	require.Equal(t, 0, n.tail(4).Length())
	require.Panics(t, func() { n.tail(5) })
}

func TestNibbleEqualAcrossArenas(t *testing.T) {
	a := NewArena()
	b := NewArena()

	n := NewNibble([]byte{0x12, 0x34}, a)
	m := NewNibble([]byte{0x12, 0x34}, b)
	require.True(t, n.equal(m, a, b))
	require.False(t, n.equal(m.tail(1), a, b))
	require.False(t, n.equal(NewNibble([]byte{0x12, 0x35}, b), a, b))

	// The same sequence viewed with different byte alignments.
	odd := n.tail(1)                                           // 2,3,4 starting mid-byte
	even, _, ok := NewNibble([]byte{0x23, 0x40}, b).splitAt(3) // 2,3,4 aligned
	require.True(t, ok)
	require.True(t, odd.equal(even, a, b))
}

func TestNibbleCommonPrefix(t *testing.T) {
	a := NewArena()
	n := NewNibble([]byte{0x12, 0x34}, a)
	m := NewNibble([]byte{0x12, 0x54}, a)
	require.Equal(t, 2, commonPrefixLen(n, m, a, a))
	require.Equal(t, 4, commonPrefixLen(n, n, a, a))
	require.Equal(t, 0, commonPrefixLen(n, m.tail(2), a, a))

	short := NewNibble([]byte{0x12}, a)
	require.Equal(t, 2, commonPrefixLen(n, short, a, a))
}

func TestNibbleCopyKeepsParity(t *testing.T) {
	a := NewArena()
	dst := NewArena()

	n := NewNibble([]byte{0x12, 0x34}, a).tail(1) // 2, 3, 4
	c := n.copyTo(a, dst)
	require.Equal(t, 1, c.Start%2)
	require.Equal(t, 3, c.Length())
	require.True(t, n.equal(c, a, dst))
}

func TestNibbleEncoded(t *testing.T) {
	a := NewArena()
	full := NewNibble([]byte{0x12, 0x34, 0x56}, a)
	odd := full.tail(1)   // 2,3,4,5,6
	short := full.tail(3) // 4,5,6

	testCases := []struct {
		name   string
		nibble Nibble
		leaf   bool
		want   []byte
	}{
		{"even extension", full, false, []byte{0x00, 0x12, 0x34, 0x56}},
		{"even leaf", full, true, []byte{0x20, 0x12, 0x34, 0x56}},
		{"odd extension", odd, false, []byte{0x12, 0x34, 0x56}},
		{"odd leaf", odd, true, []byte{0x32, 0x34, 0x56}},
		{"short odd leaf", short, true, []byte{0x34, 0x56}},
		{"empty extension", full.tail(6), false, []byte{0x00}},
		{"empty leaf", full.tail(6), true, []byte{0x20}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tc.nibble.encoded(tc.leaf, a))
		})
	}
}

func TestPackNibbles(t *testing.T) {
	require.Equal(t, []byte{0x12, 0x34}, packNibbles([]byte{1, 2, 3, 4}))
	require.Empty(t, packNibbles(nil))
	require.Panics(t, func() { packNibbles([]byte{1, 2, 3}) })
}
