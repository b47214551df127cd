package mpt

import (
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

// digestLength is the size of a keccak-256 digest. Node encodings shorter
// than this are embedded into their parent instead of being referenced by
// digest.
const digestLength = 32

// digest returns the keccak-256 hash of b.
func digest(b []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(b)
	return h.Sum(nil)
}

// emptyRootDigest is the keccak-256 hash of the RLP empty string, the root
// digest of an empty trie.
var emptyRootDigest = digest(rlp.EmptyString)
