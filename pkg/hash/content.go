package hash

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Content returns the hex BLAKE2b-256 digest of parts. Each part is length
// prefixed, so moving bytes between adjacent parts changes the digest.
func Content(parts ...[]byte) string {
	h, _ := blake2b.New256(nil)

	var length [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(length[:], uint64(len(part)))
		h.Write(length[:])
		h.Write(part)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Equal compares two hex digests produced by Content.
func Equal(a, b string) bool {
	return a != "" && a == b
}
