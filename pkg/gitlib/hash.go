// Package gitlib provides read-only git repository access using libgit2.
// It is the only package that talks to git; everything above it works on
// plain Go values and can be tested without a repository.
package gitlib

import (
	"encoding/hex"

	git2go "github.com/libgit2/git2go/v34"
)

// HashSize is the size of a SHA-1 hash in bytes.
const HashSize = 20

// Hash represents a git object hash (SHA-1).
type Hash [HashSize]byte

// ZeroHash returns the zero value hash.
func ZeroHash() Hash {
	return Hash{}
}

// NewHash creates a Hash from a hex string. Malformed input yields the
// zero hash; callers that care must check IsZero.
func NewHash(hexStr string) Hash {
	var hash Hash

	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return Hash{}
	}

	copy(hash[:], decoded)

	return hash
}

// HashFromOid converts a libgit2 Oid to Hash.
func HashFromOid(oid *git2go.Oid) Hash {
	var h Hash

	if oid != nil {
		copy(h[:], oid[:])
	}

	return h
}

// String returns the hex representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero returns true if the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ToOid converts Hash back to libgit2 Oid.
func (h Hash) ToOid() *git2go.Oid {
	oid := new(git2go.Oid)
	copy(oid[:], h[:])

	return oid
}
