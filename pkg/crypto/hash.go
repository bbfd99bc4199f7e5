// Package crypto provides the cryptographic primitives used by the custody
// packages: secp256k1 ECDSA keys, keccak-256 and BLAKE3 hashing, address
// derivation and PEM key interchange.
package crypto

import (
	"crypto/sha256"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Hash computes a BLAKE3-256 hash of the input data.
// Used for internal identifiers, never for anything that leaves the process
// as a chain-visible value.
func Hash(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// SHA256 computes the SHA-256 digest signed by the custodians.
func SHA256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// Keccak256 computes the legacy (pre-NIST) keccak-256 hash of the
// concatenated inputs.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}
