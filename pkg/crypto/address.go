package crypto

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-custody/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// PubKeyUncompressedSize is the length of an uncompressed public key
// (one prefix byte plus 64 bytes of X||Y).
const PubKeyUncompressedSize = 65

// AddressFromPubKey derives an address from a secp256k1 public key.
// Address = keccak256(X||Y)[12:], i.e. the low 20 bytes of the hash of the
// uncompressed point with its 0x04 prefix stripped. Compressed keys are
// decompressed first so both encodings of one key give one address.
func AddressFromPubKey(pubKey []byte) (types.Address, error) {
	key, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return types.Address{}, fmt.Errorf("parse public key: %w", err)
	}
	raw := key.SerializeUncompressed()
	digest := Keccak256(raw[1:])

	var addr types.Address
	copy(addr[:], digest[len(digest)-types.AddressSize:])
	return addr, nil
}
