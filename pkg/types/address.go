// Package types defines the primitive value types shared by the custody packages.
package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// AddressSize is the length of an address in bytes.
const AddressSize = 20

// AddressPrefix is prepended to the hex form of every address.
const AddressPrefix = "0x"

// Address represents a 160-bit address (low 20 bytes of the public key hash).
type Address [AddressSize]byte

// IsZero returns true if the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the checksummed hex form of the address.
func (a Address) String() string {
	return a.Hex()
}

// Hex returns the address as "0x" followed by 40 checksum-cased hex digits.
//
// Letter case carries a checksum: the lowercase hex string is hashed with
// keccak-256 and the i-th digit is uppercased iff the i-th nibble of that
// hash is >= 8.
func (a Address) Hex() string {
	return AddressPrefix + string(a.checksumHex())
}

func (a Address) checksumHex() []byte {
	buf := make([]byte, AddressSize*2)
	hex.Encode(buf, a[:])

	h := sha3.NewLegacyKeccak256()
	h.Write(buf)
	digest := h.Sum(nil)

	for i := range buf {
		if buf[i] < 'a' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			buf[i] -= 'a' - 'A'
		}
	}
	return buf
}

// Lower returns the unchecksummed lowercase form, "0x" prefixed.
func (a Address) Lower() string {
	return AddressPrefix + hex.EncodeToString(a[:])
}

// Bytes returns a copy of the address as a byte slice.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// MarshalJSON encodes the address as its checksummed hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Hex())
}

// UnmarshalJSON decodes a hex string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a hex address with or without the "0x" prefix.
//
// All-lowercase and all-uppercase input is accepted as is. Mixed-case input
// must carry a valid checksum; flipping the case of any letter is an error.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}
	body := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if !isHex40(body) {
		return Address{}, fmt.Errorf("address must be %d hex characters", AddressSize*2)
	}

	a, err := HexToAddress(body)
	if err != nil {
		return Address{}, err
	}

	if body != strings.ToLower(body) && body != strings.ToUpper(body) {
		if string(a.checksumHex()) != body {
			return Address{}, fmt.Errorf("invalid address checksum")
		}
	}
	return a, nil
}

// IsChecksumAddress reports whether s is exactly the checksummed
// ("0x" + EIP-55 cased) form of some address.
func IsChecksumAddress(s string) bool {
	if !strings.HasPrefix(s, AddressPrefix) {
		return false
	}
	a, err := HexToAddress(s[len(AddressPrefix):])
	if err != nil {
		return false
	}
	return a.Hex() == s
}

// HexToAddress converts a raw hex string to an Address.
// Returns an error if the string is not exactly 40 hex characters.
// For user-facing input that may have a prefix, use ParseAddress instead.
func HexToAddress(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// isHex40 returns true if s is exactly 40 hex characters.
func isHex40(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
