// Package wallet implements mnemonic, seed and HD key functionality used by
// the custodians, plus the vault encryption for persisted key material.
package wallet

import (
	"errors"
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
)

// DefaultStrength is the entropy size for 24-word mnemonics.
const DefaultStrength = 256

// validStrength reports whether bits is an allowed BIP-39 entropy size.
func validStrength(bits int) bool {
	switch bits {
	case 128, 160, 192, 224, 256:
		return true
	}
	return false
}

// WordCount returns the mnemonic length for a given entropy strength.
func WordCount(strength int) int {
	return (strength + strength/32) / 11
}

// GenerateMnemonic creates a new BIP-39 mnemonic from strength bits of
// fresh entropy. The caller owns the result; it is never stored.
func GenerateMnemonic(strength int) (string, error) {
	if !validStrength(strength) {
		return "", fmt.Errorf("%w: strength %d not in {128,160,192,224,256}", ErrInvalidParameter, strength)
	}
	entropy, err := bip39.NewEntropy(strength)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	defer zero(entropy)
	return NewMnemonicFromEntropy(entropy)
}

// NewMnemonicFromEntropy encodes entropy as a mnemonic. The top len/4 bits
// of SHA-256(entropy) are appended as checksum before splitting into 11-bit
// word indexes.
func NewMnemonicFromEntropy(entropy []byte) (string, error) {
	if !validStrength(len(entropy) * 8) {
		return "", fmt.Errorf("%w: entropy length %d bytes", ErrInvalidParameter, len(entropy))
	}
	m, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("encode mnemonic: %w", err)
	}
	return m, nil
}

// MnemonicToEntropy decodes a mnemonic back to its entropy, verifying the
// checksum.
func MnemonicToEntropy(mnemonic string) ([]byte, error) {
	entropy, err := bip39.EntropyFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	return entropy, nil
}

// ValidateMnemonic checks if a mnemonic is valid per BIP-39
// (correct word count, valid words, valid checksum).
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
