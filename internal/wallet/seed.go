package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// SeedSize is the length of a derived seed in bytes (512 bits).
const SeedSize = 64

// DeriveSeed stretches a mnemonic and passphrase into a 64-byte seed with
// PBKDF2-HMAC-SHA512 (2048 rounds, salt "mnemonic"+passphrase). It does not
// validate the mnemonic and has no side effects.
func DeriveSeed(mnemonic, passphrase string) []byte {
	return bip39.NewSeed(mnemonic, passphrase)
}

// SeedFromMnemonic is DeriveSeed for user-supplied phrases: the mnemonic
// must pass checksum validation first.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}
