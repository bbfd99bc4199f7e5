// Package custody holds signing keys behind an opaque handle. Callers can
// ask for a public key or a signature but never receive private key
// material, except through the Cold custodian's explicit Export.
package custody

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-custody/internal/wallet"
	"github.com/Klingon-tech/klingnet-custody/pkg/crypto"
)

// Custody errors.
var (
	ErrKeyNotFound       = errors.New("key not found")
	ErrExportUnsupported = errors.New("custodian does not support key export")
	ErrDuplicateID       = fmt.Errorf("%w: identifier already in use", wallet.ErrInvalidParameter)
)

// Modes accepted by New.
const (
	ModeSimulated = "simulated"
	ModeCold      = "cold"
)

// HandlePrefix starts every KeyHandle string.
const HandlePrefix = "kh_"

// KeyHandle is an opaque reference to a key held by a custodian.
type KeyHandle string

// String implements fmt.Stringer.
func (h KeyHandle) String() string { return string(h) }

// newHandle derives the handle for a key from its identifier and public key.
func newHandle(identifier string, pub []byte) KeyHandle {
	buf := make([]byte, 0, len(identifier)+len(pub))
	buf = append(buf, identifier...)
	buf = append(buf, pub...)
	sum := crypto.Hash(buf)
	return KeyHandle(HandlePrefix + hex.EncodeToString(sum[:16]))
}

// KeyCustodian generates and holds signing keys.
type KeyCustodian interface {
	// GenerateKey creates a fresh secp256k1 key labelled by identifier.
	GenerateKey(identifier string) (KeyHandle, error)
	// PublicKey returns the 65-byte uncompressed public key.
	PublicKey(h KeyHandle) ([]byte, error)
	// Sign returns a DER ECDSA signature over SHA-256(message).
	Sign(h KeyHandle, message []byte) ([]byte, error)
	// Revoke destroys the key. Later calls with h fail with ErrKeyNotFound.
	Revoke(h KeyHandle) error
}

// SeedDeriver is implemented by custodians that can derive a BIP-44 key
// from a seed inside their own boundary.
type SeedDeriver interface {
	DeriveKey(identifier string, seed []byte, account, index uint32) (KeyHandle, error)
}

// Exporter is implemented by custodians that allow offline backup.
type Exporter interface {
	// Export returns the key as unencrypted PKCS#8 PEM.
	Export(h KeyHandle) ([]byte, error)
	// Import loads a PKCS#8 PEM key under identifier.
	Import(identifier string, pemData []byte) (KeyHandle, error)
}

// New returns the custodian for mode.
func New(mode string, opts Options) (KeyCustodian, error) {
	switch mode {
	case ModeSimulated, "":
		return NewSimulated(opts)
	case ModeCold:
		return NewCold(opts)
	default:
		return nil, fmt.Errorf("%w: unknown custody mode %q", wallet.ErrInvalidParameter, mode)
	}
}
