package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Sealed blob layout:
//
//	version(1) | salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
const (
	SaltSize     = 32
	sealVersion  = 1
	headerSize   = 1 + SaltSize + 4 + 4 + 1
	minSealedLen = headerSize + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
)

// ErrDecrypt is returned when a sealed blob cannot be opened, which is
// usually a wrong vault password or a record moved under another key.
var ErrDecrypt = errors.New("vault decrypt failed")

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // in KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns recommended Argon2id parameters.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
	}
}

// MaxKDFMemory bounds the Argon2 memory cost accepted from a sealed blob,
// in KiB (4 GiB).
const MaxKDFMemory = 4 * 1024 * 1024

// Validate rejects parameters argon2 cannot run with or that would
// allocate without bound.
func (p EncryptionParams) Validate() error {
	switch {
	case p.Parallelism == 0:
		return fmt.Errorf("%w: argon2 parallelism is zero", ErrInvalidParameter)
	case p.Iterations == 0:
		return fmt.Errorf("%w: argon2 iterations is zero", ErrInvalidParameter)
	case p.Memory < 8*uint32(p.Parallelism):
		return fmt.Errorf("%w: argon2 memory %d KiB below 8*parallelism", ErrInvalidParameter, p.Memory)
	case p.Memory > MaxKDFMemory:
		return fmt.Errorf("%w: argon2 memory %d KiB above %d", ErrInvalidParameter, p.Memory, MaxKDFMemory)
	}
	return nil
}

func deriveKey(password, salt []byte, p EncryptionParams) []byte {
	return argon2.IDKey(password, salt, p.Iterations, p.Memory, p.Parallelism, chacha20poly1305.KeySize)
}

// Encrypt seals data under password with Argon2id + XChaCha20-Poly1305.
// aad is authenticated but not stored; Decrypt must be given the same value.
func Encrypt(data, password, aad []byte, params EncryptionParams) ([]byte, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(password, salt, params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, headerSize+len(nonce)+len(data)+aead.Overhead())
	out = append(out, sealVersion)
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Iterations)
	out = append(out, params.Parallelism)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, data, aad), nil
}

// Decrypt opens a blob produced by Encrypt.
func Decrypt(sealed, password, aad []byte) ([]byte, error) {
	if len(sealed) < minSealedLen {
		return nil, fmt.Errorf("sealed data too short: %d bytes, need at least %d", len(sealed), minSealedLen)
	}
	if sealed[0] != sealVersion {
		return nil, fmt.Errorf("unsupported seal version %d", sealed[0])
	}

	off := 1
	salt := sealed[off : off+SaltSize]
	off += SaltSize
	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(sealed[off:]),
		Iterations:  binary.LittleEndian.Uint32(sealed[off+4:]),
		Parallelism: sealed[off+8],
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecrypt, err)
	}
	nonce := sealed[headerSize : headerSize+chacha20poly1305.NonceSizeX]
	ciphertext := sealed[headerSize+chacha20poly1305.NonceSizeX:]

	key := deriveKey(password, salt, params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

// Vault seals records under one password and parameter set.
type Vault struct {
	password []byte
	params   EncryptionParams
}

// NewVault returns a Vault. The password is copied.
func NewVault(password []byte, params EncryptionParams) *Vault {
	return &Vault{password: append([]byte(nil), password...), params: params}
}

// Seal encrypts data bound to label.
func (v *Vault) Seal(label string, data []byte) ([]byte, error) {
	return Encrypt(data, v.password, []byte(label), v.params)
}

// Open decrypts data sealed with the same label.
func (v *Vault) Open(label string, sealed []byte) ([]byte, error) {
	return Decrypt(sealed, v.password, []byte(label))
}
