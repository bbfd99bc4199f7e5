package custody

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	klog "github.com/Klingon-tech/klingnet-custody/internal/log"
	"github.com/Klingon-tech/klingnet-custody/internal/storage"
	"github.com/Klingon-tech/klingnet-custody/internal/wallet"
	"github.com/Klingon-tech/klingnet-custody/pkg/crypto"
)

// Options configures a custodian.
type Options struct {
	// DB persists sealed keys. Nil keeps keys in memory only.
	DB storage.DB
	// Vault seals keys before they reach DB. Required when DB is set.
	Vault *wallet.Vault
}

// keyRecord is the persisted form of a key. Key is sealed by the vault
// with the handle as associated data.
type keyRecord struct {
	Identifier string    `json:"identifier"`
	Sealed     []byte    `json:"sealed"`
	Created    time.Time `json:"created"`
}

type keyEntry struct {
	identifier string
	priv       *crypto.PrivateKey
	pub        []byte
}

// keyring is the shared core of both custodians.
type keyring struct {
	mu   sync.RWMutex
	keys map[KeyHandle]*keyEntry
	ids  map[string]KeyHandle

	db     storage.DB
	vault  *wallet.Vault
	logger zerolog.Logger
}

func newKeyring(opts Options, mode string) (*keyring, error) {
	if opts.DB != nil && opts.Vault == nil {
		return nil, fmt.Errorf("%w: persistent custody requires a vault", wallet.ErrInvalidParameter)
	}
	kr := &keyring{
		keys:   make(map[KeyHandle]*keyEntry),
		ids:    make(map[string]KeyHandle),
		db:     opts.DB,
		vault:  opts.Vault,
		logger: klog.Custody.With().Str("mode", mode).Logger(),
	}
	if err := kr.load(); err != nil {
		return nil, err
	}
	return kr, nil
}

// load unseals every persisted key.
func (kr *keyring) load() error {
	if kr.db == nil {
		return nil
	}
	return kr.db.ForEach(nil, func(key, value []byte) error {
		h := KeyHandle(key)
		var rec keyRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return fmt.Errorf("decode key record %s: %w", h, err)
		}
		raw, err := kr.vault.Open(string(h), rec.Sealed)
		if err != nil {
			return fmt.Errorf("unseal key %s: %w", h, err)
		}
		priv, err := crypto.PrivateKeyFromBytes(raw)
		zeroBytes(raw)
		if err != nil {
			return fmt.Errorf("load key %s: %w", h, err)
		}
		kr.keys[h] = &keyEntry{identifier: rec.Identifier, priv: priv, pub: priv.PublicKey()}
		kr.ids[rec.Identifier] = h
		return nil
	})
}

// add stores priv under identifier and returns its handle. On failure the
// key is zeroed.
func (kr *keyring) add(identifier string, priv *crypto.PrivateKey) (KeyHandle, error) {
	if identifier == "" {
		priv.Zero()
		return "", fmt.Errorf("%w: empty identifier", wallet.ErrInvalidParameter)
	}

	kr.mu.Lock()
	defer kr.mu.Unlock()

	if _, ok := kr.ids[identifier]; ok {
		priv.Zero()
		return "", ErrDuplicateID
	}
	pub := priv.PublicKey()
	h := newHandle(identifier, pub)

	if kr.db != nil {
		raw := priv.Serialize()
		sealed, err := kr.vault.Seal(string(h), raw)
		zeroBytes(raw)
		if err != nil {
			priv.Zero()
			return "", fmt.Errorf("seal key: %w", err)
		}
		data, err := json.Marshal(keyRecord{Identifier: identifier, Sealed: sealed, Created: time.Now().UTC()})
		if err != nil {
			priv.Zero()
			return "", fmt.Errorf("encode key record: %w", err)
		}
		if err := kr.db.Put([]byte(h), data); err != nil {
			priv.Zero()
			return "", fmt.Errorf("persist key: %w", err)
		}
	}

	kr.keys[h] = &keyEntry{identifier: identifier, priv: priv, pub: pub}
	kr.ids[identifier] = h
	kr.logger.Debug().Str("handle", string(h)).Str("identifier", identifier).Msg("Key stored")
	return h, nil
}

func (kr *keyring) get(h KeyHandle) (*keyEntry, error) {
	kr.mu.RLock()
	defer kr.mu.RUnlock()
	e, ok := kr.keys[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, h)
	}
	return e, nil
}

func (kr *keyring) GenerateKey(identifier string) (KeyHandle, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}
	return kr.add(identifier, priv)
}

func (kr *keyring) PublicKey(h KeyHandle) ([]byte, error) {
	e, err := kr.get(h)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), e.pub...), nil
}

func (kr *keyring) Sign(h KeyHandle, message []byte) ([]byte, error) {
	kr.mu.RLock()
	defer kr.mu.RUnlock()
	e, ok := kr.keys[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, h)
	}
	// The read lock is held so Revoke cannot zero the key mid-signature.
	return e.priv.SignMessage(message)
}

func (kr *keyring) Revoke(h KeyHandle) error {
	kr.mu.Lock()
	defer kr.mu.Unlock()
	e, ok := kr.keys[h]
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, h)
	}
	if kr.db != nil {
		if err := kr.db.Delete([]byte(h)); err != nil {
			return fmt.Errorf("delete key: %w", err)
		}
	}
	e.priv.Zero()
	delete(kr.keys, h)
	delete(kr.ids, e.identifier)
	kr.logger.Info().Str("handle", string(h)).Msg("Key revoked")
	return nil
}

// DeriveKey derives m/44'/60'/account'/0/index from seed and stores it.
func (kr *keyring) DeriveKey(identifier string, seed []byte, account, index uint32) (KeyHandle, error) {
	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		return "", err
	}
	node, err := master.DeriveAccount(account, index)
	if err != nil {
		return "", err
	}
	priv, err := node.Signer()
	if err != nil {
		return "", err
	}
	return kr.add(identifier, priv)
}

// Handles lists held handles in sorted order.
func (kr *keyring) Handles() []KeyHandle {
	kr.mu.RLock()
	defer kr.mu.RUnlock()
	out := make([]KeyHandle, 0, len(kr.keys))
	for h := range kr.keys {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
