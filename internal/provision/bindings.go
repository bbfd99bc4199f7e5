package provision

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Klingon-tech/klingnet-custody/internal/custody"
	"github.com/Klingon-tech/klingnet-custody/internal/storage"
	"github.com/Klingon-tech/klingnet-custody/internal/wallet"
	"github.com/Klingon-tech/klingnet-custody/pkg/types"
)

// Binding ties an address to its key and MFA secret.
type Binding struct {
	Handle custody.KeyHandle
	Secret string
}

// Key layout inside the bindings namespace.
var (
	handlePrefix = []byte("h/")
	secretPrefix = []byte("s/")
)

func handleKey(addr types.Address) []byte { return append(append([]byte(nil), handlePrefix...), addr[:]...) }
func secretKey(addr types.Address) []byte { return append(append([]byte(nil), secretPrefix...), addr[:]...) }

// Bindings is the address -> (handle, secret) table. Both halves of a
// binding are written and removed together under one lock and one storage
// batch.
type Bindings struct {
	mu sync.RWMutex
	m  map[types.Address]Binding

	db    storage.DB
	vault *wallet.Vault
}

// OpenBindings loads the table from db. A nil db keeps it in memory.
// Secrets are sealed by vault before they are stored.
func OpenBindings(db storage.DB, vault *wallet.Vault) (*Bindings, error) {
	if db != nil && vault == nil {
		return nil, fmt.Errorf("%w: persistent bindings require a vault", ErrInvalidParameter)
	}
	b := &Bindings{m: make(map[types.Address]Binding), db: db, vault: vault}
	if db == nil {
		return b, nil
	}

	err := db.ForEach(handlePrefix, func(key, value []byte) error {
		var addr types.Address
		if len(key) != len(handlePrefix)+types.AddressSize {
			return fmt.Errorf("malformed binding key %x", key)
		}
		copy(addr[:], key[len(handlePrefix):])

		sealed, err := db.Get(secretKey(addr))
		if err != nil {
			return fmt.Errorf("binding %s has no secret: %w", addr.Hex(), err)
		}
		secret, err := vault.Open(addr.Hex(), sealed)
		if err != nil {
			return fmt.Errorf("unseal secret for %s: %w", addr.Hex(), err)
		}
		b.m[addr] = Binding{Handle: custody.KeyHandle(value), Secret: string(secret)}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load bindings: %w", err)
	}
	return b, nil
}

// Bind records a new binding. It fails with ErrAddressExists if addr is
// already bound; existing bindings are never overwritten.
func (b *Bindings) Bind(addr types.Address, bind Binding) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.m[addr]; ok {
		return fmt.Errorf("%w: %s", ErrAddressExists, addr.Hex())
	}
	if b.db != nil {
		sealed, err := b.vault.Seal(addr.Hex(), []byte(bind.Secret))
		if err != nil {
			return fmt.Errorf("seal mfa secret: %w", err)
		}
		batch := storage.NewBatch(b.db)
		batch.Put(handleKey(addr), []byte(bind.Handle))
		batch.Put(secretKey(addr), sealed)
		if err := batch.Commit(); err != nil {
			return fmt.Errorf("persist binding: %w", err)
		}
	}
	b.m[addr] = bind
	return nil
}

// Lookup returns the binding for addr.
func (b *Bindings) Lookup(addr types.Address) (Binding, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bind, ok := b.m[addr]
	return bind, ok
}

// MFASecret implements mfa.SecretSource.
func (b *Bindings) MFASecret(addr types.Address) (string, bool) {
	bind, ok := b.Lookup(addr)
	return bind.Secret, ok
}

// Unbind removes and returns the binding for addr.
func (b *Bindings) Unbind(addr types.Address) (Binding, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bind, ok := b.m[addr]
	if !ok {
		return Binding{}, fmt.Errorf("%w: %s", ErrUnknownAddress, addr.Hex())
	}
	if b.db != nil {
		batch := storage.NewBatch(b.db)
		batch.Delete(handleKey(addr))
		batch.Delete(secretKey(addr))
		if err := batch.Commit(); err != nil {
			return Binding{}, fmt.Errorf("delete binding: %w", err)
		}
	}
	delete(b.m, addr)
	return bind, nil
}

// Addresses returns every bound address in hex order.
func (b *Bindings) Addresses() []types.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]types.Address, 0, len(b.m))
	for a := range b.m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lower() < out[j].Lower() })
	return out
}

// Len returns the number of bindings.
func (b *Bindings) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.m)
}
