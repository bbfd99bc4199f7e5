// Package repo stores wallet records: address, balance and creation time.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	klog "github.com/Klingon-tech/klingnet-custody/internal/log"
	"github.com/Klingon-tech/klingnet-custody/internal/storage"
	"github.com/Klingon-tech/klingnet-custody/pkg/types"
)

var (
	ErrWalletNotFound = errors.New("wallet not found")
	ErrRepository     = errors.New("wallet repository failure")
)

// Wallet is a stored wallet record.
type Wallet struct {
	Address   types.Address
	Balance   *uint256.Int // wei
	CreatedAt time.Time
}

// Repository persists wallet records.
type Repository interface {
	// Put inserts a record. An existing record for addr is left unchanged.
	Put(ctx context.Context, addr types.Address, balance *uint256.Int) error
	Get(ctx context.Context, addr types.Address) (*Wallet, error)
	Delete(ctx context.Context, addr types.Address) error
	List(ctx context.Context) ([]*Wallet, error)
}

type record struct {
	Address   types.Address `json:"address"`
	Balance   string        `json:"balance"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store implements Repository over a storage.DB.
type Store struct {
	db     storage.DB
	logger zerolog.Logger
}

// NewStore creates a repository backed by db.
func NewStore(db storage.DB) *Store {
	return &Store{db: db, logger: klog.Repo}
}

func walletKey(addr types.Address) []byte {
	return addr[:]
}

// Put inserts a record for addr if none exists.
func (s *Store) Put(ctx context.Context, addr types.Address, balance *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ok, err := s.db.Has(walletKey(addr))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if ok {
		return nil
	}
	if balance == nil {
		balance = new(uint256.Int)
	}
	data, err := json.Marshal(record{Address: addr, Balance: balance.Dec(), CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrRepository, err)
	}
	if err := s.db.Put(walletKey(addr), data); err != nil {
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
	s.logger.Debug().Str("address", addr.Hex()).Msg("Wallet recorded")
	return nil
}

// Get returns the record for addr.
func (s *Store) Get(ctx context.Context, addr types.Address) (*Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.db.Get(walletKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrWalletNotFound, addr.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return decode(data)
}

// Delete removes the record for addr.
func (s *Store) Delete(ctx context.Context, addr types.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Delete(walletKey(addr)); err != nil {
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return nil
}

// List returns all records, oldest first.
func (s *Store) List(ctx context.Context) ([]*Wallet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []*Wallet
	err := s.db.ForEach(nil, func(_, value []byte) error {
		w, err := decode(value)
		if err != nil {
			return err
		}
		out = append(out, w)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Address.Hex() < out[j].Address.Hex()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func decode(data []byte) (*Wallet, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrRepository, err)
	}
	bal, err := uint256.FromDecimal(r.Balance)
	if err != nil {
		return nil, fmt.Errorf("%w: balance %q: %w", ErrRepository, r.Balance, err)
	}
	return &Wallet{Address: r.Address, Balance: bal, CreatedAt: r.CreatedAt}, nil
}
