package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/Klingon-tech/klingnet-custody/internal/storage"
	"github.com/Klingon-tech/klingnet-custody/pkg/types"
)

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewPrefixDB(storage.NewMemory(), []byte("wallets/")))

	if err := s.Put(ctx, addr(1), nil); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	w, err := s.Get(ctx, addr(1))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if w.Address != addr(1) || !w.Balance.IsZero() || w.CreatedAt.IsZero() {
		t.Errorf("Get() = %+v", w)
	}
}

func TestStore_PutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory())

	big, _ := uint256.FromDecimal("1000000000000000000000")
	if err := s.Put(ctx, addr(2), big); err != nil {
		t.Fatal(err)
	}
	first, _ := s.Get(ctx, addr(2))

	if err := s.Put(ctx, addr(2), uint256.NewInt(5)); err != nil {
		t.Fatalf("second Put() error: %v", err)
	}
	second, _ := s.Get(ctx, addr(2))
	if second.Balance.Cmp(big) != 0 || !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("second Put() changed the record: %+v", second)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore(storage.NewMemory())
	if _, err := s.Get(context.Background(), addr(9)); !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("Get() err = %v, want ErrWalletNotFound", err)
	}
}

func TestStore_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	s := NewStore(storage.NewMemory())
	for i := byte(1); i <= 3; i++ {
		s.Put(ctx, addr(i), uint256.NewInt(uint64(i)))
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() len = %d, want 3", len(list))
	}

	if err := s.Delete(ctx, addr(2)); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	list, _ = s.List(ctx)
	if len(list) != 2 {
		t.Fatalf("List() after Delete len = %d, want 2", len(list))
	}
	for _, w := range list {
		if w.Address == addr(2) {
			t.Error("deleted wallet still listed")
		}
	}
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStore(storage.NewMemory())
	if err := s.Put(ctx, addr(1), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Put() err = %v, want context.Canceled", err)
	}
	if _, err := s.List(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("List() err = %v, want context.Canceled", err)
	}
}

func TestStore_CorruptRecord(t *testing.T) {
	db := storage.NewMemory()
	s := NewStore(db)
	a := addr(7)
	db.Put(a[:], []byte("{not json"))
	if _, err := s.Get(context.Background(), a); !errors.Is(err, ErrRepository) {
		t.Errorf("Get() err = %v, want ErrRepository", err)
	}
}

// failingDB returns err from every operation.
type failingDB struct {
	storage.DB
	err error
}

func (f failingDB) Get([]byte) ([]byte, error) { return nil, f.err }
func (f failingDB) Put([]byte, []byte) error { return f.err }
func (f failingDB) Delete([]byte) error { return f.err }
func (f failingDB) Has([]byte) (bool, error) { return false, f.err }
func (f failingDB) ForEach([]byte, func(k, v []byte) error) error { return f.err }

func TestStore_BackendErrorKeepsCause(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("backend down")
	s := NewStore(failingDB{DB: storage.NewMemory(), err: cause})

	check := func(op string, err error) {
		t.Helper()
		if !errors.Is(err, ErrRepository) || !errors.Is(err, cause) {
			t.Errorf("%s err = %v, want ErrRepository wrapping the backend error", op, err)
		}
	}
	check("Put", s.Put(ctx, addr(1), nil))
	_, err := s.Get(ctx, addr(1))
	check("Get", err)
	check("Delete", s.Delete(ctx, addr(1)))
	_, err = s.List(ctx)
	check("List", err)
}
