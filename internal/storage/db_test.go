package storage

import (
	"bytes"
	"errors"
	"testing"
)

// testDB runs the shared test suite against a DB implementation.
func testDB(t *testing.T, db DB) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		err := db.Put([]byte("key1"), []byte("value1"))
		if err != nil {
			t.Fatalf("Put() error: %v", err)
		}

		val, err := db.Get([]byte("key1"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("value1")) {
			t.Errorf("Get() = %q, want %q", val, "value1")
		}
	})

	t.Run("GetNonexistent", func(t *testing.T) {
		_, err := db.Get([]byte("nonexistent"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() for missing key = %v, want ErrNotFound", err)
		}
	})

	t.Run("Has", func(t *testing.T) {
		db.Put([]byte("exists"), []byte("yes"))

		ok, err := db.Has([]byte("exists"))
		if err != nil {
			t.Fatalf("Has() error: %v", err)
		}
		if !ok {
			t.Error("Has() = false for existing key")
		}

		ok, err = db.Has([]byte("missing"))
		if err != nil {
			t.Fatalf("Has() error: %v", err)
		}
		if ok {
			t.Error("Has() = true for missing key")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		db.Put([]byte("ow"), []byte("first"))
		db.Put([]byte("ow"), []byte("second"))

		val, err := db.Get([]byte("ow"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("second")) {
			t.Errorf("Get() after overwrite = %q, want %q", val, "second")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db.Put([]byte("del"), []byte("value"))

		err := db.Delete([]byte("del"))
		if err != nil {
			t.Fatalf("Delete() error: %v", err)
		}

		ok, _ := db.Has([]byte("del"))
		if ok {
			t.Error("key should be gone after Delete()")
		}

		_, err = db.Get([]byte("del"))
		if err == nil {
			t.Error("Get() after Delete() should return error")
		}
	})

	t.Run("DeleteNonexistent", func(t *testing.T) {
		// Deleting a nonexistent key should not error.
		err := db.Delete([]byte("never-existed"))
		if err != nil {
			t.Errorf("Delete() nonexistent key error: %v", err)
		}
	})

	t.Run("EmptyValue", func(t *testing.T) {
		err := db.Put([]byte("empty"), []byte{})
		if err != nil {
			t.Fatalf("Put() empty value error: %v", err)
		}

		val, err := db.Get([]byte("empty"))
		if err != nil {
			t.Fatalf("Get() empty value error: %v", err)
		}
		if len(val) != 0 {
			t.Errorf("expected empty value, got %d bytes", len(val))
		}
	})

	t.Run("BinaryData", func(t *testing.T) {
		key := []byte{0x00, 0x01, 0xFF}
		value := make([]byte, 256)
		for i := range value {
			value[i] = byte(i)
		}

		err := db.Put(key, value)
		if err != nil {
			t.Fatalf("Put() binary error: %v", err)
		}

		got, err := db.Get(key)
		if err != nil {
			t.Fatalf("Get() binary error: %v", err)
		}
		if !bytes.Equal(got, value) {
			t.Error("binary roundtrip failed")
		}
	})

	t.Run("ForEach", func(t *testing.T) {
		db.Put([]byte("keys/a"), []byte("1"))
		db.Put([]byte("keys/b"), []byte("2"))
		db.Put([]byte("keys/c"), []byte("3"))
		db.Put([]byte("mfa/x"), []byte("4"))

		seen := map[string]string{}
		err := db.ForEach([]byte("keys/"), func(key, value []byte) error {
			seen[string(key)] = string(value)
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach() error: %v", err)
		}
		if len(seen) != 3 {
			t.Errorf("ForEach(keys/) count = %d, want 3", len(seen))
		}
		if seen["keys/b"] != "2" {
			t.Errorf("ForEach value for keys/b = %q, want %q", seen["keys/b"], "2")
		}
	})

	t.Run("ForEachEmpty", func(t *testing.T) {
		var count int
		err := db.ForEach([]byte("nonexistent/"), func(key, value []byte) error {
			count++
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach() error: %v", err)
		}
		if count != 0 {
			t.Errorf("ForEach(nonexistent/) count = %d, want 0", count)
		}
	})

	t.Run("Batch", func(t *testing.T) {
		db.Put([]byte("batch/stale"), []byte("old"))

		b := NewBatch(db)
		b.Put([]byte("batch/addr"), []byte("handle"))
		b.Put([]byte("batch/secret"), []byte("JBSWY3DP"))
		b.Delete([]byte("batch/stale"))

		// Nothing is visible before Commit.
		if ok, _ := db.Has([]byte("batch/addr")); ok {
			t.Fatal("batch write visible before Commit()")
		}
		if err := b.Commit(); err != nil {
			t.Fatalf("Commit() error: %v", err)
		}

		for k, want := range map[string]string{"batch/addr": "handle", "batch/secret": "JBSWY3DP"} {
			got, err := db.Get([]byte(k))
			if err != nil {
				t.Fatalf("Get(%s) after Commit() error: %v", k, err)
			}
			if string(got) != want {
				t.Errorf("Get(%s) = %q, want %q", k, got, want)
			}
		}
		if ok, _ := db.Has([]byte("batch/stale")); ok {
			t.Error("batch delete not applied")
		}
	})
}

func TestMemoryDB(t *testing.T) {
	db := NewMemory()
	defer db.Close()
	testDB(t, db)
}

func TestBadgerDB(t *testing.T) {
	dir := t.TempDir()
	db, err := NewBadger(dir)
	if err != nil {
		t.Fatalf("NewBadger() error: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	if err != nil {
		t.Fatalf("NewLevelDB() error: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestPersistence(t *testing.T) {
	for _, engine := range []string{EngineBadger, EngineLevelDB} {
		t.Run(engine, func(t *testing.T) {
			dir := t.TempDir()

			db1, err := Open(engine, dir)
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			db1.Put([]byte("persist"), []byte("data"))
			db1.Close()

			db2, err := Open(engine, dir)
			if err != nil {
				t.Fatalf("Open() reopen error: %v", err)
			}
			defer db2.Close()

			val, err := db2.Get([]byte("persist"))
			if err != nil {
				t.Fatalf("Get() after reopen error: %v", err)
			}
			if !bytes.Equal(val, []byte("data")) {
				t.Errorf("persisted value = %q, want %q", val, "data")
			}
		})
	}
}

func TestOpen_UnknownEngine(t *testing.T) {
	if _, err := Open("rocksdb", t.TempDir()); err == nil {
		t.Fatal("Open() with unknown engine should fail")
	}
}

// plainDB hides the Batcher implementation of its inner DB.
type plainDB struct{ DB }

func TestNewBatch_Fallback(t *testing.T) {
	inner := NewMemory()
	db := plainDB{inner}
	if _, ok := NewBatch(db).(*fallbackBatch); !ok {
		t.Fatal("NewBatch() on a non-Batcher should return the fallback batch")
	}
	testDB(t, db)
}
