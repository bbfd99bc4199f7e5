package storage

import (
	"fmt"
	"os"

	klog "github.com/Klingon-tech/klingnet-custody/internal/log"
)

// Engine names accepted by Open.
const (
	EngineMemory  = "memory"
	EngineBadger  = "badger"
	EngineLevelDB = "leveldb"
)

// Open returns a DB for the named engine. Disk engines create path if needed.
func Open(engine, path string) (DB, error) {
	switch engine {
	case EngineMemory, "":
		return NewMemory(), nil
	case EngineBadger, EngineLevelDB:
		if err := os.MkdirAll(path, 0700); err != nil {
			return nil, fmt.Errorf("create vault dir: %w", err)
		}
		klog.Storage.Debug().Str("engine", engine).Str("path", path).Msg("Opening vault database")
		if engine == EngineBadger {
			return NewBadger(path)
		}
		return NewLevelDB(path)
	default:
		return nil, fmt.Errorf("unknown storage engine %q", engine)
	}
}
