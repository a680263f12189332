package store

import (
	"fmt"
	"os"

	"cosmossdk.io/store/cachekv"
	"cosmossdk.io/store/dbadapter"
	"cosmossdk.io/store/prefix"
	storetypes "cosmossdk.io/store/types"
	dbm "github.com/cosmos/cosmos-db"
)

const dbName = "lstvault"

// Root owns the committed key-value state.
type Root struct {
	db   dbm.DB
	base storetypes.KVStore
}

// NewMemory returns a Root backed by an in-memory database.
func NewMemory() *Root {
	db := dbm.NewMemDB()
	return &Root{db: db, base: &dbadapter.Store{DB: db}}
}

// Open returns a goleveldb backed Root under dataDir, or an in-memory one when dataDir is empty.
func Open(dataDir string) (*Root, error) {
	if dataDir == "" {
		return NewMemory(), nil
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dataDir, err)
	}
	db, err := dbm.NewDB(dbName, dbm.GoLevelDBBackend, dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dataDir, err)
	}
	return &Root{db: db, base: &dbadapter.Store{DB: db}}, nil
}

// KV exposes the committed state. Writes through it bypass branching and are meant for genesis only.
func (r *Root) KV() storetypes.KVStore { return r.base }

// Branch starts a write-isolated view over the committed state.
func (r *Root) Branch() *Branch {
	return &Branch{cache: cachekv.NewStore(r.base)}
}

func (r *Root) Close() error { return r.db.Close() }

// Branch buffers writes until Write is called. Dropping it discards them.
type Branch struct {
	cache *cachekv.Store
}

func (b *Branch) KV() storetypes.KVStore { return b.cache }

// Write flushes every buffered write to the parent in one step.
func (b *Branch) Write() { b.cache.Write() }

// Prefixed scopes kv to the namespace of one module or contract.
func Prefixed(kv storetypes.KVStore, namespace string) storetypes.KVStore {
	return prefix.NewStore(kv, Namespace(namespace))
}
