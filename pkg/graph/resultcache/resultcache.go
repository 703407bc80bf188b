// Package resultcache persists Visualize results to a BadgerDB-backed
// cache keyed by a hash of the request's QueryOptions, so a repeated
// request for the same node/depth/filter combination skips the whole
// pipeline (grounded on the store's BadgerEngine storage conventions).
package resultcache

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/orneryd/archlens/pkg/graph/model"
)

// Entry is the cached shape of one Visualize response.
type Entry struct {
	Graph      *model.Graph
	Violations *model.ViolationReport
}

// Cache wraps a BadgerDB instance dedicated to cached visualization
// results. Safe for concurrent use: Badger serialises its own
// transactions internally.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Options configures a Cache.
type Options struct {
	// DataDir is the on-disk directory for the cache database. Empty
	// means run in-memory (suitable for tests and the CLI demo).
	DataDir string
	// TTL is how long a cached entry remains valid. Zero disables
	// expiry.
	TTL time.Duration
}

// Open opens (or creates) the cache database.
func Open(opts Options) (*Cache, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)
	if opts.DataDir == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db, ttl: opts.TTL}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached entry for key, or (nil, false) on a miss.
func (c *Cache) Get(key string) (*Entry, bool) {
	var entry Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, false
	}
	return &entry, true
}

// Set stores entry under key, applying the cache's configured TTL.
func (c *Cache) Set(key string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}
