// Package devicecache persists parsed device descriptors across process
// restarts, keyed by the descriptor's absolute path and source mtime, so a
// fleet of thousands of agents sharing one device file pays the YAML parse
// cost once per file generation rather than once per agent boot.
package devicecache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const descriptorBucket = "descriptors"

// Cache wraps a BoltDB instance holding one entry per device descriptor
// path: its source mtime and its already-decoded JSON body. A cache miss
// or an mtime mismatch simply means the caller re-parses from disk and
// repopulates the entry; the cache is an accelerator, never a source of
// truth.
type Cache struct {
	db *bbolt.DB
}

// entry is the JSON payload stored per descriptor path.
type entry struct {
	ModTime int64           `json:"mod_time"`
	Decoded json.RawMessage `json:"decoded"`
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(descriptorBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database. Safe to call on a nil Cache.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached decoded document for path if its stored mtime
// still matches sourceModTime. ok is false on a miss or a stale entry —
// either way the caller must re-parse and call Put.
func (c *Cache) Get(path string, sourceModTime time.Time) (decoded json.RawMessage, ok bool) {
	if c == nil || c.db == nil {
		return nil, false
	}
	var e entry
	err := c.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(descriptorBucket)).Get([]byte(path))
		if raw == nil {
			return errors.New("miss")
		}
		return json.Unmarshal(raw, &e)
	})
	if err != nil || e.ModTime != sourceModTime.UnixNano() {
		return nil, false
	}
	return e.Decoded, true
}

// Put stores decoded under path, stamped with sourceModTime, replacing any
// prior entry.
func (c *Cache) Put(path string, sourceModTime time.Time, decoded json.RawMessage) error {
	if c == nil || c.db == nil {
		return nil
	}
	raw, err := json.Marshal(entry{ModTime: sourceModTime.UnixNano(), Decoded: decoded})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(descriptorBucket)).Put([]byte(path), raw)
	})
}
