package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"auto-i18n/internal/collect"

	"github.com/rs/zerolog/log"
	"go.etcd.io/bbolt"
	"lukechampine.com/blake3"
)

var unitsBucket = []byte("units")

// Entry is the stored outcome of rewriting one unit.
type Entry struct {
	Tree     json.RawMessage  `json:"tree"`
	Phrases  []collect.Phrase `json:"phrases"`
	Disabled bool             `json:"disabled,omitempty"`
}

// UnitCache provides in-memory + bbolt-backed caching of unit rewrites, keyed
// by a digest of the unit content and the rule options.
type UnitCache struct {
	db     *bbolt.DB
	mu     sync.RWMutex
	memory map[string]Entry
}

// Key digests unit content together with an options fingerprint.
func Key(content []byte, fingerprint string) string {
	h := blake3.New(32, nil)
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// NewMemory creates a cache without persistence.
func NewMemory() *UnitCache {
	return &UnitCache{memory: make(map[string]Entry)}
}

// Open creates a cache persisted at path. An empty path gives a memory cache.
func Open(path string) (*UnitCache, error) {
	if path == "" {
		return NewMemory(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(unitsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}

	return &UnitCache{db: db, memory: make(map[string]Entry)}, nil
}

// Get returns a cached entry, reading through to disk on a memory miss.
func (c *UnitCache) Get(key string) (Entry, bool) {
	c.mu.RLock()
	if e, ok := c.memory[key]; ok {
		c.mu.RUnlock()
		return e, true
	}
	c.mu.RUnlock()

	if c.db == nil {
		return Entry{}, false
	}

	var e Entry
	found := false
	err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(unitsBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &e)
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Discarding unreadable cache entry")
		return Entry{}, false
	}
	if !found {
		return Entry{}, false
	}

	c.mu.Lock()
	c.memory[key] = e
	c.mu.Unlock()
	return e, true
}

// Set stores an entry in memory and, when persistent, on disk.
func (c *UnitCache) Set(key string, e Entry) error {
	c.mu.Lock()
	c.memory[key] = e
	c.mu.Unlock()

	if c.db == nil {
		return nil
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	err = c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(unitsBucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Preload loads every persisted entry into memory.
func (c *UnitCache) Preload() error {
	if c.db == nil {
		return nil
	}

	loaded := make(map[string]Entry)
	err := c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(unitsBucket).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("entry %s: %w", k, err)
			}
			loaded[string(k)] = e
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range loaded {
		c.memory[k] = e
	}

	log.Info().Int("count", len(loaded)).Msg("Preloaded unit cache")
	return nil
}

// Retain drops every persisted entry whose key is not in keep.
func (c *UnitCache) Retain(keep map[string]struct{}) (int, error) {
	c.mu.Lock()
	for k := range c.memory {
		if _, ok := keep[k]; !ok {
			delete(c.memory, k)
		}
	}
	c.mu.Unlock()

	if c.db == nil {
		return 0, nil
	}

	removed := 0
	err := c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(unitsBucket)
		var stale [][]byte
		if err := b.ForEach(func(k, _ []byte) error {
			if _, ok := keep[string(k)]; !ok {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return removed, nil
}

// Close releases the backing database.
func (c *UnitCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
