package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-spygen/pkg/types"
)

// formatVersion is part of every key, so entries written by an older record
// layout are never decoded.
const formatVersion = "records/v1"

// FileName is the name of the persisted extraction cache inside its directory.
const FileName = "extract.msgpack"

// DefaultMaxEntries bounds the extraction cache when no limit is configured.
const DefaultMaxEntries = 4096

// RecordCache maps source file content to the module records extracted
// from it. Records are stored msgpack-encoded.
type RecordCache struct {
	lru *StatsCache
	dir string
}

// RecordCacheOptions configures a RecordCache.
type RecordCacheOptions struct {
	// Dir holds the persisted cache. Empty disables persistence.
	Dir string

	// MaxEntries bounds the number of cached files.
	MaxEntries int
}

// NewRecordCache creates an empty record cache. Call Load to restore the
// persisted state.
func NewRecordCache(opts RecordCacheOptions) *RecordCache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	return &RecordCache{
		lru: NewStatsCache(Options{MaxSize: opts.MaxEntries}),
		dir: opts.Dir,
	}
}

// Key derives the cache key for one source file. Every input that changes
// extraction output takes part in it.
func Key(path string, content []byte, registerSuffix string) string {
	h := sha256.New()
	for _, part := range []string{formatVersion, path, registerSuffix} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the records cached under key. A corrupt entry is dropped and
// reported as a miss.
func (c *RecordCache) Get(key string) ([]types.ModuleRecord, bool) {
	data, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}

	var records []types.ModuleRecord
	if err := msgpack.Unmarshal(data, &records); err != nil {
		c.lru.Delete(key)
		return nil, false
	}
	return records, true
}

// Set caches records under key.
func (c *RecordCache) Set(key string, records []types.ModuleRecord) error {
	data, err := msgpack.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	c.lru.Set(key, data)
	return nil
}

// Len returns the number of cached files.
func (c *RecordCache) Len() int {
	return c.lru.Len()
}

// Stats returns hit and miss counts since creation or the last Clear.
func (c *RecordCache) Stats() Stats {
	return c.lru.Stats()
}

// HitRate returns the share of lookups served from the cache.
func (c *RecordCache) HitRate() float64 {
	return c.lru.HitRate()
}

// Clear drops every entry and resets the counters.
func (c *RecordCache) Clear() {
	c.lru.Clear()
	c.lru.ResetStats()
}

// Retain drops every entry whose key is not in live and returns how many
// were removed. Entries of edited or deleted files go away this way.
func (c *RecordCache) Retain(live map[string]bool) int {
	removed := 0
	for _, key := range c.lru.Keys() {
		if !live[key] {
			c.lru.Delete(key)
			removed++
		}
	}
	return removed
}

// Path returns the file the cache persists to, or "" when persistence is off.
func (c *RecordCache) Path() string {
	if c.dir == "" {
		return ""
	}
	return filepath.Join(c.dir, FileName)
}

// Load restores the persisted cache. A missing file leaves the cache empty.
func (c *RecordCache) Load() error {
	if c.dir == "" {
		return nil
	}
	return LoadFromFile(c.lru, c.Path())
}

// Save persists the cache, creating its directory when needed.
func (c *RecordCache) Save() error {
	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return PersistToFile(c.lru, c.Path())
}
