// Package cache provides an LRU byte cache with msgpack disk persistence and,
// on top of it, the extraction cache that lets unchanged RTL files skip
// parsing between runs.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// Cache defines the interface for a byte cache with basic operations.
type Cache interface {
	// Get retrieves a value by key.
	Get(key string) ([]byte, bool)

	// Set stores a key-value pair. If the cache is full, LRU eviction occurs.
	Set(key string, value []byte)

	// Delete removes a key from the cache.
	Delete(key string)

	// Clear removes all entries from the cache.
	Clear()

	// Len returns the number of entries in the cache.
	Len() int

	// Save persists the cache to the given writer.
	Save(w io.Writer) error

	// Load restores the cache from the given reader.
	Load(r io.Reader) error
}

// Entry is a cache entry with metadata. It is also the persisted form.
type Entry struct {
	Key        string    `msgpack:"key"`
	Value      []byte    `msgpack:"value"`
	AccessedAt time.Time `msgpack:"accessed_at"`
	CreatedAt  time.Time `msgpack:"created_at"`
}

func (e *Entry) size() int64 {
	return int64(len(e.Key) + len(e.Value))
}

// LRUCache is an in-memory LRU cache with optional disk persistence.
// It is safe for concurrent use.
type LRUCache struct {
	mu           sync.Mutex
	items        map[string]*listItem
	lru          list
	maxSize      int
	maxBytes     int64
	currentBytes int64
	onEvict      func(key string, value []byte)
}

type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

// list is a doubly-linked list, most recently used at head.
type list struct {
	head *listItem
	tail *listItem
	len  int
}

func (l *list) unlink(item *listItem) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	item.prev, item.next = nil, nil
	l.len--
}

func (l *list) pushFront(item *listItem) {
	item.prev = nil
	item.next = l.head
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *list) moveToFront(item *listItem) {
	if item == l.head {
		return
	}
	l.unlink(item)
	l.pushFront(item)
}

// Options configures the LRU cache.
type Options struct {
	// MaxSize is the maximum number of entries. 0 means unlimited.
	MaxSize int

	// MaxBytes is the approximate maximum size in bytes. 0 means unlimited.
	MaxBytes int64

	// OnEvict is called when an entry is evicted or deleted.
	OnEvict func(key string, value []byte)
}

// New creates a new LRU cache with the given options.
func New(opts Options) *LRUCache {
	return &LRUCache{
		items:    make(map[string]*listItem),
		maxSize:  opts.MaxSize,
		maxBytes: opts.MaxBytes,
		onEvict:  opts.OnEvict,
	}
}

// Get retrieves a value from the cache and marks it most recently used.
func (c *LRUCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}

	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return item.Value, true
}

// Set stores a value in the cache.
func (c *LRUCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if item, exists := c.items[key]; exists {
		c.currentBytes -= item.size()
		item.Value = value
		item.AccessedAt = now
		c.currentBytes += item.size()
		c.lru.moveToFront(item)
		c.evictIfNeeded()
		return
	}

	item := &listItem{Entry: Entry{Key: key, Value: value, AccessedAt: now, CreatedAt: now}}
	c.items[key] = item
	c.lru.pushFront(item)
	c.currentBytes += item.size()

	c.evictIfNeeded()
}

// Delete removes a key from the cache.
func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return
	}
	c.remove(item)
}

// Clear removes all entries from the cache without calling OnEvict.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Len returns the number of entries in the cache.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CurrentBytes returns the approximate current size in bytes.
func (c *LRUCache) CurrentBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentBytes
}

// Keys returns the keys from most to least recently used.
func (c *LRUCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.lru.len)
	for item := c.lru.head; item != nil; item = item.next {
		keys = append(keys, item.Key)
	}
	return keys
}

func (c *LRUCache) remove(item *listItem) {
	c.lru.unlink(item)
	delete(c.items, item.Key)
	c.currentBytes -= item.size()
	if c.onEvict != nil {
		c.onEvict(item.Key, item.Value)
	}
}

func (c *LRUCache) reset() {
	c.items = make(map[string]*listItem)
	c.lru = list{}
	c.currentBytes = 0
}

func (c *LRUCache) evictIfNeeded() {
	for c.lru.tail != nil && c.overLimit() {
		c.remove(c.lru.tail)
	}
}

func (c *LRUCache) overLimit() bool {
	if c.maxSize > 0 && c.lru.len > c.maxSize {
		return true
	}
	return c.maxBytes > 0 && c.currentBytes > c.maxBytes
}

// Save persists the cache to a writer using msgpack, most recent first.
func (c *LRUCache) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, c.lru.len)
	for item := c.lru.head; item != nil; item = item.next {
		entries = append(entries, item.Entry)
	}

	return msgpack.NewEncoder(w).Encode(entries)
}

// Load replaces the cache content with entries read from r. Recency order is
// restored and the size limits apply.
func (c *LRUCache) Load(r io.Reader) error {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.reset()
	for i := len(entries) - 1; i >= 0; i-- {
		item := &listItem{Entry: entries[i]}
		if old, ok := c.items[item.Key]; ok {
			c.lru.unlink(old)
			c.currentBytes -= old.size()
		}
		c.items[item.Key] = item
		c.lru.pushFront(item)
		c.currentBytes += item.size()
	}
	c.evictIfNeeded()

	return nil
}

// PersistToFile saves the cache to a file.
func PersistToFile(c Cache, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer f.Close()

	return c.Save(f)
}

// LoadFromFile loads the cache from a file. A missing file is not an error.
func LoadFromFile(c Cache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}

// Stats reports cache usage.
type Stats struct {
	Length       int   `json:"length"`
	CurrentBytes int64 `json:"current_bytes"`
	HitCount     int64 `json:"hit_count"`
	MissCount    int64 `json:"miss_count"`
}

// StatsCache wraps an LRU cache with hit and miss counters.
type StatsCache struct {
	*LRUCache
	mu        sync.Mutex
	hitCount  int64
	missCount int64
}

// NewStatsCache creates a cache that tracks statistics.
func NewStatsCache(opts Options) *StatsCache {
	return &StatsCache{LRUCache: New(opts)}
}

// Get retrieves a value and updates statistics.
func (c *StatsCache) Get(key string) ([]byte, bool) {
	val, found := c.LRUCache.Get(key)
	c.mu.Lock()
	if found {
		c.hitCount++
	} else {
		c.missCount++
	}
	c.mu.Unlock()
	return val, found
}

// Stats returns the current cache statistics.
func (c *StatsCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Length:       c.LRUCache.Len(),
		CurrentBytes: c.LRUCache.CurrentBytes(),
		HitCount:     c.hitCount,
		MissCount:    c.missCount,
	}
}

// HitRate returns the cache hit rate.
func (c *StatsCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := c.hitCount + c.missCount
	if total == 0 {
		return 0
	}
	return float64(c.hitCount) / float64(total)
}

// ResetStats resets the statistics counters.
func (c *StatsCache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hitCount = 0
	c.missCount = 0
}

var (
	_ Cache = (*LRUCache)(nil)
	_ Cache = (*StatsCache)(nil)
)
