// Package cache provides a file digest cache backed by a bounded LRU.
package cache

import (
	"container/list"
	"os"
	"sync"

	"github.com/jnthodge/visual-bible/core/cas"
)

// Stats contains cache statistics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// lru is a thread-safe least-recently-used map. maxSize 0 means unbounded.
type lru[K comparable, V any] struct {
	mu        sync.Mutex
	maxSize   int
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

func newLRU[K comparable, V any](maxSize int) *lru[K, V] {
	return &lru[K, V]{
		maxSize:   max(maxSize, 0),
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

func (c *lru[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.evictList.MoveToFront(el)
	c.stats.Hits++
	return el.Value.(*entry[K, V]).value, true
}

func (c *lru[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(el)
		el.Value.(*entry[K, V]).value = value
		return
	}

	c.entries[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value})
	if c.maxSize > 0 && c.evictList.Len() > c.maxSize {
		oldest := c.evictList.Back()
		c.evictList.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry[K, V]).key)
		c.stats.Evictions++
	}
}

func (c *lru[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.maxSize
	return s
}

// fileKey identifies one version of a file on disk.
type fileKey struct {
	path    string
	size    int64
	modTime int64
}

// DigestCache remembers BLAKE3 digests of files so that rendered images
// are only re-hashed after they change on disk.
type DigestCache struct {
	lru *lru[fileKey, string]
}

// NewDigestCache creates a digest cache holding up to maxFiles entries.
func NewDigestCache(maxFiles int) *DigestCache {
	return &DigestCache{lru: newLRU[fileKey, string](maxFiles)}
}

// Digest returns the digest of the file at path along with its stat info.
func (d *DigestCache) Digest(path string) (string, os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, err
	}
	key := fileKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}
	if digest, ok := d.lru.Get(key); ok {
		return digest, info, nil
	}
	digest, _, err := cas.DigestFile(path)
	if err != nil {
		return "", nil, err
	}
	d.lru.Put(key, digest)
	return digest, info, nil
}

// Stats returns hit, miss and eviction counts.
func (d *DigestCache) Stats() Stats {
	return d.lru.Stats()
}
