// Package cache stores raw EFetch payloads so re-runs over the same
// identifier batches skip the network entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/seqwell/isosrc/internal/model"
)

// Cache is the storage interface shared by the memory and disk layers
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key for one batch. Identifiers are sorted so
// the key does not depend on input file order.
func Key(db model.Database, ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)

	hash := sha256.Sum256([]byte(string(db) + ":" + strings.Join(sorted, ",")))
	return "isosrc:v1:" + hex.EncodeToString(hash[:])
}

// Memory is the in-process cache layer
type Memory struct {
	cache *gocache.Cache
}

// NewMemory creates a memory cache with the given default TTL
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{cache: gocache.New(defaultTTL, cleanupInterval)}
}

// Get retrieves a payload from the cache
func (c *Memory) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a payload with the given TTL
func (c *Memory) Set(key string, value []byte, ttl time.Duration) error {
	c.cache.Set(key, value, ttl)
	return nil
}

// Delete removes a payload from the cache
func (c *Memory) Delete(key string) error {
	c.cache.Delete(key)
	return nil
}

// Clear removes all payloads
func (c *Memory) Clear() error {
	c.cache.Flush()
	return nil
}
