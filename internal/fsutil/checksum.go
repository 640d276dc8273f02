package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type checksumEntry struct {
	size    int64
	modTime time.Time
	sum     string
}

// ChecksumCache is a thread-safe cache of content checksums keyed by path.
// An entry is only returned while the file's size and modification time
// still match the ones it was computed for.
type ChecksumCache struct {
	mu    sync.RWMutex
	store map[string]checksumEntry
}

// NewChecksumCache creates an empty cache.
func NewChecksumCache() *ChecksumCache {
	return &ChecksumCache{
		store: make(map[string]checksumEntry),
	}
}

// Compute computes the SHA-256 checksum of data and returns it as a hex string.
func Compute(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get returns the cached checksum for path if info still describes the file
// it was computed from.
func (c *ChecksumCache) Get(path string, info os.FileInfo) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.store[path]
	if !ok || e.size != info.Size() || !e.modTime.Equal(info.ModTime()) {
		return "", false
	}
	return e.sum, true
}

// Sum returns the checksum of data for path, computing and storing it on a miss.
func (c *ChecksumCache) Sum(path string, info os.FileInfo, data []byte) string {
	if sum, ok := c.Get(path, info); ok {
		return sum
	}
	sum := Compute(data)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[path] = checksumEntry{size: info.Size(), modTime: info.ModTime(), sum: sum}
	return sum
}

// ForgetTree drops the entry for path and every entry below it.
func (c *ChecksumCache) ForgetTree(path string) {
	prefix := strings.TrimSuffix(path, string(filepath.Separator)) + string(filepath.Separator)
	c.mu.Lock()
	defer c.mu.Unlock()
	for p := range c.store {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(c.store, p)
		}
	}
}

// Clear removes all cached checksums.
func (c *ChecksumCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = make(map[string]checksumEntry)
}
