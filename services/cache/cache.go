package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is not cached
var ErrMiss = errors.New("cache miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache; a miss returns ErrMiss
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// PageKey builds a backend-safe key for a page URL. Memcache keys are
// limited to 250 bytes without spaces, so URLs are hashed.
func PageKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return "bestmua:page:" + hex.EncodeToString(sum[:])
}
