package cache

import (
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key, e.g. Key("explain", "q_20250101_120000_abc123")
func Key(namespace, id string) string {
	return "verdict:v1:" + namespace + ":" + id
}
