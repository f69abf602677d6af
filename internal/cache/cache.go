// Package cache provides byte caches used for artifact persistence.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// NoExpiration keeps an entry until it is deleted
const NoExpiration time.Duration = -1

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
	// Keys returns the keys of all live entries in no particular order
	Keys() []string
}

// FileName returns a filesystem-safe name for key
func FileName(key string) string {
	hash := sha256.Sum256([]byte(key))
	return "geoagent-v1-" + hex.EncodeToString(hash[:])
}
