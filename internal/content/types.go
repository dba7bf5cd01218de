// internal/content/types.go
package content

import (
	"errors"
	"time"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidHash    = errors.New("invalid content hash")
)

// ObjectMeta stores metadata about a stored object. It lives in the badger
// database next to the raw object files and never affects what Get returns.
type ObjectMeta struct {
	Hash       string    `json:"hash"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

// Options configures Store behavior.
type Options struct {
	Root      string // Root directory for object files
	CacheSize int    // Number of objects to cache
}
