// internal/content/store.go
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Store provides content-addressable, deduplicated object storage. Raw bytes
// live as one file per object under root; object metadata lives in badger.
type Store struct {
	root  string
	db    *badger.DB
	cache *lru.Cache[string, []byte]
}

// New creates a new Store instance.
func New(db *badger.DB, opts Options) (*Store, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("root directory is required")
	}

	if err := os.MkdirAll(opts.Root, 0755); err != nil {
		return nil, fmt.Errorf("creating root directory: %w", err)
	}

	if opts.CacheSize == 0 {
		opts.CacheSize = 1000
	}

	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	return &Store{
		root:  opts.Root,
		db:    db,
		cache: cache,
	}, nil
}

// HashContent returns the content address of a byte sequence. It is a pure
// function of the bytes alone.
func HashContent(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// Put saves content and returns its hash. Writing already-present content is
// a no-op and returns the same hash.
func (s *Store) Put(content []byte) (string, error) {
	if content == nil {
		content = []byte{} // Empty objects are valid
	}

	hash := HashContent(content)

	if s.Exists(hash) {
		return hash, nil
	}

	path := s.objectPath(hash)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating object directory: %w", err)
	}

	// Write to a uniquely named temp file, then rename. A crash mid-write
	// never leaves a partial object under its final name.
	tmp := path + "." + uuid.NewString()
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return "", fmt.Errorf("writing object file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("placing object file: %w", err)
	}

	meta := ObjectMeta{
		Hash:       hash,
		Size:       int64(len(content)),
		CreatedAt:  time.Now(),
		AccessedAt: time.Now(),
	}
	if err := s.storeMeta(meta); err != nil {
		return "", fmt.Errorf("storing metadata: %w", err)
	}

	s.cache.Add(hash, content)

	return hash, nil
}

// Get retrieves content by hash.
func (s *Store) Get(hash string) ([]byte, error) {
	if !IsValidHash(hash) {
		return nil, ErrInvalidHash
	}

	// Check cache first
	if content, ok := s.cache.Get(hash); ok {
		return content, nil
	}

	content, err := os.ReadFile(s.objectPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("reading object: %w", err)
	}

	// Verify hash
	if HashContent(content) != hash {
		return nil, fmt.Errorf("object %s: content hash mismatch", hash)
	}

	s.cache.Add(hash, content)
	s.touchMeta(hash)

	return content, nil
}

// Exists checks if an object is stored under hash.
func (s *Store) Exists(hash string) bool {
	if !IsValidHash(hash) {
		return false
	}

	if s.cache.Contains(hash) {
		return true
	}

	_, err := os.Stat(s.objectPath(hash))
	return err == nil
}

// Meta returns the stored metadata for an object.
func (s *Store) Meta(hash string) (ObjectMeta, error) {
	if !IsValidHash(hash) {
		return ObjectMeta{}, ErrInvalidHash
	}
	return s.getMeta(hash)
}

// Verify checks object integrity.
func (s *Store) Verify(hash string) error {
	content, err := s.Get(hash)
	if err != nil {
		return err
	}

	if HashContent(content) != hash {
		return fmt.Errorf("object %s: content hash mismatch", hash)
	}

	return nil
}

// IsValidHash reports whether hash has the shape of a content address.
func IsValidHash(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// Internal helper functions

func (s *Store) objectPath(hash string) string {
	return filepath.Join(s.root, hash[:2], hash[2:])
}

func (s *Store) storeMeta(meta ObjectMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(fmt.Sprintf("object:%s", meta.Hash))
		return txn.Set(key, data)
	})
}

func (s *Store) getMeta(hash string) (ObjectMeta, error) {
	var meta ObjectMeta

	err := s.db.View(func(txn *badger.Txn) error {
		key := []byte(fmt.Sprintf("object:%s", hash))
		item, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return ErrObjectNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})

	return meta, err
}

// touchMeta refreshes the access time. Failures are swallowed: metadata is
// advisory and must never turn a successful read into an error.
func (s *Store) touchMeta(hash string) {
	meta, err := s.getMeta(hash)
	if err != nil {
		return
	}
	meta.AccessedAt = time.Now()
	s.storeMeta(meta)
}
