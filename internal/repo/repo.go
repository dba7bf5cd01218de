// internal/repo/repo.go
package repo

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tack/internal/config"
	"tack/internal/content"
	"tack/internal/index"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is the handle owning one repository's on-disk state. It assumes
// exclusive access: concurrent use of the same repository from multiple
// processes is undefined behavior.
type Repository struct {
	Root   string
	Store  *content.Store
	Index  *index.Index
	DB     *badger.DB
	Logger *zap.Logger

	layout config.Layout
}

// Initialize creates the repository layout at root. Initializing an existing
// repository is a no-op reporting ErrAlreadyInitialized.
func Initialize(root string) error {
	layout := config.NewLayout(root)
	if layout.Exists() {
		return ErrAlreadyInitialized
	}

	dirs := []string{
		layout.RepoDir(),
		layout.ObjectsDir(),
		layout.DBDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	// Empty HEAD marks an initialized repository with no commits
	if err := os.WriteFile(layout.HeadFile(), nil, 0644); err != nil {
		return fmt.Errorf("writing HEAD: %w", err)
	}

	return nil
}

// Open opens the repository rooted at root.
func Open(root string, cfg *config.Config, logger *zap.Logger) (*Repository, error) {
	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path for root %s: %w", root, err)
	}

	layout := config.NewLayout(absPath)
	if !layout.Exists() {
		return nil, ErrNotRepository
	}

	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := badger.DefaultOptions(layout.DBDir())
	opts.Logger = nil // Disable logging noise

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store, err := content.New(db, content.Options{
		Root:      layout.ObjectsDir(),
		CacheSize: cfg.Store.CacheSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing object store: %w", err)
	}

	return &Repository{
		Root:   absPath,
		Store:  store,
		Index:  index.New(layout.IndexFile()),
		DB:     db,
		Logger: logger,
		layout: layout,
	}, nil
}

// Close releases the repository's resources.
func (r *Repository) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	if err := r.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Head returns the hash of the most recent commit, or "" if none exist.
func (r *Repository) Head() (string, error) {
	data, err := os.ReadFile(r.layout.HeadFile())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading HEAD: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (r *Repository) setHead(hash string) error {
	path := r.layout.HeadFile()
	tmp := path + "." + uuid.NewString()
	if err := os.WriteFile(tmp, []byte(hash), 0644); err != nil {
		return fmt.Errorf("writing HEAD: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("placing HEAD: %w", err)
	}
	return nil
}

// Stage hashes the named working files into the object store and upserts
// them in the staging index. "." stages every eligible file under the root.
func (r *Repository) Stage(paths []string) ([]string, error) {
	var toStage []string
	for _, path := range paths {
		if path == "." {
			collected, err := r.collectFiles()
			if err != nil {
				return nil, fmt.Errorf("collecting files: %w", err)
			}
			toStage = collected
			break
		}

		cleanPath := filepath.Clean(path)
		if !shouldIgnorePath(cleanPath) {
			toStage = append(toStage, cleanPath)
		}
	}

	var staged []string
	for _, relPath := range toStage {
		data, err := os.ReadFile(filepath.Join(r.Root, relPath))
		if err != nil {
			return staged, fmt.Errorf("reading %s: %w", relPath, err)
		}

		hash, err := r.Store.Put(data)
		if err != nil {
			return staged, fmt.Errorf("storing %s: %w", relPath, err)
		}

		if err := r.Index.Stage(filepath.ToSlash(relPath), hash); err != nil {
			return staged, fmt.Errorf("staging %s: %w", relPath, err)
		}

		staged = append(staged, relPath)
	}

	r.Logger.Info("Staged paths", zap.Int("count", len(staged)))
	return staged, nil
}

// Unstage removes the named paths from the staging index.
func (r *Repository) Unstage(paths []string) error {
	for _, path := range paths {
		if err := r.Index.Remove(filepath.ToSlash(filepath.Clean(path))); err != nil {
			return fmt.Errorf("unstaging %s: %w", path, err)
		}
	}
	return nil
}

// Commit freezes the staging index into a new commit: the staged snapshot,
// the message, the current time, and the prior head as parent. On success
// the head advances and the index is cleared.
func (r *Repository) Commit(message string) (string, error) {
	entries, err := r.Index.Load()
	if err != nil {
		return "", fmt.Errorf("loading index: %w", err)
	}
	if len(entries) == 0 {
		return "", ErrNothingToCommit
	}

	parent, err := r.Head()
	if err != nil {
		return "", err
	}

	c := Commit{
		Timestamp: time.Now(),
		Message:   message,
		Files:     append([]index.Entry(nil), entries...),
		Parent:    parent,
	}

	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("serializing commit: %w", err)
	}

	hash, err := r.Store.Put(data)
	if err != nil {
		return "", fmt.Errorf("storing commit: %w", err)
	}

	if err := r.setHead(hash); err != nil {
		return "", err
	}

	if err := r.Index.Clear(); err != nil {
		return "", fmt.Errorf("clearing index: %w", err)
	}

	r.Logger.Info("Created commit",
		zap.String("hash", hash),
		zap.Int("files", len(c.Files)))
	return hash, nil
}

// GetCommit resolves a commit record by hash. A hash with no stored record
// yields (nil, nil): for traversal, history simply ends there.
func (r *Repository) GetCommit(hash string) (*Commit, error) {
	data, err := r.Store.Get(hash)
	if err != nil {
		if err == content.ErrObjectNotFound || err == content.ErrInvalidHash {
			return nil, nil
		}
		return nil, err
	}

	var c Commit
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing commit %s: %w", hash, err)
	}
	c.Hash = hash

	return &c, nil
}

// ResolveCommit is GetCommit for caller-supplied hashes: an unresolvable
// hash is ErrCommitNotFound rather than end-of-history.
func (r *Repository) ResolveCommit(hash string) (*Commit, error) {
	c, err := r.GetCommit(hash)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCommitNotFound, hash)
	}
	return c, nil
}

// Walk visits commits newest to oldest starting at head, stopping when fn
// returns false, at a null parent, or at a parent that does not resolve.
func (r *Repository) Walk(fn func(*Commit) bool) error {
	hash, err := r.Head()
	if err != nil {
		return err
	}

	for hash != "" {
		c, err := r.GetCommit(hash)
		if err != nil {
			return err
		}
		if c == nil {
			// Unresolved parent: history ends here
			return nil
		}
		if !fn(c) {
			return nil
		}
		hash = c.Parent
	}

	return nil
}

// History returns every reachable commit, newest first. Each call re-walks
// from the current head.
func (r *Repository) History() ([]*Commit, error) {
	var commits []*Commit
	err := r.Walk(func(c *Commit) bool {
		commits = append(commits, c)
		return true
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

func (r *Repository) collectFiles() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(r.Root, path)
		if err != nil {
			r.Logger.Warn("Failed to compute relative path",
				zap.String("path", path),
				zap.Error(err))
			return nil
		}

		if !shouldIgnorePath(relPath) {
			paths = append(paths, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// shouldIgnorePath checks if a path should be ignored
func shouldIgnorePath(path string) bool {
	if path == "" {
		return true
	}

	components := strings.Split(path, string(filepath.Separator))
	for _, comp := range components {
		if comp == "" {
			continue
		}

		// Ignore hidden files and directories
		if strings.HasPrefix(comp, ".") {
			return true
		}

		switch comp {
		case "node_modules", "vendor", "dist", "build", config.RepoDirName:
			return true
		}
	}

	return false
}
