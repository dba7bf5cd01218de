// internal/repo/types.go
package repo

import (
	"errors"
	"time"

	"tack/internal/diff"
	"tack/internal/index"
)

var (
	ErrNotRepository      = errors.New("not a tack repository")
	ErrAlreadyInitialized = errors.New("repository already initialized")
	ErrNothingToCommit    = errors.New("nothing to commit")
	ErrCommitNotFound     = errors.New("commit not found")
)

// Commit is one immutable snapshot record in the chain. Hash is the storage
// key, computed over the serialized record; it is excluded from the JSON so
// the record never hashes itself.
type Commit struct {
	Hash      string        `json:"-"`
	Timestamp time.Time     `json:"timestamp"`
	Message   string        `json:"message"`
	Files     []index.Entry `json:"files"`
	Parent    string        `json:"parent,omitempty"`
}

// FileDiff describes what happened to one path between two snapshots. Lines
// is set only for modified paths.
type FileDiff struct {
	Path    string
	Status  FileStatus
	OldHash string
	NewHash string
	Lines   *diff.DiffResult
}

type FileStatus string

const (
	StatusAdded    FileStatus = "added"
	StatusModified FileStatus = "modified"
	StatusDeleted  FileStatus = "deleted"
)
