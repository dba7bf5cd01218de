// internal/index/index.go
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Entry maps one logical path to the content hash staged for it.
type Entry struct {
	Path string `json:"path"`
	Hash string `json:"hash"`
}

// Index is the staging area: an ordered, path-unique list of entries
// persisted as a JSON file. Every mutation rewrites the file atomically.
type Index struct {
	path string
}

func New(path string) *Index {
	return &Index{path: path}
}

// Load returns the current staged set. An index file that has never been
// written is an empty set, not an error.
func (ix *Index) Load() ([]Entry, error) {
	data, err := os.ReadFile(ix.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}

	return entries, nil
}

// Stage upserts the entry for path: an already-staged path keeps its
// position with the new hash, a new path is appended.
func (ix *Index) Stage(path, hash string) error {
	entries, err := ix.Load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range entries {
		if entries[i].Path == path {
			entries[i].Hash = hash
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, Entry{Path: path, Hash: hash})
	}

	return ix.write(entries)
}

// Remove drops the entry for path. Removing an unstaged path is a no-op.
func (ix *Index) Remove(path string) error {
	entries, err := ix.Load()
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.Path != path {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}

	return ix.write(kept)
}

// Clear resets the index to an empty set.
func (ix *Index) Clear() error {
	return ix.write(nil)
}

// write persists the full entry list: temp file in the same directory, then
// rename, so a reader never observes a partially written index.
func (ix *Index) write(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(ix.path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp := ix.path + "." + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	if err := os.Rename(tmp, ix.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("placing index: %w", err)
	}

	return nil
}
