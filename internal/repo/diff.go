// internal/repo/diff.go
package repo

import (
	"fmt"
	"sort"

	"tack/internal/diff"
	"tack/internal/index"
)

// diffContext is the number of unchanged lines shown around each change.
const diffContext = 3

// TreeDiff classifies the paths changed by a commit relative to its parent.
// An empty hash means the current head; the root commit is diffed against
// the empty snapshot.
func (r *Repository) TreeDiff(commitHash string) (diff.TreeDiff, error) {
	after, err := r.namedOrHead(commitHash)
	if err != nil {
		return diff.TreeDiff{}, err
	}
	if after == nil {
		// No commits yet: nothing to report
		return diff.CompareTrees(nil, nil), nil
	}

	before, err := r.GetCommit(after.Parent)
	if err != nil {
		return diff.TreeDiff{}, err
	}

	return diff.CompareTrees(snapshot(before), snapshot(after)), nil
}

// Diff computes per-file diffs between two commits. With no arguments it
// diffs the head commit against its parent; with one, that commit against
// its parent; with two, a (before) against b (after). Modified paths carry
// line diffs of the two blobs.
func (r *Repository) Diff(a, b string) ([]FileDiff, error) {
	var before, after *Commit
	var err error

	switch {
	case a == "" && b == "":
		after, err = r.namedOrHead("")
		if err != nil {
			return nil, err
		}
		if after == nil {
			return nil, nil
		}
		before, err = r.GetCommit(after.Parent)
	case b == "":
		after, err = r.ResolveCommit(a)
		if err != nil {
			return nil, err
		}
		before, err = r.GetCommit(after.Parent)
	default:
		before, err = r.ResolveCommit(a)
		if err != nil {
			return nil, err
		}
		after, err = r.ResolveCommit(b)
	}
	if err != nil {
		return nil, err
	}

	return r.diffSnapshots(snapshot(before), snapshot(after))
}

// Status reports what the next commit would change: the staged snapshot
// against the head commit's snapshot.
func (r *Repository) Status() (diff.TreeDiff, error) {
	entries, err := r.Index.Load()
	if err != nil {
		return diff.TreeDiff{}, err
	}

	head, err := r.namedOrHead("")
	if err != nil {
		return diff.TreeDiff{}, err
	}

	return diff.CompareTrees(snapshot(head), entries), nil
}

func (r *Repository) diffSnapshots(before, after []index.Entry) ([]FileDiff, error) {
	td := diff.CompareTrees(before, after)

	beforeHashes := make(map[string]string, len(before))
	for _, e := range before {
		beforeHashes[e.Path] = e.Hash
	}
	afterHashes := make(map[string]string, len(after))
	for _, e := range after {
		afterHashes[e.Path] = e.Hash
	}

	engine := diff.NewEngine(diffContext)

	var fds []FileDiff
	for _, path := range td.AddedPaths() {
		fds = append(fds, FileDiff{
			Path:    path,
			Status:  StatusAdded,
			NewHash: afterHashes[path],
		})
	}
	for _, path := range td.DeletedPaths() {
		fds = append(fds, FileDiff{
			Path:    path,
			Status:  StatusDeleted,
			OldHash: beforeHashes[path],
		})
	}
	for _, path := range td.ModifiedPaths() {
		oldHash, newHash := beforeHashes[path], afterHashes[path]

		oldContent, err := r.Store.Get(oldHash)
		if err != nil {
			return nil, fmt.Errorf("fetching %s@%s: %w", path, oldHash, err)
		}
		newContent, err := r.Store.Get(newHash)
		if err != nil {
			return nil, fmt.Errorf("fetching %s@%s: %w", path, newHash, err)
		}

		result, err := engine.Diff(oldContent, newContent)
		if err != nil {
			return nil, fmt.Errorf("diffing %s: %w", path, err)
		}

		fds = append(fds, FileDiff{
			Path:    path,
			Status:  StatusModified,
			OldHash: oldHash,
			NewHash: newHash,
			Lines:   result,
		})
	}

	sort.Slice(fds, func(i, j int) bool { return fds[i].Path < fds[j].Path })
	return fds, nil
}

// namedOrHead resolves a user-supplied hash, or the head commit when hash is
// empty. An empty repository yields (nil, nil).
func (r *Repository) namedOrHead(hash string) (*Commit, error) {
	if hash != "" {
		return r.ResolveCommit(hash)
	}

	head, err := r.Head()
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, nil
	}
	return r.ResolveCommit(head)
}

func snapshot(c *Commit) []index.Entry {
	if c == nil {
		return nil
	}
	return c.Files
}
