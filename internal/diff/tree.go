// internal/diff/tree.go
package diff

import (
	"sort"

	"tack/internal/index"
)

// TreeDiff classifies every path present in either snapshot. Paths present
// in both with equal hashes are unchanged and omitted.
type TreeDiff struct {
	Added    map[string]struct{}
	Modified map[string]struct{}
	Deleted  map[string]struct{}
}

// CompareTrees computes the set-level difference between two path→hash
// snapshots. A nil before snapshot (root commit) is an empty snapshot.
func CompareTrees(before, after []index.Entry) TreeDiff {
	td := TreeDiff{
		Added:    make(map[string]struct{}),
		Modified: make(map[string]struct{}),
		Deleted:  make(map[string]struct{}),
	}

	beforeHashes := make(map[string]string, len(before))
	for _, e := range before {
		beforeHashes[e.Path] = e.Hash
	}

	afterHashes := make(map[string]string, len(after))
	for _, e := range after {
		afterHashes[e.Path] = e.Hash
	}

	for path, hash := range afterHashes {
		old, ok := beforeHashes[path]
		switch {
		case !ok:
			td.Added[path] = struct{}{}
		case old != hash:
			td.Modified[path] = struct{}{}
		}
	}

	for path := range beforeHashes {
		if _, ok := afterHashes[path]; !ok {
			td.Deleted[path] = struct{}{}
		}
	}

	return td
}

// Empty reports whether nothing changed between the two snapshots.
func (td TreeDiff) Empty() bool {
	return len(td.Added) == 0 && len(td.Modified) == 0 && len(td.Deleted) == 0
}

func (td TreeDiff) AddedPaths() []string    { return sortedPaths(td.Added) }
func (td TreeDiff) ModifiedPaths() []string { return sortedPaths(td.Modified) }
func (td TreeDiff) DeletedPaths() []string  { return sortedPaths(td.Deleted) }

func sortedPaths(set map[string]struct{}) []string {
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
