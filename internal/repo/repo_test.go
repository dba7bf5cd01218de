package repo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tack/internal/content"
	"tack/internal/diff"
	"tack/internal/index"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRepo(t *testing.T) *Repository {
	root := t.TempDir()
	require.NoError(t, Initialize(root))

	r, err := Open(root, nil, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		r.Close()
	})

	return r
}

func writeWorkingFile(t *testing.T, r *Repository, name, content string) {
	t.Helper()
	path := filepath.Join(r.Root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func stageAndCommit(t *testing.T, r *Repository, message string, files map[string]string) string {
	t.Helper()
	for name, body := range files {
		writeWorkingFile(t, r, name, body)
		_, err := r.Stage([]string{name})
		require.NoError(t, err)
	}
	hash, err := r.Commit(message)
	require.NoError(t, err)
	return hash
}

func TestInitialize(t *testing.T) {
	root := t.TempDir()

	require.NoError(t, Initialize(root))

	// Re-initializing is informational, not fatal
	err := Initialize(root)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestOpenRequiresRepository(t *testing.T) {
	_, err := Open(t.TempDir(), nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestCommitFlow(t *testing.T) {
	r := setupRepo(t)

	head, err := r.Head()
	require.NoError(t, err)
	assert.Empty(t, head)

	c1 := stageAndCommit(t, r, "c1", map[string]string{"a.txt": "hello"})

	head, err = r.Head()
	require.NoError(t, err)
	assert.Equal(t, c1, head)

	// Commit clears the staging index
	entries, err := r.Index.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)

	c2 := stageAndCommit(t, r, "c2", map[string]string{"a.txt": "hello\nworld"})

	commit2, err := r.ResolveCommit(c2)
	require.NoError(t, err)
	assert.Equal(t, c1, commit2.Parent)
	assert.Equal(t, "c2", commit2.Message)
	require.Len(t, commit2.Files, 1)
	assert.Equal(t, "a.txt", commit2.Files[0].Path)

	t.Run("History", func(t *testing.T) {
		commits, err := r.History()
		require.NoError(t, err)
		require.Len(t, commits, 2)
		assert.Equal(t, c2, commits[0].Hash)
		assert.Equal(t, c1, commits[1].Hash)
		assert.Empty(t, commits[1].Parent)
	})

	t.Run("TreeDiff", func(t *testing.T) {
		td, err := r.TreeDiff(c2)
		require.NoError(t, err)
		assert.Equal(t, []string{"a.txt"}, td.ModifiedPaths())
		assert.Empty(t, td.AddedPaths())
		assert.Empty(t, td.DeletedPaths())
	})

	t.Run("LineDiff", func(t *testing.T) {
		fds, err := r.Diff(c1, c2)
		require.NoError(t, err)
		require.Len(t, fds, 1)

		fd := fds[0]
		assert.Equal(t, "a.txt", fd.Path)
		assert.Equal(t, StatusModified, fd.Status)
		require.NotNil(t, fd.Lines)
		require.Len(t, fd.Lines.Lines, 2)
		assert.Equal(t, diff.Context, fd.Lines.Lines[0].Type)
		assert.Equal(t, "hello", fd.Lines.Lines[0].Content)
		assert.Equal(t, diff.Addition, fd.Lines.Lines[1].Type)
		assert.Equal(t, "world", fd.Lines.Lines[1].Content)
	})

	t.Run("DiffDefaultsToHeadVsParent", func(t *testing.T) {
		defaulted, err := r.Diff("", "")
		require.NoError(t, err)
		explicit, err := r.Diff(c1, c2)
		require.NoError(t, err)
		assert.Equal(t, explicit, defaulted)
	})
}

func TestCommitNothingStaged(t *testing.T) {
	r := setupRepo(t)

	c1 := stageAndCommit(t, r, "c1", map[string]string{"a.txt": "hello"})

	_, err := r.Commit("empty")
	assert.ErrorIs(t, err, ErrNothingToCommit)

	// Head is untouched by the failed commit
	head, err := r.Head()
	require.NoError(t, err)
	assert.Equal(t, c1, head)
}

func TestTreeDiffReportsDeletion(t *testing.T) {
	r := setupRepo(t)

	stageAndCommit(t, r, "c1", map[string]string{"a.txt": "hello"})
	c2 := stageAndCommit(t, r, "c2", map[string]string{"b.txt": "content"})

	// a.txt was never staged for c2, so the second snapshot drops it
	td, err := r.TreeDiff(c2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, td.DeletedPaths())
	assert.Equal(t, []string{"b.txt"}, td.AddedPaths())
}

func TestTreeDiffRootCommit(t *testing.T) {
	r := setupRepo(t)

	c1 := stageAndCommit(t, r, "c1", map[string]string{"a.txt": "hello"})

	td, err := r.TreeDiff(c1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, td.AddedPaths())
}

func TestTreeDiffEmptyRepository(t *testing.T) {
	r := setupRepo(t)

	td, err := r.TreeDiff("")
	require.NoError(t, err)
	assert.True(t, td.Empty())
}

func TestCommitHashExcludesStorageKey(t *testing.T) {
	r := setupRepo(t)

	c1 := stageAndCommit(t, r, "c1", map[string]string{"a.txt": "hello"})

	// The commit's address is the hash of its serialized logical fields;
	// the record itself never contains its own hash.
	raw, err := r.Store.Get(c1)
	require.NoError(t, err)
	assert.Equal(t, c1, content.HashContent(raw))
	assert.NotContains(t, string(raw), c1)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "hash")
}

func TestResolveCommitNotFound(t *testing.T) {
	r := setupRepo(t)

	missing := content.HashContent([]byte("no such commit"))
	_, err := r.ResolveCommit(missing)
	assert.ErrorIs(t, err, ErrCommitNotFound)

	_, err = r.ResolveCommit("garbage")
	assert.ErrorIs(t, err, ErrCommitNotFound)
}

func TestWalkStopsAtUnresolvedParent(t *testing.T) {
	r := setupRepo(t)

	// Hand-build a commit whose parent hash resolves to nothing
	orphan := Commit{
		Timestamp: time.Now(),
		Message:   "orphan",
		Files:     []index.Entry{{Path: "a.txt", Hash: content.HashContent([]byte("x"))}},
		Parent:    content.HashContent([]byte("missing parent")),
	}
	data, err := json.Marshal(orphan)
	require.NoError(t, err)

	hash, err := r.Store.Put(data)
	require.NoError(t, err)
	require.NoError(t, r.setHead(hash))

	commits, err := r.History()
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "orphan", commits[0].Message)
}

func TestHistoryEmptyRepository(t *testing.T) {
	r := setupRepo(t)

	commits, err := r.History()
	require.NoError(t, err)
	assert.Empty(t, commits)
}

func TestStageUpdatesIndexAndStore(t *testing.T) {
	r := setupRepo(t)

	writeWorkingFile(t, r, "a.txt", "hello")
	staged, err := r.Stage([]string{"a.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, staged)

	entries, err := r.Index.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	blob, err := r.Store.Get(entries[0].Hash)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(blob))

	// Restaging changed content replaces the hash in place
	writeWorkingFile(t, r, "a.txt", "hello\nworld")
	_, err = r.Stage([]string{"a.txt"})
	require.NoError(t, err)

	entries, err = r.Index.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, content.HashContent([]byte("hello\nworld")), entries[0].Hash)
}

func TestStageDotSkipsIgnoredPaths(t *testing.T) {
	r := setupRepo(t)

	writeWorkingFile(t, r, "a.txt", "hello")
	writeWorkingFile(t, r, ".hidden", "secret")
	writeWorkingFile(t, r, filepath.Join("node_modules", "dep.js"), "junk")
	writeWorkingFile(t, r, filepath.Join("src", "main.go"), "package main")

	staged, err := r.Stage([]string{"."})
	require.NoError(t, err)
	require.Len(t, staged, 2)
	for _, path := range staged {
		assert.False(t, strings.HasPrefix(path, "."))
		assert.False(t, strings.HasPrefix(path, "node_modules"))
	}
}

func TestUnstage(t *testing.T) {
	r := setupRepo(t)

	writeWorkingFile(t, r, "a.txt", "hello")
	writeWorkingFile(t, r, "b.txt", "world")
	_, err := r.Stage([]string{"a.txt", "b.txt"})
	require.NoError(t, err)

	require.NoError(t, r.Unstage([]string{"a.txt"}))

	entries, err := r.Index.Load()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.txt", entries[0].Path)
}

func TestStatus(t *testing.T) {
	r := setupRepo(t)

	stageAndCommit(t, r, "c1", map[string]string{"a.txt": "hello"})

	writeWorkingFile(t, r, "b.txt", "fresh")
	_, err := r.Stage([]string{"b.txt"})
	require.NoError(t, err)

	td, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt"}, td.AddedPaths())
	// a.txt is not staged, so the next commit would drop it
	assert.Equal(t, []string{"a.txt"}, td.DeletedPaths())
}

func TestDiffEmptyRepository(t *testing.T) {
	r := setupRepo(t)

	fds, err := r.Diff("", "")
	require.NoError(t, err)
	assert.Empty(t, fds)
}

func TestDiffAddedAndDeletedFiles(t *testing.T) {
	r := setupRepo(t)

	c1 := stageAndCommit(t, r, "c1", map[string]string{"a.txt": "hello"})
	c2 := stageAndCommit(t, r, "c2", map[string]string{"b.txt": "world"})

	fds, err := r.Diff(c1, c2)
	require.NoError(t, err)
	require.Len(t, fds, 2)

	assert.Equal(t, "a.txt", fds[0].Path)
	assert.Equal(t, StatusDeleted, fds[0].Status)
	assert.Nil(t, fds[0].Lines)

	assert.Equal(t, "b.txt", fds[1].Path)
	assert.Equal(t, StatusAdded, fds[1].Status)
	assert.Nil(t, fds[1].Lines)
}
