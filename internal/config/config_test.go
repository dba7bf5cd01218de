package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, 1000, c.Store.CacheSize)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"store":{"cache_size":42},"log_level":"debug"}`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 42, c.Store.CacheSize)
	assert.Equal(t, "debug", c.LogLevel)
	// Unset fields keep their defaults
	assert.Equal(t, "development", c.Environment)
}

func TestLayout(t *testing.T) {
	l := NewLayout("/repo")

	assert.Equal(t, filepath.Join("/repo", RepoDirName), l.RepoDir())
	assert.Equal(t, filepath.Join("/repo", RepoDirName, "objects"), l.ObjectsDir())
	assert.Equal(t, filepath.Join("/repo", RepoDirName, "HEAD"), l.HeadFile())
	assert.Equal(t, filepath.Join("/repo", RepoDirName, "index"), l.IndexFile())
	assert.Equal(t, filepath.Join("/repo", RepoDirName, "db"), l.DBDir())

	assert.False(t, NewLayout(t.TempDir()).Exists())
}
