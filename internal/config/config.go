// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// RepoDirName is the metadata directory created inside a repository root.
const RepoDirName = ".tack"

type Config struct {
	Store struct {
		CacheSize int `json:"cache_size"` // LRU entries held by the object store
	} `json:"store"`

	Environment string `json:"environment"` // dev, prod
	LogLevel    string `json:"log_level"`   // debug, info, warn, error
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	var c Config
	c.Store.CacheSize = 1000
	c.Environment = "development"
	c.LogLevel = "info"
	return &c
}

func getConfigPath() string {
	env := os.Getenv("TACK_ENV")
	if env == "" {
		env = "development"
	}
	return fmt.Sprintf("config/config.%s.json", env)
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadOrDefault reads the environment-selected config file, falling back to
// defaults when the file does not exist.
func LoadOrDefault() (*Config, error) {
	c, err := Load(getConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return c, nil
}

// Layout resolves the on-disk paths of one repository.
type Layout struct {
	Root string
}

func NewLayout(root string) Layout {
	return Layout{Root: root}
}

func (l Layout) RepoDir() string {
	return filepath.Join(l.Root, RepoDirName)
}

func (l Layout) ObjectsDir() string {
	return filepath.Join(l.RepoDir(), "objects")
}

func (l Layout) DBDir() string {
	return filepath.Join(l.RepoDir(), "db")
}

func (l Layout) HeadFile() string {
	return filepath.Join(l.RepoDir(), "HEAD")
}

func (l Layout) IndexFile() string {
	return filepath.Join(l.RepoDir(), "index")
}

// Exists reports whether a repository has been initialized at the root.
func (l Layout) Exists() bool {
	fi, err := os.Stat(l.HeadFile())
	return err == nil && fi.Mode().IsRegular()
}
