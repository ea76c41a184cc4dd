package authclient

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// Snapshot is the persisted part of the provider: the account and its tokens keyed by scope set.
type Snapshot struct {
	Account *Account                 `json:"account,omitempty"`
	Tokens  map[string]*oauth2.Token `json:"tokens,omitempty"`
}

// Cache persists snapshots between runs.
type Cache interface {
	Load() (*Snapshot, error)
	Save(*Snapshot) error
}

// FileCache stores the snapshot as JSON readable only by the owner.
type FileCache struct {
	Path string
}

// DefaultCachePath is <user config dir>/usuarios/token_cache.json.
func DefaultCachePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "usuarios", "token_cache.json")
}

func (f FileCache) Load() (*Snapshot, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (f FileCache) Save(s *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, b, 0o600)
}
