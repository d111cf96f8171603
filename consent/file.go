package consent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps consent flags as small JSON files under a directory —
// the native analogue of browser local storage. It is the default store.
type FileStore struct {
	dir string
}

type fileRecord struct {
	Granted   bool      `json:"granted"`
	DecidedAt time.Time `json:"decided_at"`
}

// NewFileStore creates a store rooted at dir. An empty dir places the
// files under the user configuration directory.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		dir = filepath.Join(base, "assistant-widget")
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// Get returns the stored decision for key.
func (s *FileStore) Get(_ context.Context, key string) (Decision, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Undecided, nil
		}
		return Undecided, fmt.Errorf("read consent: %w", err)
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Undecided, fmt.Errorf("decode consent: %w", err)
	}
	return decisionOf(rec.Granted), nil
}

// Set records a decision for key.
func (s *FileStore) Set(_ context.Context, key string, granted bool) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create consent dir: %w", err)
	}
	data, err := json.Marshal(fileRecord{Granted: granted, DecidedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("encode consent: %w", err)
	}
	if err := os.WriteFile(s.path(key), data, 0o600); err != nil {
		return fmt.Errorf("write consent: %w", err)
	}
	return nil
}

// Clear removes any stored decision for key.
func (s *FileStore) Clear(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove consent: %w", err)
	}
	return nil
}

// sanitizeKey maps a storage key onto a safe file name.
func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, key)
}
