// Package filestore keeps each blob in its own file under a directory.
// Writes go through renameio, so a crash never leaves a half-written or empty
// collection behind.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/renameio"

	"github.com/kozaktomas/face-attendance/internal/database"
)

const blobPerm = 0o640

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Store is a directory-backed blob store.
type Store struct {
	dir string
}

// New creates the directory if needed and returns a store rooted at it.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.dir, key+".blob"), nil
}

// Load returns the blob stored under key, or nil if none.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p) //nolint:gosec // key is validated
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", p, err)
	}
	return data, nil
}

// Save atomically replaces the blob stored under key. The data is synced to
// disk before the rename.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := renameio.WriteFile(p, data, blobPerm); err != nil {
		return fmt.Errorf("writing %s: %w", p, err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Register makes "file://<dir>" store URLs available to database.Open.
func Register() {
	database.RegisterBackend("file", func(_ context.Context, dir string) (database.BlobStore, error) {
		return New(dir)
	})
}
