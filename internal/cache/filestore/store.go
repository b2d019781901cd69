// Package filestore persists route cache snapshots to a local JSON file.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mohammed-shakir/lkw-route-density/internal/cache/snapshot"
	"github.com/mohammed-shakir/lkw-route-density/internal/core/observability"
)

type Store struct {
	path string
	perm fs.FileMode
}

func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("cache file path is required")
	}
	return &Store{path: path, perm: 0o644}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load(_ context.Context) (snapshot.Snapshot, int, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, snapshot.ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open cache file %q: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	snap, skipped, err := snapshot.Decode(f)
	if err != nil {
		return nil, 0, fmt.Errorf("cache file %q: %w", s.path, err)
	}
	return snap, skipped, nil
}

// Save replaces the file atomically: temp file in the same dir, fsync, rename.
func (s *Store) Save(_ context.Context, snap snapshot.Snapshot) (err error) {
	start := time.Now()
	defer func() { observability.ObserveCacheFlush("file", err, time.Since(start).Seconds()) }()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if err := snapshot.Encode(tmp, snap); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode cache snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Chmod(tmpName, s.perm); err != nil {
		return fmt.Errorf("chmod temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}
