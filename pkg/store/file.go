package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// fileStore keeps one file per key inside a directory; writes go through a temporary file and a rename
type fileStore struct {
	dir string
}

func NewFile(dir string) (KV, error) {
	if dir == "" {
		dir = "timetable-data"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &fileStore{dir: dir}, nil
}

func (store *fileStore) path(key string) string {
	return filepath.Join(store.dir, url.PathEscape(key)+".json")
}

func (store *fileStore) Get(_ context.Context, key string) ([]byte, error) {
	value, err := os.ReadFile(store.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("read %v: %w", key, err)
	}
	return value, nil
}

func (store *fileStore) Put(_ context.Context, key string, value []byte) error {
	tmp, err := os.CreateTemp(store.dir, "put-*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name()) // No-op once renamed

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %v: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary file: %w", err)
	}
	if err := os.Rename(tmp.Name(), store.path(key)); err != nil {
		return fmt.Errorf("replace %v: %w", key, err)
	}
	return nil
}

func (store *fileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(store.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %v: %w", key, err)
	}
	return nil
}

func (store *fileStore) Close() error { return nil }
