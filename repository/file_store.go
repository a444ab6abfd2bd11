package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const sessionExt = ".json"

// fileSessionStore keeps one JSON file per session in a directory.
type fileSessionStore struct {
	dir string
}

// NewFileSessionStore stores sessions as <dir>/<name>.json, creating dir on
// first write.
func NewFileSessionStore(dir string) SessionStore {
	return &fileSessionStore{dir: dir}
}

func (s *fileSessionStore) path(name string) string {
	return filepath.Join(s.dir, name+sessionExt)
}

func (s *fileSessionStore) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", name, err)
	}
	return data, nil
}

// Write replaces the file atomically via a temp file and rename.
func (s *fileSessionStore) Write(ctx context.Context, name string, data []byte) error {
	if err := ensureDirExists(s.dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("write session %s: %w", name, err)
	}
	return nil
}

func (s *fileSessionStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || strings.HasPrefix(n, ".") || filepath.Ext(n) != sessionExt {
			continue
		}
		names = append(names, strings.TrimSuffix(n, sessionExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *fileSessionStore) Delete(ctx context.Context, name string) (bool, error) {
	err := os.Remove(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", name, err)
	}
	return true, nil
}

func ensureDirExists(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}
