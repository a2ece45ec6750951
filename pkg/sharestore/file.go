// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-smpc.
//
// go-smpc is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package sharestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	defaultDirPerms  = 0700
	defaultFilePerms = 0600
)

// FileBackend stores each key as a file below a root directory.
type FileBackend struct {
	mu      sync.RWMutex
	rootDir string
	closed  bool
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates the root directory with 0700 permissions if needed.
func NewFileBackend(rootDir string) (*FileBackend, error) {
	if rootDir == "" {
		return nil, fmt.Errorf("file backend: root directory cannot be empty")
	}

	if err := os.MkdirAll(rootDir, defaultDirPerms); err != nil {
		return nil, fmt.Errorf("file backend: failed to create root directory: %w", err)
	}

	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("file backend: %w", err)
	}
	return &FileBackend{rootDir: abs}, nil
}

func (f *FileBackend) path(key string) (string, error) {
	if f.closed {
		return "", ErrClosed
	}
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(f.rootDir, filepath.FromSlash(key)), nil
}

// Get retrieves the value for the given key.
func (f *FileBackend) Get(key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, err := f.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("file backend: failed to read key %q: %w", key, err)
	}
	return data, nil
}

// Put writes the value atomically through a temporary file.
func (f *FileBackend) Put(key string, value []byte, opts *Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.path(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, defaultDirPerms); err != nil {
		return fmt.Errorf("file backend: failed to create directory for key %q: %w", key, err)
	}

	perms := fs.FileMode(defaultFilePerms)
	if opts != nil && opts.Permissions != 0 {
		perms = opts.Permissions
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("file backend: failed to write key %q: %w", key, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file backend: failed to write key %q: %w", key, err)
	}
	if err := tmp.Chmod(perms); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("file backend: failed to chmod key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("file backend: failed to write key %q: %w", key, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("file backend: failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes the key.
func (f *FileBackend) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, err := f.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("file backend: failed to delete key %q: %w", key, err)
	}
	return nil
}

// List returns all keys with the given prefix in sorted order.
func (f *FileBackend) List(prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrClosed
	}

	keys := make([]string, 0)
	err := filepath.WalkDir(f.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}

		rel, err := filepath.Rel(f.rootDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("file backend: failed to list keys: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Exists checks if a key exists.
func (f *FileBackend) Exists(key string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, err := f.path(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("file backend: failed to check key %q: %w", key, err)
	}
	return true, nil
}

// Close marks the backend closed. Files on disk are kept.
func (f *FileBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}
