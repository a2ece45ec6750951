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

// Package sharestore persists a party's shares and aggregation bins between
// protocol rounds. Records are CBOR encoded with field values stored as CBOR
// bignums, on top of a pluggable key-value Backend.
package sharestore

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Backend is a thread-safe key-value store.
type Backend interface {
	// Get retrieves the value for key. Returns ErrNotFound if absent.
	Get(key string) ([]byte, error)

	// Put stores value under key, overwriting any existing value.
	Put(key string, value []byte, opts *Options) error

	// Delete removes key. Returns ErrNotFound if absent.
	Delete(key string) error

	// List returns all keys with the given prefix in sorted order.
	List(prefix string) ([]string, error)

	// Exists reports whether key is present.
	Exists(key string) (bool, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Options contains optional parameters for Put.
type Options struct {
	// Permissions sets the file mode for file-based backends.
	Permissions fs.FileMode
}

// DefaultOptions returns owner read/write permissions.
func DefaultOptions() *Options {
	return &Options{Permissions: 0600}
}

// ValidateKey rejects empty keys, null bytes, absolute paths and traversal.
// Keys may use '/' to group records.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return ErrInvalidKey
	case strings.Contains(key, "\x00"):
		return ErrInvalidKey
	case strings.HasPrefix(key, "/") || filepath.IsAbs(key):
		return ErrInvalidKey
	}
	for _, part := range strings.Split(filepath.ToSlash(key), "/") {
		if part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
