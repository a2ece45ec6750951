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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	fb, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   fb,
	}
}

func TestBackend_PutGetDelete(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer func() { _ = backend.Close() }()

			require.NoError(t, backend.Put("bins/s1/0/age", []byte("v1"), nil))

			got, err := backend.Get("bins/s1/0/age")
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), got)

			require.NoError(t, backend.Put("bins/s1/0/age", []byte("v2"), nil))
			got, err = backend.Get("bins/s1/0/age")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)

			ok, err := backend.Exists("bins/s1/0/age")
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, backend.Delete("bins/s1/0/age"))
			ok, err = backend.Exists("bins/s1/0/age")
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = backend.Get("bins/s1/0/age")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, backend.Delete("bins/s1/0/age"), ErrNotFound)
		})
	}
}

func TestBackend_List(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer func() { _ = backend.Close() }()

			for _, k := range []string{"bins/s/1/b", "bins/s/1/a", "bins/s/2/a", "shares/s/1/x"} {
				require.NoError(t, backend.Put(k, []byte(k), nil))
			}

			keys, err := backend.List("bins/s/1/")
			require.NoError(t, err)
			assert.Equal(t, []string{"bins/s/1/a", "bins/s/1/b"}, keys)

			keys, err = backend.List("")
			require.NoError(t, err)
			assert.Len(t, keys, 4)

			keys, err = backend.List("missing/")
			require.NoError(t, err)
			assert.Empty(t, keys)
		})
	}
}

func TestBackend_Closed(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.Close())

			_, err := backend.Get("k")
			assert.ErrorIs(t, err, ErrClosed)
			assert.ErrorIs(t, backend.Put("k", nil, nil), ErrClosed)
			_, err = backend.List("")
			assert.ErrorIs(t, err, ErrClosed)
			_, err = backend.Exists("k")
			assert.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"bins/study/0/age", true},
		{"simple", true},
		{"a/..b/c", true},
		{"", false},
		{"/etc/passwd", false},
		{"../escape", false},
		{"bins/../../escape", false},
		{"bins/x/..", false},
		{"nul\x00byte", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidKey)
			}
		})
	}
}

func TestFileBackend_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	fb, err := NewFileBackend(root)
	require.NoError(t, err)

	assert.ErrorIs(t, fb.Put("../outside", []byte("x"), nil), ErrInvalidKey)
	_, err = fb.Get("../outside")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestFileBackend_Persists(t *testing.T) {
	root := t.TempDir()

	fb, err := NewFileBackend(root)
	require.NoError(t, err)
	require.NoError(t, fb.Put("shares/s/0/x", []byte("persisted"), nil))
	require.NoError(t, fb.Close())

	reopened, err := NewFileBackend(root)
	require.NoError(t, err)
	got, err := reopened.Get("shares/s/0/x")
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), got)
}

func TestNewFileBackend_EmptyRoot(t *testing.T) {
	_, err := NewFileBackend("")
	assert.Error(t, err)
}
