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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
)

func TestStore_ShareRoundTrip(t *testing.T) {
	store := NewMemory()
	defer func() { _ = store.Close() }()

	share, err := arithmetic.NewShare(big.NewInt(17), big.NewInt(97))
	require.NoError(t, err)

	key := ShareKey("study", 2, "salary")
	assert.Equal(t, "shares/study/2/salary", key)

	require.NoError(t, store.PutShare(key, share))
	got, err := store.GetShare(key)
	require.NoError(t, err)
	assert.True(t, share.Equal(got))
}

func TestStore_ShareWideModulus(t *testing.T) {
	fb, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store := New(fb)

	prime := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 521), big.NewInt(1))
	value := new(big.Int).Sub(prime, big.NewInt(12345))
	share, err := arithmetic.NewShare(value, prime)
	require.NoError(t, err)

	require.NoError(t, store.PutShare("shares/wide", share))
	got, err := store.GetShare("shares/wide")
	require.NoError(t, err)
	assert.Equal(t, 0, value.Cmp(got.Value()))
	assert.Equal(t, 0, prime.Cmp(got.Prime()))
}

func TestStore_BinRoundTrip(t *testing.T) {
	store := NewMemory()

	rec := &BinRecord{
		Name:  "age",
		Owner: 1,
		Prime: big.NewInt(97),
		Out:   []*big.Int{big.NewInt(3), big.NewInt(0), big.NewInt(96)},
		In:    []*big.Int{big.NewInt(5), nil, big.NewInt(7)},
	}

	key := BinKey("s", 1, "age")
	require.NoError(t, store.PutBin(key, rec))

	got, err := store.GetBin(key)
	require.NoError(t, err)
	assert.Equal(t, "age", got.Name)
	assert.Equal(t, 1, got.Owner)
	assert.Equal(t, 0, got.Prime.Cmp(big.NewInt(97)))
	require.Len(t, got.Out, 3)
	assert.Equal(t, 0, got.Out[1].Sign())
	require.Len(t, got.In, 3)
	assert.Nil(t, got.In[1])
	assert.Equal(t, int64(7), got.In[2].Int64())

	keys, err := store.List(BinPrefix("s", 1))
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)
}

func TestStore_Errors(t *testing.T) {
	store := NewMemory()

	_, err := store.GetShare("shares/none")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetBin("bins/none")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.PutShare("", mustShare(t)), ErrInvalidKey)
	assert.ErrorIs(t, store.Delete("../x"), ErrInvalidKey)
	assert.Error(t, store.PutShare("shares/nil", nil))
	assert.Error(t, store.PutShare("shares/empty", &arithmetic.Share{}))
	assert.Error(t, store.PutBin("bins/nil", nil))

	require.NoError(t, store.Backend().Put("shares/garbage", []byte{0xff, 0x00}, nil))
	_, err = store.GetShare("shares/garbage")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func mustShare(t *testing.T) *arithmetic.Share {
	t.Helper()
	s, err := arithmetic.NewShare(big.NewInt(1), big.NewInt(7))
	require.NoError(t, err)
	return s
}
