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

package arithmetic

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustShare(t *testing.T, value, prime int64) *Share {
	t.Helper()
	s, err := NewShare(big.NewInt(value), big.NewInt(prime))
	require.NoError(t, err)
	return s
}

func TestNewShare(t *testing.T) {
	tests := []struct {
		name      string
		value     *big.Int
		prime     *big.Int
		wantValue int64
		wantErr   error
	}{
		{name: "in range", value: big.NewInt(5), prime: big.NewInt(97), wantValue: 5},
		{name: "reduced", value: big.NewInt(100), prime: big.NewInt(97), wantValue: 3},
		{name: "negative wraps", value: big.NewInt(-1), prime: big.NewInt(97), wantValue: 96},
		{name: "nil value", value: nil, prime: big.NewInt(97), wantErr: ErrInvalidEncoding},
		{name: "nil prime", value: big.NewInt(1), prime: nil, wantErr: ErrInvalidPrime},
		{name: "modulus one", value: big.NewInt(0), prime: big.NewInt(1), wantErr: ErrInvalidPrime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewShare(tt.value, tt.prime)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, big.NewInt(tt.wantValue), s.Value())
			assert.Equal(t, tt.prime, s.Prime())
		})
	}
}

func TestShare_Immutable(t *testing.T) {
	value := big.NewInt(5)
	prime := big.NewInt(97)
	s, err := NewShare(value, prime)
	require.NoError(t, err)

	value.SetInt64(6)
	prime.SetInt64(89)
	s.Value().SetInt64(7)
	s.Prime().SetInt64(83)

	assert.Equal(t, "5 mod 97", s.String())
}

func TestShare_Add(t *testing.T) {
	sum, err := mustShare(t, 90, 97).Add(mustShare(t, 10, 97))
	require.NoError(t, err)
	assert.True(t, sum.Equal(mustShare(t, 3, 97)))
}

func TestShare_AddZeroShortcut(t *testing.T) {
	zero := mustShare(t, 0, 97)
	five := mustShare(t, 5, 97)

	left, err := zero.Add(five)
	require.NoError(t, err)
	assert.True(t, left.Equal(five))
	assert.Same(t, five, left)

	right, err := five.Add(zero)
	require.NoError(t, err)
	assert.Same(t, five, right)
}

func TestShare_AddIncompatiblePrimes(t *testing.T) {
	_, err := mustShare(t, 7, 97).Add(mustShare(t, 3, 89))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompatiblePrimes)

	var ipe *IncompatiblePrimesError
	require.True(t, errors.As(err, &ipe))
	assert.Equal(t, big.NewInt(97), ipe.Left)
	assert.Equal(t, big.NewInt(89), ipe.Right)
}

func TestShare_AddComparesPrimeByValue(t *testing.T) {
	// Distinct big.Int instances with equal values must be compatible.
	a, err := NewShare(big.NewInt(1), new(big.Int).SetUint64(97))
	require.NoError(t, err)
	b, err := NewShare(big.NewInt(2), new(big.Int).SetUint64(97))
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "3 mod 97", sum.String())
}

func TestShare_AddAlgebra(t *testing.T) {
	a := mustShare(t, 40, 97)
	b := mustShare(t, 60, 97)
	c := mustShare(t, 95, 97)

	ab, err := a.Add(b)
	require.NoError(t, err)
	ba, err := b.Add(a)
	require.NoError(t, err)
	assert.True(t, ab.Equal(ba), "addition must commute")

	abc1, err := ab.Add(c)
	require.NoError(t, err)
	bc, err := b.Add(c)
	require.NoError(t, err)
	abc2, err := a.Add(bc)
	require.NoError(t, err)
	assert.True(t, abc1.Equal(abc2), "addition must associate")
}

func TestShare_EmptyOperands(t *testing.T) {
	five := mustShare(t, 5, 97)
	var nilShare *Share

	tests := []struct {
		name        string
		left, right *Share
	}{
		{name: "nil right", left: five, right: nil},
		{name: "nil left", left: nil, right: five},
		{name: "zero value right", left: five, right: &Share{}},
		{name: "zero value left", left: &Share{}, right: five},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := tt.left.Add(tt.right)
			require.ErrorIs(t, err, ErrInvalidEncoding)
			assert.Nil(t, sum)
			assert.False(t, tt.left.Equal(tt.right))
		})
	}

	empty := &Share{}
	assert.True(t, empty.Equal(nilShare))
	assert.False(t, empty.IsZero())
	assert.Nil(t, empty.Value())
	assert.Nil(t, empty.Prime())
	assert.Equal(t, "<nil>", empty.String())
	assert.Equal(t, nilShare.Hash(), empty.Hash())

	_, err := AddShares([]*Share{five, nil}, []*Share{five, five})
	require.ErrorIs(t, err, ErrInvalidEncoding)
	_, err = Reconstruct([]*Share{empty, five})
	require.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestShare_EqualAndHash(t *testing.T) {
	a := mustShare(t, 5, 97)
	b := mustShare(t, 5, 97)

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())

	assert.False(t, a.Equal(mustShare(t, 6, 97)))
	assert.False(t, a.Equal(mustShare(t, 5, 89)))
	assert.NotEqual(t, a.Hash(), mustShare(t, 6, 97).Hash())
	assert.NotEqual(t, a.Hash(), mustShare(t, 5, 89).Hash())

	assert.False(t, a.Equal(nil))
	var nilShare *Share
	assert.True(t, nilShare.Equal(nil))

	seen := map[uint64]*Share{a.Hash(): a}
	assert.True(t, seen[b.Hash()].Equal(b))
}

func TestShare_StringAndParse(t *testing.T) {
	s := mustShare(t, 17, 97)
	assert.Equal(t, "17 mod 97", s.String())

	parsed, err := ParseShare(s.String())
	require.NoError(t, err)
	assert.True(t, s.Equal(parsed))

	for _, bad := range []string{"", "17", "17 mod", "17 plus 97", "x mod 97", "17 mod y", "17 mod 1"} {
		_, err := ParseShare(bad)
		assert.Error(t, err, bad)
	}
}
