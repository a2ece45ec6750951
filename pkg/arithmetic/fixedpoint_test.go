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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFixedPoint(t *testing.T) {
	fixed, err := ToFixedPoint(big.NewFloat(1.5), 4)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(24), fixed)

	// Truncates toward zero.
	fixed, err = ToFixedPoint(big.NewFloat(1.99), 0)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1), fixed)

	fixed, err = ToFixedPoint(big.NewFloat(-2.75), 2)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(-11), fixed)

	_, err = ToFixedPoint(big.NewFloat(1), -1)
	assert.ErrorIs(t, err, ErrNegativeFractionalBits)
}

func TestParseFixedPoint(t *testing.T) {
	tests := []struct {
		text string
		bits int
		want string
	}{
		{text: "1.5", bits: 4, want: "24"},
		{text: "-2.75", bits: 2, want: "-11"},
		{text: "1.99", bits: 0, want: "1"},
		{text: "-1.99", bits: 0, want: "-1"},
		{text: "123456789012345678901234567.5", bits: 1, want: "246913578024691357802469135"},
		{text: "0.1", bits: 8, want: "25"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseFixedPoint(tt.text, tt.bits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := ParseFixedPoint("1.5", -1)
	assert.ErrorIs(t, err, ErrNegativeFractionalBits)
	_, err = ParseFixedPoint("abc", 4)
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestFormatDecimal(t *testing.T) {
	for fixed, want := range map[int64]string{
		25:           "12.5",
		-25:          "-12.5",
		0:            "0",
		16:           "8",
		24691357803:  "12345678901.5",
		-24691357803: "-12345678901.5",
	} {
		f, err := FromFixedPoint(big.NewInt(fixed), 1)
		require.NoError(t, err)
		assert.Equal(t, want, FormatDecimal(f))
	}

	quarter, err := FromFixedPoint(big.NewInt(1), 2)
	require.NoError(t, err)
	assert.Equal(t, "0.25", FormatDecimal(quarter))
}

func TestSignedValue(t *testing.T) {
	p := big.NewInt(97)
	assert.Equal(t, big.NewInt(48), SignedValue(big.NewInt(48), p))
	assert.Equal(t, big.NewInt(-48), SignedValue(big.NewInt(49), p))
	assert.Equal(t, big.NewInt(-1), SignedValue(big.NewInt(96), p))
}

func TestShareDecimal_RoundTrip(t *testing.T) {
	const fractionalBits = 32
	s := newTestSharer(t, 5, nil)

	for _, value := range []float64{7.634, 764023475.927456326789234, 0, 1e12 + 0.25} {
		shares, err := s.ShareFloat64(value, fractionalBits)
		require.NoError(t, err)

		got, err := ReconstructDecimal(shares, fractionalBits)
		require.NoError(t, err)
		f, _ := got.Float64()
		assert.InDelta(t, value, f, 0.001)
	}
}

func TestShareDecimal_Negative(t *testing.T) {
	s := newTestSharer(t, 3, nil)
	shares, err := s.ShareFloat64(-42.125, 16)
	require.NoError(t, err)

	got, err := ReconstructSigned(shares, 16)
	require.NoError(t, err)
	f, _ := got.Float64()
	assert.Equal(t, -42.125, f)
}

func TestShareDecimal_Homomorphism(t *testing.T) {
	const fractionalBits = 32
	s := newTestSharer(t, 15, nil)
	values := []float64{1234.4532679821, 98765.4532679821, 0.4532679821}

	var sum []*Share
	for _, v := range values {
		shares, err := s.ShareFloat64(v, fractionalBits)
		require.NoError(t, err)
		if sum == nil {
			sum = shares
			continue
		}
		sum, err = AddShares(sum, shares)
		require.NoError(t, err)
	}

	got, err := ReconstructDecimal(sum, fractionalBits)
	require.NoError(t, err)
	f, _ := got.Float64()
	assert.InDelta(t, values[0]+values[1]+values[2], f, 0.001)
}

func TestShareDecimal_Errors(t *testing.T) {
	s := newTestSharer(t, 3, nil)

	_, err := s.ShareFloat64(1, -1)
	assert.ErrorIs(t, err, ErrNegativeFractionalBits)

	_, err = ReconstructDecimal(nil, -1)
	assert.ErrorIs(t, err, ErrNegativeFractionalBits)

	_, err = ReconstructDecimal(nil, 8)
	assert.ErrorIs(t, err, ErrNoShares)

	_, err = ReconstructSigned(nil, 8)
	assert.ErrorIs(t, err, ErrNoShares)
}
