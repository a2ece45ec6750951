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
	"fmt"
	"math"
	"math/big"
)

// ToFixedPoint scales value by 2^fractionalBits and truncates toward zero.
func ToFixedPoint(value *big.Float, fractionalBits int) (*big.Int, error) {
	if fractionalBits < 0 {
		return nil, ErrNegativeFractionalBits
	}
	if value == nil || value.IsInf() {
		return nil, fmt.Errorf("%w: value must be finite", ErrInvalidEncoding)
	}
	scaled := new(big.Float).Copy(value)
	scaled.SetMantExp(scaled, fractionalBits)
	fixed, _ := scaled.Int(nil)
	return fixed, nil
}

// ParseFixedPoint parses a decimal string exactly and scales it by
// 2^fractionalBits, truncating toward zero. Inputs of any length are exact.
func ParseFixedPoint(text string, fractionalBits int) (*big.Int, error) {
	if fractionalBits < 0 {
		return nil, ErrNegativeFractionalBits
	}
	r, ok := new(big.Rat).SetString(text)
	if !ok {
		return nil, fmt.Errorf("%w: invalid decimal %q", ErrInvalidEncoding, text)
	}
	num := new(big.Int).Lsh(r.Num(), uint(fractionalBits))
	return num.Quo(num, r.Denom()), nil
}

// FormatDecimal renders f in positional notation with every fractional digit
// it holds.
func FormatDecimal(f *big.Float) string {
	if f.IsInf() {
		return f.String()
	}
	digits := 0
	if f.Sign() != 0 {
		digits = int(f.MinPrec()) - f.MantExp(nil)
	}
	if digits < 0 {
		digits = 0
	}
	return f.Text('f', digits)
}

// FromFixedPoint divides a fixed point integer by 2^fractionalBits.
func FromFixedPoint(fixed *big.Int, fractionalBits int) (*big.Float, error) {
	if fractionalBits < 0 {
		return nil, ErrNegativeFractionalBits
	}
	f := new(big.Float).SetInt(fixed)
	return f.SetMantExp(f, -fractionalBits), nil
}

// SignedValue interprets the upper half of the field as negative numbers,
// mapping v in (prime/2, prime) to v - prime.
func SignedValue(v, prime *big.Int) *big.Int {
	half := new(big.Int).Rsh(prime, 1)
	if v.Cmp(half) > 0 {
		return new(big.Int).Sub(v, prime)
	}
	return new(big.Int).Set(v)
}

// ShareDecimal converts value to fixed point and shares it. Negative values
// wrap into the upper half of the field; recover them with
// ReconstructSigned.
func (s *Sharer) ShareDecimal(value *big.Float, fractionalBits int) ([]*Share, error) {
	fixed, err := ToFixedPoint(value, fractionalBits)
	if err != nil {
		return nil, err
	}
	return s.Share(fixed)
}

// ShareFloat64 is ShareDecimal for float64 inputs.
func (s *Sharer) ShareFloat64(value float64, fractionalBits int) ([]*Share, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: value must be finite", ErrInvalidEncoding)
	}
	return s.ShareDecimal(big.NewFloat(value), fractionalBits)
}

// ReconstructDecimal reconstructs a fixed point secret shared with
// fractionalBits of scaling.
func ReconstructDecimal(shares []*Share, fractionalBits int) (*big.Float, error) {
	if fractionalBits < 0 {
		return nil, ErrNegativeFractionalBits
	}
	v, err := Reconstruct(shares)
	if err != nil {
		return nil, err
	}
	return FromFixedPoint(v, fractionalBits)
}

// ReconstructSigned is ReconstructDecimal with the signed interpretation of
// SignedValue applied before rescaling.
func ReconstructSigned(shares []*Share, fractionalBits int) (*big.Float, error) {
	if fractionalBits < 0 {
		return nil, ErrNegativeFractionalBits
	}
	v, err := Reconstruct(shares)
	if err != nil {
		return nil, err
	}
	return FromFixedPoint(SignedValue(v, shares[0].prime), fractionalBits)
}
