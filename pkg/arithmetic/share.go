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
	"math/big"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Share is an immutable element of the prime field defined by its modulus.
// Shares must be created with NewShare, Sharer.Share or Share.Add.
type Share struct {
	value *big.Int
	prime *big.Int
}

// NewShare creates a share of value under prime. The value is reduced into
// [0, prime), so negative or oversized inputs are mapped to their residue.
func NewShare(value, prime *big.Int) (*Share, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: nil share value", ErrInvalidEncoding)
	}
	if prime == nil || prime.Cmp(one) <= 0 {
		return nil, fmt.Errorf("%w: share modulus must be greater than 1", ErrInvalidPrime)
	}
	p := new(big.Int).Set(prime)
	return &Share{
		value: reduce(value, p),
		prime: p,
	}, nil
}

func (s *Share) valid() bool {
	return s != nil && s.value != nil && s.prime != nil
}

// Value returns a copy of the share value, or nil for an empty share.
func (s *Share) Value() *big.Int {
	if !s.valid() {
		return nil
	}
	return new(big.Int).Set(s.value)
}

// Prime returns a copy of the modulus the share was computed under, or nil
// for an empty share.
func (s *Share) Prime() *big.Int {
	if !s.valid() {
		return nil
	}
	return new(big.Int).Set(s.prime)
}

// IsZero reports whether the share value is zero.
func (s *Share) IsZero() bool {
	return s.valid() && s.value.Sign() == 0
}

// Add returns the share of the sum of both underlying secrets. The moduli
// must be equal by value.
func (s *Share) Add(other *Share) (*Share, error) {
	if !s.valid() || !other.valid() {
		return nil, fmt.Errorf("%w: nil or empty share", ErrInvalidEncoding)
	}
	if !samePrime(s.prime, other.prime) {
		return nil, &IncompatiblePrimesError{Left: s.Prime(), Right: other.Prime()}
	}
	if other.IsZero() {
		return s, nil
	}
	if s.IsZero() {
		return other, nil
	}
	sum := new(big.Int).Add(s.value, other.value)
	return &Share{
		value: sum.Mod(sum, s.prime),
		prime: s.prime,
	}, nil
}

// Equal reports whether both shares carry the same value and modulus.
func (s *Share) Equal(other *Share) bool {
	if !s.valid() || !other.valid() {
		return !s.valid() && !other.valid()
	}
	return s.value.Cmp(other.value) == 0 && samePrime(s.prime, other.prime)
}

// Hash returns a structural hash consistent with Equal. Empty shares hash
// alike.
func (s *Share) Hash() uint64 {
	if !s.valid() {
		return xxhash.Sum64(nil)
	}
	return xxhash.Sum64(s.appendWire(nil))
}

// String renders the share as "<value> mod <prime>".
func (s *Share) String() string {
	if !s.valid() {
		return "<nil>"
	}
	return s.value.String() + " mod " + s.prime.String()
}

// ParseShare parses the "<value> mod <prime>" form produced by String.
func ParseShare(text string) (*Share, error) {
	parts := strings.Fields(text)
	if len(parts) != 3 || parts[1] != "mod" {
		return nil, fmt.Errorf("%w: expected \"<value> mod <prime>\", got %q", ErrInvalidEncoding, text)
	}
	value, ok := new(big.Int).SetString(parts[0], 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid share value %q", ErrInvalidEncoding, parts[0])
	}
	prime, ok := new(big.Int).SetString(parts[2], 10)
	if !ok {
		return nil, fmt.Errorf("%w: invalid share modulus %q", ErrInvalidEncoding, parts[2])
	}
	return NewShare(value, prime)
}
