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
	"io"
	"math/big"
)

const (
	// DefaultPrimeBits is the bit length of the default modulus 2^127 - 1.
	DefaultPrimeBits = 127

	// primalityRounds is the number of Miller-Rabin rounds used to accept a
	// configured modulus.
	primalityRounds = 20
)

var one = big.NewInt(1)

// DefaultPrime returns the Mersenne prime 2^127 - 1. Each call returns a
// fresh value so callers may not alter the default seen by other Sharers.
func DefaultPrime() *big.Int {
	p := new(big.Int).Lsh(one, DefaultPrimeBits)
	return p.Sub(p, one)
}

// ValidatePrime checks that prime is usable as a field modulus.
func ValidatePrime(prime *big.Int) error {
	if prime == nil {
		return fmt.Errorf("%w: nil", ErrInvalidPrime)
	}
	if prime.Cmp(one) <= 0 {
		return fmt.Errorf("%w: %s must be greater than 1", ErrInvalidPrime, prime)
	}
	if !prime.ProbablyPrime(primalityRounds) {
		return fmt.Errorf("%w: %s is not prime", ErrInvalidPrime, prime)
	}
	return nil
}

// reduce returns the Euclidean residue of v in [0, prime).
func reduce(v, prime *big.Int) *big.Int {
	return new(big.Int).Mod(v, prime)
}

// samePrime compares two moduli by value.
func samePrime(a, b *big.Int) bool {
	return a.Cmp(b) == 0
}

// randomFieldElement draws a uniform element of [0, prime) from r.
//
// Candidates are read with exactly the bit length of prime-1 and rejected
// when they fall outside the field, so the width always tracks the modulus.
func randomFieldElement(r io.Reader, prime *big.Int) (*big.Int, error) {
	upper := new(big.Int).Sub(prime, one)
	bitLen := upper.BitLen()
	if bitLen == 0 {
		return new(big.Int), nil
	}

	k := (bitLen + 7) / 8
	topBits := uint(bitLen % 8)
	if topBits == 0 {
		topBits = 8
	}

	buf := make([]byte, k)
	n := new(big.Int)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("failed to read random field element: %w", err)
		}
		buf[0] &= uint8(int(1<<topBits) - 1)
		n.SetBytes(buf)
		if n.Cmp(prime) < 0 {
			return n, nil
		}
	}
}
