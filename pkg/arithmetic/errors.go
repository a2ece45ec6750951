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
	"fmt"
	"math/big"
)

var (
	// ErrIncompatiblePrimes is returned when shares computed under different
	// moduli are combined.
	ErrIncompatiblePrimes = errors.New("arithmetic: incompatible primes")

	// ErrInvalidConfiguration is returned when a Sharer is configured with
	// invalid parameters.
	ErrInvalidConfiguration = errors.New("arithmetic: invalid configuration")

	// ErrInvalidPrime is returned when a modulus is nil, too small or not prime.
	ErrInvalidPrime = errors.New("arithmetic: invalid prime")

	// ErrNoShares is returned when reconstruction is attempted without shares.
	ErrNoShares = errors.New("arithmetic: no shares")

	// ErrShareCountMismatch is returned when the number of shares does not
	// match the number of parties.
	ErrShareCountMismatch = errors.New("arithmetic: share count mismatch")

	// ErrInvalidEncoding is returned when a serialized share cannot be decoded.
	ErrInvalidEncoding = errors.New("arithmetic: invalid encoding")

	// ErrNegativeFractionalBits is returned for negative fixed point scaling.
	ErrNegativeFractionalBits = errors.New("arithmetic: fractional bits must not be negative")
)

// IncompatiblePrimesError reports the two moduli that could not be combined.
type IncompatiblePrimesError struct {
	Left  *big.Int
	Right *big.Int
}

func (e *IncompatiblePrimesError) Error() string {
	return fmt.Sprintf("%s: %s != %s", ErrIncompatiblePrimes, e.Left, e.Right)
}

// Unwrap allows errors.Is(err, ErrIncompatiblePrimes).
func (e *IncompatiblePrimesError) Unwrap() error {
	return ErrIncompatiblePrimes
}

// InvalidConfigurationError describes a rejected Sharer configuration.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfiguration, e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalidConfiguration).
func (e *InvalidConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}
