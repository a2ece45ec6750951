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
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/jeremyhahn/go-smpc/pkg/entropy"
	"github.com/jeremyhahn/go-smpc/pkg/logging"
	"github.com/jeremyhahn/go-smpc/pkg/metrics"
)

// MinParties is the smallest supported number of parties.
const MinParties = 2

// Config configures a Sharer.
type Config struct {
	// NumParties is the number of shares produced per secret.
	NumParties int

	// Prime is the field modulus. Defaults to DefaultPrime().
	Prime *big.Int

	// Random is the entropy source. Defaults to the software resolver.
	Random io.Reader

	// Logger receives debug output. Defaults to logging.NoOp.
	Logger logging.Logger
}

// Sharer splits secrets into additive shares over a prime field.
//
// Share may be called concurrently; draws from the entropy source are
// serialized internally.
type Sharer struct {
	numParties int
	logger     logging.Logger

	mu     sync.Mutex
	prime  *big.Int
	random io.Reader
}

// NewSharer creates a Sharer from config.
func NewSharer(config *Config) (*Sharer, error) {
	if config == nil {
		return nil, &InvalidConfigurationError{Field: "config", Reason: "cannot be nil"}
	}
	if config.NumParties < MinParties {
		return nil, &InvalidConfigurationError{
			Field:  "numParties",
			Reason: fmt.Sprintf("must be at least %d, got %d", MinParties, config.NumParties),
		}
	}

	prime := DefaultPrime()
	if config.Prime != nil {
		if err := ValidatePrime(config.Prime); err != nil {
			return nil, err
		}
		prime = new(big.Int).Set(config.Prime)
	}

	random := config.Random
	if random == nil {
		random = entropy.Software()
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NoOp{}
	}

	return &Sharer{
		numParties: config.NumParties,
		prime:      prime,
		random:     random,
		logger:     logger.With(logging.String("component", "sharer")),
	}, nil
}

// NumParties returns the number of shares produced per secret.
func (s *Sharer) NumParties() int {
	return s.numParties
}

// Prime returns a copy of the current modulus.
func (s *Sharer) Prime() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return new(big.Int).Set(s.prime)
}

// SetPrime replaces the modulus for subsequent Share calls. Shares already
// produced keep the modulus they were created with.
func (s *Sharer) SetPrime(prime *big.Int) error {
	if err := ValidatePrime(prime); err != nil {
		return err
	}
	s.mu.Lock()
	s.prime = new(big.Int).Set(prime)
	s.mu.Unlock()

	s.logger.Debug("modulus updated", logging.Int("prime_bits", prime.BitLen()))
	return nil
}

// Share splits secret into NumParties shares whose values sum to secret
// modulo the prime. The first NumParties-1 values are uniform over the
// field; the last one depends on the secret.
func (s *Sharer) Share(secret *big.Int) (shares []*Share, err error) {
	defer metrics.Observe(metrics.OpShare, time.Now(), &err)

	if secret == nil {
		return nil, fmt.Errorf("%w: nil secret", ErrInvalidEncoding)
	}

	s.mu.Lock()
	prime := s.prime
	values := make([]*big.Int, s.numParties)
	last := reduce(secret, prime)
	for i := 0; i < s.numParties-1; i++ {
		r, err := randomFieldElement(s.random, prime)
		if err != nil {
			s.mu.Unlock()
			metrics.RecordError(metrics.OpShare, "entropy")
			return nil, err
		}
		values[i] = r
		last.Sub(last, r)
	}
	s.mu.Unlock()

	values[s.numParties-1] = last.Mod(last, prime)

	shares = make([]*Share, s.numParties)
	for i, v := range values {
		shares[i] = &Share{value: v, prime: prime}
	}

	metrics.AddSharesGenerated(len(shares))
	s.logger.Debug("secret shared",
		logging.Int("parties", s.numParties),
		logging.Int("prime_bits", prime.BitLen()))
	return shares, nil
}

// ShareInt64 is a convenience wrapper around Share.
func (s *Sharer) ShareInt64(secret int64) ([]*Share, error) {
	return s.Share(big.NewInt(secret))
}

// Reconstruct recovers the secret and additionally requires exactly
// NumParties shares. Any proper subset sums to a meaningless value, so it is
// rejected instead.
func (s *Sharer) Reconstruct(shares []*Share) (*big.Int, error) {
	if len(shares) != s.numParties {
		metrics.RecordError(metrics.OpReconstruct, "share_count_mismatch")
		return nil, fmt.Errorf("%w: expected %d shares, got %d",
			ErrShareCountMismatch, s.numParties, len(shares))
	}
	return Reconstruct(shares)
}

// Reconstruct sums all shares modulo their common prime. Every share must
// carry the same modulus as the first.
func Reconstruct(shares []*Share) (secret *big.Int, err error) {
	defer metrics.Observe(metrics.OpReconstruct, time.Now(), &err)

	if len(shares) == 0 {
		return nil, ErrNoShares
	}
	if !shares[0].valid() {
		return nil, fmt.Errorf("%w: share 0 is empty", ErrInvalidEncoding)
	}

	prime := shares[0].prime
	sum := new(big.Int)
	for i, share := range shares {
		if !share.valid() {
			return nil, fmt.Errorf("%w: share %d is empty", ErrInvalidEncoding, i)
		}
		if !samePrime(share.prime, prime) {
			metrics.RecordError(metrics.OpReconstruct, "incompatible_primes")
			return nil, fmt.Errorf("share %d: %w", i,
				&IncompatiblePrimesError{Left: new(big.Int).Set(prime), Right: share.Prime()})
		}
		sum.Add(sum, share.value)
	}
	return sum.Mod(sum, prime), nil
}

// AddShares adds two share vectors position by position, producing shares
// of the sum of both secrets without any interaction between parties.
func AddShares(a, b []*Share) (sum []*Share, err error) {
	defer metrics.Observe(metrics.OpAdd, time.Now(), &err)

	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d != %d", ErrShareCountMismatch, len(a), len(b))
	}
	sum = make([]*Share, len(a))
	for i := range a {
		if sum[i], err = a[i].Add(b[i]); err != nil {
			if errors.Is(err, ErrIncompatiblePrimes) {
				metrics.RecordError(metrics.OpAdd, "incompatible_primes")
			}
			return nil, fmt.Errorf("share %d: %w", i, err)
		}
	}
	return sum, nil
}
