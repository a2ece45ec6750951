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

package aggregation

import (
	"fmt"
	"math/big"

	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
	"github.com/jeremyhahn/go-smpc/pkg/sharestore"
)

// Bin is one named value in a study. outShares holds the shares this party
// produced for each participant; inShares holds the shares received from
// each participant. Slot i of either slice belongs to party i.
type Bin struct {
	name      string
	prime     *big.Int
	inShares  []*arithmetic.Share
	outShares []*arithmetic.Share
}

// NewBin creates an empty bin for numParties parties over prime.
func NewBin(name string, numParties int, prime *big.Int) (*Bin, error) {
	if numParties < arithmetic.MinParties {
		return nil, &arithmetic.InvalidConfigurationError{
			Field:  "numParties",
			Reason: fmt.Sprintf("must be at least %d, got %d", arithmetic.MinParties, numParties),
		}
	}
	if err := arithmetic.ValidatePrime(prime); err != nil {
		return nil, err
	}
	return &Bin{
		name:      name,
		prime:     new(big.Int).Set(prime),
		inShares:  make([]*arithmetic.Share, numParties),
		outShares: make([]*arithmetic.Share, numParties),
	}, nil
}

// Name returns the bin name.
func (b *Bin) Name() string {
	return b.name
}

// NumParties returns the number of participant slots.
func (b *Bin) NumParties() int {
	return len(b.inShares)
}

func (b *Bin) checkIndex(i int) error {
	if i < 0 || i >= len(b.inShares) {
		return fmt.Errorf("%w: %d of %d", ErrParticipantOutOfRange, i, len(b.inShares))
	}
	return nil
}

// ShareValue splits value into one outgoing share per participant.
func (b *Bin) ShareValue(sharer *arithmetic.Sharer, value *big.Int) error {
	if sharer.NumParties() != len(b.outShares) {
		return fmt.Errorf("%w: sharer has %d parties, bin has %d",
			arithmetic.ErrShareCountMismatch, sharer.NumParties(), len(b.outShares))
	}
	if sharer.Prime().Cmp(b.prime) != 0 {
		return &arithmetic.IncompatiblePrimesError{Left: sharer.Prime(), Right: b.Prime()}
	}

	shares, err := sharer.Share(value)
	if err != nil {
		return fmt.Errorf("bin %q: %w", b.name, err)
	}
	b.outShares = shares
	return nil
}

// OutShare returns the share produced for participant i, or nil if none.
func (b *Bin) OutShare(i int) (*arithmetic.Share, error) {
	if err := b.checkIndex(i); err != nil {
		return nil, err
	}
	return b.outShares[i], nil
}

// InShare returns the share received from participant i, or nil if none.
func (b *Bin) InShare(i int) (*arithmetic.Share, error) {
	if err := b.checkIndex(i); err != nil {
		return nil, err
	}
	return b.inShares[i], nil
}

// SetInShare records the share received from participant i.
func (b *Bin) SetInShare(i int, share *arithmetic.Share) error {
	if err := b.CheckInShare(i, share); err != nil {
		return err
	}
	b.inShares[i] = share
	return nil
}

// CheckInShare reports whether SetInShare(i, share) would be accepted
// without modifying the bin.
func (b *Bin) CheckInShare(i int, share *arithmetic.Share) error {
	if err := b.checkIndex(i); err != nil {
		return err
	}
	if share == nil {
		return nil
	}
	prime := share.Prime()
	if prime == nil {
		return fmt.Errorf("%w: empty share for party %d", arithmetic.ErrInvalidEncoding, i)
	}
	if prime.Cmp(b.prime) != 0 {
		return &arithmetic.IncompatiblePrimesError{Left: b.Prime(), Right: prime}
	}
	return nil
}

// TransferOwn moves the share this party produced for itself into its own
// incoming slot.
func (b *Bin) TransferOwn(id int) error {
	if err := b.checkIndex(id); err != nil {
		return err
	}
	b.inShares[id] = b.outShares[id]
	b.outShares[id] = nil
	return nil
}

// ClearOutExcept drops every outgoing share except the one for id.
func (b *Bin) ClearOutExcept(id int) {
	for i := range b.outShares {
		if i != id {
			b.outShares[i] = nil
		}
	}
}

// ClearInExcept drops every incoming share except the one from id.
func (b *Bin) ClearInExcept(id int) {
	for i := range b.inShares {
		if i != id {
			b.inShares[i] = nil
		}
	}
}

// IsComplete reports whether a share was received from every participant.
func (b *Bin) IsComplete() bool {
	for _, s := range b.inShares {
		if s == nil {
			return false
		}
	}
	return true
}

// FilledInIndices returns the participants whose incoming share is present.
func (b *Bin) FilledInIndices() []int {
	return filled(b.inShares)
}

// FilledOutIndices returns the participants whose outgoing share is present.
func (b *Bin) FilledOutIndices() []int {
	return filled(b.outShares)
}

func filled(shares []*arithmetic.Share) []int {
	idx := make([]int, 0, len(shares))
	for i, s := range shares {
		if s != nil {
			idx = append(idx, i)
		}
	}
	return idx
}

// SumShare adds all incoming shares homomorphically.
func (b *Bin) SumShare() (*arithmetic.Share, error) {
	if !b.IsComplete() {
		return nil, fmt.Errorf("bin %q: %w", b.name, ErrIncomplete)
	}
	sum := b.inShares[0]
	for _, s := range b.inShares[1:] {
		var err error
		if sum, err = sum.Add(s); err != nil {
			return nil, fmt.Errorf("bin %q: %w", b.name, err)
		}
	}
	return sum, nil
}

// Reconstruct recovers the bin's value from a complete set of incoming
// shares.
func (b *Bin) Reconstruct() (*big.Int, error) {
	if !b.IsComplete() {
		return nil, fmt.Errorf("bin %q: %w", b.name, ErrIncomplete)
	}
	return arithmetic.Reconstruct(b.inShares)
}

// Prime returns a copy of the bin's modulus.
func (b *Bin) Prime() *big.Int {
	return new(big.Int).Set(b.prime)
}

// Record converts the bin into its persisted form.
func (b *Bin) Record(owner int, phase Phase) *sharestore.BinRecord {
	return &sharestore.BinRecord{
		Name:  b.name,
		Owner: owner,
		Prime: b.Prime(),
		Out:   values(b.outShares),
		In:    values(b.inShares),
		Phase: int(phase),
	}
}

func values(shares []*arithmetic.Share) []*big.Int {
	out := make([]*big.Int, len(shares))
	for i, s := range shares {
		if s != nil {
			out[i] = s.Value()
		}
	}
	return out
}

// BinFromRecord rebuilds a bin from its persisted form.
func BinFromRecord(rec *sharestore.BinRecord, numParties int) (*Bin, error) {
	b, err := NewBin(rec.Name, numParties, rec.Prime)
	if err != nil {
		return nil, err
	}
	if err := restore(b.outShares, rec.Out, rec.Prime); err != nil {
		return nil, fmt.Errorf("bin %q out shares: %w", rec.Name, err)
	}
	if err := restore(b.inShares, rec.In, rec.Prime); err != nil {
		return nil, fmt.Errorf("bin %q in shares: %w", rec.Name, err)
	}
	return b, nil
}

func restore(dst []*arithmetic.Share, src []*big.Int, prime *big.Int) error {
	if len(src) == 0 {
		return nil
	}
	if len(src) != len(dst) {
		return fmt.Errorf("%w: record has %d slots, want %d",
			arithmetic.ErrShareCountMismatch, len(src), len(dst))
	}
	for i, v := range src {
		if v == nil {
			continue
		}
		s, err := arithmetic.NewShare(v, prime)
		if err != nil {
			return err
		}
		dst[i] = s
	}
	return nil
}
