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
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
	"github.com/jeremyhahn/go-smpc/pkg/logging"
	"github.com/jeremyhahn/go-smpc/pkg/sharestore"
)

// Phase is a party's position in the secure sum protocol.
type Phase int

const (
	// PhaseEnteringValues waits for the party's inputs.
	PhaseEnteringValues Phase = iota
	// PhaseSharing distributes input shares and collects those of peers.
	PhaseSharing
	// PhaseSumming distributes partial sums and collects those of peers.
	PhaseSumming
	// PhaseFinished holds the reconstructed totals.
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseEnteringValues:
		return "entering_values"
	case PhaseSharing:
		return "sharing"
	case PhaseSumming:
		return "summing"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Round identifies the message exchange a payload belongs to.
type Round int

const (
	// RoundShares carries one input share per bin.
	RoundShares Round = 1
	// RoundSums carries one partial sum per bin.
	RoundSums Round = 2
)

func (r Round) phase() Phase {
	if r == RoundSums {
		return PhaseSumming
	}
	return PhaseSharing
}

// PartyConfig configures a Party.
type PartyConfig struct {
	// ID is the party's index in [0, NumParties).
	ID int

	// Study scopes persisted records.
	Study string

	// Bins names the values summed by the study, in wire order.
	Bins []string

	// Sharer splits this party's inputs. Its party count and modulus apply
	// to every bin.
	Sharer *arithmetic.Sharer

	// Store persists bins after every state change. Defaults to memory.
	Store *sharestore.Store

	// Logger defaults to logging.NoOp.
	Logger logging.Logger
}

type pendingPayload struct {
	round   Round
	sender  int
	payload []byte
}

// Party runs one participant's side of a secure sum. Every party shares each
// input among all participants, sums the shares it receives per bin and
// publishes that partial sum. Adding all partial sums yields the totals
// without revealing any single input.
type Party struct {
	mu      sync.Mutex
	id      int
	study   string
	sharer  *arithmetic.Sharer
	store   *sharestore.Store
	logger  logging.Logger
	phase   Phase
	bins    []*Bin
	index   map[string]int
	pending []pendingPayload
	totals  map[string]*big.Int
}

// NewParty creates a party. Bins already persisted for the same study and
// party are restored with their phase.
func NewParty(config *PartyConfig) (*Party, error) {
	if config == nil || config.Sharer == nil {
		return nil, &arithmetic.InvalidConfigurationError{Field: "sharer", Reason: "cannot be nil"}
	}
	n := config.Sharer.NumParties()
	if config.ID < 0 || config.ID >= n {
		return nil, fmt.Errorf("%w: %d of %d", ErrParticipantOutOfRange, config.ID, n)
	}
	if len(config.Bins) == 0 {
		return nil, &arithmetic.InvalidConfigurationError{Field: "bins", Reason: "at least one bin is required"}
	}

	store := config.Store
	if store == nil {
		store = sharestore.NewMemory()
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NoOp{}
	}

	p := &Party{
		id:     config.ID,
		study:  config.Study,
		sharer: config.Sharer,
		store:  store,
		logger: logger.With(
			logging.String("component", "party"),
			logging.String("study", config.Study),
			logging.Int("party", config.ID),
		),
		bins:  make([]*Bin, 0, len(config.Bins)),
		index: make(map[string]int, len(config.Bins)),
	}

	prime := config.Sharer.Prime()
	for _, name := range config.Bins {
		if _, dup := p.index[name]; dup {
			return nil, &arithmetic.InvalidConfigurationError{Field: "bins", Reason: fmt.Sprintf("duplicate bin %q", name)}
		}
		bin, err := NewBin(name, n, prime)
		if err != nil {
			return nil, err
		}
		p.index[name] = len(p.bins)
		p.bins = append(p.bins, bin)
	}

	if err := p.restore(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Party) restore() error {
	n := p.sharer.NumParties()
	for i, bin := range p.bins {
		rec, err := p.store.GetBin(sharestore.BinKey(p.study, p.id, bin.Name()))
		if errors.Is(err, sharestore.ErrNotFound) {
			if i > 0 {
				return fmt.Errorf("%w: bin %q not persisted", ErrInvalidState, bin.Name())
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("restore bin %q: %w", bin.Name(), err)
		}
		restored, err := BinFromRecord(rec, n)
		if err != nil {
			return err
		}
		p.bins[i] = restored
		p.phase = Phase(rec.Phase)
	}
	p.logger.Debug("party restored", logging.String("phase", p.phase.String()))
	return nil
}

func (p *Party) save() error {
	for _, bin := range p.bins {
		key := sharestore.BinKey(p.study, p.id, bin.Name())
		if err := p.store.PutBin(key, bin.Record(p.id, p.phase)); err != nil {
			return fmt.Errorf("persist bin %q: %w", bin.Name(), err)
		}
	}
	return nil
}

// ID returns the party index.
func (p *Party) ID() int {
	return p.id
}

// Phase returns the current protocol phase.
func (p *Party) Phase() Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phase
}

// BinNames returns the bin names in wire order.
func (p *Party) BinNames() []string {
	names := make([]string, len(p.bins))
	for i, b := range p.bins {
		names[i] = b.Name()
	}
	return names
}

// Bin returns the named bin.
func (p *Party) Bin(name string) (*Bin, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i, ok := p.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBin, name)
	}
	return p.bins[i], nil
}

// ShareInputs shares one value per bin and keeps this party's own share.
// Every bin requires a value.
func (p *Party) ShareInputs(values map[string]*big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.phase != PhaseEnteringValues {
		return fmt.Errorf("%w: cannot share inputs in phase %s", ErrInvalidState, p.phase)
	}
	for name := range values {
		if _, ok := p.index[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownBin, name)
		}
	}
	for _, bin := range p.bins {
		if values[bin.Name()] == nil {
			return fmt.Errorf("%w: %q", ErrMissingInput, bin.Name())
		}
	}

	for _, bin := range p.bins {
		if err := bin.ShareValue(p.sharer, values[bin.Name()]); err != nil {
			return err
		}
		if err := bin.TransferOwn(p.id); err != nil {
			return err
		}
	}

	p.logger.Debug("inputs shared", logging.Int("bins", len(p.bins)))
	return p.advance(PhaseSharing)
}

// OutgoingFor encodes the payload this party owes recipient in the current
// round: one input share per bin while sharing, one partial sum per bin
// while summing.
func (p *Party) OutgoingFor(recipient int) (Round, []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if recipient == p.id {
		return 0, nil, fmt.Errorf("%w: party %d cannot send to itself", ErrInvalidState, p.id)
	}

	shares := make([]*arithmetic.Share, len(p.bins))
	var round Round
	for i, bin := range p.bins {
		var s *arithmetic.Share
		var err error
		switch p.phase {
		case PhaseSharing:
			round = RoundShares
			s, err = bin.OutShare(recipient)
		case PhaseSumming:
			round = RoundSums
			s, err = bin.InShare(p.id)
		default:
			return 0, nil, fmt.Errorf("%w: nothing to send in phase %s", ErrInvalidState, p.phase)
		}
		if err != nil {
			return 0, nil, err
		}
		if s == nil {
			return 0, nil, fmt.Errorf("%w: bin %q has no share for party %d", ErrInvalidState, bin.Name(), recipient)
		}
		shares[i] = s
	}

	payload, err := arithmetic.EncodeShares(shares)
	if err != nil {
		return 0, nil, err
	}
	return round, payload, nil
}

// Accept records a payload from sender. Payloads for a later round are held
// until this party reaches it.
func (p *Party) Accept(round Round, sender int, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sender == p.id {
		return fmt.Errorf("%w: party %d cannot accept its own payload", ErrInvalidState, p.id)
	}
	if sender < 0 || sender >= p.sharer.NumParties() {
		return fmt.Errorf("%w: %d", ErrParticipantOutOfRange, sender)
	}
	if round != RoundShares && round != RoundSums {
		return fmt.Errorf("%w: unknown round %d", ErrInvalidState, round)
	}

	switch want := round.phase(); {
	case want > p.phase:
		p.pending = append(p.pending, pendingPayload{
			round:   round,
			sender:  sender,
			payload: append([]byte(nil), payload...),
		})
		return nil
	case want < p.phase:
		return fmt.Errorf("%w: round %d payload in phase %s", ErrInvalidState, round, p.phase)
	}

	if err := p.apply(sender, payload); err != nil {
		return err
	}
	return p.save()
}

func (p *Party) apply(sender int, payload []byte) error {
	shares, err := arithmetic.DecodeShares(payload)
	if err != nil {
		return fmt.Errorf("payload from party %d: %w", sender, err)
	}
	if len(shares) != len(p.bins) {
		return fmt.Errorf("%w: got %d shares for %d bins", ErrPayloadMismatch, len(shares), len(p.bins))
	}
	for i, bin := range p.bins {
		if err := bin.CheckInShare(sender, shares[i]); err != nil {
			return fmt.Errorf("bin %q: %w", bin.Name(), err)
		}
	}
	for i, bin := range p.bins {
		if err := bin.SetInShare(sender, shares[i]); err != nil {
			return err
		}
	}
	return nil
}

// Complete reports whether every bin holds a share from every participant
// for the current round.
func (p *Party) Complete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.complete()
}

func (p *Party) complete() bool {
	for _, bin := range p.bins {
		if !bin.IsComplete() {
			return false
		}
	}
	return true
}

// SumShares replaces each bin's incoming shares with their homomorphic sum
// and returns the partial sums in bin order.
func (p *Party) SumShares() ([]*arithmetic.Share, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.phase != PhaseSharing {
		return nil, fmt.Errorf("%w: cannot sum in phase %s", ErrInvalidState, p.phase)
	}

	sums := make([]*arithmetic.Share, len(p.bins))
	for i, bin := range p.bins {
		sum, err := bin.SumShare()
		if err != nil {
			return nil, err
		}
		sums[i] = sum
	}
	for i, bin := range p.bins {
		bin.ClearInExcept(p.id)
		bin.ClearOutExcept(p.id)
		if err := bin.SetInShare(p.id, sums[i]); err != nil {
			return nil, err
		}
	}

	if err := p.advance(PhaseSumming); err != nil {
		return nil, err
	}
	return sums, nil
}

// Result reconstructs the per-bin totals once every partial sum arrived.
func (p *Party) Result() (map[string]*big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.phase == PhaseFinished && p.totals != nil {
		return copyTotals(p.totals), nil
	}
	if p.phase != PhaseSumming && p.phase != PhaseFinished {
		return nil, fmt.Errorf("%w: no result in phase %s", ErrInvalidState, p.phase)
	}

	totals := make(map[string]*big.Int, len(p.bins))
	for _, bin := range p.bins {
		v, err := bin.Reconstruct()
		if err != nil {
			return nil, err
		}
		totals[bin.Name()] = v
	}

	p.totals = totals
	if p.phase != PhaseFinished {
		if err := p.advance(PhaseFinished); err != nil {
			return nil, err
		}
	}
	return copyTotals(totals), nil
}

// advance moves to next, persists, and replays payloads held for it.
func (p *Party) advance(next Phase) error {
	p.phase = next
	p.logger.Debug("phase changed", logging.String("phase", next.String()))

	held := p.pending
	p.pending = nil
	for _, pp := range held {
		switch want := pp.round.phase(); {
		case want > next:
			p.pending = append(p.pending, pp)
		case want == next:
			if err := p.apply(pp.sender, pp.payload); err != nil {
				return err
			}
		}
	}
	return p.save()
}

func copyTotals(in map[string]*big.Int) map[string]*big.Int {
	out := make(map[string]*big.Int, len(in))
	for k, v := range in {
		out[k] = new(big.Int).Set(v)
	}
	return out
}

// Reconstruct sums partial-sum vectors, one per party in bin order, into
// per-bin totals.
func Reconstruct(bins []string, sums [][]*arithmetic.Share) (map[string]*big.Int, error) {
	if len(sums) == 0 {
		return nil, arithmetic.ErrNoShares
	}
	totals := make(map[string]*big.Int, len(bins))
	for i, name := range bins {
		column := make([]*arithmetic.Share, len(sums))
		for party, row := range sums {
			if len(row) != len(bins) {
				return nil, fmt.Errorf("%w: party %d sent %d sums for %d bins", ErrPayloadMismatch, party, len(row), len(bins))
			}
			column[party] = row[i]
		}
		v, err := arithmetic.Reconstruct(column)
		if err != nil {
			return nil, fmt.Errorf("bin %q: %w", name, err)
		}
		totals[name] = v
	}
	return totals, nil
}

// SortedBins returns the keys of values in lexical order.
func SortedBins(values map[string]*big.Int) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
