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
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
	"github.com/jeremyhahn/go-smpc/pkg/sharestore"
)

func newParties(t *testing.T, n int, bins []string, store *sharestore.Store) []*Party {
	t.Helper()
	parties := make([]*Party, n)
	for id := range parties {
		p, err := NewParty(&PartyConfig{
			ID:     id,
			Study:  "study",
			Bins:   bins,
			Sharer: sharer(t, n),
			Store:  store,
		})
		require.NoError(t, err)
		parties[id] = p
	}
	return parties
}

// deliver moves the current round's payloads between all parties.
func deliver(t *testing.T, parties []*Party) {
	t.Helper()
	type msg struct {
		round    Round
		from, to int
		payload  []byte
	}
	var msgs []msg
	for _, p := range parties {
		for to := range parties {
			if to == p.ID() {
				continue
			}
			round, payload, err := p.OutgoingFor(to)
			require.NoError(t, err)
			msgs = append(msgs, msg{round, p.ID(), to, payload})
		}
	}
	for _, m := range msgs {
		require.NoError(t, parties[m.to].Accept(m.round, m.from, m.payload))
	}
}

func TestParty_SecureSum(t *testing.T) {
	bins := []string{"age", "visits"}
	parties := newParties(t, 3, bins, nil)

	inputs := []map[string]*big.Int{
		{"age": big.NewInt(30), "visits": big.NewInt(2)},
		{"age": big.NewInt(41), "visits": big.NewInt(0)},
		{"age": big.NewInt(25), "visits": big.NewInt(7)},
	}
	for i, p := range parties {
		require.NoError(t, p.ShareInputs(inputs[i]))
		assert.Equal(t, PhaseSharing, p.Phase())
		assert.False(t, p.Complete())
	}

	deliver(t, parties)

	sums := make([][]*arithmetic.Share, len(parties))
	for i, p := range parties {
		require.True(t, p.Complete())
		s, err := p.SumShares()
		require.NoError(t, err)
		sums[i] = s
		assert.Equal(t, PhaseSumming, p.Phase())
	}

	direct, err := Reconstruct(bins, sums)
	require.NoError(t, err)
	assert.Equal(t, int64(96), direct["age"].Int64())
	assert.Equal(t, int64(9), direct["visits"].Int64())

	deliver(t, parties)

	for _, p := range parties {
		totals, err := p.Result()
		require.NoError(t, err)
		assert.Equal(t, int64(96), totals["age"].Int64())
		assert.Equal(t, int64(9), totals["visits"].Int64())
		assert.Equal(t, PhaseFinished, p.Phase())

		again, err := p.Result()
		require.NoError(t, err)
		assert.Equal(t, totals, again)
	}
}

func TestParty_BuffersEarlyPayloads(t *testing.T) {
	parties := newParties(t, 2, []string{"x"}, nil)
	a, b := parties[0], parties[1]

	require.NoError(t, a.ShareInputs(map[string]*big.Int{"x": big.NewInt(10)}))

	// b has not entered values yet; a's round one payload waits.
	round, payload, err := a.OutgoingFor(1)
	require.NoError(t, err)
	assert.Equal(t, RoundShares, round)
	require.NoError(t, b.Accept(round, 0, payload))

	require.NoError(t, b.ShareInputs(map[string]*big.Int{"x": big.NewInt(20)}))
	assert.True(t, b.Complete())

	round, payload, err = b.OutgoingFor(0)
	require.NoError(t, err)
	require.NoError(t, a.Accept(round, 1, payload))

	_, err = b.SumShares()
	require.NoError(t, err)

	// a is still sharing when b's partial sum arrives.
	round, payload, err = b.OutgoingFor(0)
	require.NoError(t, err)
	assert.Equal(t, RoundSums, round)
	require.NoError(t, a.Accept(round, 1, payload))
	assert.Equal(t, PhaseSharing, a.Phase())

	_, err = a.SumShares()
	require.NoError(t, err)
	assert.True(t, a.Complete())

	totals, err := a.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(30), totals["x"].Int64())
}

func TestParty_Errors(t *testing.T) {
	_, err := NewParty(nil)
	assert.ErrorIs(t, err, arithmetic.ErrInvalidConfiguration)

	_, err = NewParty(&PartyConfig{ID: 3, Bins: []string{"x"}, Sharer: sharer(t, 3)})
	assert.ErrorIs(t, err, ErrParticipantOutOfRange)

	_, err = NewParty(&PartyConfig{ID: 0, Sharer: sharer(t, 3)})
	assert.ErrorIs(t, err, arithmetic.ErrInvalidConfiguration)

	_, err = NewParty(&PartyConfig{ID: 0, Bins: []string{"x", "x"}, Sharer: sharer(t, 3)})
	assert.ErrorIs(t, err, arithmetic.ErrInvalidConfiguration)

	p := newParties(t, 2, []string{"x", "y"}, nil)[0]

	_, _, err = p.OutgoingFor(1)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = p.SumShares()
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = p.Result()
	assert.ErrorIs(t, err, ErrInvalidState)

	assert.ErrorIs(t, p.ShareInputs(map[string]*big.Int{"x": big.NewInt(1)}), ErrMissingInput)
	assert.ErrorIs(t, p.ShareInputs(map[string]*big.Int{"x": big.NewInt(1), "y": big.NewInt(1), "z": big.NewInt(1)}), ErrUnknownBin)

	require.NoError(t, p.ShareInputs(map[string]*big.Int{"x": big.NewInt(1), "y": big.NewInt(2)}))
	assert.ErrorIs(t, p.ShareInputs(map[string]*big.Int{"x": big.NewInt(1), "y": big.NewInt(2)}), ErrInvalidState)

	_, _, err = p.OutgoingFor(0)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, p.Accept(RoundShares, 0, nil), ErrInvalidState)
	assert.ErrorIs(t, p.Accept(RoundShares, 7, nil), ErrParticipantOutOfRange)
	assert.ErrorIs(t, p.Accept(Round(9), 1, nil), ErrInvalidState)

	one, err := arithmetic.EncodeShares([]*arithmetic.Share{share(t, 1)})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Accept(RoundShares, 1, one), ErrPayloadMismatch)

	_, err = p.SumShares()
	assert.ErrorIs(t, err, ErrIncomplete)

	_, err = p.Bin("missing")
	assert.ErrorIs(t, err, ErrUnknownBin)
}

func TestParty_RejectsPayloadAtomically(t *testing.T) {
	foreign, err := arithmetic.NewShare(big.NewInt(1), big.NewInt(89))
	require.NoError(t, err)

	tests := []struct {
		name   string
		shares []*arithmetic.Share
	}{
		{name: "second share foreign", shares: []*arithmetic.Share{share(t, 1), foreign}},
		{name: "first share foreign", shares: []*arithmetic.Share{foreign, share(t, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParties(t, 2, []string{"x", "y"}, nil)[0]
			require.NoError(t, p.ShareInputs(map[string]*big.Int{"x": big.NewInt(1), "y": big.NewInt(2)}))

			payload, err := arithmetic.EncodeShares(tt.shares)
			require.NoError(t, err)
			assert.ErrorIs(t, p.Accept(RoundShares, 1, payload), arithmetic.ErrIncompatiblePrimes)

			for _, name := range []string{"x", "y"} {
				bin, err := p.Bin(name)
				require.NoError(t, err)
				in, err := bin.InShare(1)
				require.NoError(t, err)
				assert.Nil(t, in, "bin %s", name)
			}
			assert.False(t, p.Complete())

			valid, err := arithmetic.EncodeShares([]*arithmetic.Share{share(t, 3), share(t, 4)})
			require.NoError(t, err)
			require.NoError(t, p.Accept(RoundShares, 1, valid))
			assert.True(t, p.Complete())
		})
	}
}

func TestParty_RestoresFromStore(t *testing.T) {
	fb, err := sharestore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store := sharestore.New(fb)

	parties := newParties(t, 2, []string{"x"}, store)
	require.NoError(t, parties[0].ShareInputs(map[string]*big.Int{"x": big.NewInt(11)}))
	require.NoError(t, parties[1].ShareInputs(map[string]*big.Int{"x": big.NewInt(22)}))

	// Party 0 restarts after sharing; its own share survives on disk.
	restarted, err := NewParty(&PartyConfig{ID: 0, Study: "study", Bins: []string{"x"}, Sharer: sharer(t, 2), Store: store})
	require.NoError(t, err)
	assert.Equal(t, PhaseSharing, restarted.Phase())

	bin, err := restarted.Bin("x")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, bin.FilledInIndices())
	assert.Equal(t, []int{1}, bin.FilledOutIndices())

	parties[0] = restarted
	deliver(t, parties)
	for _, p := range parties {
		_, err := p.SumShares()
		require.NoError(t, err)
	}
	deliver(t, parties)

	totals, err := restarted.Result()
	require.NoError(t, err)
	assert.Equal(t, int64(33), totals["x"].Int64())

	keys, err := store.List(sharestore.BinPrefix("study", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{sharestore.BinKey("study", 0, "x")}, keys)
}

func TestReconstruct_Errors(t *testing.T) {
	_, err := Reconstruct([]string{"x"}, nil)
	assert.ErrorIs(t, err, arithmetic.ErrNoShares)

	_, err = Reconstruct([]string{"x", "y"}, [][]*arithmetic.Share{{share(t, 1)}})
	assert.ErrorIs(t, err, ErrPayloadMismatch)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "entering_values", PhaseEnteringValues.String())
	assert.Equal(t, "finished", PhaseFinished.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
}
