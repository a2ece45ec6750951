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
	"context"
	"fmt"
	"io"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
	"github.com/jeremyhahn/go-smpc/pkg/bus"
	"github.com/jeremyhahn/go-smpc/pkg/logging"
	"github.com/jeremyhahn/go-smpc/pkg/metrics"
	"github.com/jeremyhahn/go-smpc/pkg/sharestore"
)

// SimulationConfig configures an in-process secure sum over a Bus.
type SimulationConfig struct {
	// Inputs holds one map of bin values per party. Every party must
	// provide the same bins.
	Inputs []map[string]*big.Int

	// Prime is the field modulus. Defaults to arithmetic.DefaultPrime().
	Prime *big.Int

	// Random is shared by all parties and read under a lock. Defaults to
	// each Sharer's own software source.
	Random io.Reader

	// Bus defaults to a MemoryBus sized for the parties.
	Bus bus.Bus

	// Store persists every party's bins. Defaults to memory.
	Store *sharestore.Store

	// Logger defaults to logging.NoOp.
	Logger logging.Logger
}

// Result is the outcome of a simulated study.
type Result struct {
	Study  uuid.UUID
	Bins   []string
	Totals map[string]*big.Int
}

type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}

// Simulate runs every party of a study concurrently, exchanging shares over
// the bus, and returns the per-bin totals. It fails if any party errors or
// the parties disagree on a total.
func Simulate(ctx context.Context, config *SimulationConfig) (result *Result, err error) {
	defer metrics.Observe(metrics.OpAggregate, time.Now(), &err)

	if config == nil || len(config.Inputs) < arithmetic.MinParties {
		return nil, &arithmetic.InvalidConfigurationError{
			Field:  "inputs",
			Reason: fmt.Sprintf("at least %d parties are required", arithmetic.MinParties),
		}
	}
	n := len(config.Inputs)
	bins := SortedBins(config.Inputs[0])

	logger := config.Logger
	if logger == nil {
		logger = logging.NoOp{}
	}
	b := config.Bus
	if b == nil {
		mb := bus.NewMemoryBus(n, 2*n)
		defer func() { _ = mb.Close() }()
		b = mb
	}
	store := config.Store
	if store == nil {
		store = sharestore.NewMemory()
	}
	var random io.Reader
	if config.Random != nil {
		random = &lockedReader{r: config.Random}
	}

	study := uuid.New()
	logger = logger.With(logging.String("study", study.String()))

	parties := make([]*Party, n)
	for id := range parties {
		sharer, err := arithmetic.NewSharer(&arithmetic.Config{
			NumParties: n,
			Prime:      config.Prime,
			Random:     random,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		parties[id], err = NewParty(&PartyConfig{
			ID:     id,
			Study:  study.String(),
			Bins:   bins,
			Sharer: sharer,
			Store:  store,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Info("study started", logging.Int("parties", n), logging.Int("bins", len(bins)))

	totals := make([]map[string]*big.Int, n)
	g, gctx := errgroup.WithContext(ctx)
	for id := range parties {
		g.Go(func() error {
			t, err := runParty(gctx, b, study.String(), parties[id], n, config.Inputs[id])
			if err != nil {
				return fmt.Errorf("party %d: %w", id, err)
			}
			totals[id] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("study failed", logging.Error(err))
		return nil, err
	}

	for id := 1; id < n; id++ {
		for _, name := range bins {
			if totals[id][name].Cmp(totals[0][name]) != 0 {
				return nil, fmt.Errorf("%w: bin %q", ErrResultMismatch, name)
			}
		}
	}

	logger.Info("study finished")
	return &Result{Study: study, Bins: bins, Totals: totals[0]}, nil
}

func runParty(ctx context.Context, b bus.Bus, study string, p *Party, n int, inputs map[string]*big.Int) (map[string]*big.Int, error) {
	if err := p.ShareInputs(inputs); err != nil {
		return nil, err
	}
	if err := exchange(ctx, b, study, p, n); err != nil {
		return nil, err
	}

	if _, err := p.SumShares(); err != nil {
		return nil, err
	}
	if err := exchange(ctx, b, study, p, n); err != nil {
		return nil, err
	}

	return p.Result()
}

// exchange sends the current round's payload to every peer and receives
// until the party holds a share from everyone.
func exchange(ctx context.Context, b bus.Bus, study string, p *Party, n int) error {
	for peer := 0; peer < n; peer++ {
		if peer == p.ID() {
			continue
		}
		round, payload, err := p.OutgoingFor(peer)
		if err != nil {
			return err
		}
		if err := b.Send(ctx, bus.NewMessage(study, int(round), p.ID(), peer, payload)); err != nil {
			return fmt.Errorf("send to party %d: %w", peer, err)
		}
	}

	for !p.Complete() {
		msg, err := b.Receive(ctx, p.ID())
		if err != nil {
			return fmt.Errorf("receive: %w", err)
		}
		if msg.Study != study {
			continue
		}
		if err := p.Accept(Round(msg.Round), msg.Sender, msg.Payload); err != nil {
			return err
		}
	}
	return nil
}
