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

package cli

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
	"github.com/jeremyhahn/go-smpc/pkg/logging"
	"github.com/jeremyhahn/go-smpc/pkg/sharestore"
)

// shareName is the record name of a standalone secret within a study.
const shareName = "secret"

func newShareCmd(cfg *Config) *cobra.Command {
	var (
		decimal bool
		wire    bool
		save    string
	)

	cmd := &cobra.Command{
		Use:   "share <secret>",
		Short: "Split a secret into additive shares",
		Long: `Split a secret integer into one share per party. With --decimal the
secret is scaled to fixed point using --fractional-bits first.`,
		Example: `  smpc share 42 -n 3 --prime 97
  smpc share --decimal --fractional-bits 16 -- -12.5
  smpc share 1000 --save payroll --data-dir ./smpc-data`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cfg.Logger(cmd.ErrOrStderr())

			random, err := cfg.CreateEntropy()
			if err != nil {
				return err
			}
			defer func() { _ = random.Close() }()

			sharer, err := cfg.CreateSharer(random, logger)
			if err != nil {
				return err
			}

			var shares []*arithmetic.Share
			if decimal {
				fixed, perr := arithmetic.ParseFixedPoint(args[0], cfg.Settings.Sharing.FractionalBits)
				if perr != nil {
					return fmt.Errorf("invalid decimal secret: %w", perr)
				}
				shares, err = sharer.Share(fixed)
			} else {
				secret, ok := new(big.Int).SetString(args[0], 10)
				if !ok {
					return fmt.Errorf("invalid integer secret: %q", args[0])
				}
				shares, err = sharer.Share(secret)
			}
			if err != nil {
				return err
			}

			if save != "" {
				store, err := cfg.CreateStore()
				if err != nil {
					return err
				}
				defer func() { _ = store.Close() }()
				if err := saveShares(store, save, shares); err != nil {
					return err
				}
				logger.Info("shares saved", logging.String("study", save), logging.Int("parties", len(shares)))
			}

			printVerbose(cmd, cfg, "shared across %d parties, modulus %d bits", len(shares), sharer.Prime().BitLen())
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintShares(shares, wire)
		},
	}

	cmd.Flags().BoolVar(&decimal, "decimal", false, "treat the secret as a decimal number")
	cmd.Flags().BoolVar(&wire, "wire", false, "print shares in base64 binary encoding")
	cmd.Flags().StringVar(&save, "save", "", "persist the shares under this study name")
	return cmd
}

func saveShares(store *sharestore.Store, study string, shares []*arithmetic.Share) error {
	for party, s := range shares {
		if err := store.PutShare(sharestore.ShareKey(study, party, shareName), s); err != nil {
			return fmt.Errorf("save share for party %d: %w", party, err)
		}
	}
	return nil
}

// loadShares reads consecutive party shares of study starting at party 0.
func loadShares(store *sharestore.Store, study string) ([]*arithmetic.Share, error) {
	var shares []*arithmetic.Share
	for party := 0; ; party++ {
		s, err := store.GetShare(sharestore.ShareKey(study, party, shareName))
		if errors.Is(err, sharestore.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	if len(shares) == 0 {
		return nil, fmt.Errorf("no shares stored for study %q: %w", study, sharestore.ErrNotFound)
	}
	return shares, nil
}
