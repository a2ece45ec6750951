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
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
)

func newReconstructCmd(cfg *Config) *cobra.Command {
	var (
		decimal bool
		wire    bool
		load    string
		strict  bool
	)

	cmd := &cobra.Command{
		Use:   "reconstruct [share...]",
		Short: "Recover a secret from all of its shares",
		Long: `Recover a secret by summing every share modulo the field prime. Shares
are given as "<value> mod <prime>" arguments, as base64 wire encodings with
--wire, or loaded from storage with --load. With --strict the share count
must equal --parties.`,
		Example: `  smpc reconstruct "10 mod 97" "15 mod 97" "17 mod 97"
  smpc reconstruct --load payroll --data-dir ./smpc-data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			shares, err := collectShares(cfg, load, wire, args)
			if err != nil {
				return err
			}

			if strict && len(shares) != cfg.Settings.Sharing.Parties {
				return fmt.Errorf("%w: got %d shares, want %d",
					arithmetic.ErrShareCountMismatch, len(shares), cfg.Settings.Sharing.Parties)
			}

			printer := NewPrinter(cfg.OutputFormat, cmd.OutOrStdout())
			if decimal {
				v, err := arithmetic.ReconstructSigned(shares, cfg.Settings.Sharing.FractionalBits)
				if err != nil {
					return err
				}
				return printer.PrintSecret(v)
			}
			v, err := arithmetic.Reconstruct(shares)
			if err != nil {
				return err
			}
			return printer.PrintSecret(v)
		},
	}

	cmd.Flags().BoolVar(&decimal, "decimal", false, "decode a signed fixed point result")
	cmd.Flags().BoolVar(&wire, "wire", false, "arguments are base64 binary encodings")
	cmd.Flags().StringVar(&load, "load", "", "load the shares of this study from storage")
	cmd.Flags().BoolVar(&strict, "strict", false, "require exactly --parties shares")
	return cmd
}

func collectShares(cfg *Config, load string, wire bool, args []string) ([]*arithmetic.Share, error) {
	if load != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--load cannot be combined with share arguments")
		}
		store, err := cfg.CreateStore()
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
		return loadShares(store, load)
	}

	shares := make([]*arithmetic.Share, len(args))
	for i, arg := range args {
		s, err := parseShareArg(arg, wire)
		if err != nil {
			return nil, fmt.Errorf("share %d: %w", i, err)
		}
		shares[i] = s
	}
	return shares, nil
}

func parseShareArg(arg string, wire bool) (*arithmetic.Share, error) {
	if !wire {
		return arithmetic.ParseShare(arg)
	}
	data, err := base64.StdEncoding.DecodeString(arg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", arithmetic.ErrInvalidEncoding, err)
	}
	return arithmetic.DecodeShare(data)
}
