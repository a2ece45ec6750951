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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
	"github.com/jeremyhahn/go-smpc/pkg/metrics"
)

func newAddCmd(cfg *Config) *cobra.Command {
	var (
		wire  bool
		left  string
		right string
		save  string
	)

	cmd := &cobra.Command{
		Use:   "add [share...]",
		Short: "Add shares homomorphically",
		Long: `Add shares held by one party, or with --left and --right add two stored
share vectors party by party. The result shares the sum of the secrets.`,
		Example: `  smpc add "10 mod 97" "90 mod 97"
  smpc add --left a --right b --save a-plus-b --data-dir ./smpc-data`,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := NewPrinter(cfg.OutputFormat, cmd.OutOrStdout())

			if left != "" || right != "" {
				if left == "" || right == "" || len(args) > 0 {
					return fmt.Errorf("--left and --right must be given together and without share arguments")
				}
				return addStored(cfg, printer, left, right, save, wire)
			}

			if len(args) < 2 {
				return fmt.Errorf("add requires at least two shares")
			}
			sum, err := parseShareArg(args[0], wire)
			if err != nil {
				return fmt.Errorf("share 0: %w", err)
			}
			for i, arg := range args[1:] {
				s, err := parseShareArg(arg, wire)
				if err != nil {
					return fmt.Errorf("share %d: %w", i+1, err)
				}
				if sum, err = sum.Add(s); err != nil {
					metrics.RecordError(metrics.OpAdd, "incompatible_primes")
					return err
				}
			}
			return printer.PrintShare(sum)
		},
	}

	cmd.Flags().BoolVar(&wire, "wire", false, "arguments are base64 binary encodings")
	cmd.Flags().StringVar(&left, "left", "", "study holding the first share vector")
	cmd.Flags().StringVar(&right, "right", "", "study holding the second share vector")
	cmd.Flags().StringVar(&save, "save", "", "persist the summed vector under this study name")
	return cmd
}

func addStored(cfg *Config, printer *Printer, left, right, save string, wire bool) error {
	store, err := cfg.CreateStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	a, err := loadShares(store, left)
	if err != nil {
		return err
	}
	b, err := loadShares(store, right)
	if err != nil {
		return err
	}
	sum, err := arithmetic.AddShares(a, b)
	if err != nil {
		return err
	}
	if save != "" {
		if err := saveShares(store, save, sum); err != nil {
			return err
		}
	}
	return printer.PrintShares(sum, wire)
}
