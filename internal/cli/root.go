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

// Package cli implements the smpc command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the smpc command tree with its own configuration.
func NewRootCmd() *cobra.Command {
	cfg := NewConfig()

	rootCmd := &cobra.Command{
		Use:   "smpc",
		Short: "go-smpc CLI - Additive secret sharing over prime fields",
		Long: `go-smpc CLI splits secrets into additive shares over a prime field,
reconstructs them, adds shares homomorphically and simulates multi-party
secure sums.

Entropy sources:
  - software:      crypto/rand
  - auto:          best available hardware source, else software
  - tpm2:          TPM 2.0 hardware RNG (tpm2 build tag)
  - pkcs11:        PKCS#11 HSM RNG (pkcs11 build tag)
  - deterministic: seeded ChaCha20 stream, for reproducible test vectors`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Load()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.ConfigFile, "config", "",
		"config file (YAML)")
	flags.StringP("output", "o", "text",
		"output format (text, json)")
	flags.BoolP("verbose", "v", false,
		"verbose output")
	flags.IntP("parties", "n", 0,
		"number of parties (overrides sharing.parties)")
	flags.String("prime", "",
		"field modulus as a decimal string (default 2^127-1)")
	flags.Int("fractional-bits", 0,
		"fixed point precision for --decimal values")
	flags.String("entropy-mode", "",
		"entropy source (software, auto, tpm2, pkcs11, deterministic)")
	flags.String("entropy-seed", "",
		"seed for the deterministic entropy source")
	flags.String("data-dir", "",
		"persist shares and bins below this directory")
	cfg.bind(flags)

	rootCmd.AddCommand(newVersionCmd(cfg))
	rootCmd.AddCommand(newShareCmd(cfg))
	rootCmd.AddCommand(newReconstructCmd(cfg))
	rootCmd.AddCommand(newAddCmd(cfg))
	rootCmd.AddCommand(newSimulateCmd(cfg))

	return rootCmd
}

// Execute runs the root command and reports errors in the selected format.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		format, _ := rootCmd.PersistentFlags().GetString("output")
		printer := NewPrinter(format, os.Stderr)
		_ = printer.PrintError(err) // Error printing to stderr is best-effort
	}
	return err
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(cmd *cobra.Command, cfg *Config, format string, args ...any) {
	if cfg.Verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "[VERBOSE] "+format+"\n", args...)
	}
}
