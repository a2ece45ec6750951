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
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-smpc/pkg/aggregation"
)

func newSimulateCmd(cfg *Config) *cobra.Command {
	var inputs []string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run an in-process secure sum between parties",
		Long: `Run every party of a study in one process. Each --party flag gives one
party's inputs as comma separated name=value pairs; every party must name
the same bins. Parties exchange shares over an in-memory bus and only the
per-bin totals are revealed.`,
		Example: `  smpc simulate --party age=30,visits=2 --party age=41,visits=0 --party age=25,visits=7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := make([]map[string]*big.Int, len(inputs))
			for i, in := range inputs {
				v, err := parseInputs(in)
				if err != nil {
					return fmt.Errorf("party %d: %w", i, err)
				}
				values[i] = v
			}

			prime, err := cfg.Settings.PrimeValue()
			if err != nil {
				return err
			}
			random, err := cfg.CreateEntropy()
			if err != nil {
				return err
			}
			defer func() { _ = random.Close() }()
			store, err := cfg.CreateStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			printVerbose(cmd, cfg, "simulating %d parties", len(values))
			result, err := aggregation.Simulate(cmd.Context(), &aggregation.SimulationConfig{
				Inputs: values,
				Prime:  prime,
				Random: random,
				Store:  store,
				Logger: cfg.Logger(cmd.ErrOrStderr()),
			})
			if err != nil {
				return err
			}
			return NewPrinter(cfg.OutputFormat, cmd.OutOrStdout()).PrintResult(result)
		},
	}

	cmd.Flags().StringArrayVar(&inputs, "party", nil, "one party's inputs as name=value[,name=value...]")
	_ = cmd.MarkFlagRequired("party")
	return cmd
}

func parseInputs(s string) (map[string]*big.Int, error) {
	values := make(map[string]*big.Int)
	for _, pair := range strings.Split(s, ",") {
		name, raw, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid input %q, want name=value", pair)
		}
		v, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, fmt.Errorf("invalid value for %q: %q", name, raw)
		}
		if _, dup := values[name]; dup {
			return nil, fmt.Errorf("duplicate input %q", name)
		}
		values[name] = v
	}
	return values, nil
}
