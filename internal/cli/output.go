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
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/jeremyhahn/go-smpc/pkg/aggregation"
	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintShares prints a share vector, one share per party. With wire set the
// text form is the base64 binary encoding accepted by reconstruct --wire.
func (p *Printer) PrintShares(shares []*arithmetic.Share, wire bool) error {
	switch p.format {
	case OutputFormatJSON:
		out := map[string]interface{}{"shares": shares}
		if wire {
			encoded := make([]string, len(shares))
			for i, s := range shares {
				b, err := s.MarshalBinary()
				if err != nil {
					return err
				}
				encoded[i] = base64.StdEncoding.EncodeToString(b)
			}
			out["wire"] = encoded
		}
		return p.printJSON(out)
	case OutputFormatText:
		for i, s := range shares {
			if wire {
				b, err := s.MarshalBinary()
				if err != nil {
					return err
				}
				fmt.Fprintln(p.writer, base64.StdEncoding.EncodeToString(b))
				continue
			}
			fmt.Fprintf(p.writer, "party %d: %s\n", i, s)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintShare prints a single share
func (p *Printer) PrintShare(share *arithmetic.Share) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{"share": share})
	case OutputFormatText:
		fmt.Fprintln(p.writer, share)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSecret prints a reconstructed value
func (p *Printer) PrintSecret(secret fmt.Stringer) error {
	text := secret.String()
	if f, ok := secret.(*big.Float); ok {
		text = arithmetic.FormatDecimal(f)
	}
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{"secret": text})
	case OutputFormatText:
		fmt.Fprintln(p.writer, text)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintResult prints the totals of a secure sum
func (p *Printer) PrintResult(result *aggregation.Result) error {
	switch p.format {
	case OutputFormatJSON:
		totals := make(map[string]string, len(result.Totals))
		for name, v := range result.Totals {
			totals[name] = v.String()
		}
		return p.printJSON(map[string]interface{}{
			"study":  result.Study.String(),
			"totals": totals,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Study: %s\n", result.Study)
		for _, name := range result.Bins {
			fmt.Fprintf(p.writer, "  %s: %s\n", name, result.Totals[name])
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
