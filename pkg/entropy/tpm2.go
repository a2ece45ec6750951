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

//go:build tpm2

package entropy

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/go-tpm/tpm2"
	"github.com/google/go-tpm/tpm2/transport"
	"github.com/google/go-tpm/tpm2/transport/tcp"
	"github.com/google/go-tpm/tpmutil"
)

const (
	defaultTPMDevice      = "/dev/tpm0"
	defaultTPMRequestSize = 32
)

// tpm2Resolver draws bytes with the TPM2_GetRandom command.
type tpm2Resolver struct {
	mu      sync.Mutex
	tpm     transport.TPMCloser
	maxSize int
}

var _ Resolver = (*tpm2Resolver)(nil)

func newTPM2Resolver(config *TPM2Config) (Resolver, error) {
	cfg := TPM2Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.Device == "" {
		cfg.Device = defaultTPMDevice
	}
	if cfg.MaxRequestSize <= 0 {
		cfg.MaxRequestSize = defaultTPMRequestSize
	}

	var tpm transport.TPMCloser
	if cfg.SimulatorAddress != "" {
		// swtpm listens for platform commands on the next port
		host, port, err := net.SplitHostPort(cfg.SimulatorAddress)
		if err != nil {
			return nil, fmt.Errorf("invalid TPM simulator address %q: %w", cfg.SimulatorAddress, err)
		}
		var platformPort int
		if _, err := fmt.Sscanf(port, "%d", &platformPort); err != nil {
			return nil, fmt.Errorf("invalid TPM simulator port %q: %w", port, err)
		}
		tpm, err = tcp.Open(tcp.Config{
			CommandAddress:  cfg.SimulatorAddress,
			PlatformAddress: net.JoinHostPort(host, fmt.Sprint(platformPort+1)),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to TPM simulator at %s: %w", cfg.SimulatorAddress, err)
		}
	} else {
		dev, err := tpmutil.OpenTPM(cfg.Device)
		if err != nil {
			return nil, fmt.Errorf("failed to open TPM2 device %s: %w", cfg.Device, err)
		}
		tpm = transport.FromReadWriteCloser(dev)
	}

	return &tpm2Resolver{tpm: tpm, maxSize: cfg.MaxRequestSize}, nil
}

func tpm2Available() bool {
	return true
}

func (t *tpm2Resolver) Rand(n int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tpm == nil {
		return nil, ErrClosed
	}

	out := make([]byte, 0, n)
	for len(out) < n {
		chunk := min(n-len(out), t.maxSize)
		cmd := tpm2.GetRandom{BytesRequested: uint16(chunk)}
		rsp, err := cmd.Execute(t.tpm)
		if err != nil {
			return nil, fmt.Errorf("TPM2 GetRandom failed: %w", err)
		}
		out = append(out, rsp.RandomBytes.Buffer...)
	}
	return out[:n], nil
}

func (t *tpm2Resolver) Read(p []byte) (int, error) {
	return readFrom(t, p)
}

func (t *tpm2Resolver) Available() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tpm != nil
}

func (t *tpm2Resolver) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tpm == nil {
		return nil
	}
	err := t.tpm.Close()
	t.tpm = nil
	return err
}
