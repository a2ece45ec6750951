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

// Package entropy resolves the randomness source used to draw field elements
// during share generation.
//
// Sources:
//   - software: crypto/rand
//   - tpm2: TPM 2.0 GetRandom (requires the tpm2 build tag)
//   - pkcs11: HSM C_GenerateRandom (requires the pkcs11 build tag)
//   - deterministic: ChaCha20 stream keyed from a seed, for reproducible test
//     vectors only
//   - auto: best available hardware source, else software
//
// Every Resolver implements io.Reader and is safe for concurrent use.
package entropy

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// Mode specifies which entropy source to use.
type Mode string

const (
	// ModeAuto selects the best available source.
	// Preference order: PKCS#11 > TPM2 > Software
	ModeAuto Mode = "auto"

	// ModeSoftware uses crypto/rand
	ModeSoftware Mode = "software"

	// ModeTPM2 uses the TPM 2.0 hardware RNG
	ModeTPM2 Mode = "tpm2"

	// ModePKCS11 uses a PKCS#11 hardware security module RNG
	ModePKCS11 Mode = "pkcs11"

	// ModeDeterministic expands Config.Seed with ChaCha20. Never use it to
	// share real secrets.
	ModeDeterministic Mode = "deterministic"
)

var (
	// ErrClosed is returned by a resolver after Close.
	ErrClosed = errors.New("entropy: resolver closed")

	// ErrUnavailable is returned when a source was not compiled in.
	ErrUnavailable = errors.New("entropy: source unavailable")
)

// Config contains entropy source configuration.
type Config struct {
	// Mode specifies the primary source. Defaults to ModeSoftware.
	Mode Mode `yaml:"mode"`

	// FallbackMode is used when a draw from the primary source fails.
	FallbackMode Mode `yaml:"fallback_mode"`

	// Seed keys the deterministic stream. Required for ModeDeterministic.
	Seed string `yaml:"seed"`

	// TPM2 contains TPM2-specific settings.
	TPM2 *TPM2Config `yaml:"tpm2,omitempty"`

	// PKCS11 contains PKCS#11-specific settings.
	PKCS11 *PKCS11Config `yaml:"pkcs11,omitempty"`
}

// TPM2Config contains configuration for the TPM2 source.
type TPM2Config struct {
	// Device path to the TPM device (default: "/dev/tpm0")
	Device string `yaml:"device"`

	// MaxRequestSize limits bytes per GetRandom call (default: 32)
	MaxRequestSize int `yaml:"max_request_size"`

	// SimulatorAddress connects to a swtpm simulator ("host:port")
	// instead of Device when set.
	SimulatorAddress string `yaml:"simulator_address"`
}

// PKCS11Config contains configuration for the PKCS#11 source.
type PKCS11Config struct {
	// Module path to the PKCS#11 library (e.g., /usr/lib/softhsm/libsofthsm2.so)
	Module string `yaml:"module"`

	// SlotID of the token providing the RNG
	SlotID uint `yaml:"slot_id"`

	// PIN logs in as CKU_USER when not empty
	PIN string `yaml:"pin"`
}

// Resolver is a source of cryptographically secure random bytes.
type Resolver interface {
	io.Reader

	// Rand returns n random bytes.
	Rand(n int) ([]byte, error)

	// Available returns true if the source is ready.
	Available() bool

	// Close releases any resources.
	Close() error
}

// NewResolver creates a resolver for the given configuration.
// A nil config yields the software source.
func NewResolver(config *Config) (Resolver, error) {
	if config == nil {
		config = &Config{Mode: ModeSoftware}
	}

	primary, err := newResolver(config.Mode, config)
	if err != nil {
		return nil, err
	}
	if config.FallbackMode == "" || config.FallbackMode == config.Mode {
		return primary, nil
	}

	fallback, err := newResolver(config.FallbackMode, config)
	if err != nil {
		_ = primary.Close()
		return nil, fmt.Errorf("fallback source: %w", err)
	}
	return &fallbackResolver{primary: primary, fallback: fallback}, nil
}

func newResolver(mode Mode, cfg *Config) (Resolver, error) {
	switch mode {
	case "", ModeSoftware:
		return Software(), nil
	case ModeAuto:
		return newAutoResolver(cfg)
	case ModeTPM2:
		return newTPM2Resolver(cfg.TPM2)
	case ModePKCS11:
		return newPKCS11Resolver(cfg.PKCS11)
	case ModeDeterministic:
		return NewDeterministic([]byte(cfg.Seed))
	default:
		return nil, fmt.Errorf("unknown entropy mode: %s", mode)
	}
}

// SoftwareResolver uses crypto/rand from the Go standard library.
type SoftwareResolver struct{}

var _ Resolver = SoftwareResolver{}

// Software returns the crypto/rand backed resolver.
func Software() Resolver {
	return SoftwareResolver{}
}

func (SoftwareResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	return buf, err
}

func (SoftwareResolver) Read(p []byte) (int, error) {
	return rand.Read(p)
}

func (SoftwareResolver) Available() bool { return true }

func (SoftwareResolver) Close() error { return nil }

// readFrom adapts a Rand-style source to io.Reader semantics.
func readFrom(r Resolver, p []byte) (int, error) {
	data, err := r.Rand(len(p))
	if err != nil {
		return 0, err
	}
	return copy(p, data), nil
}
