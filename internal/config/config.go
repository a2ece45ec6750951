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

// Package config loads the smpc YAML configuration.
package config

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
	"github.com/jeremyhahn/go-smpc/pkg/entropy"
	"github.com/jeremyhahn/go-smpc/pkg/logging"
)

// Config represents the complete smpc configuration
type Config struct {
	Sharing SharingConfig  `yaml:"sharing"`
	Entropy entropy.Config `yaml:"entropy"`
	Logging LoggingConfig  `yaml:"logging"`
	Storage StorageConfig  `yaml:"storage"`
	Metrics MetricsConfig  `yaml:"metrics"`
}

// SharingConfig controls the field and party count
type SharingConfig struct {
	Parties int `yaml:"parties"`

	// Prime is the field modulus as a decimal string. Empty selects 2^127-1.
	Prime string `yaml:"prime"`

	// FractionalBits is the fixed point precision for decimal inputs
	FractionalBits int `yaml:"fractional_bits"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StorageConfig selects where party state is persisted
type StorageConfig struct {
	Backend string `yaml:"backend"` // memory, file
	Path    string `yaml:"path"`
}

// MetricsConfig controls metrics collection
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

const (
	StorageMemory = "memory"
	StorageFile   = "file"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sharing: SharingConfig{
			Parties:        3,
			FractionalBits: 32,
		},
		Entropy: entropy.Config{Mode: entropy.ModeSoftware},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{Backend: StorageMemory},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads configuration from a YAML file on top of Default and applies
// environment variable overrides
func Load(path string) (*Config, error) {
	// #nosec G304 - Config file path is provided by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies SMPC_* environment variables to the configuration
func applyEnvOverrides(cfg *Config) {
	if parties := os.Getenv("SMPC_PARTIES"); parties != "" {
		n, err := strconv.Atoi(parties)
		if err != nil {
			log.Printf("Warning: invalid SMPC_PARTIES value %q, using %d: %v",
				parties, cfg.Sharing.Parties, err)
		} else {
			cfg.Sharing.Parties = n
		}
	}
	if prime := os.Getenv("SMPC_PRIME"); prime != "" {
		cfg.Sharing.Prime = prime
	}
	if bits := os.Getenv("SMPC_FRACTIONAL_BITS"); bits != "" {
		n, err := strconv.Atoi(bits)
		if err != nil {
			log.Printf("Warning: invalid SMPC_FRACTIONAL_BITS value %q, using %d: %v",
				bits, cfg.Sharing.FractionalBits, err)
		} else {
			cfg.Sharing.FractionalBits = n
		}
	}

	// Entropy
	if mode := os.Getenv("SMPC_ENTROPY_MODE"); mode != "" {
		cfg.Entropy.Mode = entropy.Mode(mode)
	}
	if seed := os.Getenv("SMPC_ENTROPY_SEED"); seed != "" {
		cfg.Entropy.Seed = seed
	}
	if dev := os.Getenv("TPM_DEVICE_PATH"); dev != "" && cfg.Entropy.TPM2 != nil {
		cfg.Entropy.TPM2.Device = dev
	}
	if lib := os.Getenv("PKCS11_LIBRARY"); lib != "" && cfg.Entropy.PKCS11 != nil {
		cfg.Entropy.PKCS11.Module = lib
	}

	// Logging
	if level := os.Getenv("SMPC_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("SMPC_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	// Storage
	if dataDir := os.Getenv("SMPC_DATA_DIR"); dataDir != "" {
		cfg.Storage.Backend = StorageFile
		cfg.Storage.Path = dataDir
	}

	if enabled := os.Getenv("SMPC_METRICS_ENABLED"); enabled != "" {
		b, err := strconv.ParseBool(enabled)
		if err != nil {
			log.Printf("Warning: invalid SMPC_METRICS_ENABLED value %q: %v", enabled, err)
		} else {
			cfg.Metrics.Enabled = b
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Sharing.Parties < arithmetic.MinParties {
		return fmt.Errorf("sharing parties must be at least %d, got %d", arithmetic.MinParties, c.Sharing.Parties)
	}
	if _, err := c.PrimeValue(); err != nil {
		return err
	}
	if c.Sharing.FractionalBits < 0 {
		return fmt.Errorf("sharing fractional_bits must not be negative: %d", c.Sharing.FractionalBits)
	}

	switch c.Entropy.Mode {
	case "", entropy.ModeSoftware, entropy.ModeAuto, entropy.ModeTPM2, entropy.ModePKCS11:
	case entropy.ModeDeterministic:
		if c.Entropy.Seed == "" {
			return fmt.Errorf("entropy seed is required in deterministic mode")
		}
	default:
		return fmt.Errorf("invalid entropy mode: %s", c.Entropy.Mode)
	}
	if c.Entropy.Mode == entropy.ModePKCS11 && (c.Entropy.PKCS11 == nil || c.Entropy.PKCS11.Module == "") {
		return fmt.Errorf("entropy pkcs11 module is required in pkcs11 mode")
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", c.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	switch c.Storage.Backend {
	case StorageMemory:
	case StorageFile:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path must be specified for the file backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %q (must be memory or file)", c.Storage.Backend)
	}

	return nil
}

// PrimeValue parses the configured modulus. Empty yields the default prime.
func (c *Config) PrimeValue() (*big.Int, error) {
	if c.Sharing.Prime == "" {
		return arithmetic.DefaultPrime(), nil
	}
	p, ok := new(big.Int).SetString(c.Sharing.Prime, 10)
	if !ok {
		return nil, fmt.Errorf("invalid sharing prime: %q", c.Sharing.Prime)
	}
	if err := arithmetic.ValidatePrime(p); err != nil {
		return nil, fmt.Errorf("invalid sharing prime: %w", err)
	}
	return p, nil
}
