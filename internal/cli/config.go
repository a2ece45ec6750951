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
	"io"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-smpc/internal/config"
	"github.com/jeremyhahn/go-smpc/pkg/arithmetic"
	"github.com/jeremyhahn/go-smpc/pkg/entropy"
	"github.com/jeremyhahn/go-smpc/pkg/logging"
	"github.com/jeremyhahn/go-smpc/pkg/metrics"
	"github.com/jeremyhahn/go-smpc/pkg/sharestore"
)

// EnvPrefix prefixes environment variables bound to CLI flags.
const EnvPrefix = "SMPC"

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the YAML configuration file
	ConfigFile string

	// OutputFormat controls output formatting (json, text)
	OutputFormat string

	// Verbose enables verbose logging
	Verbose bool

	// Settings is the resolved configuration: file, then environment,
	// then flags.
	Settings *config.Config

	v *viper.Viper
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		OutputFormat: "text",
		Settings:     config.Default(),
		v:            viper.New(),
	}
}

func (c *Config) bind(flags *pflag.FlagSet) {
	c.v.SetEnvPrefix(EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	_ = c.v.BindPFlags(flags)
}

// Load resolves Settings from the config file and bound flags.
func (c *Config) Load() error {
	settings := config.Default()
	if c.ConfigFile != "" {
		loaded, err := config.Load(c.ConfigFile)
		if err != nil {
			return err
		}
		settings = loaded
	}

	if c.v.IsSet("parties") {
		settings.Sharing.Parties = c.v.GetInt("parties")
	}
	if c.v.IsSet("prime") {
		settings.Sharing.Prime = c.v.GetString("prime")
	}
	if c.v.IsSet("fractional-bits") {
		settings.Sharing.FractionalBits = c.v.GetInt("fractional-bits")
	}
	if c.v.IsSet("entropy-mode") {
		settings.Entropy.Mode = entropy.Mode(c.v.GetString("entropy-mode"))
	}
	if c.v.IsSet("entropy-seed") {
		settings.Entropy.Seed = c.v.GetString("entropy-seed")
	}
	if c.v.IsSet("data-dir") {
		settings.Storage.Backend = config.StorageFile
		settings.Storage.Path = c.v.GetString("data-dir")
	}

	c.OutputFormat = c.v.GetString("output")
	c.Verbose = c.v.GetBool("verbose")
	if c.Verbose {
		settings.Logging.Level = "debug"
	}

	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch OutputFormat(c.OutputFormat) {
	case OutputFormatText, OutputFormatJSON:
	default:
		return fmt.Errorf("unknown output format: %s", c.OutputFormat)
	}

	if settings.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	c.Settings = settings
	return nil
}

// Logger builds the slog adapter described by the logging settings.
func (c *Config) Logger(w io.Writer) logging.Logger {
	level, err := logging.ParseLevel(c.Settings.Logging.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewSlogAdapter(&logging.SlogConfig{
		Level:  level,
		Format: c.Settings.Logging.Format,
		Writer: w,
	})
}

// CreateEntropy opens the configured entropy source. Callers close it.
func (c *Config) CreateEntropy() (entropy.Resolver, error) {
	r, err := entropy.NewResolver(&c.Settings.Entropy)
	if err != nil {
		return nil, fmt.Errorf("failed to open entropy source: %w", err)
	}
	return r, nil
}

// CreateSharer builds a Sharer over the configured field and entropy.
func (c *Config) CreateSharer(random io.Reader, logger logging.Logger) (*arithmetic.Sharer, error) {
	prime, err := c.Settings.PrimeValue()
	if err != nil {
		return nil, err
	}
	return arithmetic.NewSharer(&arithmetic.Config{
		NumParties: c.Settings.Sharing.Parties,
		Prime:      prime,
		Random:     random,
		Logger:     logger,
	})
}

// CreateStore opens the configured share store.
func (c *Config) CreateStore() (*sharestore.Store, error) {
	switch c.Settings.Storage.Backend {
	case config.StorageFile:
		backend, err := sharestore.NewFileBackend(c.Settings.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage backend: %w", err)
		}
		return sharestore.New(backend), nil
	default:
		return sharestore.NewMemory(), nil
	}
}
