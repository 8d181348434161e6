// Package config loads and validates client configuration from
// environment variables, command-line flags, and an optional JSON file.
// Later sources never override earlier non-zero values: precedence is
// env, then flags, then JSON (merged via mergo).
package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// sync client. It aggregates all sub-configurations and is populated by
// merging values from environment variables, command-line flags, and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// Remote holds the remote service endpoint settings.
	Remote Remote `envPrefix:"REMOTE_"`

	// Storage holds the local sqlite database settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds queue-draining and retry policy settings.
	Sync Sync `envPrefix:"SYNC_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the
	// values already loaded from environment variables and flags.
	JSONFilePath string `env:"CONFIG"`
}

// Remote holds connection settings for the remote finance service.
type Remote struct {
	// BaseURL is the root of the remote API, e.g. "https://api.finsible.app".
	BaseURL string `env:"BASE_URL"`

	// RequestTimeout bounds every single remote call.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// TransportRetries is the number of extra attempts made when a call
	// fails at the transport level (no response received). Non-2xx
	// responses are never retried at this layer.
	TransportRetries int `env:"TRANSPORT_RETRIES"`
}

// Storage holds the local persistence settings.
type Storage struct {
	// DSN is the sqlite database file path. ":memory:" opens an
	// ephemeral database, useful for tests.
	DSN string `env:"DSN"`
}

// Sync holds the queue-draining policy.
type Sync struct {
	// Interval is the period of the background full-sync ticker.
	Interval time.Duration `env:"INTERVAL"`

	// MaxRowRetries caps how many times a pending operation that keeps
	// failing retryably is re-attempted across drains before being
	// marked failed.
	MaxRowRetries int `env:"MAX_ROW_RETRIES"`
}

// GetClientConfig builds the complete client configuration by merging
// env vars, flags, and the optional JSON file, then validating the
// result and applying defaults for anything still unset.
func GetClientConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		build()
}

func (c *StructuredConfig) applyDefaults() {
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = "http://localhost:8080"
	}
	if c.Remote.RequestTimeout <= 0 {
		c.Remote.RequestTimeout = 15 * time.Second
	}
	if c.Remote.TransportRetries <= 0 {
		c.Remote.TransportRetries = 3
	}
	if c.Storage.DSN == "" {
		c.Storage.DSN = "finsible.db"
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = 5 * time.Minute
	}
	if c.Sync.MaxRowRetries <= 0 {
		c.Sync.MaxRowRetries = 5
	}
}
