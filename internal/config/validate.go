package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}
	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}
	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if err := c.IPFS.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ipfs: %w", err))
	}
	if err := c.Player.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("player: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "warning", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	switch c.Format {
	case "", "text", "json", "pretty":
		// valid
	default:
		return fmt.Errorf("invalid log format: %s (must be text, json, or pretty)", c.Format)
	}
	return nil
}

// Validate checks AuthConfig for errors.
func (c *AuthConfig) Validate() error {
	switch strings.ToLower(c.Provider) {
	case "", "mock":
		// valid
	case "token":
		if len(c.Secret) < 16 {
			return errors.New("token provider needs a secret of at least 16 bytes")
		}
	default:
		return fmt.Errorf("invalid provider: %s (must be mock or token)", c.Provider)
	}
	if c.TokenTTL < 0 {
		return errors.New("token_ttl must be non-negative")
	}
	return nil
}

// Validate checks StorageConfig for errors.
func (c *StorageConfig) Validate() error {
	switch c.Backend {
	case "", "memory", "sqlite", "redis":
		// valid
	default:
		return fmt.Errorf("invalid backend: %s (must be memory, sqlite, or redis)", c.Backend)
	}
	return nil
}

// Validate checks IPFSConfig for errors.
func (c *IPFSConfig) Validate() error {
	if c.GatewayURL != "" {
		if _, err := url.Parse(c.GatewayURL); err != nil {
			return fmt.Errorf("invalid gateway_url: %w", err)
		}
	}
	return nil
}

// Validate checks PlayerConfig for errors.
func (c *PlayerConfig) Validate() error {
	if c.ResolveTimeout < 0 {
		return errors.New("resolve_timeout must be non-negative")
	}
	if c.Volume < 0 || c.Volume > 1 {
		return errors.New("volume must be between 0 and 1")
	}
	switch strings.ToLower(c.Repeat) {
	case "", "all", "off", "one":
		// valid
	default:
		return fmt.Errorf("invalid repeat mode: %s (must be all, off, or one)", c.Repeat)
	}
	return nil
}
