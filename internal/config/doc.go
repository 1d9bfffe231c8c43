// Package config provides 12-factor configuration for the pausekit host.
//
// Configuration is loaded from PAUSEKIT_-prefixed environment variables with
// sensible defaults. CLI flags can override environment variables.
//
// Configuration Sections:
//   - Terminal: controlling terminal device path
//   - Logging: log level and output format
//   - Metrics: metrics collection toggle
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("reading keystrokes from %s\n", cfg.Terminal.Path)
package config
