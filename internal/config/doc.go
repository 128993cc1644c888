// Package config provides configuration management for the engine.
//
// Configuration is loaded from environment variables using the env package.
// All configuration values have sensible defaults for development use; the
// CLI flags in cmd/dagflow override the workflow-specific ones.
package config
