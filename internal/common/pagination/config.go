// Package pagination converts page-based listing parameters into the
// limit/offset windows understood by the persistence layer.
package pagination

import (
	"funding-catalog/internal/pkg/config"
)

// Config holds pagination configuration settings.
type Config struct {
	DefaultPage  int // Default page number (typically 1)
	DefaultLimit int // Default items per page (typically 20)
	MaxLimit     int // Maximum allowed items per page (typically 100)
}

// DefaultConfig returns the default pagination configuration.
// Default values: page=1, limit=20, max=100
func DefaultConfig() Config {
	return Config{
		DefaultPage:  1,
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}

// LoadFromEnv loads pagination config from environment variables.
// Supported environment variables:
//   - PAGINATION_DEFAULT_LIMIT: Default items per page
//   - PAGINATION_MAX_LIMIT: Maximum items per page
//
// Unset or malformed values fall back to DefaultConfig().
func LoadFromEnv() Config {
	def := DefaultConfig()
	return Config{
		DefaultPage:  def.DefaultPage,
		DefaultLimit: config.LoadEnvInt("PAGINATION_DEFAULT_LIMIT", def.DefaultLimit, positive).Value,
		MaxLimit:     config.LoadEnvInt("PAGINATION_MAX_LIMIT", def.MaxLimit, positive).Value,
	}
}

func positive(v int) error {
	return config.ValidateIntRange(v, 1, 10000)
}
