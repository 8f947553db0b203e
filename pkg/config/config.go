// Package config holds the reusable configuration sections shared across
// the catalog binaries.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Supported persistence backends.
const (
	BackendMongo    = "mongo"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// HTTPConfig configures the public HTTP listener.
type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.Timeout.Read)
	}
	if c.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.Timeout.Write)
	}
	if c.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.Timeout.Idle)
	}
	if c.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.Timeout.ReadHeader)
	}
	return nil
}

// DatabaseConfig selects and configures a persistence backend.
// URL is a mongodb:// or postgres:// URL, or a SQLite DSN (a file path or
// :memory:). Name is the Mongo database name, ignored by the other backends.
type DatabaseConfig struct {
	Backend string        `koanf:"backend"`
	URL     string        `koanf:"url"`
	Name    string        `koanf:"name"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	switch c.Backend {
	case BackendMongo:
		if !strings.HasPrefix(c.URL, "mongodb://") && !strings.HasPrefix(c.URL, "mongodb+srv://") {
			return fmt.Errorf("mongo backend requires a mongodb:// URL")
		}
		if c.Name == "" {
			return fmt.Errorf("mongo backend requires a database name")
		}
	case BackendPostgres:
		if !strings.HasPrefix(c.URL, "postgres://") && !strings.HasPrefix(c.URL, "postgresql://") {
			return fmt.Errorf("postgres backend requires a postgres:// URL")
		}
	case BackendSQLite:
		// any file path or :memory: is acceptable
	default:
		return fmt.Errorf("unknown database backend: %q", c.Backend)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout is not configured")
	}
	return nil
}

// MaskedURL renders the URL with credentials hidden, for config dumps.
func (c *DatabaseConfig) MaskedURL() string {
	if c.URL == "" {
		return "<not configured>"
	}
	parts := strings.Split(c.URL, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return c.URL
}

// CacheConfig configures the default-query result cache.
type CacheConfig struct {
	TTL      time.Duration `koanf:"ttl"`
	Capacity int           `koanf:"capacity"`
}

func (c *CacheConfig) Validate() error {
	if c.TTL < 0 {
		return fmt.Errorf("cache TTL must not be negative: %v", c.TTL)
	}
	return nil
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) Validate() error {
	return nil
}

// PProfConfig configures the optional pprof listener.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("pprof is enabled but address is not configured")
	}
	return nil
}

// ShutdownConfig bounds graceful shutdown.
type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	return nil
}
