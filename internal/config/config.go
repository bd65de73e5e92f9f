package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr                    string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout       time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout         time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath            string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel                string        `mapstructure:"log_level" yaml:"log_level"`
	MaxMessageBytes         int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	IdentityTTL             time.Duration `mapstructure:"identity_ttl" yaml:"identity_ttl"`
	IdentityCheckInterval   time.Duration `mapstructure:"identity_check_interval" yaml:"identity_check_interval"`
	IdentityCleanupInterval time.Duration `mapstructure:"identity_cleanup_interval" yaml:"identity_cleanup_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:                    ":8000",
		ReadHeaderTimeout:       5 * time.Second,
		ShutdownTimeout:         5 * time.Second,
		DatabasePath:            "roomwire.db",
		LogLevel:                "info",
		MaxMessageBytes:         1 << 20,
		IdentityTTL:             7 * 24 * time.Hour,
		IdentityCheckInterval:   30 * time.Second,
		IdentityCleanupInterval: time.Hour,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.IdentityTTL != 0 {
		c.IdentityTTL = other.IdentityTTL
	}
	if other.IdentityCheckInterval != 0 {
		c.IdentityCheckInterval = other.IdentityCheckInterval
	}
	if other.IdentityCleanupInterval != 0 {
		c.IdentityCleanupInterval = other.IdentityCleanupInterval
	}
}
