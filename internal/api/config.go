package api

import (
	"fmt"

	"github.com/jnthodge/visual-bible/internal/validation"
)

// Config holds server configuration.
type Config struct {
	Port              int
	Version           string
	RateLimitRequests int        // Requests per minute (0 = disabled)
	RateLimitBurst    int        // Burst size
	Auth              AuthConfig // Authentication configuration
	TLS               TLSConfig  // TLS configuration
	AllowedOrigins    []string   // CORS and WebSocket allowed origins (empty = allow all)
	MaxUploadSize     int64      // Request body limit for submissions
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   // Enable HTTPS
	CertFile string // Path to TLS certificate file
	KeyFile  string // Path to TLS private key file
}

// DefaultConfig returns a config listening on 8080 with a 60 req/min rate
// limit.
func DefaultConfig() Config {
	return Config{
		Port:              8080,
		Version:           "dev",
		RateLimitRequests: 60,
		RateLimitBurst:    10,
		MaxUploadSize:     validation.MaxUploadSize,
	}
}

// Validate checks the config for contradictions.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("TLS enabled but certificate or key file not set")
	}
	if c.RateLimitRequests > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive when rate limiting is enabled")
	}
	return ValidateAuthConfig(c.Auth)
}

func (c Config) withDefaults() Config {
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = validation.MaxUploadSize
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	return c
}
