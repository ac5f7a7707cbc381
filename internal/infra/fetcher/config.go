package fetcher

import (
	"fmt"
	"time"

	"feed-ingest/internal/pkg/config"
)

// Config controls article page downloads.
type Config struct {
	// UserAgent is sent with every page request.
	UserAgent string

	// Timeout bounds a single page download including redirects.
	Timeout time.Duration

	// MaxBodySize is enforced while reading, not from Content-Length.
	MaxBodySize int64

	// MaxRedirects is the longest redirect chain followed.
	MaxRedirects int

	// DenyPrivateIPs dials through safeurl, which rejects loopback, private,
	// link-local and metadata addresses after DNS resolution.
	// Should always be true in production.
	DenyPrivateIPs bool
}

// DefaultConfig returns a 10s timeout, a 5MB body limit, 5 redirects and SSRF protection on.
func DefaultConfig() Config {
	return Config{
		UserAgent:      "feed-ingest/1.0 (+content-enricher)",
		Timeout:        10 * time.Second,
		MaxBodySize:    5 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// Validate checks that the limits are usable.
func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	const minBody, maxBody = int64(1024), int64(100 * 1024 * 1024)
	if c.MaxBodySize < minBody || c.MaxBodySize > maxBody {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBody, maxBody, c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}

// LoadConfigFromEnv reads the CONTENT_FETCH_* variables. Invalid values fall
// back to their defaults and are reported as warnings.
//
//   - CONTENT_FETCH_TIMEOUT: duration, 1s..2m (default 10s)
//   - CONTENT_FETCH_MAX_BODY_SIZE: bytes, 1KB..100MB (default 5MB)
//   - CONTENT_FETCH_MAX_REDIRECTS: 0..10 (default 5)
//   - CONTENT_FETCH_DENY_PRIVATE_IPS: bool (default true)
func LoadConfigFromEnv(userAgent string) (Config, []string) {
	def := DefaultConfig()
	var warnings []string

	timeout := config.LoadEnvDuration("CONTENT_FETCH_TIMEOUT", def.Timeout, config.DurationRange(time.Second, 2*time.Minute))
	warnings = append(warnings, timeout.Warnings...)

	body := config.LoadEnvInt("CONTENT_FETCH_MAX_BODY_SIZE", int(def.MaxBodySize), config.IntRange(1024, 100*1024*1024))
	warnings = append(warnings, body.Warnings...)

	redirects := config.LoadEnvInt("CONTENT_FETCH_MAX_REDIRECTS", def.MaxRedirects, config.IntRange(0, 10))
	warnings = append(warnings, redirects.Warnings...)

	deny := config.LoadEnvBool("CONTENT_FETCH_DENY_PRIVATE_IPS", def.DenyPrivateIPs)
	warnings = append(warnings, deny.Warnings...)

	cfg := Config{
		UserAgent:      def.UserAgent,
		Timeout:        timeout.Value,
		MaxBodySize:    int64(body.Value),
		MaxRedirects:   redirects.Value,
		DenyPrivateIPs: deny.Value,
	}
	if userAgent != "" {
		cfg.UserAgent = userAgent
	}
	return cfg, warnings
}
