package shopify

import "errors"

// DefaultAPIVersion is the Admin API version the client pins to
const DefaultAPIVersion = "2024-01"

// Config holds Shopify Admin API client configuration
type Config struct {
	// APIVersion is the Admin API version segment of every request path
	APIVersion string

	// TimeoutSeconds is the per-request HTTP timeout
	TimeoutSeconds int

	// BaseURLOverride replaces the https://{shop-domain} base when set.
	// Used by tests to point the client at a local server.
	BaseURLOverride string
}

// DefaultConfig returns the default client configuration
func DefaultConfig() *Config {
	return &Config{
		APIVersion:     DefaultAPIVersion,
		TimeoutSeconds: 30,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.APIVersion == "" {
		return errors.New("shopify: API version is required")
	}
	if c.TimeoutSeconds <= 0 {
		return errors.New("shopify: timeout must be positive")
	}
	return nil
}
