// Package fmp provides a client for the Financial Modeling Prep stock API.
package fmp

import "time"

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://financialmodelingprep.com"
	// DefaultChunkSize is the number of symbols requested per price call.
	DefaultChunkSize = 50
)

// Config holds configuration for the FMP API client.
type Config struct {
	APIKey    string        // API key for authentication
	BaseURL   string        // Base URL for the API (e.g., "https://financialmodelingprep.com")
	Timeout   time.Duration // HTTP request timeout
	ChunkSize int           // symbols per real-time price request
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return c
}
