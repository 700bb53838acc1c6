package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	ClientID     string
	ClientSecret string

	// BaseURL is the public base URL of this service. The OAuth redirect URI
	// is BaseURL + CallbackPath and must match the URI registered with the
	// provider exactly.
	BaseURL string

	// APIBaseURL overrides the YouTube Data API base (tests only).
	APIBaseURL string
	// AuthURL / TokenURL override the provider OAuth endpoints (tests only).
	AuthURL  string
	TokenURL string

	// RateLimit is the provider call budget in requests per second.
	// Zero disables the limiter.
	RateLimit float64
	RateBurst int

	// ChannelCacheTTL bounds how long a resolved uploads channel is reused
	// before channels.list is called again.
	ChannelCacheTTL time.Duration

	HTTPClient *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.ChannelCacheTTL <= 0 {
		c.ChannelCacheTTL = 10 * time.Minute
	}
	cfg = c
	Cfg = &cfg
}
