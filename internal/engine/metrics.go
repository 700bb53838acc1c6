package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	ListingRequests     atomic.Int64
	SearchRequests      atomic.Int64
	ChannelLookups      atomic.Int64
	TokenExchanges      atomic.Int64
	TokenExchangeErrors atomic.Int64
	AuthFailures        atomic.Int64
	ProviderErrors      atomic.Int64
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"listing_requests":      metrics.ListingRequests.Load(),
		"search_requests":       metrics.SearchRequests.Load(),
		"channel_lookups":       metrics.ChannelLookups.Load(),
		"token_exchanges":       metrics.TokenExchanges.Load(),
		"token_exchange_errors": metrics.TokenExchangeErrors.Load(),
		"auth_failures":         metrics.AuthFailures.Load(),
		"provider_errors":       metrics.ProviderErrors.Load(),
		"cache_hits":            hits,
		"cache_misses":          misses,
	}
}

// FormatMetrics returns metrics as a simple text format for the HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"listing_requests", "search_requests", "channel_lookups",
		"token_exchanges", "token_exchange_errors",
		"auth_failures", "provider_errors",
		"cache_hits", "cache_misses",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

func IncrListingRequests()     { metrics.ListingRequests.Add(1) }
func IncrSearchRequests()      { metrics.SearchRequests.Add(1) }
func IncrChannelLookups()      { metrics.ChannelLookups.Add(1) }
func IncrTokenExchanges()      { metrics.TokenExchanges.Add(1) }
func IncrTokenExchangeErrors() { metrics.TokenExchangeErrors.Add(1) }
func IncrAuthFailures()        { metrics.AuthFailures.Add(1) }
func IncrProviderErrors()      { metrics.ProviderErrors.Add(1) }
