// Package sources provides the fetcher registry and shared helpers for
// provider-specific quote fetchers.
package sources

import (
	"context"

	"tc.com/oracle-node/pkg/oracle"
)

// SourceType categorizes a fetcher for configuration and metrics.
type SourceType string

const (
	// SourceTypeCEX marks centralized-exchange fetchers.
	SourceTypeCEX SourceType = "cex"
	// SourceTypeIndex marks market-data index fetchers.
	SourceTypeIndex SourceType = "index"
)

// FetcherFactory is a function that creates a new fetcher instance.
type FetcherFactory func(config map[string]interface{}) (oracle.Fetcher, error)

// Streamer is implemented by fetchers that maintain a long-lived streaming
// connection alongside the pull-based Fetcher interface.
type Streamer interface {
	Start(ctx context.Context) error
	Stop() error
}
