// Package index implements quote fetchers for market-data index providers.
package index

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tc.com/oracle-node/pkg/oracle"
	"tc.com/oracle-node/pkg/sources"
)

const (
	coingeckoBaseURL    = "https://api.coingecko.com/api/v3"
	coingeckoTimeout    = 10 * time.Second
	coingeckoConfidence = 0.90
)

// coingeckoIDs maps asset symbols to CoinGecko coin identifiers.
var coingeckoIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"ADA":   "cardano",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"AVAX":  "avalanche-2",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"AAVE":  "aave",
}

// CoinGeckoFetcher fetches quotes from the CoinGecko simple price API.
type CoinGeckoFetcher struct {
	apiURL     string
	confidence float64
	client     *http.Client
}

// Ensure CoinGeckoFetcher implements the Fetcher interface.
var _ oracle.Fetcher = (*CoinGeckoFetcher)(nil)

// NewCoinGeckoFetcher creates a CoinGecko fetcher. Config keys: api_url,
// confidence.
func NewCoinGeckoFetcher(config map[string]interface{}) (oracle.Fetcher, error) {
	apiURL := coingeckoBaseURL
	if url, ok := config["api_url"].(string); ok && url != "" {
		apiURL = url
	}

	confidence := coingeckoConfidence
	if c, ok := config["confidence"].(float64); ok && c > 0 {
		confidence = c
	}

	return &CoinGeckoFetcher{
		apiURL:     apiURL,
		confidence: confidence,
		client:     &http.Client{Timeout: coingeckoTimeout},
	}, nil
}

// Name returns the source identifier.
func (f *CoinGeckoFetcher) Name() string {
	return "coingecko"
}

// FetchQuote retrieves the current USD price for the asset, including 24h
// volume and market cap when the API provides them.
func (f *CoinGeckoFetcher) FetchQuote(ctx context.Context, asset string) (oracle.Quote, error) {
	coinID := coingeckoID(asset)
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_vol=true&include_market_cap=true",
		f.apiURL, coinID)

	var payload map[string]map[string]float64
	if err := sources.GetJSON(ctx, f.client, url, nil, &payload); err != nil {
		return oracle.Quote{}, err
	}

	coinData, ok := payload[coinID]
	if !ok {
		return oracle.Quote{}, fmt.Errorf("%w: %s", sources.ErrAssetNotFound, asset)
	}

	price, ok := coinData["usd"]
	if !ok {
		return oracle.Quote{}, fmt.Errorf("%w: missing usd price for %s", sources.ErrInvalidPrice, asset)
	}

	quote := oracle.NewQuote(asset, price, f.confidence, f.Name())
	quote.Volume24h = coinData["usd_24h_vol"]
	quote.MarketCap = coinData["usd_market_cap"]

	return quote, nil
}

// coingeckoID converts an asset symbol to the CoinGecko coin identifier.
func coingeckoID(asset string) string {
	if id, ok := coingeckoIDs[strings.ToUpper(asset)]; ok {
		return id
	}
	return strings.ToLower(asset)
}

func init() {
	sources.Register("index.coingecko", NewCoinGeckoFetcher)
}
