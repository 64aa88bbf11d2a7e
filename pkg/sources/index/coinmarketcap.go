package index

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tc.com/oracle-node/pkg/oracle"
	"tc.com/oracle-node/pkg/sources"
)

const (
	coinmarketcapBaseURL    = "https://pro-api.coinmarketcap.com/v1"
	coinmarketcapTimeout    = 10 * time.Second
	coinmarketcapConfidence = 0.85
)

// ErrMissingAPIKey indicates that no CoinMarketCap API key was configured.
var ErrMissingAPIKey = errors.New("coinmarketcap api_key is required")

// CoinMarketCapFetcher fetches quotes from the CoinMarketCap Pro API.
type CoinMarketCapFetcher struct {
	apiURL     string
	apiKey     string
	confidence float64
	client     *http.Client
}

// Ensure CoinMarketCapFetcher implements the Fetcher interface.
var _ oracle.Fetcher = (*CoinMarketCapFetcher)(nil)

// cmcQuoteResponse mirrors the quotes/latest response shape.
type cmcQuoteResponse struct {
	Data map[string]struct {
		Quote map[string]struct {
			Price     float64 `json:"price"`
			Volume24h float64 `json:"volume_24h"`
			MarketCap float64 `json:"market_cap"`
		} `json:"quote"`
	} `json:"data"`
}

// NewCoinMarketCapFetcher creates a CoinMarketCap fetcher. Config keys:
// api_key (required), api_url, confidence.
func NewCoinMarketCapFetcher(config map[string]interface{}) (oracle.Fetcher, error) {
	apiKey, _ := config["api_key"].(string)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	apiURL := coinmarketcapBaseURL
	if url, ok := config["api_url"].(string); ok && url != "" {
		apiURL = url
	}

	confidence := coinmarketcapConfidence
	if c, ok := config["confidence"].(float64); ok && c > 0 {
		confidence = c
	}

	return &CoinMarketCapFetcher{
		apiURL:     apiURL,
		apiKey:     apiKey,
		confidence: confidence,
		client:     &http.Client{Timeout: coinmarketcapTimeout},
	}, nil
}

// Name returns the source identifier.
func (f *CoinMarketCapFetcher) Name() string {
	return "coinmarketcap"
}

// FetchQuote retrieves the latest USD quote for the asset.
func (f *CoinMarketCapFetcher) FetchQuote(ctx context.Context, asset string) (oracle.Quote, error) {
	symbol := strings.ToUpper(asset)
	url := fmt.Sprintf("%s/cryptocurrency/quotes/latest?symbol=%s&convert=USD", f.apiURL, symbol)

	headers := map[string]string{
		"X-CMC_PRO_API_KEY": f.apiKey,
		"Accept":            "application/json",
	}

	var payload cmcQuoteResponse
	if err := sources.GetJSON(ctx, f.client, url, headers, &payload); err != nil {
		return oracle.Quote{}, err
	}

	entry, ok := payload.Data[symbol]
	if !ok {
		return oracle.Quote{}, fmt.Errorf("%w: %s", sources.ErrAssetNotFound, asset)
	}

	usd, ok := entry.Quote["USD"]
	if !ok || usd.Price <= 0 {
		return oracle.Quote{}, fmt.Errorf("%w: missing USD quote for %s", sources.ErrInvalidPrice, asset)
	}

	quote := oracle.NewQuote(asset, usd.Price, f.confidence, f.Name())
	quote.Volume24h = usd.Volume24h
	quote.MarketCap = usd.MarketCap

	return quote, nil
}

func init() {
	sources.Register("index.coinmarketcap", NewCoinMarketCapFetcher)
}
