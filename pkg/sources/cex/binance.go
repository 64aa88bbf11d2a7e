// Package cex implements quote fetchers for centralized exchanges.
package cex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tc.com/oracle-node/pkg/oracle"
	"tc.com/oracle-node/pkg/sources"
	ws "tc.com/oracle-node/pkg/sources/websocket"
)

const (
	binanceBaseURL    = "https://api.binance.com"
	binanceWSURL      = "wss://stream.binance.com:9443"
	binanceTimeout    = 10 * time.Second
	binanceConfidence = 0.95
	// binanceMaxStale bounds the age of a streamed price before FetchQuote
	// falls back to REST.
	binanceMaxStale = 30 * time.Second
)

// BinanceFetcher fetches spot prices from Binance. It operates in plain REST
// mode or, when configured with a list of assets, keeps a WebSocket
// miniTicker stream open and serves the latest streamed price.
type BinanceFetcher struct {
	apiURL       string
	wsURL        string
	confidence   float64
	client       *http.Client
	useWebSocket bool
	wsClient     *ws.Client

	cacheMu sync.RWMutex
	cache   map[string]streamedPrice // source symbol, e.g. "BTCUSDT"
}

// Ensure BinanceFetcher implements both interfaces.
var (
	_ oracle.Fetcher   = (*BinanceFetcher)(nil)
	_ sources.Streamer = (*BinanceFetcher)(nil)
)

type streamedPrice struct {
	price     float64
	volume    float64
	updatedAt time.Time
}

// binanceTicker is the /api/v3/ticker/price response.
type binanceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// binanceMiniTicker is a combined-stream miniTicker message.
type binanceMiniTicker struct {
	Stream string `json:"stream"`
	Data   struct {
		EventType string `json:"e"`
		Symbol    string `json:"s"`
		Close     string `json:"c"`
		Volume    string `json:"v"`
	} `json:"data"`
}

// NewBinanceFetcher creates a Binance fetcher. Config keys: api_url,
// websocket_url, use_websocket, assets (required for WebSocket mode),
// confidence.
func NewBinanceFetcher(config map[string]interface{}) (oracle.Fetcher, error) {
	apiURL := binanceBaseURL
	if url, ok := config["api_url"].(string); ok && url != "" {
		apiURL = url
	}

	wsURL := binanceWSURL
	if url, ok := config["websocket_url"].(string); ok && url != "" {
		wsURL = url
	}

	confidence := binanceConfidence
	if c, ok := config["confidence"].(float64); ok && c > 0 {
		confidence = c
	}

	useWebSocket := false
	if useWS, ok := config["use_websocket"].(bool); ok {
		useWebSocket = useWS
	}

	f := &BinanceFetcher{
		apiURL:       apiURL,
		wsURL:        wsURL,
		confidence:   confidence,
		client:       &http.Client{Timeout: binanceTimeout},
		useWebSocket: useWebSocket,
		cache:        make(map[string]streamedPrice),
	}

	if useWebSocket {
		assets := assetList(config)
		if len(assets) == 0 {
			return nil, fmt.Errorf("binance websocket mode requires an assets list")
		}
		f.wsClient = ws.NewClient(ws.Config{
			URL:    f.buildStreamURL(assets),
			Logger: log.Logger,
		})
		f.wsClient.SetHandlers(f.handleMessage, nil, nil)
	}

	return f, nil
}

// Name returns the source identifier.
func (f *BinanceFetcher) Name() string {
	return "binance"
}

// Start opens the WebSocket stream. No-op in REST mode.
func (f *BinanceFetcher) Start(ctx context.Context) error {
	if !f.useWebSocket {
		return nil
	}
	return f.wsClient.ConnectWithRetry(ctx)
}

// Stop closes the WebSocket stream. No-op in REST mode.
func (f *BinanceFetcher) Stop() error {
	if f.wsClient != nil {
		return f.wsClient.Close()
	}
	return nil
}

// FetchQuote returns the current price for the asset, preferring a fresh
// streamed price and falling back to the REST ticker endpoint.
func (f *BinanceFetcher) FetchQuote(ctx context.Context, asset string) (oracle.Quote, error) {
	symbol := binanceSymbol(asset)

	if f.useWebSocket {
		if cached, ok := f.lookup(symbol); ok {
			quote := oracle.NewQuote(asset, cached.price, f.confidence, f.Name())
			quote.Volume24h = cached.volume
			return quote, nil
		}
	}

	return f.fetchREST(ctx, asset, symbol)
}

func (f *BinanceFetcher) fetchREST(ctx context.Context, asset, symbol string) (oracle.Quote, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", f.apiURL, symbol)

	var ticker binanceTicker
	if err := sources.GetJSON(ctx, f.client, url, nil, &ticker); err != nil {
		return oracle.Quote{}, err
	}

	price, err := sources.ParsePrice(ticker.Price)
	if err != nil {
		return oracle.Quote{}, err
	}

	return oracle.NewQuote(asset, price, f.confidence, f.Name()), nil
}

func (f *BinanceFetcher) lookup(symbol string) (streamedPrice, bool) {
	f.cacheMu.RLock()
	defer f.cacheMu.RUnlock()

	cached, ok := f.cache[symbol]
	if !ok || time.Since(cached.updatedAt) > binanceMaxStale {
		return streamedPrice{}, false
	}
	return cached, true
}

// handleMessage processes a combined-stream miniTicker message.
func (f *BinanceFetcher) handleMessage(message []byte) {
	var msg binanceMiniTicker
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().Err(err).Msg("Failed to unmarshal miniTicker message")
		return
	}
	if msg.Data.Symbol == "" || msg.Data.Close == "" {
		return
	}

	price, err := sources.ParsePrice(msg.Data.Close)
	if err != nil {
		log.Warn().Err(err).Str("symbol", msg.Data.Symbol).Msg("Failed to parse streamed price")
		return
	}

	volume := 0.0
	if msg.Data.Volume != "" {
		if v, err := sources.ParsePrice(msg.Data.Volume); err == nil {
			volume = v
		}
	}

	f.cacheMu.Lock()
	f.cache[strings.ToUpper(msg.Data.Symbol)] = streamedPrice{
		price:     price,
		volume:    volume,
		updatedAt: time.Now(),
	}
	f.cacheMu.Unlock()
}

// buildStreamURL creates the combined-stream URL for all configured assets.
func (f *BinanceFetcher) buildStreamURL(assets []string) string {
	streams := make([]string, 0, len(assets))
	for _, asset := range assets {
		streams = append(streams, strings.ToLower(binanceSymbol(asset))+"@miniTicker")
	}
	return f.wsURL + "/stream?streams=" + strings.Join(streams, "/")
}

// binanceSymbol converts an asset symbol to the Binance USDT pair symbol.
func binanceSymbol(asset string) string {
	return strings.ToUpper(asset) + "USDT"
}

// assetList extracts the assets list from config.
func assetList(config map[string]interface{}) []string {
	raw, ok := config["assets"].([]interface{})
	if !ok {
		return nil
	}
	assets := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			assets = append(assets, s)
		}
	}
	return assets
}

func init() {
	sources.Register("cex.binance", NewBinanceFetcher)
}
