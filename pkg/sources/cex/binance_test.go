package cex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tc.com/oracle-node/pkg/sources"
)

func TestBinanceFetcher_FetchREST(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"45050.10000000"}`))
	}))
	defer server.Close()

	fetcher, err := NewBinanceFetcher(map[string]interface{}{"api_url": server.URL})
	require.NoError(t, err)

	quote, err := fetcher.FetchQuote(context.Background(), "BTC")
	require.NoError(t, err)

	assert.Equal(t, "BTC", quote.Asset)
	assert.Equal(t, 45050.1, quote.Price)
	assert.Equal(t, 0.95, quote.Confidence)
	assert.Equal(t, "binance", quote.Source)
}

func TestBinanceFetcher_RESTInvalidPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"not-a-number"}`))
	}))
	defer server.Close()

	fetcher, err := NewBinanceFetcher(map[string]interface{}{"api_url": server.URL})
	require.NoError(t, err)

	_, err = fetcher.FetchQuote(context.Background(), "BTC")
	require.Error(t, err)
	assert.ErrorIs(t, err, sources.ErrInvalidPrice)
}

func TestBinanceFetcher_WebSocketModeRequiresAssets(t *testing.T) {
	_, err := NewBinanceFetcher(map[string]interface{}{"use_websocket": true})
	assert.Error(t, err)
}

func TestBinanceFetcher_StreamedPricePreferred(t *testing.T) {
	restCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		restCalled = true
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"44000"}`))
	}))
	defer server.Close()

	fetcher, err := NewBinanceFetcher(map[string]interface{}{
		"api_url":       server.URL,
		"use_websocket": true,
		"assets":        []interface{}{"BTC"},
	})
	require.NoError(t, err)

	bf, ok := fetcher.(*BinanceFetcher)
	require.True(t, ok)

	bf.handleMessage([]byte(`{"stream":"btcusdt@miniTicker","data":{"e":"24hrMiniTicker","s":"BTCUSDT","c":"45100.5","v":"12345.6"}}`))

	quote, err := bf.FetchQuote(context.Background(), "BTC")
	require.NoError(t, err)

	assert.False(t, restCalled)
	assert.Equal(t, 45100.5, quote.Price)
	assert.Equal(t, 12345.6, quote.Volume24h)
}

func TestBinanceFetcher_StalePriceFallsBackToREST(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","price":"44000"}`))
	}))
	defer server.Close()

	fetcher, err := NewBinanceFetcher(map[string]interface{}{
		"api_url":       server.URL,
		"use_websocket": true,
		"assets":        []interface{}{"BTC"},
	})
	require.NoError(t, err)

	bf, ok := fetcher.(*BinanceFetcher)
	require.True(t, ok)

	bf.cacheMu.Lock()
	bf.cache["BTCUSDT"] = streamedPrice{price: 45100.5, updatedAt: time.Now().Add(-time.Minute)}
	bf.cacheMu.Unlock()

	quote, err := bf.FetchQuote(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 44000.0, quote.Price)
}

func TestBinanceFetcher_HandleMessageIgnoresGarbage(t *testing.T) {
	fetcher, err := NewBinanceFetcher(map[string]interface{}{})
	require.NoError(t, err)

	bf, ok := fetcher.(*BinanceFetcher)
	require.True(t, ok)

	bf.handleMessage([]byte(`not json`))
	bf.handleMessage([]byte(`{"stream":"x","data":{}}`))
	bf.handleMessage([]byte(`{"stream":"btcusdt@miniTicker","data":{"s":"BTCUSDT","c":"broken"}}`))

	assert.Empty(t, bf.cache)
}

func TestBinanceFetcher_BuildStreamURL(t *testing.T) {
	fetcher, err := NewBinanceFetcher(map[string]interface{}{})
	require.NoError(t, err)

	bf, ok := fetcher.(*BinanceFetcher)
	require.True(t, ok)

	url := bf.buildStreamURL([]string{"BTC", "ETH"})
	assert.Equal(t, binanceWSURL+"/stream?streams=btcusdt@miniTicker/ethusdt@miniTicker", url)
}

func TestBinanceSymbol(t *testing.T) {
	assert.Equal(t, "BTCUSDT", binanceSymbol("btc"))
	assert.Equal(t, "ETHUSDT", binanceSymbol("ETH"))
}
