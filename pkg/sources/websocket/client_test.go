package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ConnectWithRetryStopsOnClose(t *testing.T) {
	c := NewClient(Config{
		URL:           "ws://127.0.0.1:1",
		ReconnectWait: 10 * time.Millisecond,
		Logger:        zerolog.Nop(),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- c.ConnectWithRetry(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Close())

	// Close must unblock the retry loop even mid-backoff.
	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("retry loop did not stop after Close")
	}
}

func TestClient_ConnectWithRetryStopsOnContext(t *testing.T) {
	c := NewClient(Config{
		URL:           "ws://127.0.0.1:1",
		ReconnectWait: 10 * time.Millisecond,
		Logger:        zerolog.Nop(),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := c.ConnectWithRetry(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	c := NewClient(Config{URL: "ws://127.0.0.1:1", Logger: zerolog.Nop()})

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

func TestClient_MaxRetriesExceeded(t *testing.T) {
	c := NewClient(Config{
		URL:           "ws://127.0.0.1:1",
		ReconnectWait: time.Millisecond,
		MaxRetries:    2,
		Logger:        zerolog.Nop(),
	})

	err := c.ConnectWithRetry(context.Background())
	assert.Error(t, err)
}
