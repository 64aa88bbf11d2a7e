// Package submit provides submission sinks for consensus results.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tc.com/oracle-node/pkg/oracle"
)

// DefaultSubmitTimeout bounds a single submission request.
const DefaultSubmitTimeout = 10 * time.Second

// HTTPSink posts consensus results as JSON to a configured endpoint.
type HTTPSink struct {
	url    string
	client *http.Client
}

// Ensure HTTPSink implements the Sink interface.
var _ oracle.Sink = (*HTTPSink)(nil)

// NewHTTPSink creates an HTTP sink. timeout <= 0 falls back to
// DefaultSubmitTimeout.
func NewHTTPSink(url string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return &HTTPSink{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the sink identifier.
func (s *HTTPSink) Name() string {
	return "http"
}

// Submit posts the result to the configured endpoint.
func (s *HTTPSink) Submit(ctx context.Context, result oracle.ConsensusResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d: %s", ErrSubmitRejected, resp.StatusCode, string(body))
	}

	return nil
}
