package oracle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tc.com/oracle-node/pkg/logging"
	"tc.com/oracle-node/pkg/metrics"
)

// DefaultFetchTimeout bounds a single fetcher call when no timeout is
// configured.
const DefaultFetchTimeout = 10 * time.Second

// Orchestrator drives one end-to-end update per asset: fetch, validate,
// aggregate, submit. Stage failures are isolated per the error taxonomy:
// fetch and sink failures are logged and absorbed, validator and engine
// failures abort the cycle.
type Orchestrator struct {
	fetchers     []Fetcher
	validator    *Validator
	engine       *Engine
	sink         Sink
	fetchTimeout time.Duration
	logger       *logging.Logger

	// assetLocks serializes cycles per asset so the rolling history sees a
	// single writer. Cycles for different assets run concurrently.
	assetLocks sync.Map
}

// NewOrchestrator wires the pipeline. fetchTimeout <= 0 falls back to
// DefaultFetchTimeout.
func NewOrchestrator(fetchers []Fetcher, validator *Validator, engine *Engine, sink Sink, fetchTimeout time.Duration, logger *logging.Logger) *Orchestrator {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Orchestrator{
		fetchers:     fetchers,
		validator:    validator,
		engine:       engine,
		sink:         sink,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// RunCycle executes one update for the asset and returns the consensus
// result. The result is returned even when the sink submission fails.
func (o *Orchestrator) RunCycle(ctx context.Context, asset string) (ConsensusResult, error) {
	lock := o.lockFor(asset)
	lock.Lock()
	defer lock.Unlock()

	quotes := o.fetchQuotes(ctx, asset)
	if len(quotes) == 0 {
		metrics.RecordCycle(asset, "no_data")
		return ConsensusResult{}, fmt.Errorf("%w for %s", ErrNoQuotes, asset)
	}

	validated, err := o.validator.ValidateBatch(quotes)
	if err != nil {
		metrics.RecordCycle(asset, "validation_failed")
		return ConsensusResult{}, fmt.Errorf("validation failed for %s: %w", asset, err)
	}

	result, err := o.engine.Run(validated)
	if err != nil {
		metrics.RecordCycle(asset, "consensus_failed")
		return ConsensusResult{}, fmt.Errorf("consensus failed for %s: %w", asset, err)
	}

	o.logger.Info("Consensus reached",
		"asset", result.Asset,
		"price", result.Price,
		"confidence", result.Confidence,
		"sources", len(result.Sources))

	if o.sink != nil {
		if err := o.sink.Submit(ctx, result); err != nil {
			// The consensus is still valid; only persistence failed.
			o.logger.Error("Submission failed",
				"sink", o.sink.Name(),
				"asset", result.Asset,
				"error", err)
			metrics.RecordSubmission(o.sink.Name(), "error")
		} else {
			metrics.RecordSubmission(o.sink.Name(), "ok")
		}
	}

	metrics.RecordCycle(asset, "ok")
	return result, nil
}

// fetchQuotes collects quotes from all fetchers concurrently. Each call is
// bounded by the fetch timeout; failures drop the source from this cycle.
// The batch preserves fetcher registration order.
func (o *Orchestrator) fetchQuotes(ctx context.Context, asset string) []Quote {
	results := make([]*Quote, len(o.fetchers))

	var wg sync.WaitGroup
	for i, f := range o.fetchers {
		wg.Add(1)
		go func(i int, f Fetcher) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, o.fetchTimeout)
			defer cancel()

			quote, err := f.FetchQuote(fetchCtx, asset)
			if err != nil {
				o.logger.Warn("Fetch failed",
					"source", f.Name(),
					"asset", asset,
					"error", err)
				metrics.RecordFetchError(f.Name(), asset)
				return
			}

			o.logger.Debug("Fetched quote",
				"source", f.Name(),
				"asset", asset,
				"price", quote.Price,
				"confidence", quote.Confidence)
			metrics.RecordFetch(f.Name(), asset)
			results[i] = &quote
		}(i, f)
	}
	wg.Wait()

	quotes := make([]Quote, 0, len(results))
	for _, q := range results {
		if q != nil {
			quotes = append(quotes, *q)
		}
	}
	return quotes
}

func (o *Orchestrator) lockFor(asset string) *sync.Mutex {
	lock, _ := o.assetLocks.LoadOrStore(asset, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
