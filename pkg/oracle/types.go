// Package oracle implements the validation and consensus pipeline that turns
// per-source price quotes into a single trusted price with a confidence score.
package oracle

import (
	"context"
	"time"
)

// Quote is a single price observation from one source.
type Quote struct {
	Asset      string    `json:"asset"`
	Price      float64   `json:"price"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	Volume24h  float64   `json:"volume_24h,omitempty"`
	MarketCap  float64   `json:"market_cap,omitempty"`
}

// NewQuote creates a quote with the confidence clamped to [0, 1].
func NewQuote(asset string, price, confidence float64, source string) Quote {
	return Quote{
		Asset:      asset,
		Price:      price,
		Confidence: clamp(confidence, 0, 1),
		Timestamp:  time.Now(),
		Source:     source,
	}
}

// ValidationOutcome is the per-quote verdict of the validator.
type ValidationOutcome struct {
	Accepted bool
	Reason   string
	// AdjustedPrice is reserved for future correction rules; no current rule
	// sets it.
	AdjustedPrice        *float64
	ConfidenceMultiplier float64
}

// ConsensusParams configures the consensus engine.
// ConfidenceThreshold and PriceVarianceThreshold are carried for downstream
// consumers and are not enforced by the engine itself.
type ConsensusParams struct {
	MinSources             int
	MaxOutlierPercentage   float64
	ConfidenceThreshold    float64
	PriceVarianceThreshold float64
}

// DefaultParams returns the default consensus parameters.
func DefaultParams() ConsensusParams {
	return ConsensusParams{
		MinSources:             2,
		MaxOutlierPercentage:   0.3,
		ConfidenceThreshold:    0.7,
		PriceVarianceThreshold: 0.05,
	}
}

// ConsensusResult is the aggregated outcome of one validated batch.
type ConsensusResult struct {
	Asset          string    `json:"asset"`
	Price          float64   `json:"price"`
	Confidence     float64   `json:"confidence"`
	Timestamp      time.Time `json:"timestamp"`
	Sources        []string  `json:"sources"`
	ConsensusScore float64   `json:"consensus_score"`
	PriceVariance  float64   `json:"price_variance"`
	OutlierCount   int       `json:"outlier_count"`
}

// NewConsensusResult creates a result with confidence and score clamped to [0, 1].
func NewConsensusResult(asset string, price, confidence float64, sources []string, score, variance float64, outlierCount int) ConsensusResult {
	return ConsensusResult{
		Asset:          asset,
		Price:          price,
		Confidence:     clamp(confidence, 0, 1),
		Timestamp:      time.Now(),
		Sources:        sources,
		ConsensusScore: clamp(score, 0, 1),
		PriceVariance:  variance,
		OutlierCount:   outlierCount,
	}
}

// Fetcher retrieves a quote for an asset from one provider.
// Implementations live outside the core; the pipeline is polymorphic over any
// collection of fetchers.
type Fetcher interface {
	FetchQuote(ctx context.Context, asset string) (Quote, error)
	Name() string
}

// Sink receives the consensus result of a successful cycle. A sink failure is
// never fatal to the cycle that produced the result.
type Sink interface {
	Submit(ctx context.Context, result ConsensusResult) error
	Name() string
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
