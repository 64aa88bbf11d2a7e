package oracle

import (
	"fmt"
	"math"

	"tc.com/oracle-node/pkg/logging"
	"tc.com/oracle-node/pkg/metrics"
)

const (
	// maxSanePrice is a fixed ceiling against gross API errors.
	maxSanePrice = 1_000_000.0
	// minQuoteConfidence is the minimum self-reported confidence a quote
	// needs to be accepted without a historical flag.
	minQuoteConfidence = 0.1
	// historyMinSamples is the minimum window length before historical
	// checks apply.
	historyMinSamples = 3

	// extremeMoveMultiplier is applied to quotes deviating more than three
	// standard deviations from the historical mean.
	extremeMoveMultiplier = 0.7
	// flatMoveMultiplier is applied to suspiciously flat quotes when the
	// history shows material volatility.
	flatMoveMultiplier = 0.8
)

// Validator applies per-quote sanity and historical-consistency rules and
// maintains the per-asset rolling history of accepted prices.
type Validator struct {
	store  *HistoryStore
	logger *logging.Logger
}

// NewValidator creates a validator that records accepted prices in store.
func NewValidator(store *HistoryStore, logger *logging.Logger) *Validator {
	return &Validator{
		store:  store,
		logger: logger,
	}
}

// History exposes the store for observability helpers.
func (v *Validator) History() *HistoryStore {
	return v.store
}

// ValidateBatch evaluates every quote and returns the accepted ones with
// confidence adjusted for data quality. Accepted raw prices are appended to
// the asset's history; rejected quotes never touch it. Returns
// ErrNoValidQuotes when nothing survives.
func (v *Validator) ValidateBatch(quotes []Quote) ([]Quote, error) {
	validated := make([]Quote, 0, len(quotes))

	for _, q := range quotes {
		outcome := v.Evaluate(q)
		if !outcome.Accepted {
			v.logger.Warn("Quote rejected",
				"asset", q.Asset,
				"source", q.Source,
				"price", q.Price,
				"reason", outcome.Reason)
			metrics.RecordQuoteRejection(q.Source, rejectionRule(q))
			continue
		}

		if outcome.Reason != "" {
			v.logger.Warn("Quote flagged",
				"asset", q.Asset,
				"source", q.Source,
				"price", q.Price,
				"reason", outcome.Reason,
				"multiplier", outcome.ConfidenceMultiplier)
			metrics.RecordQuoteFlag(q.Source, flagRule(outcome.ConfidenceMultiplier))
		}

		accepted := q
		if outcome.AdjustedPrice != nil {
			accepted.Price = *outcome.AdjustedPrice
		}
		accepted.Confidence = clamp(q.Confidence*outcome.ConfidenceMultiplier, 0, 1)

		// History records the raw price, before any adjustment or
		// confidence multiplier.
		v.store.Record(q.Asset, q.Price)
		metrics.RecordHistorySize(q.Asset, v.store.Len(q.Asset))

		validated = append(validated, accepted)
	}

	if len(validated) == 0 {
		return nil, ErrNoValidQuotes
	}

	return validated, nil
}

// Evaluate applies the validation rules to a single quote without mutating
// history. Deterministic for an unchanged history. Rules are checked in
// order, first hit wins; a historical flag short-circuits with acceptance.
func (v *Validator) Evaluate(q Quote) ValidationOutcome {
	if q.Price <= 0 {
		return ValidationOutcome{Reason: "non-positive price"}
	}

	if q.Price > maxSanePrice {
		return ValidationOutcome{Reason: "price too high"}
	}

	if stats, ok := v.store.Stats(q.Asset); ok && stats.Count >= historyMinSamples {
		if outcome, flagged := evaluateAgainstHistory(q, stats); flagged {
			return outcome
		}
	}

	if q.Confidence < minQuoteConfidence {
		return ValidationOutcome{Reason: "confidence too low"}
	}

	return ValidationOutcome{Accepted: true, ConfidenceMultiplier: 1.0}
}

// evaluateAgainstHistory checks a quote against the asset's rolling window.
// The second return value is false when no historical rule fires.
func evaluateAgainstHistory(q Quote, stats HistoryStats) (ValidationOutcome, bool) {
	diff := math.Abs(q.Price - stats.Mean)

	// More than three standard deviations away: could be a legitimate move
	// or an error. Flag it and accept with reduced confidence.
	if diff > 3*stats.StdDev {
		return ValidationOutcome{
			Accepted:             true,
			Reason:               fmt.Sprintf("large price movement detected: %.2f%%", diff/stats.Mean*100),
			ConfidenceMultiplier: extremeMoveMultiplier,
		}, true
	}

	// History shows material volatility but the quote barely moved at all.
	// Stale feeds and naive manipulation both look like this.
	if stats.StdDev > stats.Mean*0.01 && diff < stats.Mean*0.001 {
		return ValidationOutcome{
			Accepted:             true,
			Reason:               "suspiciously small price movement",
			ConfidenceMultiplier: flatMoveMultiplier,
		}, true
	}

	return ValidationOutcome{}, false
}

func rejectionRule(q Quote) string {
	switch {
	case q.Price <= 0:
		return "non_positive_price"
	case q.Price > maxSanePrice:
		return "price_too_high"
	default:
		return "low_confidence"
	}
}

func flagRule(multiplier float64) string {
	if multiplier == extremeMoveMultiplier {
		return "large_move"
	}
	return "flat_move"
}
