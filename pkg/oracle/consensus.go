package oracle

import (
	"fmt"
	"math"
	"time"

	"tc.com/oracle-node/pkg/logging"
	"tc.com/oracle-node/pkg/metrics"
)

const (
	// outlierZScore is the z-score above which a quote counts as an outlier.
	outlierZScore = 2.5
	// varianceNormalizer scales raw price variance into the [0, 1] penalty
	// used by the confidence and consensus-score formulas.
	varianceNormalizer = 10000.0
)

// Engine reduces one validated batch of quotes for a single asset to a
// ConsensusResult. Stateless and deterministic given its inputs.
type Engine struct {
	params ConsensusParams
	logger *logging.Logger
}

// NewEngine creates an engine with default parameters.
func NewEngine(logger *logging.Logger) *Engine {
	return NewEngineWithParams(DefaultParams(), logger)
}

// NewEngineWithParams creates an engine with explicit parameters.
func NewEngineWithParams(params ConsensusParams, logger *logging.Logger) *Engine {
	if params.MinSources <= 0 {
		params.MinSources = DefaultParams().MinSources
	}
	return &Engine{
		params: params,
		logger: logger,
	}
}

// Params returns the engine's parameters.
func (e *Engine) Params() ConsensusParams {
	return e.params
}

// Run computes the consensus over a validated batch. All quotes must belong
// to the same asset. Fails with ErrInsufficientSources when the batch is too
// small and ErrTooManyOutliers when the outlier fraction exceeds the
// configured maximum.
func (e *Engine) Run(quotes []Quote) (ConsensusResult, error) {
	start := time.Now()

	if len(quotes) == 0 {
		return ConsensusResult{}, ErrNoQuotes
	}
	if len(quotes) < e.params.MinSources {
		return ConsensusResult{}, fmt.Errorf("%w: %d (minimum: %d)", ErrInsufficientSources, len(quotes), e.params.MinSources)
	}

	asset := quotes[0].Asset
	n := float64(len(quotes))

	prices := make([]float64, len(quotes))
	sources := make([]string, len(quotes))
	for i, q := range quotes {
		prices[i] = q.Price
		sources[i] = q.Source
	}

	mean := meanOf(prices)
	variance := varianceOf(prices, mean)
	stdDev := math.Sqrt(variance)

	outliers := detectOutliers(prices, mean, stdDev)
	outlierCount := len(outliers)

	outlierPct := float64(outlierCount) / n
	if outlierPct > e.params.MaxOutlierPercentage {
		return ConsensusResult{}, fmt.Errorf("%w: %.1f%% (max: %.1f%%)",
			ErrTooManyOutliers, outlierPct*100, e.params.MaxOutlierPercentage*100)
	}
	for range outliers {
		metrics.RecordOutlierRejection(asset)
	}

	price := weightedAverage(quotes, outliers)
	confidence := e.confidence(quotes, variance, outlierCount)
	score := consensusScore(n, variance, outlierCount)

	result := NewConsensusResult(asset, price, confidence, sources, score, variance, outlierCount)

	metrics.RecordConsensus(asset, result.Price, result.Confidence, result.ConsensusScore, time.Since(start))
	e.logger.Debug("Consensus computed",
		"asset", asset,
		"price", result.Price,
		"confidence", result.Confidence,
		"score", result.ConsensusScore,
		"outliers", outlierCount,
		"sources", len(sources))

	return result, nil
}

func meanOf(prices []float64) float64 {
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}

// varianceOf computes the population variance.
func varianceOf(prices []float64, mean float64) float64 {
	sumSq := 0.0
	for _, p := range prices {
		d := p - mean
		sumSq += d * d
	}
	return sumSq / float64(len(prices))
}

// detectOutliers returns the indices whose z-score exceeds outlierZScore.
// When every price is identical the standard deviation is zero and no quote
// is an outlier; the z-score is treated as zero rather than dividing by zero.
func detectOutliers(prices []float64, mean, stdDev float64) map[int]struct{} {
	outliers := make(map[int]struct{})
	if stdDev == 0 {
		return outliers
	}

	for i, p := range prices {
		z := math.Abs(p-mean) / stdDev
		if z > outlierZScore {
			outliers[i] = struct{}{}
		}
	}
	return outliers
}

// weightedAverage computes the confidence-weighted price over non-outliers,
// falling back to the unweighted mean when all weights are zero.
func weightedAverage(quotes []Quote, outliers map[int]struct{}) float64 {
	totalWeight := 0.0
	weightedSum := 0.0
	unweightedSum := 0.0
	kept := 0

	for i, q := range quotes {
		if _, ok := outliers[i]; ok {
			continue
		}
		weightedSum += q.Price * q.Confidence
		totalWeight += q.Confidence
		unweightedSum += q.Price
		kept++
	}

	if totalWeight > 0 {
		return weightedSum / totalWeight
	}
	return unweightedSum / float64(kept)
}

// confidence combines the average source confidence with variance and
// outlier penalties.
func (e *Engine) confidence(quotes []Quote, variance float64, outlierCount int) float64 {
	n := float64(len(quotes))

	avgConfidence := 0.0
	for _, q := range quotes {
		avgConfidence += q.Confidence
	}
	avgConfidence /= n

	varianceFactor := clamp(1-math.Min(variance/varianceNormalizer, 1), 0.1, 1)
	outlierFactor := 1 - float64(outlierCount)/n

	return clamp(avgConfidence*varianceFactor*outlierFactor, 0, 1)
}

// consensusScore measures inter-source agreement, penalizing the outlier
// fraction and the raw variance. Independent of source confidences.
func consensusScore(n, variance float64, outlierCount int) float64 {
	outlierPenalty := float64(outlierCount) / n
	variancePenalty := math.Min(variance/varianceNormalizer, 1)
	return clamp(1-outlierPenalty-variancePenalty, 0, 1)
}
