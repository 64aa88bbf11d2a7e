package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tc.com/oracle-node/pkg/logging"
)

func newTestValidator() *Validator {
	return NewValidator(NewHistoryStore(DefaultHistoryCapacity), logging.NewNoopLogger())
}

func TestValidator_AcceptsNormalQuote(t *testing.T) {
	v := newTestValidator()

	outcome := v.Evaluate(quote("BTC", 45000, 0.9, "binance"))
	assert.True(t, outcome.Accepted)
	assert.Empty(t, outcome.Reason)
	assert.Equal(t, 1.0, outcome.ConfidenceMultiplier)
}

func TestValidator_RejectsNonPositivePrice(t *testing.T) {
	v := newTestValidator()

	for _, price := range []float64{0, -1, -45000} {
		outcome := v.Evaluate(quote("BTC", price, 0.9, "binance"))
		assert.False(t, outcome.Accepted)
		assert.Equal(t, "non-positive price", outcome.Reason)
	}
}

func TestValidator_RejectsAbsurdPrice(t *testing.T) {
	v := newTestValidator()

	outcome := v.Evaluate(quote("BTC", 1_000_001, 0.9, "binance"))
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "price too high", outcome.Reason)

	// The ceiling itself is still acceptable.
	outcome = v.Evaluate(quote("BTC", 1_000_000, 0.9, "binance"))
	assert.True(t, outcome.Accepted)
}

func TestValidator_RejectsLowConfidence(t *testing.T) {
	v := newTestValidator()

	outcome := v.Evaluate(quote("BTC", 45000, 0.05, "binance"))
	assert.False(t, outcome.Accepted)
	assert.Equal(t, "confidence too low", outcome.Reason)
}

func TestValidator_FlagsLargeMove(t *testing.T) {
	v := newTestValidator()
	for _, p := range []float64{45000, 45000, 45000} {
		v.History().Record("BTC", p)
	}

	// Flat history has zero deviation, so any move at all trips the
	// three-sigma rule.
	outcome := v.Evaluate(quote("BTC", 46000, 0.9, "binance"))
	assert.True(t, outcome.Accepted)
	assert.Contains(t, outcome.Reason, "large price movement detected")
	assert.Equal(t, 0.7, outcome.ConfidenceMultiplier)
}

func TestValidator_FlagsFlatMove(t *testing.T) {
	v := newTestValidator()
	for _, p := range []float64{44000, 45000, 46000} {
		v.History().Record("BTC", p)
	}

	// Volatile history, but the quote barely moved off the mean.
	outcome := v.Evaluate(quote("BTC", 45010, 0.9, "binance"))
	assert.True(t, outcome.Accepted)
	assert.Equal(t, "suspiciously small price movement", outcome.Reason)
	assert.Equal(t, 0.8, outcome.ConfidenceMultiplier)
}

func TestValidator_FlagShortCircuitsConfidenceCheck(t *testing.T) {
	v := newTestValidator()
	for _, p := range []float64{44000, 45000, 46000} {
		v.History().Record("BTC", p)
	}

	// Confidence below the floor would normally reject, but a historical
	// flag decides first and accepts with the multiplier applied.
	outcome := v.Evaluate(quote("BTC", 45010, 0.05, "binance"))
	assert.True(t, outcome.Accepted)
	assert.Equal(t, "suspiciously small price movement", outcome.Reason)
}

func TestValidator_HistoryRulesNeedThreeSamples(t *testing.T) {
	v := newTestValidator()
	v.History().Record("BTC", 45000)
	v.History().Record("BTC", 45000)

	// Two samples: history checks stay dormant, the quote passes untouched.
	outcome := v.Evaluate(quote("BTC", 46000, 0.9, "binance"))
	assert.True(t, outcome.Accepted)
	assert.Empty(t, outcome.Reason)
	assert.Equal(t, 1.0, outcome.ConfidenceMultiplier)
}

func TestValidator_EvaluateDoesNotMutateHistory(t *testing.T) {
	v := newTestValidator()
	v.History().Record("BTC", 45000)

	first := v.Evaluate(quote("BTC", 45100, 0.9, "binance"))
	second := v.Evaluate(quote("BTC", 45100, 0.9, "binance"))

	assert.Equal(t, first, second)
	assert.Equal(t, 1, v.History().Len("BTC"))
}

func TestValidator_ValidateBatchRecordsRawPrices(t *testing.T) {
	v := newTestValidator()

	quotes := []Quote{
		quote("BTC", 45000, 0.9, "binance"),
		quote("BTC", -5, 0.9, "broken"),
		quote("BTC", 45100, 0.8, "coingecko"),
	}

	validated, err := v.ValidateBatch(quotes)
	require.NoError(t, err)
	require.Len(t, validated, 2)

	// Only accepted prices reach the history; the rejected one never does.
	assert.Equal(t, []float64{45000, 45100}, v.History().Prices("BTC"))
}

func TestValidator_ValidateBatchAppliesMultiplier(t *testing.T) {
	v := newTestValidator()
	for _, p := range []float64{45000, 45000, 45000} {
		v.History().Record("BTC", p)
	}

	validated, err := v.ValidateBatch([]Quote{quote("BTC", 46000, 0.9, "binance")})
	require.NoError(t, err)
	require.Len(t, validated, 1)

	assert.InDelta(t, 0.63, validated[0].Confidence, 1e-9)
	// The raw price is what history sees, not the adjusted confidence.
	prices := v.History().Prices("BTC")
	assert.Equal(t, 46000.0, prices[len(prices)-1])
}

func TestValidator_ValidateBatchAllRejected(t *testing.T) {
	v := newTestValidator()

	quotes := []Quote{
		quote("BTC", -1, 0.9, "a"),
		quote("BTC", 2_000_000, 0.9, "b"),
	}

	_, err := v.ValidateBatch(quotes)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoValidQuotes)
	assert.Equal(t, 0, v.History().Len("BTC"))
}

func TestValidator_AssetsAreIndependent(t *testing.T) {
	v := newTestValidator()
	for _, p := range []float64{45000, 45000, 45000} {
		v.History().Record("BTC", p)
	}

	// ETH has no history, so the three-sigma rule cannot fire for it.
	outcome := v.Evaluate(quote("ETH", 3000, 0.9, "binance"))
	assert.True(t, outcome.Accepted)
	assert.Empty(t, outcome.Reason)
}
