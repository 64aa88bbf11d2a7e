package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetHistory_AppendAndEvict(t *testing.T) {
	h := NewAssetHistory(3)

	h.Append(1)
	h.Append(2)
	h.Append(3)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{1, 2, 3}, h.Prices())

	// Past capacity the oldest entries drop off first.
	h.Append(4)
	h.Append(5)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, []float64{3, 4, 5}, h.Prices())
}

func TestAssetHistory_Stats(t *testing.T) {
	h := NewAssetHistory(10)
	for _, p := range []float64{44000, 45000, 46000} {
		h.Append(p)
	}

	stats := h.stats()
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 45000.0, stats.Mean)
	assert.InDelta(t, 2000000.0/3, stats.Variance, 0.01)
	assert.Equal(t, 44000.0, stats.Min)
	assert.Equal(t, 46000.0, stats.Max)
}

func TestAssetHistory_StatsAfterEviction(t *testing.T) {
	h := NewAssetHistory(2)
	h.Append(100)
	h.Append(200)
	h.Append(300)

	// Stats only see the surviving window.
	stats := h.stats()
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 250.0, stats.Mean)
	assert.Equal(t, 200.0, stats.Min)
	assert.Equal(t, 300.0, stats.Max)
}

func TestAssetHistory_ZeroCapacityUsesDefault(t *testing.T) {
	h := NewAssetHistory(0)
	for i := 0; i < DefaultHistoryCapacity+10; i++ {
		h.Append(float64(i))
	}
	assert.Equal(t, DefaultHistoryCapacity, h.Len())
}

func TestHistoryStore_RecordAndStats(t *testing.T) {
	s := NewHistoryStore(100)

	_, ok := s.Stats("BTC")
	assert.False(t, ok)

	s.Record("BTC", 45000)
	s.Record("BTC", 45100)
	s.Record("ETH", 3000)

	assert.Equal(t, 2, s.Len("BTC"))
	assert.Equal(t, 1, s.Len("ETH"))
	assert.Equal(t, 0, s.Len("SOL"))

	stats, ok := s.Stats("BTC")
	require.True(t, ok)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, 45050.0, stats.Mean)

	assert.Equal(t, []float64{45000, 45100}, s.Prices("BTC"))
	assert.Nil(t, s.Prices("SOL"))
}

func TestHistoryStore_CapacityBoundsAllAssets(t *testing.T) {
	s := NewHistoryStore(5)
	for i := 0; i < 20; i++ {
		s.Record("BTC", float64(i))
	}

	assert.Equal(t, 5, s.Len("BTC"))
	assert.Equal(t, []float64{15, 16, 17, 18, 19}, s.Prices("BTC"))
}
