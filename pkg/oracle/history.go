package oracle

import (
	"math"
	"sync"
)

// DefaultHistoryCapacity is the default size of the per-asset rolling window.
const DefaultHistoryCapacity = 100

// AssetHistory is a bounded FIFO window of previously accepted prices for one
// asset. Not safe for concurrent use; the HistoryStore serializes access.
type AssetHistory struct {
	buf   []float64
	start int
	n     int
}

// NewAssetHistory creates a history with the given capacity.
func NewAssetHistory(capacity int) *AssetHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &AssetHistory{buf: make([]float64, capacity)}
}

// Append adds a price, evicting the oldest entry once capacity is exceeded.
func (h *AssetHistory) Append(price float64) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = price
		h.n++
		return
	}
	h.buf[h.start] = price
	h.start = (h.start + 1) % len(h.buf)
}

// Len returns the number of recorded prices.
func (h *AssetHistory) Len() int {
	return h.n
}

// Prices returns the recorded prices in insertion order, oldest first.
func (h *AssetHistory) Prices() []float64 {
	out := make([]float64, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// HistoryStats summarizes the rolling window of an asset.
type HistoryStats struct {
	Count    int
	Mean     float64
	Variance float64
	StdDev   float64
	Min      float64
	Max      float64
}

func (h *AssetHistory) stats() HistoryStats {
	if h.n == 0 {
		return HistoryStats{}
	}

	sum := 0.0
	min := math.Inf(1)
	max := math.Inf(-1)
	for i := 0; i < h.n; i++ {
		p := h.buf[(h.start+i)%len(h.buf)]
		sum += p
		min = math.Min(min, p)
		max = math.Max(max, p)
	}
	mean := sum / float64(h.n)

	sumSq := 0.0
	for i := 0; i < h.n; i++ {
		d := h.buf[(h.start+i)%len(h.buf)] - mean
		sumSq += d * d
	}
	variance := sumSq / float64(h.n)

	return HistoryStats{
		Count:    h.n,
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Min:      min,
		Max:      max,
	}
}

// HistoryStore holds the rolling price histories for all assets. Histories
// for different assets are independent; the store only guards the map itself
// and each window's single-append mutation.
type HistoryStore struct {
	mu        sync.RWMutex
	capacity  int
	histories map[string]*AssetHistory
}

// NewHistoryStore creates a store whose windows hold up to capacity prices.
func NewHistoryStore(capacity int) *HistoryStore {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &HistoryStore{
		capacity:  capacity,
		histories: make(map[string]*AssetHistory),
	}
}

// Record appends an accepted price to the asset's history.
func (s *HistoryStore) Record(asset string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[asset]
	if !ok {
		h = NewAssetHistory(s.capacity)
		s.histories[asset] = h
	}
	h.Append(price)
}

// Len returns the number of recorded prices for an asset.
func (s *HistoryStore) Len(asset string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if h, ok := s.histories[asset]; ok {
		return h.Len()
	}
	return 0
}

// Prices returns the asset's recorded prices, oldest first.
func (s *HistoryStore) Prices(asset string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if h, ok := s.histories[asset]; ok {
		return h.Prices()
	}
	return nil
}

// Stats returns summary statistics for the asset's window. The second return
// value is false when nothing has been recorded for the asset.
func (s *HistoryStore) Stats(asset string) (HistoryStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.histories[asset]
	if !ok || h.Len() == 0 {
		return HistoryStats{}, false
	}
	return h.stats(), true
}
