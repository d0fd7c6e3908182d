package activity

import (
	"github.com/qaeu/melvor-activity-monitor/internal/config"
)

// Stats summarizes the store's current footprint.
type Stats struct {
	Count                   int `json:"count"`
	CompressedSize          int `json:"compressedSize"`
	UncompressedSize        int `json:"uncompressedSize"`
	CompressionRatioPercent int `json:"compressionRatioPercent"`
	// EstimatedMaxCount extrapolates how many records fit under the active
	// ceiling from the current average compressed bytes per record. An
	// estimate, not a bound.
	EstimatedMaxCount int `json:"estimatedMaxCount"`
}

// Stats measures the current sequence. The compression pass is the same one
// a save would run, so the reported sizes match what the backend would store.
func (s *Store) Stats() (Stats, error) {
	s.mu.Lock()
	prs := s.optimizeAllLocked()
	n := len(s.recs)
	s.mu.Unlock()

	payload, err := s.comp.Compress(prs)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		Count:            n,
		CompressedSize:   payload.CompressedSize(),
		UncompressedSize: payload.UncompressedSize,
	}
	if payload.UncompressedSize > 0 {
		st.CompressionRatioPercent = payload.CompressedSize() * 100 / payload.UncompressedSize
	}

	limits := s.settings.Limits()
	switch s.settings.Mode() {
	case config.ModeStore, config.ModeMemory:
		st.EstimatedMaxCount = limits.StoreMaxRecords
	case config.ModeSlot:
		if n > 0 && payload.CompressedSize() > 0 {
			avg := payload.CompressedSize() / n
			if avg < 1 {
				avg = 1
			}
			st.EstimatedMaxCount = slotBudgetBytes(limits) / avg
		}
	}
	return st, nil
}
