package activity

import (
	"fmt"

	"github.com/qaeu/melvor-activity-monitor/internal/config"
	"github.com/qaeu/melvor-activity-monitor/internal/storage"
)

// remeasureEvery is how many oldest records are dropped between compression
// re-measurements during a byte fit. Full compression is expensive; trading
// an overshoot of up to remeasureEvery-1 records for an order of magnitude
// fewer compression calls is the intended balance. The final state is always
// verified by a real compression pass.
const remeasureEvery = 5

// applyCapacityLocked enforces the active mode's capacity ceiling by
// evicting oldest records. Count ceilings truncate in one exact step; the
// byte ceiling iterates with periodic re-measurement. Caller holds s.mu.
func (s *Store) applyCapacityLocked() error {
	limits := s.settings.Limits()
	switch s.settings.Mode() {
	case config.ModeStore, config.ModeMemory:
		s.truncateLocked(limits.StoreMaxRecords)
		return nil
	case config.ModeSlot:
		if limits.SlotMaxRecords > 0 {
			s.truncateLocked(limits.SlotMaxRecords)
		}
		maxBytes := slotBudgetBytes(limits)
		return s.fitToBytesLocked(maxBytes)
	}
	return nil
}

func slotBudgetBytes(limits config.Limits) int {
	pct := limits.SlotPercent
	if pct < 1 || pct > 100 {
		pct = 100
	}
	return storage.SlotCeilingBytes * pct / 100
}

// truncateLocked keeps the newest limit records. Caller holds s.mu.
func (s *Store) truncateLocked(limit int) {
	if limit > 0 && len(s.recs) > limit {
		s.recs = s.recs[:limit]
	}
}

// fitToBytesLocked drops oldest records until the compressed snapshot fits
// within maxBytes, re-measuring after every remeasureEvery removals or when
// the sequence empties. Measurement failure propagates: eviction runs inside
// the add path and a store that cannot verify its size bound must surface
// that. Caller holds s.mu.
func (s *Store) fitToBytesLocked(maxBytes int) error {
	for {
		payload, err := s.comp.Compress(s.optimizeAllLocked())
		if err != nil {
			return fmt.Errorf("activity: eviction measurement: %w", err)
		}
		if payload.CompressedSize() <= maxBytes || len(s.recs) == 0 {
			return nil
		}
		drop := remeasureEvery
		if drop > len(s.recs) {
			drop = len(s.recs)
		}
		s.recs = s.recs[:len(s.recs)-drop]
	}
}
