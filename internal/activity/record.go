package activity

import (
	"github.com/qaeu/melvor-activity-monitor/internal/mediaref"
)

// Record is one activity log entry in its full in-memory form.
type Record struct {
	// ID is assigned at capture time and never changes.
	ID string
	// Timestamp is milliseconds since epoch. Grouping advances it to the
	// most recent merge.
	Timestamp int64
	// Type is the event category tag.
	Type string
	// Message is the human-readable text. The owning record's message
	// survives merges.
	Message string
	// Count is the number of merged occurrences, always >= 1.
	Count int
	// Quantity accumulates across merges when present. Absent is not zero.
	Quantity *float64
	// Media is the renderable pointer. Derived, not authoritative: it is
	// reconstructed from MediaRef on load and regenerated from Source on
	// capture, and never persisted when MediaRef is derivable.
	Media string
	// MediaRef is the compact symbolic reference persisted for Media. May
	// be absent even when Media is present (fallback path).
	MediaRef string
	// CustomID is passed through unchanged.
	CustomID string

	// Source is the live game object behind Media, when known. Used to
	// derive a symbolic MediaRef at persist time; never persisted itself.
	Source mediaref.Source
}

// Event is a raw producer event handed to Store.Add. The capture layer
// guarantees Type and Message are non-empty.
type Event struct {
	// ID is optional; the store assigns one when empty.
	ID       string
	Type     string
	Message  string
	Quantity *float64
	Media    string
	Source   mediaref.Source
	CustomID string
}

// PersistedRecord is the minimal stored form of a Record. Field omission is
// a storage optimization, not a type difference: reconstruction restores
// defaults.
type PersistedRecord struct {
	ID        string   `json:"id"`
	Timestamp int64    `json:"ts"`
	Type      string   `json:"type"`
	Message   string   `json:"msg"`
	Count     int      `json:"count,omitempty"`
	Quantity  *float64 `json:"qty,omitempty"`
	MediaRef  string   `json:"ref,omitempty"`
	CustomID  string   `json:"cid,omitempty"`
}

func copyQuantity(q *float64) *float64 {
	if q == nil {
		return nil
	}
	v := *q
	return &v
}

func copyRecord(r Record) Record {
	r.Quantity = copyQuantity(r.Quantity)
	return r
}
