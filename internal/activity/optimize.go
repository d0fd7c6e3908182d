package activity

import (
	"github.com/qaeu/melvor-activity-monitor/internal/mediaref"
)

// optimizer maps full records to their minimal persisted form and back.
type optimizer struct {
	media *mediaref.Codec
}

// optimize strips re-derivable data: Media is dropped in favor of a
// symbolic reference, Count and Quantity are omitted when trivial.
//
// Reference preference order: an existing genuine symbolic ref wins, then a
// fresh symbolic derivation from the live source, then a fallback built from
// the raw URL. A fallback ref already on the record is kept only as a last
// resort, so records that regain a live source shed their fallback on the
// next persist cycle.
func (o optimizer) optimize(r Record) PersistedRecord {
	pr := PersistedRecord{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Type:      r.Type,
		Message:   r.Message,
		Quantity:  copyQuantity(r.Quantity),
		CustomID:  r.CustomID,
	}
	if r.Count > 1 {
		pr.Count = r.Count
	}

	switch {
	case r.MediaRef != "" && !mediaref.IsFallback(r.MediaRef):
		pr.MediaRef = r.MediaRef
	default:
		if ref, ok := o.media.Encode(r.Source); ok {
			pr.MediaRef = ref
		} else if r.Media != "" {
			pr.MediaRef = o.media.Fallback(r.Media)
		} else if r.MediaRef != "" {
			pr.MediaRef = r.MediaRef
		}
	}
	return pr
}

// reconstruct restores a full record: defaults for omitted fields, Media
// resolved from the stored reference. A fallback-form ref is deliberately
// not re-exposed on the record, so the next optimize pass attempts symbolic
// re-derivation instead of perpetuating the fallback.
func (o optimizer) reconstruct(pr PersistedRecord) Record {
	r := Record{
		ID:        pr.ID,
		Timestamp: pr.Timestamp,
		Type:      pr.Type,
		Message:   pr.Message,
		Count:     pr.Count,
		Quantity:  copyQuantity(pr.Quantity),
		CustomID:  pr.CustomID,
	}
	if r.Count < 1 {
		r.Count = 1
	}
	r.Media = o.media.Decode(pr.MediaRef)
	if pr.MediaRef != "" && !mediaref.IsFallback(pr.MediaRef) {
		r.MediaRef = pr.MediaRef
	}
	return r
}

// optimizeAllLocked drains the full sequence through the optimizer. Every
// save is a full-snapshot overwrite because compression runs over the whole
// payload. Caller holds s.mu.
func (s *Store) optimizeAllLocked() []PersistedRecord {
	out := make([]PersistedRecord, len(s.recs))
	for i, r := range s.recs {
		out[i] = s.opt.optimize(r)
	}
	return out
}
