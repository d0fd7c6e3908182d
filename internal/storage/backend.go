// Package storage implements the persistence backends for the activity log.
//
// A backend is a byte-oriented get/set primitive plus a capacity policy. The
// store drains its full record sequence into one envelope per save; backends
// never see individual records. Capacity ceilings are enforced by the store's
// eviction pass before the write, not by the backend: a backend accepts
// writes of any size.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when the backend holds no payload.
var ErrNotFound = errors.New("storage: no payload")

// CapacityKind distinguishes how a backend is bounded.
type CapacityKind int

const (
	// CapacityNone means the backend imposes no ceiling (volatile memory).
	CapacityNone CapacityKind = iota
	// CapacityBytes means the backend has a hard byte ceiling.
	CapacityBytes
	// CapacityRecords means the backend is bounded by record count.
	CapacityRecords
)

// Capacity describes a backend's capacity policy. MaxBytes is set only for
// CapacityBytes backends; record-count limits live in settings because they
// are user-tunable at runtime.
type Capacity struct {
	Kind     CapacityKind
	MaxBytes int
}

// Backend is the byte-oriented persistence primitive behind the store.
type Backend interface {
	// Load reads the stored envelope bytes. Returns ErrNotFound when the
	// backend has never been written.
	Load(ctx context.Context) ([]byte, error)

	// Save overwrites the stored envelope bytes.
	Save(ctx context.Context, data []byte) error

	// Capacity reports the backend's capacity policy.
	Capacity() Capacity
}
