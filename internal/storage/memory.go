package storage

import "context"

// MemoryBackend is the volatile variant: loads find nothing and saves are
// dropped. Selecting it effectively disables persistence across sessions.
type MemoryBackend struct{}

// NewMemoryBackend creates a volatile backend.
func NewMemoryBackend() *MemoryBackend { return &MemoryBackend{} }

// Load implements Backend.
func (*MemoryBackend) Load(context.Context) ([]byte, error) { return nil, ErrNotFound }

// Save implements Backend.
func (*MemoryBackend) Save(context.Context, []byte) error { return nil }

// Capacity implements Backend.
func (*MemoryBackend) Capacity() Capacity { return Capacity{Kind: CapacityNone} }
