package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// SlotCeilingBytes is the hard byte ceiling of the quota-limited slot the
// size-bounded backend models. The store's eviction pass keeps payloads
// under a configured percentage of this ceiling; the backend itself accepts
// writes of any size, so exceeding the true quota is a caller error.
const SlotCeilingBytes = 8192

// SlotBackend persists the envelope into a single named slot file with a
// hard byte ceiling. Writes go through a temp file and rename so a crash
// mid-save never leaves a truncated slot behind.
type SlotBackend struct {
	path string
}

// NewSlotBackend creates a slot backend at the given file path.
func NewSlotBackend(path string) *SlotBackend {
	return &SlotBackend{path: path}
}

// Load implements Backend.
func (s *SlotBackend) Load(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read slot: %w", err)
	}
	return b, nil
}

// Save implements Backend.
func (s *SlotBackend) Save(_ context.Context, data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: slot dir: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("storage: slot temp: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("storage: slot write: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("storage: slot sync: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage: slot close: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage: slot rename: %w", err)
	}
	return nil
}

// Capacity implements Backend.
func (*SlotBackend) Capacity() Capacity {
	return Capacity{Kind: CapacityBytes, MaxBytes: SlotCeilingBytes}
}
