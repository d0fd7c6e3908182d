package config

import (
	"sync"
	"time"
)

// ChangeKind classifies a settings change.
type ChangeKind int

const (
	// ModeChanged means the persistence mode moved to a new backend.
	ModeChanged ChangeKind = iota
	// LimitsChanged means a capacity limit moved.
	LimitsChanged
	// GroupingChanged means the grouping flag or window moved.
	GroupingChanged
)

// Change describes one settings change delivered to subscribers.
type Change struct {
	Kind ChangeKind
}

// Settings wraps a Config with synchronized reads and change subscription.
// The store consults the readers at call time rather than caching values, so
// updates take effect on the next mutation.
type Settings struct {
	mu     sync.RWMutex
	cfg    Config
	subs   map[int]func(Change)
	nextID int
}

// NewSettings creates a Settings holding cfg.
func NewSettings(cfg Config) *Settings {
	return &Settings{cfg: cfg, subs: make(map[int]func(Change))}
}

// Snapshot returns a copy of the current config.
func (s *Settings) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Grouping returns the grouping flag and window.
func (s *Settings) Grouping() (bool, time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Grouping.Enabled, time.Duration(s.cfg.Grouping.WindowSeconds) * time.Second
}

// Mode returns the active persistence mode.
func (s *Settings) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Mode
}

// Limits returns the capacity limits.
func (s *Settings) Limits() Limits {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Limits
}

// Update applies mutate to the config and synchronously notifies subscribers
// of every change class that actually moved.
func (s *Settings) Update(mutate func(*Config)) {
	s.mu.Lock()
	before := s.cfg
	mutate(&s.cfg)
	after := s.cfg
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	var changes []Change
	if before.Mode != after.Mode {
		changes = append(changes, Change{Kind: ModeChanged})
	}
	if before.Limits != after.Limits {
		changes = append(changes, Change{Kind: LimitsChanged})
	}
	if before.Grouping != after.Grouping {
		changes = append(changes, Change{Kind: GroupingChanged})
	}
	for _, ch := range changes {
		for _, fn := range subs {
			fn(ch)
		}
	}
}

// Subscribe registers fn for settings changes. The returned cancel func
// removes the subscription.
func (s *Settings) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
