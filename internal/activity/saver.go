package activity

import (
	"sync"
	"time"
)

// DefaultDebounce is the coalescing window for scheduled saves.
const DefaultDebounce = time.Second

// saver coalesces repeated save requests into one physical write. Every
// schedule resets the timer, so only the last scheduled save executes. An
// in-flight save is never cancelled; only pending ones are superseded.
type saver struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func()
	timer    *time.Timer
	stopped  bool
}

func newSaver(interval time.Duration, fn func()) *saver {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &saver{interval: interval, fn: fn}
}

// schedule arms the debounce timer, replacing any pending save.
func (s *saver) schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.interval, s.fire)
}

func (s *saver) fire() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()
	s.fn()
}

// cancel drops any pending save and reports whether one existed.
func (s *saver) cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	return true
}

// stop cancels any pending save and rejects future schedules.
func (s *saver) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
