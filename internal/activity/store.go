package activity

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/qaeu/melvor-activity-monitor/internal/codec"
	"github.com/qaeu/melvor-activity-monitor/internal/config"
	"github.com/qaeu/melvor-activity-monitor/internal/mediaref"
	"github.com/qaeu/melvor-activity-monitor/internal/storage"
	idpkg "github.com/qaeu/melvor-activity-monitor/pkg/id"
	logpkg "github.com/qaeu/melvor-activity-monitor/pkg/log"
)

// nowMs returns current time in milliseconds. Overridable in tests.
var nowMs = func() int64 { return time.Now().UnixMilli() }

// Compressor is the compression seam between the store and internal/codec.
type Compressor interface {
	Compress(v interface{}) (codec.Payload, error)
	Decompress(p codec.Payload, out interface{}) error
}

// SettingsReader is the read capability the store consults at call time.
type SettingsReader interface {
	Grouping() (enabled bool, window time.Duration)
	Mode() config.Mode
	Limits() config.Limits
}

// Watcher delivers settings changes the store must react to.
type Watcher interface {
	Subscribe(fn func(config.Change)) (cancel func())
}

// Backends maps each persistence mode to its backend.
type Backends struct {
	Slot   storage.Backend
	Store  storage.Backend
	Memory storage.Backend
}

func (b Backends) forMode(m config.Mode) storage.Backend {
	switch m {
	case config.ModeSlot:
		return b.Slot
	case config.ModeStore:
		return b.Store
	case config.ModeMemory:
		return b.Memory
	}
	return nil
}

// EventKind classifies a change notification.
type EventKind int

const (
	// EventAdded fires when a new record enters the sequence.
	EventAdded EventKind = iota
	// EventUpdated fires when grouping merges into, or Update patches, an
	// existing record.
	EventUpdated
	// EventRemoved fires when a record is removed by id.
	EventRemoved
	// EventCleared fires when the whole sequence is cleared.
	EventCleared
)

// ChangeEvent is delivered synchronously to observers right after the
// in-memory mutation. Consumers re-fetch via GetAll rather than relying on
// incremental diffs.
type ChangeEvent struct {
	Kind   EventKind
	Record Record
}

// Options configures a Store.
type Options struct {
	// Settings is consulted at call time for grouping and capacity. When
	// nil the store runs on built-in defaults.
	Settings SettingsReader
	// Watcher, when set, lets the store react to mode/limit changes.
	Watcher Watcher
	// Backends supplies the persistence targets per mode.
	Backends Backends
	// Media resolves and derives symbolic media references.
	Media *mediaref.Codec
	// Compressor defaults to codec.New().
	Compressor Compressor
	// Logger defaults to a nop logger.
	Logger logpkg.Logger
	// Debounce is the save coalescing window, default DefaultDebounce.
	Debounce time.Duration
	// IDs generates record ids for events that carry none.
	IDs *idpkg.Generator
}

// Store owns the ordered activity record sequence. The sequence is always
// newest-first; that ordering is load-bearing for both the grouping scan
// (early exit at the window boundary) and eviction (oldest is the tail).
//
// Mutation entry points assume a single logical owner; the internal mutex
// exists because the debounce timer snapshots the sequence from its own
// goroutine.
type Store struct {
	mu   sync.Mutex
	recs []Record

	settings SettingsReader
	backends Backends
	comp     Compressor
	opt      optimizer
	ids      *idpkg.Generator
	logger   logpkg.Logger
	saver    *saver
	unsub    func()

	obsMu   sync.Mutex
	obs     map[int]func(ChangeEvent)
	nextObs int
}

// New creates a Store. Call Load to populate it from the active backend.
func New(opts Options) *Store {
	if opts.Settings == nil {
		opts.Settings = config.NewSettings(config.Default())
	}
	if opts.Compressor == nil {
		opts.Compressor = codec.New()
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewNopLogger()
	}
	if opts.Media == nil {
		opts.Media = mediaref.New(nil)
	}
	if opts.IDs == nil {
		opts.IDs = idpkg.NewGenerator()
	}

	s := &Store{
		settings: opts.Settings,
		backends: opts.Backends,
		comp:     opts.Compressor,
		opt:      optimizer{media: opts.Media},
		ids:      opts.IDs,
		logger:   opts.Logger.WithComponent("activity"),
		obs:      make(map[int]func(ChangeEvent)),
	}
	s.saver = newSaver(opts.Debounce, func() {
		if err := s.saveNow(context.Background()); err != nil {
			s.logger.Warn("debounced save failed; will retry on next save", logpkg.Err(err))
		}
	})

	if opts.Watcher != nil {
		s.unsub = opts.Watcher.Subscribe(s.onSettingsChange)
	}
	return s
}

// Add ingests one raw event: group into a recent matching record when the
// window allows, otherwise prepend a new record and enforce capacity. The
// in-memory sequence is updated synchronously; persistence is debounced.
//
// The only returned failure is an eviction measurement error: a store that
// cannot verify its own size bound must not silently claim success.
func (s *Store) Add(ev Event) error {
	now := nowMs()
	enabled, window := s.settings.Grouping()

	s.mu.Lock()
	if enabled {
		if i, ok := s.findGroupTarget(ev, now, window); ok {
			merged := s.mergeAt(i, ev, now)
			s.mu.Unlock()
			s.notify(ChangeEvent{Kind: EventUpdated, Record: merged})
			s.saver.schedule()
			return nil
		}
	}

	rec := Record{
		ID:        ev.ID,
		Timestamp: now,
		Type:      ev.Type,
		Message:   ev.Message,
		Count:     1,
		Quantity:  copyQuantity(ev.Quantity),
		Media:     ev.Media,
		Source:    ev.Source,
		CustomID:  ev.CustomID,
	}
	if rec.ID == "" {
		rec.ID = s.ids.Next()
	}
	s.recs = append(s.recs, Record{})
	copy(s.recs[1:], s.recs)
	s.recs[0] = rec
	evictErr := s.applyCapacityLocked()
	s.mu.Unlock()

	s.notify(ChangeEvent{Kind: EventAdded, Record: copyRecord(rec)})
	s.saver.schedule()
	return evictErr
}

// findGroupTarget scans newest to oldest for the first record the event can
// merge into. The scan stops at the first record whose age reaches the
// window: ordering guarantees everything older is out of window too.
// Caller holds s.mu.
func (s *Store) findGroupTarget(ev Event, now int64, window time.Duration) (int, bool) {
	winMs := window.Milliseconds()
	for i := range s.recs {
		r := &s.recs[i]
		if now-r.Timestamp >= winMs {
			break
		}
		if r.Type != ev.Type {
			continue
		}
		// Quantity-bearing events collapse regardless of amount; events
		// without a quantity must match the message verbatim so unrelated
		// messages are never conflated.
		if ev.Quantity == nil && r.Message != ev.Message {
			continue
		}
		return i, true
	}
	return 0, false
}

// mergeAt absorbs the event into the record at index i and moves it to the
// front of the sequence. Caller holds s.mu; returns a copy of the merged
// record for notification.
func (s *Store) mergeAt(i int, ev Event, now int64) Record {
	r := s.recs[i]
	r.Count++
	if ev.Quantity != nil {
		q := *ev.Quantity
		if r.Quantity != nil {
			q += *r.Quantity
		}
		r.Quantity = &q
	}
	r.Timestamp = now
	if ev.Source != nil {
		r.Source = ev.Source
	}

	copy(s.recs[1:i+1], s.recs[:i])
	s.recs[0] = r
	return copyRecord(r)
}

// GetAll returns a defensive copy of the sequence, newest-first.
func (s *Store) GetAll() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.recs))
	for i, r := range s.recs {
		out[i] = copyRecord(r)
	}
	return out
}

// Patch holds the fields Update may change. Nil fields are left alone.
type Patch struct {
	Message  *string
	Quantity *float64
	Media    *string
	CustomID *string
}

// Update patches the record with the given id. Returns false when no record
// matches.
func (s *Store) Update(id string, p Patch) bool {
	s.mu.Lock()
	var updated *Record
	for i := range s.recs {
		if s.recs[i].ID != id {
			continue
		}
		r := &s.recs[i]
		if p.Message != nil {
			r.Message = *p.Message
		}
		if p.Quantity != nil {
			r.Quantity = copyQuantity(p.Quantity)
		}
		if p.Media != nil {
			r.Media = *p.Media
			r.MediaRef = ""
			r.Source = nil
		}
		if p.CustomID != nil {
			r.CustomID = *p.CustomID
		}
		c := copyRecord(*r)
		updated = &c
		break
	}
	s.mu.Unlock()

	if updated == nil {
		return false
	}
	s.notify(ChangeEvent{Kind: EventUpdated, Record: *updated})
	s.saver.schedule()
	return true
}

// RemoveByID removes the record with the given id. Returns false when no
// record matches.
func (s *Store) RemoveByID(id string) bool {
	s.mu.Lock()
	var removed *Record
	for i := range s.recs {
		if s.recs[i].ID != id {
			continue
		}
		c := copyRecord(s.recs[i])
		removed = &c
		s.recs = append(s.recs[:i], s.recs[i+1:]...)
		break
	}
	s.mu.Unlock()

	if removed == nil {
		return false
	}
	s.notify(ChangeEvent{Kind: EventRemoved, Record: *removed})
	s.saver.schedule()
	return true
}

// ClearAll empties the sequence synchronously and persists immediately,
// bypassing the debounce window.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	s.recs = nil
	s.mu.Unlock()

	s.notify(ChangeEvent{Kind: EventCleared})
	s.saver.cancel()
	return s.saveNow(ctx)
}

// Load replaces the sequence from the active backend. Every failure mode
// (missing data, malformed envelope, decompression error) is logged and
// treated as "no data"; it never corrupts the in-memory sequence and never
// propagates to the caller.
func (s *Store) Load(ctx context.Context) {
	mode := s.settings.Mode()
	backend := s.backends.forMode(mode)
	if backend == nil {
		s.logger.Warn("no backend for mode; starting empty", logpkg.Str("mode", string(mode)))
		s.setRecords(nil)
		return
	}

	raw, err := backend.Load(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("load failed; starting empty", logpkg.Err(err))
		}
		s.setRecords(nil)
		return
	}
	payload, err := storage.DecodeEnvelope(raw)
	if err != nil {
		s.logger.Warn("stored envelope malformed; starting empty", logpkg.Err(err))
		s.setRecords(nil)
		return
	}
	var prs []PersistedRecord
	if err := s.comp.Decompress(payload, &prs); err != nil {
		s.logger.Warn("stored payload unreadable; starting empty", logpkg.Err(err))
		s.setRecords(nil)
		return
	}

	recs := make([]Record, len(prs))
	for i, pr := range prs {
		recs[i] = s.opt.reconstruct(pr)
	}
	// Stored payloads are written newest-first; sort defensively so a
	// hand-edited payload cannot break the ordering invariant.
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Timestamp > recs[j].Timestamp })
	s.setRecords(recs)
	s.logger.Debug("loaded activity log", logpkg.Int("records", len(recs)), logpkg.Str("mode", string(mode)))
}

func (s *Store) setRecords(recs []Record) {
	s.mu.Lock()
	s.recs = recs
	s.mu.Unlock()
}

// Flush cancels any pending debounced save and persists synchronously.
func (s *Store) Flush(ctx context.Context) error {
	s.saver.cancel()
	return s.saveNow(ctx)
}

// Close flushes and detaches the store from its settings subscription and
// debounce timer. The store must not be used afterwards.
func (s *Store) Close(ctx context.Context) error {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	pending := s.saver.cancel()
	s.saver.stop()
	if pending {
		return s.saveNow(ctx)
	}
	return nil
}

// saveNow drains the full sequence through the optimizer, compresses it and
// overwrites the active backend. Write failures are logged and returned;
// the next scheduled save retries.
func (s *Store) saveNow(ctx context.Context) error {
	s.mu.Lock()
	prs := s.optimizeAllLocked()
	s.mu.Unlock()

	mode := s.settings.Mode()
	if mode == config.ModeMemory {
		return nil
	}
	backend := s.backends.forMode(mode)
	if backend == nil {
		return errors.New("activity: no backend for mode " + string(mode))
	}

	payload, err := s.comp.Compress(prs)
	if err != nil {
		return err
	}
	env, err := storage.EncodeEnvelope(payload)
	if err != nil {
		return err
	}
	if err := backend.Save(ctx, env); err != nil {
		s.logger.Warn("save dropped", logpkg.Err(err), logpkg.Str("mode", string(mode)))
		return err
	}
	s.logger.Debug("persisted activity log",
		logpkg.Int("records", len(prs)),
		logpkg.Int("bytes", len(env)),
		logpkg.Str("mode", string(mode)))
	return nil
}

// onSettingsChange reacts to the settings subscription: a mode change saves
// immediately to the newly selected backend, a limit change re-runs the
// capacity pass.
func (s *Store) onSettingsChange(ch config.Change) {
	switch ch.Kind {
	case config.ModeChanged:
		s.saver.cancel()
		if err := s.saveNow(context.Background()); err != nil {
			s.logger.Warn("save to new backend failed", logpkg.Err(err))
		}
	case config.LimitsChanged:
		s.mu.Lock()
		err := s.applyCapacityLocked()
		s.mu.Unlock()
		if err != nil {
			s.logger.Warn("capacity re-evaluation failed", logpkg.Err(err))
		}
		s.saver.schedule()
	}
}

// OnChange registers an observer. Delivery is synchronous, right after the
// in-memory mutation, so consumers always observe a mutation before its
// eventual persistence. The returned cancel func removes the observer.
func (s *Store) OnChange(fn func(ChangeEvent)) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.obs[id] = fn
	s.obsMu.Unlock()
	return func() {
		s.obsMu.Lock()
		delete(s.obs, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) notify(ev ChangeEvent) {
	s.obsMu.Lock()
	fns := make([]func(ChangeEvent), 0, len(s.obs))
	for _, fn := range s.obs {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
