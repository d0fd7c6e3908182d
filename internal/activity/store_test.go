package activity

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qaeu/melvor-activity-monitor/internal/config"
	"github.com/qaeu/melvor-activity-monitor/internal/mediaref"
	"github.com/qaeu/melvor-activity-monitor/internal/storage"
)

// fakeClock pins nowMs and lets tests advance it.
func fakeClock(t *testing.T, start int64) *int64 {
	t.Helper()
	ms := start
	orig := nowMs
	nowMs = func() int64 { return ms }
	t.Cleanup(func() { nowMs = orig })
	return &ms
}

func memorySettings(mutate ...func(*config.Config)) *config.Settings {
	cfg := config.Default()
	cfg.Mode = config.ModeMemory
	for _, fn := range mutate {
		fn(&cfg)
	}
	return config.NewSettings(cfg)
}

func newMemoryStore(t *testing.T, mutate ...func(*config.Config)) *Store {
	t.Helper()
	s := New(Options{
		Settings: memorySettings(mutate...),
		Backends: Backends{Memory: storage.NewMemoryBackend()},
	})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func qty(v float64) *float64 { return &v }

func TestAddOrderingNewestFirst(t *testing.T) {
	clock := fakeClock(t, 1_000_000)
	s := newMemoryStore(t, func(c *config.Config) { c.Grouping.Enabled = false })

	for _, msg := range []string{"first", "second", "third"} {
		if err := s.Add(Event{Type: "Error", Message: msg}); err != nil {
			t.Fatalf("add: %v", err)
		}
		*clock += 1000
	}

	recs := s.GetAll()
	if len(recs) != 3 {
		t.Fatalf("want 3 records, got %d", len(recs))
	}
	if recs[0].Message != "third" || recs[2].Message != "first" {
		t.Fatalf("not newest-first: %q .. %q", recs[0].Message, recs[2].Message)
	}
	for i := 1; i < len(recs); i++ {
		if recs[i-1].Timestamp < recs[i].Timestamp {
			t.Fatalf("timestamps not descending at %d", i)
		}
	}
}

func TestGroupingSumsQuantities(t *testing.T) {
	clock := fakeClock(t, 1_000_000)
	s := newMemoryStore(t)

	if err := s.Add(Event{Type: "AddGP", Message: "Gained gold", Quantity: qty(5)}); err != nil {
		t.Fatalf("add: %v", err)
	}
	*clock += 10_000
	if err := s.Add(Event{Type: "AddGP", Message: "Gained more gold", Quantity: qty(7)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	recs := s.GetAll()
	if len(recs) != 1 {
		t.Fatalf("want 1 grouped record, got %d", len(recs))
	}
	r := recs[0]
	if r.Count != 2 {
		t.Fatalf("count: got %d", r.Count)
	}
	if r.Quantity == nil || *r.Quantity != 12 {
		t.Fatalf("quantity: got %v", r.Quantity)
	}
	// the owning record's message survives the merge
	if r.Message != "Gained gold" {
		t.Fatalf("message: got %q", r.Message)
	}
	if r.Timestamp != 1_010_000 {
		t.Fatalf("timestamp not advanced: %d", r.Timestamp)
	}
}

func TestGroupingWithoutQuantityNeedsVerbatimMessage(t *testing.T) {
	fakeClock(t, 1_000_000)
	s := newMemoryStore(t)

	s.Add(Event{Type: "Error", Message: "fishing failed"})
	s.Add(Event{Type: "Error", Message: "cooking failed"})
	if got := len(s.GetAll()); got != 2 {
		t.Fatalf("distinct messages must not merge: got %d records", got)
	}

	s.Add(Event{Type: "Error", Message: "fishing failed"})
	recs := s.GetAll()
	if len(recs) != 2 {
		t.Fatalf("verbatim message must merge: got %d records", len(recs))
	}
	if recs[0].Message != "fishing failed" || recs[0].Count != 2 {
		t.Fatalf("merged record wrong: %+v", recs[0])
	}
}

func TestWindowBoundary(t *testing.T) {
	clock := fakeClock(t, 1_000_000)
	s := newMemoryStore(t) // 30s window

	s.Add(Event{Type: "AddGP", Message: "gold", Quantity: qty(1)})

	// strictly inside the window merges
	*clock += 29_999
	s.Add(Event{Type: "AddGP", Message: "gold", Quantity: qty(1)})
	if got := len(s.GetAll()); got != 1 {
		t.Fatalf("in-window event must merge, got %d records", got)
	}

	// exactly at the boundary does not
	*clock += 30_000
	s.Add(Event{Type: "AddGP", Message: "gold", Quantity: qty(1)})
	if got := len(s.GetAll()); got != 2 {
		t.Fatalf("boundary event must not merge, got %d records", got)
	}
}

func TestGroupingMovesRecordToFront(t *testing.T) {
	clock := fakeClock(t, 1_000_000)
	s := newMemoryStore(t)

	s.Add(Event{Type: "AddItem", Message: "ore", Quantity: qty(1)})
	*clock += 1000
	s.Add(Event{Type: "AddXP", Message: "xp", Quantity: qty(10)})
	*clock += 1000
	s.Add(Event{Type: "AddItem", Message: "ore", Quantity: qty(2)})

	recs := s.GetAll()
	if len(recs) != 2 {
		t.Fatalf("want 2 records, got %d", len(recs))
	}
	if recs[0].Type != "AddItem" || recs[0].Count != 2 {
		t.Fatalf("merged record not at front: %+v", recs[0])
	}
	if recs[1].Type != "AddXP" {
		t.Fatalf("displaced record wrong: %+v", recs[1])
	}
}

func TestGroupingDisabled(t *testing.T) {
	fakeClock(t, 1_000_000)
	s := newMemoryStore(t, func(c *config.Config) { c.Grouping.Enabled = false })

	s.Add(Event{Type: "AddGP", Message: "gold", Quantity: qty(1)})
	s.Add(Event{Type: "AddGP", Message: "gold", Quantity: qty(1)})
	recs := s.GetAll()
	if len(recs) != 2 {
		t.Fatalf("grouping disabled must not merge: got %d", len(recs))
	}
	if recs[0].Count != 1 || recs[1].Count != 1 {
		t.Fatalf("counts must stay 1: %+v", recs)
	}
}

func TestCountBoundScenario(t *testing.T) {
	clock := fakeClock(t, 1_000_000)
	s := newMemoryStore(t, func(c *config.Config) {
		c.Mode = config.ModeMemory
		c.Grouping.Enabled = false
		c.Limits.StoreMaxRecords = 3
	})

	for _, msg := range []string{"A", "B", "C", "D"} {
		if err := s.Add(Event{Type: "Note", Message: msg}); err != nil {
			t.Fatalf("add %s: %v", msg, err)
		}
		*clock += 1000
	}

	recs := s.GetAll()
	if len(recs) != 3 {
		t.Fatalf("limit 3: got %d records", len(recs))
	}
	got := []string{recs[0].Message, recs[1].Message, recs[2].Message}
	if got[0] != "D" || got[1] != "C" || got[2] != "B" {
		t.Fatalf("want [D C B], got %v", got)
	}
}

func TestGetAllIsDefensiveCopy(t *testing.T) {
	fakeClock(t, 1_000_000)
	s := newMemoryStore(t)
	s.Add(Event{Type: "AddGP", Message: "gold", Quantity: qty(5)})

	recs := s.GetAll()
	recs[0].Message = "tampered"
	*recs[0].Quantity = 999

	fresh := s.GetAll()
	if fresh[0].Message != "gold" {
		t.Fatalf("message mutated through snapshot")
	}
	if *fresh[0].Quantity != 5 {
		t.Fatalf("quantity mutated through snapshot: %v", *fresh[0].Quantity)
	}
}

func TestNotifications(t *testing.T) {
	fakeClock(t, 1_000_000)
	s := newMemoryStore(t)

	var kinds []EventKind
	cancel := s.OnChange(func(ev ChangeEvent) { kinds = append(kinds, ev.Kind) })

	s.Add(Event{Type: "AddGP", Message: "gold", Quantity: qty(1)})
	s.Add(Event{Type: "AddGP", Message: "gold", Quantity: qty(1)}) // merges
	recs := s.GetAll()
	s.Update(recs[0].ID, Patch{Message: strptr("renamed")})
	s.RemoveByID(recs[0].ID)
	s.ClearAll(context.Background())

	want := []EventKind{EventAdded, EventUpdated, EventUpdated, EventRemoved, EventCleared}
	if len(kinds) != len(want) {
		t.Fatalf("want %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("notification %d: want %v got %v", i, want[i], kinds[i])
		}
	}

	cancel()
	s.Add(Event{Type: "AddGP", Message: "gold"})
	if len(kinds) != len(want) {
		t.Fatalf("cancelled observer still notified")
	}
}

func strptr(s string) *string { return &s }

func TestUpdateAndRemove(t *testing.T) {
	fakeClock(t, 1_000_000)
	s := newMemoryStore(t)
	s.Add(Event{Type: "Note", Message: "original"})
	id := s.GetAll()[0].ID

	if !s.Update(id, Patch{Message: strptr("edited"), Quantity: qty(3)}) {
		t.Fatalf("update reported no match")
	}
	r := s.GetAll()[0]
	if r.Message != "edited" || r.Quantity == nil || *r.Quantity != 3 {
		t.Fatalf("patch not applied: %+v", r)
	}
	if s.Update("missing", Patch{Message: strptr("x")}) {
		t.Fatalf("update matched a missing id")
	}

	if !s.RemoveByID(id) {
		t.Fatalf("remove reported no match")
	}
	if s.RemoveByID(id) {
		t.Fatalf("remove matched twice")
	}
	if len(s.GetAll()) != 0 {
		t.Fatalf("record not removed")
	}
}

func slotStore(t *testing.T, dir string, mutate ...func(*config.Config)) *Store {
	t.Helper()
	cfg := config.Default()
	cfg.Mode = config.ModeSlot
	for _, fn := range mutate {
		fn(&cfg)
	}
	settings := config.NewSettings(cfg)
	s := New(Options{
		Settings: settings,
		Watcher:  settings,
		Backends: Backends{
			Slot:   storage.NewSlotBackend(filepath.Join(dir, "log.slot")),
			Memory: storage.NewMemoryBackend(),
		},
		Media: mediaref.New(nil),
	})
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestPersistRoundTrip(t *testing.T) {
	fakeClock(t, 1_000_000)
	dir := t.TempDir()
	ctx := context.Background()

	s := slotStore(t, dir)
	s.Add(Event{Type: "AddGP", Message: "gold", Quantity: qty(5)})
	s.Add(Event{Type: "Error", Message: "fishing failed", CustomID: "ext-1"})
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reloaded := slotStore(t, dir)
	reloaded.Load(ctx)
	recs := reloaded.GetAll()
	if len(recs) != 2 {
		t.Fatalf("want 2 records after reload, got %d", len(recs))
	}
	if recs[0].Type != "Error" || recs[0].CustomID != "ext-1" {
		t.Fatalf("reloaded head: %+v", recs[0])
	}
	if recs[0].Count != 1 {
		t.Fatalf("count default not restored: %d", recs[0].Count)
	}
	if recs[0].Quantity != nil {
		t.Fatalf("absent quantity became %v", *recs[0].Quantity)
	}
	if recs[1].Quantity == nil || *recs[1].Quantity != 5 {
		t.Fatalf("quantity lost: %+v", recs[1])
	}
}

func TestClearAllThenLoadIsEmpty(t *testing.T) {
	fakeClock(t, 1_000_000)
	dir := t.TempDir()
	ctx := context.Background()

	s := slotStore(t, dir)
	s.Add(Event{Type: "AddGP", Message: "gold", Quantity: qty(5)})
	if err := s.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("clear twice: %v", err)
	}

	reloaded := slotStore(t, dir)
	reloaded.Load(ctx)
	if got := len(reloaded.GetAll()); got != 0 {
		t.Fatalf("clear did not persist: %d records survived", got)
	}
}

func TestLoadMalformedPayloadStartsEmpty(t *testing.T) {
	fakeClock(t, 1_000_000)
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "log.slot"), []byte("{corrupt"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := slotStore(t, dir)
	s.Load(context.Background())
	if got := len(s.GetAll()); got != 0 {
		t.Fatalf("malformed payload must load empty, got %d", got)
	}
}

func TestModeChangeSavesImmediately(t *testing.T) {
	fakeClock(t, 1_000_000)
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Mode = config.ModeMemory
	settings := config.NewSettings(cfg)
	slotPath := filepath.Join(dir, "log.slot")

	s := New(Options{
		Settings: settings,
		Watcher:  settings,
		Backends: Backends{
			Slot:   storage.NewSlotBackend(slotPath),
			Memory: storage.NewMemoryBackend(),
		},
		Debounce: time.Minute, // make accidental debounce flushes impossible
	})
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	s.Add(Event{Type: "AddGP", Message: "gold", Quantity: qty(5)})
	if _, err := os.Stat(slotPath); !os.IsNotExist(err) {
		t.Fatalf("slot written while in memory mode")
	}

	settings.Update(func(c *config.Config) { c.Mode = config.ModeSlot })
	if _, err := os.Stat(slotPath); err != nil {
		t.Fatalf("mode change must save to the new backend immediately: %v", err)
	}
}
