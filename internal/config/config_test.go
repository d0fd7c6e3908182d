package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Mode != ModeSlot {
		t.Fatalf("default mode: %q", cfg.Mode)
	}
	if !cfg.Grouping.Enabled || cfg.Grouping.WindowSeconds != 30 {
		t.Fatalf("default grouping: %+v", cfg.Grouping)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	body := `
mode: store
profile: hardcore
grouping:
  enabled: false
  windowSeconds: 10
limits:
  slotPercent: 50
  storeMaxRecords: 25
`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != ModeStore || cfg.Profile != "hardcore" {
		t.Fatalf("loaded: %+v", cfg)
	}
	if cfg.Grouping.Enabled || cfg.Grouping.WindowSeconds != 10 {
		t.Fatalf("grouping: %+v", cfg.Grouping)
	}
	if cfg.Limits.SlotPercent != 50 || cfg.Limits.StoreMaxRecords != 25 {
		t.Fatalf("limits: %+v", cfg.Limits)
	}
}

func TestLoadJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	body := `{"mode":"memory","limits":{"slotPercent":75,"storeMaxRecords":5}}`
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != ModeMemory || cfg.Limits.StoreMaxRecords != 5 {
		t.Fatalf("loaded: %+v", cfg)
	}
}

func TestLoadRejectsInvalidMode(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("mode: floppy\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected invalid mode error")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("MAM_MODE", "store")
	t.Setenv("MAM_PROFILE", "ironman")
	t.Setenv("MAM_GROUPING_ENABLED", "false")
	t.Setenv("MAM_STORE_MAX_RECORDS", "42")

	cfg := Default()
	FromEnv(&cfg)
	if cfg.Mode != ModeStore || cfg.Profile != "ironman" {
		t.Fatalf("env overlay: %+v", cfg)
	}
	if cfg.Grouping.Enabled {
		t.Fatalf("grouping enabled not overlaid")
	}
	if cfg.Limits.StoreMaxRecords != 42 {
		t.Fatalf("store max not overlaid: %d", cfg.Limits.StoreMaxRecords)
	}
}

func TestSettingsUpdateNotifies(t *testing.T) {
	s := NewSettings(Default())

	var got []ChangeKind
	cancel := s.Subscribe(func(ch Change) { got = append(got, ch.Kind) })

	s.Update(func(c *Config) {
		c.Mode = ModeStore
		c.Limits.StoreMaxRecords = 10
	})
	if len(got) != 2 {
		t.Fatalf("expected mode+limits changes, got %v", got)
	}
	seen := map[ChangeKind]bool{}
	for _, k := range got {
		seen[k] = true
	}
	if !seen[ModeChanged] || !seen[LimitsChanged] {
		t.Fatalf("missing change kinds: %v", got)
	}

	got = nil
	s.Update(func(c *Config) { c.Grouping.WindowSeconds = 60 })
	if len(got) != 1 || got[0] != GroupingChanged {
		t.Fatalf("expected grouping change, got %v", got)
	}

	cancel()
	got = nil
	s.Update(func(c *Config) { c.Mode = ModeMemory })
	if len(got) != 0 {
		t.Fatalf("cancelled subscription still fired: %v", got)
	}
}

func TestSettingsReaders(t *testing.T) {
	s := NewSettings(Default())
	enabled, window := s.Grouping()
	if !enabled || window.Seconds() != 30 {
		t.Fatalf("grouping reader: %v %v", enabled, window)
	}
	if s.Mode() != ModeSlot {
		t.Fatalf("mode reader: %q", s.Mode())
	}
	if s.Limits().StoreMaxRecords != 200 {
		t.Fatalf("limits reader: %+v", s.Limits())
	}
}
