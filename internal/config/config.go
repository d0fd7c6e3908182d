// Package config holds the activity monitor settings: the persistence mode
// and its limits, event grouping, and logging. It loads from a YAML or JSON
// file with env overlays, and exposes a live Settings wrapper whose readers
// the store consults at call time.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Mode selects the persistence backend.
type Mode string

const (
	// ModeSlot persists into the quota-limited byte slot.
	ModeSlot Mode = "slot"
	// ModeStore persists into the keyed kv store.
	ModeStore Mode = "store"
	// ModeMemory keeps the log in memory only.
	ModeMemory Mode = "memory"
)

// Valid reports whether m names a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeSlot, ModeStore, ModeMemory:
		return true
	}
	return false
}

// Grouping configures merge-on-ingest behavior.
type Grouping struct {
	Enabled       bool `json:"enabled" yaml:"enabled"`
	WindowSeconds int  `json:"windowSeconds" yaml:"windowSeconds"`
}

// Limits holds the mode-specific capacity knobs.
type Limits struct {
	// SlotPercent is the share of the slot byte ceiling the compressed
	// payload may occupy in slot mode (1..100).
	SlotPercent int `json:"slotPercent" yaml:"slotPercent"`
	// SlotMaxRecords optionally caps the record count in slot mode before
	// the byte fit runs. Zero disables the cap.
	SlotMaxRecords int `json:"slotMaxRecords" yaml:"slotMaxRecords"`
	// StoreMaxRecords caps the record count in store and memory modes.
	StoreMaxRecords int `json:"storeMaxRecords" yaml:"storeMaxRecords"`
}

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Mode      Mode     `json:"mode" yaml:"mode"`
	Profile   string   `json:"profile" yaml:"profile"`
	DataDir   string   `json:"dataDir" yaml:"dataDir"`
	Grouping  Grouping `json:"grouping" yaml:"grouping"`
	Limits    Limits   `json:"limits" yaml:"limits"`
	LogLevel  string   `json:"logLevel" yaml:"logLevel"`
	LogFormat string   `json:"logFormat" yaml:"logFormat"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Mode:    ModeSlot,
		Profile: "default",
		Grouping: Grouping{
			Enabled:       true,
			WindowSeconds: 30,
		},
		Limits: Limits{
			SlotPercent:     100,
			StoreMaxRecords: 200,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads configuration from a YAML or JSON file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config for programmer-error conditions.
func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("config: invalid mode %q; use slot|store|memory", c.Mode)
	}
	if c.Limits.SlotPercent < 1 || c.Limits.SlotPercent > 100 {
		return fmt.Errorf("config: slotPercent %d out of range 1..100", c.Limits.SlotPercent)
	}
	if c.Limits.StoreMaxRecords < 1 {
		return fmt.Errorf("config: storeMaxRecords must be positive")
	}
	if c.Grouping.WindowSeconds < 0 {
		return fmt.Errorf("config: grouping windowSeconds must not be negative")
	}
	return nil
}
