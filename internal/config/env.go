package config

import (
	"os"
	"strconv"
)

// FromEnv overlays MAM_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("MAM_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("MAM_PROFILE"); v != "" {
		cfg.Profile = v
	}
	if v := os.Getenv("MAM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("MAM_GROUPING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Grouping.Enabled = b
		}
	}
	if v := os.Getenv("MAM_GROUPING_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Grouping.WindowSeconds = n
		}
	}
	if v := os.Getenv("MAM_SLOT_PERCENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.SlotPercent = n
		}
	}
	if v := os.Getenv("MAM_SLOT_MAX_RECORDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.SlotMaxRecords = n
		}
	}
	if v := os.Getenv("MAM_STORE_MAX_RECORDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Limits.StoreMaxRecords = n
		}
	}
	if v := os.Getenv("MAM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("MAM_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}
