// Package cli implements the melvor-activity-monitor command line surface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/qaeu/melvor-activity-monitor/internal/activity"
	"github.com/qaeu/melvor-activity-monitor/internal/config"
	"github.com/qaeu/melvor-activity-monitor/internal/mediaref"
	"github.com/qaeu/melvor-activity-monitor/internal/storage"
	logpkg "github.com/qaeu/melvor-activity-monitor/pkg/log"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "melvor-activity-monitor",
	Short: "Inspect and manage the Melvor activity log store",
	Long: "melvor-activity-monitor manages a bounded, compressed activity log.\n" +
		"Events group within a time window, persist through a slot file or a\n" +
		"keyed store, and evict oldest-first under the configured ceilings.",
	SilenceUsage: true,
}

func init() {
	pf := RootCmd.PersistentFlags()
	pf.String("config", "", "Config file (YAML or JSON)")
	pf.String("data-dir", "", "Data directory (default: OS-specific application data directory)")
	pf.String("profile", "", "Save profile identifier")
	pf.String("mode", "", "Persistence mode: slot|store|memory")
	pf.String("log-level", os.Getenv("MAM_LOG_LEVEL"), "Log level: debug|info|warn|error")
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func exitErr(op string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", op, err)
	os.Exit(1)
}

// env bundles everything a subcommand needs to work on a store.
type env struct {
	cfg      config.Config
	settings *config.Settings
	store    *activity.Store
	kv       *storage.KVBackend
	logger   logpkg.Logger
}

// openEnv builds the store from config file, env overlay and flags, then
// loads the record sequence from the active backend.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	config.FromEnv(&cfg)
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("profile"); v != "" {
		cfg.Profile = v
	}
	if v, _ := cmd.Flags().GetString("mode"); v != "" {
		cfg.Mode = config.Mode(v)
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = config.DefaultDataDir()
	}

	level, err := logpkg.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logpkg.InfoLevel
	}
	var formatter logpkg.Formatter = &logpkg.TextFormatter{}
	if cfg.LogFormat == "json" {
		formatter = &logpkg.JSONFormatter{}
	}
	logger := logpkg.NewLogger(logpkg.WithLevel(level), logpkg.WithFormatter(formatter))

	backends := activity.Backends{
		Slot:   storage.NewSlotBackend(filepath.Join(cfg.DataDir, cfg.Profile+".slot")),
		Memory: storage.NewMemoryBackend(),
	}
	var kv *storage.KVBackend
	if cfg.Mode == config.ModeStore {
		kv, err = storage.OpenKV(storage.KVOptions{
			DataDir: filepath.Join(cfg.DataDir, "store"),
			Profile: cfg.Profile,
			Sync:    true,
		})
		if err != nil {
			return nil, err
		}
		backends.Store = kv
	}

	settings := config.NewSettings(cfg)
	st := activity.New(activity.Options{
		Settings: settings,
		Watcher:  settings,
		Backends: backends,
		Media:    mediaref.New(nil, mediaref.WithLogger(logger)),
		Logger:   logger,
	})
	st.Load(cmd.Context())

	return &env{cfg: cfg, settings: settings, store: st, kv: kv, logger: logger}, nil
}

func (e *env) close(ctx context.Context) {
	if err := e.store.Close(ctx); err != nil {
		e.logger.Warn("close store", logpkg.Err(err))
	}
	if e.kv != nil {
		if err := e.kv.Close(); err != nil {
			e.logger.Warn("close kv backend", logpkg.Err(err))
		}
	}
}
