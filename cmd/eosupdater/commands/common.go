package commands

import (
	"log/slog"
	"os"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/config"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/device"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/discovery"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/feed"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/fetch"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/logfields"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/metrics"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/state"
)

// loadConfig reads the configuration and applies its logging settings,
// keeping --verbose as an override.
func loadConfig(path string, verbose bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	configureLogging(cfg.Monitoring.Logging, verbose)
	return cfg, nil
}

func configureLogging(l config.MonitoringLogging, verbose bool) {
	level := l.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if l.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openStore opens the configured snapshot backend, creating the data
// directory when needed.
func openStore(cfg *config.Config) (state.Store, error) {
	if err := os.MkdirAll(cfg.Daemon.DataDir, 0o750); err != nil {
		return nil, errors.StorageError("failed to create data directory").
			WithCause(err).
			WithContext("path", cfg.Daemon.DataDir).
			Build()
	}
	return state.Open(cfg.State.Backend, cfg.State.Path, cfg.Daemon.DataDir)
}

// detectInstalled resolves the running build. A positive override wins over
// the configuration.
func detectInstalled(cfg *config.Config, override int64) (device.Info, error) {
	probe := device.Probe{
		BuildPropPath: cfg.Installed.BuildProp,
		Timestamp:     cfg.Installed.Timestamp,
		Device:        cfg.Feed.Device,
	}
	if override > 0 {
		probe.Timestamp = override
	}
	return probe.Detect()
}

// newEngine wires the fetcher, dialect and store into a discovery engine.
func newEngine(cfg *config.Config, store state.Store, info device.Info, recorder metrics.Recorder) (*discovery.Engine, error) {
	channel, err := artifact.ParseKind(cfg.Feed.Channel)
	if err != nil {
		return nil, err
	}
	dev := cfg.Feed.Device
	if dev == "" {
		dev = info.Device
	}
	dialect, err := feed.NewDialect(feed.Config{
		Dialect:         cfg.Feed.Dialect,
		BaseURL:         cfg.Server.BaseURL,
		FileListPath:    cfg.Server.FileListPath,
		Owner:           cfg.Feed.Owner,
		Device:          dev,
		Size:            cfg.Feed.Size,
		Debug:           cfg.Feed.Debug,
		Channel:         channel,
		DefaultAPILevel: cfg.Feed.DefaultAPILevel,
	})
	if err != nil {
		return nil, err
	}

	userAgent := cfg.Server.UserAgent
	if userAgent == "" {
		userAgent = info.UserAgent()
	}

	fetcher := fetch.New(fetch.WithMaxBodyBytes(cfg.Feed.MaxBodyBytes))
	slog.Debug("Update engine configured",
		logfields.Dialect(dialect.Name()),
		logfields.URL(dialect.URL()),
		logfields.Installed(info.Timestamp))

	return discovery.New(discovery.Config{
		Fetcher:        fetcher,
		Dialect:        dialect,
		Store:          store,
		Recorder:       recorder,
		UserAgent:      userAgent,
		Timeout:        cfg.FeedTimeout(),
		ResetOnCorrupt: cfg.State.ResetOnCorrupt,
	})
}

func closeStore(store state.Store) {
	if err := store.Close(); err != nil {
		slog.Warn("Failed to close state store", logfields.Error(err))
	}
}
