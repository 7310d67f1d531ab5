package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/config"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/daemon"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/logfields"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/metrics"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/notify"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/state"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/version"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	DataDir string `short:"d" help:"Data directory for daemon state (overrides daemon.data_dir)"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config, root.Verbose)
	if err != nil {
		return err
	}
	if d.DataDir != "" {
		cfg.Daemon.DataDir = d.DataDir
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunDaemon(ctx, cfg, root.Config)
}

// RunDaemon blocks until ctx is cancelled.
func RunDaemon(ctx context.Context, cfg *config.Config, configPath string) error {
	slog.Info("Starting daemon mode",
		slog.String("version", version.Version),
		logfields.Path(cfg.Daemon.DataDir),
		slog.String("frequency", cfg.Frequency().String()))

	info, err := detectInstalled(cfg, 0)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	var (
		registry *prom.Registry
		recorder metrics.Recorder = metrics.NoopRecorder{}
	)
	if cfg.Monitoring.Metrics.Enabled {
		registry = prom.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	engine, err := newEngine(cfg, store, info, recorder)
	if err != nil {
		return err
	}

	d, err := daemon.New(daemon.Options{
		Config:      cfg,
		ConfigPath:  configPath,
		Engine:      engine,
		Store:       store,
		Preferences: state.NewPreferencesFile(preferencesPath(cfg)),
		Publisher:   newPublisher(cfg),
		Summaries:   notify.NewBuilder(cfg.Notify.MaxLines, nil),
		Recorder:    recorder,
		Registry:    registry,
		Installed:   info,
	})
	if err != nil {
		return err
	}

	if err := d.Run(ctx); err != nil {
		return err
	}
	slog.Info("Daemon stopped successfully")
	return nil
}

// newPublisher always logs summaries and also publishes to NATS when
// configured. A NATS connection failure is logged and does not stop the daemon.
func newPublisher(cfg *config.Config) notify.Publisher {
	pubs := notify.Fanout{notify.NewLogPublisher(nil)}
	if cfg.Notify.NATSURL == "" {
		return pubs
	}
	nc, err := notify.NewNATSPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject)
	if err != nil {
		slog.Warn("NATS publishing disabled", logfields.Error(err))
		return pubs
	}
	return append(pubs, nc)
}
