// Package daemon runs update checks in the background.
//
// Triggers (boot, connectivity restored, the periodic timer, manual requests
// and retries) are filtered by the configured frequency and handed to a
// single worker, so at most one check runs at any time. Results are
// persisted by the discovery engine and published as summaries.
package daemon

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/config"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/device"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/discovery"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/logfields"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/metrics"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/notify"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/retry"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/state"
)

// Engine is the minimal interface required to run checks.
//
// The concrete implementation is *discovery.Engine.
type Engine interface {
	Check(ctx context.Context, installed int64) (discovery.CheckResult, error)
	Cancel() bool
	Running() bool
}

// Options holds the dependencies for creating a Daemon.
type Options struct {
	Config     *config.Config
	ConfigPath string

	Engine      Engine
	Store       state.Store
	Preferences *state.PreferencesFile
	Publisher   notify.Publisher
	Summaries   *notify.Builder
	Recorder    metrics.Recorder
	// Registry backs the /metrics endpoint when metrics are enabled.
	Registry  *prom.Registry
	Installed device.Info

	// Dialer is used by the connectivity probe; nil uses net.Dialer.
	Dialer Dialer
	// Now allows tests to inject deterministic time.
	Now func() time.Time
}

// Daemon owns the scheduler, the worker and the admin server.
type Daemon struct {
	engine    Engine
	store     state.Store
	prefs     *state.PreferencesFile
	publisher notify.Publisher
	summaries *notify.Builder
	recorder  metrics.Recorder
	registry  *prom.Registry
	installed device.Info
	dialer    Dialer
	now       func() time.Time

	configPath string
	scheduler  *Scheduler
	worker     *worker
	probe      *ConnectivityProbe
	httpServer *http.Server
	errAdapter *errors.HTTPErrorAdapter

	mu          sync.RWMutex
	cfg         *config.Config
	retryPolicy retry.Policy
	limiter     *rate.Limiter
	periodicJob string
	probeJob    string
	lastResult  *discovery.CheckResult
	lastErr     error
	lastTrigger Trigger
	startedAt   time.Time
}

// New validates opts and assembles a Daemon. It does not start anything.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Engine == nil || opts.Store == nil || opts.Preferences == nil {
		return nil, errors.InternalError("daemon requires config, engine, store and preferences").Build()
	}
	d := &Daemon{
		engine:     opts.Engine,
		store:      opts.Store,
		prefs:      opts.Preferences,
		publisher:  opts.Publisher,
		summaries:  opts.Summaries,
		recorder:   opts.Recorder,
		registry:   opts.Registry,
		installed:  opts.Installed,
		dialer:     opts.Dialer,
		now:        opts.Now,
		configPath: opts.ConfigPath,
		cfg:        opts.Config,
	}
	if d.publisher == nil {
		d.publisher = notify.NewLogPublisher(nil)
	}
	if d.summaries == nil {
		d.summaries = notify.NewBuilder(opts.Config.Notify.MaxLines, nil)
	}
	if d.recorder == nil {
		d.recorder = metrics.NoopRecorder{}
	}
	if d.now == nil {
		d.now = time.Now
	}
	d.retryPolicy = retryPolicyFor(opts.Config)
	d.limiter = newManualLimiter(opts.Config.ManualMinInterval(), opts.Config.Daemon.ManualBurst)
	d.errAdapter = errors.NewHTTPErrorAdapter(slog.Default())
	d.worker = newWorker(d.runCheck)

	sched, err := NewScheduler()
	if err != nil {
		return nil, err
	}
	d.scheduler = sched
	return d, nil
}

func retryPolicyFor(cfg *config.Config) retry.Policy {
	return retry.NewPolicy(
		retry.ParseMode(cfg.Schedule.RetryBackoff),
		cfg.RetryInitialDelay(),
		cfg.RetryMaxDelay(),
		cfg.MaxRetries(),
	)
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Run starts every component, fires the boot trigger and blocks until ctx
// is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	d.startedAt = d.now()
	d.mu.Unlock()

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go d.worker.Run(workerCtx)

	if err := d.applySchedule(); err != nil {
		return err
	}
	d.scheduler.Start()

	if err := d.startHTTP(ctx); err != nil {
		_ = d.scheduler.Stop(ctx)
		return err
	}

	var watcher *ConfigWatcher
	if d.configPath != "" {
		w, err := NewConfigWatcher(d.configPath, d)
		if err != nil {
			slog.Warn("Configuration watcher unavailable", logfields.Error(err))
		} else if err := w.Start(ctx); err != nil {
			slog.Warn("Configuration watcher unavailable", logfields.Error(err))
		} else {
			watcher = w
		}
	}

	d.Trigger(TriggerBoot)

	<-ctx.Done()
	slog.Info("Shutting down daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	d.engine.Cancel()
	if watcher != nil {
		_ = watcher.Stop(shutdownCtx)
	}
	if err := d.scheduler.Stop(shutdownCtx); err != nil {
		slog.Warn("Scheduler shutdown failed", logfields.Error(err))
	}
	d.stopHTTP(shutdownCtx)
	stopWorker()
	<-d.worker.Done()
	if err := d.publisher.Close(); err != nil {
		slog.Warn("Publisher close failed", logfields.Error(err))
	}
	return nil
}

// Trigger applies the trigger rules and queues a check when they allow it.
// It reports whether a check was queued or coalesced.
func (d *Daemon) Trigger(t Trigger) bool {
	d.recorder.IncTrigger(string(t))

	if t == TriggerBoot {
		if err := d.prefs.Update(func(p *state.Preferences) { p.BootCheckCompleted = false }); err != nil {
			slog.Error("Failed to reset boot check flag", logfields.Error(err))
		}
	}

	prefs, err := d.prefs.Load()
	if err != nil {
		slog.Error("Failed to load daemon state", logfields.Error(err))
	}

	decision := Decide(d.Config().Frequency(), t, prefs, d.now())
	if !decision.Run {
		slog.Debug("Check not needed", logfields.Trigger(string(t)), slog.String("reason", decision.Reason))
		return false
	}
	slog.Info("Queueing update check", logfields.Trigger(string(t)), slog.String("reason", decision.Reason))
	d.worker.Submit(checkRequest{Trigger: t, Manual: t == TriggerManual})
	return true
}

// Cancel aborts the running check, if any.
func (d *Daemon) Cancel() bool {
	return d.engine.Cancel()
}

// runCheck executes one queued request on the worker goroutine.
func (d *Daemon) runCheck(ctx context.Context, req checkRequest) {
	res, err := d.engine.Check(ctx, d.installed.Timestamp)

	d.mu.Lock()
	d.lastTrigger = req.Trigger
	d.lastErr = err
	if err == nil {
		r := res
		d.lastResult = &r
	}
	d.mu.Unlock()

	d.recordHistory(ctx, req, res, err)

	if err != nil {
		slog.Warn("Update check failed",
			logfields.CheckID(res.CheckID),
			logfields.Trigger(string(req.Trigger)),
			logfields.Error(err))
		if req.Manual {
			d.publish(ctx, d.summaries.Failure(res, string(req.Trigger), err))
			return
		}
		d.scheduleRetry(req, err)
		return
	}

	if err := d.prefs.Update(func(p *state.Preferences) {
		p.LastCheck = res.CheckedAt
		p.BootCheckCompleted = true
	}); err != nil {
		slog.Error("Failed to record check completion", logfields.Error(err))
	}

	if summary, ok := d.summaries.FromResult(res, string(req.Trigger), req.Manual); ok {
		d.publish(ctx, summary)
	}
}

func (d *Daemon) publish(ctx context.Context, s notify.Summary) {
	if err := d.publisher.Publish(ctx, s); err != nil {
		slog.Warn("Failed to publish check summary", logfields.CheckID(s.CheckID), logfields.Error(err))
	}
}

func (d *Daemon) scheduleRetry(req checkRequest, err error) {
	if !errors.IsRetryable(err) {
		return
	}
	d.mu.RLock()
	policy := d.retryPolicy
	d.mu.RUnlock()

	if !policy.Allows(req.Attempt) {
		d.recorder.IncRetryExhausted()
		slog.Warn("Update check retries exhausted", logfields.Trigger(string(req.Trigger)), slog.Int("attempts", req.Attempt))
		return
	}
	next := checkRequest{Trigger: TriggerRetry, Attempt: req.Attempt + 1}
	delay := policy.Delay(next.Attempt)
	if _, serr := d.scheduler.ScheduleOnce("retry-check", delay, func() {
		d.recorder.IncTrigger(string(TriggerRetry))
		d.worker.Submit(next)
	}); serr != nil {
		slog.Error("Failed to schedule retry", logfields.Error(serr))
		return
	}
	d.recorder.IncRetry()
	slog.Info("Retrying update check later", slog.Int("attempt", next.Attempt), slog.Duration("delay", delay))
}

func (d *Daemon) recordHistory(ctx context.Context, req checkRequest, res discovery.CheckResult, err error) {
	history, ok := d.store.(state.HistoryStore)
	if !ok {
		return
	}
	rec := state.CheckRecord{
		CheckID:   res.CheckID,
		Trigger:   string(req.Trigger),
		CheckedAt: res.CheckedAt,
		Outcome:   "ok",
		Total:     res.Total,
		New:       res.New,
		Real:      res.Real,
		Skipped:   res.Skipped,
	}
	if err != nil {
		rec.Outcome = string(errors.GetCategory(err))
		rec.Error = err.Error()
	}
	if herr := history.AppendCheck(context.WithoutCancel(ctx), rec); herr != nil {
		slog.Warn("Failed to record check history", logfields.Error(herr))
	}
}

// applySchedule (re)creates the periodic and probe jobs for the active config.
func (d *Daemon) applySchedule() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.periodicJob != "" {
		d.scheduler.Remove(d.periodicJob)
		d.periodicJob = ""
	}
	if d.probeJob != "" {
		d.scheduler.Remove(d.probeJob)
		d.probeJob = ""
	}

	freq := d.cfg.Frequency()
	if freq.Mode == config.FrequencyInterval {
		id, err := d.scheduler.ScheduleEvery("periodic-check", freq.Interval, func() { d.Trigger(TriggerPeriodic) })
		if err != nil {
			return err
		}
		d.periodicJob = id
		slog.Info("Scheduled periodic update checks", slog.Duration("interval", freq.Interval))
	}

	if d.cfg.Schedule.ConnectivityProbe && freq.Mode != config.FrequencyNever {
		probe, err := NewConnectivityProbe(d.cfg.Server.BaseURL, 5*time.Second, d.dialer, func() { d.Trigger(TriggerConnectivity) })
		if err != nil {
			return errors.ConfigError("invalid server address for connectivity probe").WithCause(err).Build()
		}
		d.probe = probe
		id, err := d.scheduler.ScheduleEvery("connectivity-probe", d.cfg.ProbeInterval(), func() { probe.Probe(context.Background()) })
		if err != nil {
			return err
		}
		d.probeJob = id
	} else {
		d.probe = nil
	}
	return nil
}

// ReloadConfig swaps in a new configuration. Schedule and retry settings take
// effect immediately; server, feed and state changes need a restart.
func (d *Daemon) ReloadConfig(newCfg *config.Config) error {
	d.mu.Lock()
	old := d.cfg
	d.cfg = newCfg
	d.retryPolicy = retryPolicyFor(newCfg)
	if old.Daemon.ManualMinInterval != newCfg.Daemon.ManualMinInterval || old.Daemon.ManualBurst != newCfg.Daemon.ManualBurst {
		d.limiter = newManualLimiter(newCfg.ManualMinInterval(), newCfg.Daemon.ManualBurst)
	}
	d.mu.Unlock()

	if old.Server != newCfg.Server || old.Feed != newCfg.Feed || old.State != newCfg.State || old.Daemon.AdminAddr != newCfg.Daemon.AdminAddr {
		slog.Warn("Server, feed, state or admin address changes require a restart to take effect")
	}
	if !sameSchedule(old.Schedule, newCfg.Schedule) {
		return d.applySchedule()
	}
	return nil
}

func sameSchedule(a, b config.ScheduleConfig) bool {
	ra, rb := a.MaxRetries, b.MaxRetries
	a.MaxRetries, b.MaxRetries = nil, nil
	if a != b {
		return false
	}
	return (ra == nil) == (rb == nil) && (ra == nil || *ra == *rb)
}
