// Package discovery runs update checks: it queries the update server, parses
// the feed, diffs it against the persisted snapshot and stores the result.
package discovery

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/feed"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/logfields"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/metrics"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/state"
)

// Fetcher is the minimal HTTP interface the engine needs.
//
// The concrete implementation is *fetch.Fetcher.
type Fetcher interface {
	Get(ctx context.Context, url string, headers http.Header) ([]byte, int, error)
	Abort()
}

// Config holds the dependencies for creating an Engine.
type Config struct {
	Fetcher  Fetcher
	Dialect  feed.Dialect
	Store    state.Store
	Recorder metrics.Recorder
	Logger   *slog.Logger

	UserAgent string
	// Timeout bounds a whole check. Zero means no engine-imposed deadline.
	Timeout time.Duration
	// ResetOnCorrupt treats an unreadable snapshot as a first run instead of
	// failing the check.
	ResetOnCorrupt bool

	// Now allows tests to inject deterministic time.
	Now func() time.Time
	// NewCheckID allows tests to inject deterministic check IDs.
	NewCheckID func() string
}

// Engine performs at most one check at a time.
type Engine struct {
	fetcher        Fetcher
	dialect        feed.Dialect
	store          state.Store
	recorder       metrics.Recorder
	logger         *slog.Logger
	userAgent      string
	timeout        time.Duration
	resetOnCorrupt bool
	now            func() time.Time
	newCheckID     func() string

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	cancelled bool
}

// New validates cfg and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Fetcher == nil || cfg.Dialect == nil || cfg.Store == nil {
		return nil, errors.InternalError("discovery engine requires a fetcher, a dialect and a store").Build()
	}
	e := &Engine{
		fetcher:        cfg.Fetcher,
		dialect:        cfg.Dialect,
		store:          cfg.Store,
		recorder:       cfg.Recorder,
		logger:         cfg.Logger,
		userAgent:      cfg.UserAgent,
		timeout:        cfg.Timeout,
		resetOnCorrupt: cfg.ResetOnCorrupt,
		now:            cfg.Now,
		newCheckID:     cfg.NewCheckID,
	}
	if e.recorder == nil {
		e.recorder = metrics.NoopRecorder{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newCheckID == nil {
		e.newCheckID = func() string { return uuid.NewString() }
	}
	return e, nil
}

// Running reports whether a check is in progress.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Cancel aborts the in-flight check. It returns false when no check is
// running.
func (e *Engine) Cancel() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return false
	}
	e.cancelled = true
	if e.cancel != nil {
		e.cancel()
	}
	e.fetcher.Abort()
	return true
}

func (e *Engine) begin(ctx context.Context) (context.Context, func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil, nil, errors.InProgressError("an update check is already running").Build()
	}

	checkCtx, cancel := context.WithCancel(ctx)
	stop := func() {}
	if e.timeout > 0 {
		var cancelTimeout context.CancelFunc
		checkCtx, cancelTimeout = context.WithTimeout(checkCtx, e.timeout)
		stop = cancelTimeout
	}
	e.running = true
	e.cancelled = false
	e.cancel = cancel

	return checkCtx, func() {
		stop()
		cancel()
		e.mu.Lock()
		e.running = false
		e.cancel = nil
		e.mu.Unlock()
	}, nil
}

func (e *Engine) wasCancelled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancelled
}

// Check runs one update check against the installed build timestamp.
//
// When the server cannot be reached, does not answer 200, or the check is
// cancelled, the returned result has Determined == false and the persisted
// snapshot is left as it was.
func (e *Engine) Check(ctx context.Context, installed int64) (CheckResult, error) {
	res := CheckResult{
		CheckID:   e.newCheckID(),
		CheckedAt: e.now(),
		Installed: installed,
	}

	checkCtx, done, err := e.begin(ctx)
	if err != nil {
		e.recorder.IncCheckOutcome(metrics.OutcomeRejected)
		return res, err
	}
	defer done()

	log := e.logger.With(logfields.CheckID(res.CheckID), logfields.Dialect(e.dialect.Name()))
	start := time.Now()
	defer func() { e.recorder.ObserveCheckDuration(time.Since(start)) }()

	url := e.dialect.URL()
	log.Debug("Querying update server", logfields.URL(url), logfields.Installed(installed))

	headers := http.Header{}
	if e.userAgent != "" {
		headers.Set("User-Agent", e.userAgent)
	}
	headers.Set("Cache-Control", "no-cache")

	body, status, err := e.fetcher.Get(checkCtx, url, headers)
	res.Status = status
	if err != nil {
		if e.wasCancelled() && !errors.HasCategory(err, errors.CategoryCancelled) {
			err = errors.CancelledError("update check cancelled").WithCause(err).Build()
		}
		e.recordFailure(err)
		log.Warn("Could not check for updates", logfields.Error(err))
		return res, err
	}
	if body == nil {
		e.recorder.IncCheckOutcome(metrics.OutcomeNoContent)
		log.Warn("Update server returned no content", logfields.Status(status))
		return res, errors.NoContentError("update server returned no content").
			WithContext("status", status).
			WithContext("url", url).
			Build()
	}

	parsed, err := e.dialect.Parse(body)
	if err != nil {
		e.recordFailure(err)
		log.Warn("Could not parse update server response", logfields.Error(err))
		return res, err
	}
	res.Skipped = parsed.Skipped
	res.ServerMessage = parsed.ServerMessage
	e.recorder.AddSkippedEntries(parsed.Skipped)
	if parsed.Skipped > 0 {
		log.Debug("Skipped invalid feed entries", logfields.Skipped(parsed.Skipped))
	}
	if parsed.Failed {
		log.Info("Update server reported no results", slog.String("message", parsed.ServerMessage))
	}

	prev, err := e.loadPrevious(checkCtx, log)
	if err != nil {
		e.recordFailure(err)
		return res, err
	}

	candidates, newCount, realCount := classify(prev, parsed.Builds, installed)

	if e.wasCancelled() || checkCtx.Err() != nil {
		err := e.cancelledError(checkCtx)
		e.recordFailure(err)
		return res, err
	}
	if err := e.store.Save(checkCtx, candidates); err != nil {
		e.recordFailure(err)
		log.Error("Failed to persist build snapshot", logfields.Error(err))
		return res, err
	}

	res.Determined = true
	res.Candidates = candidates
	res.Total = len(candidates)
	res.New = newCount
	res.Real = realCount

	e.recorder.IncCheckOutcome(outcomeFor(parsed))
	e.recorder.SetCheckCounts(res.Total, res.New, res.Real)
	e.recorder.SetLastSuccess(res.CheckedAt)

	log.Info("Update check completed",
		logfields.Total(res.Total),
		logfields.New(res.New),
		logfields.Real(res.Real),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return res, nil
}

func (e *Engine) loadPrevious(ctx context.Context, log *slog.Logger) ([]artifact.Descriptor, error) {
	prev, err := e.store.Load(ctx)
	if err == nil {
		return prev, nil
	}
	if e.resetOnCorrupt && errors.HasCategory(err, errors.CategoryStorage) {
		log.Warn("Persisted snapshot unreadable, treating as first run", logfields.Error(err))
		return []artifact.Descriptor{}, nil
	}
	log.Error("Failed to load persisted snapshot", logfields.Error(err))
	return nil, err
}

func (e *Engine) cancelledError(ctx context.Context) error {
	if !e.wasCancelled() && ctx.Err() == context.DeadlineExceeded {
		return errors.NetworkError("update check timed out").
			WithCause(ctx.Err()).
			WithContext("timeout", true).
			Build()
	}
	return errors.CancelledError("update check cancelled").WithCause(ctx.Err()).Build()
}

func (e *Engine) recordFailure(err error) {
	switch errors.GetCategory(err) {
	case errors.CategoryCancelled:
		e.recorder.IncCheckOutcome(metrics.OutcomeCanceled)
	case errors.CategoryParse:
		e.recorder.IncCheckOutcome(metrics.OutcomeParse)
	case errors.CategoryStorage:
		e.recorder.IncCheckOutcome(metrics.OutcomeStorage)
	default:
		e.recorder.IncCheckOutcome(metrics.OutcomeNetwork)
	}
}

func outcomeFor(parsed feed.ParseResult) metrics.OutcomeLabel {
	if parsed.Failed {
		return metrics.OutcomeServerFail
	}
	return metrics.OutcomeSuccess
}
