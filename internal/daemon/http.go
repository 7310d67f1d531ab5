package daemon

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/logfields"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/metrics"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/server/middleware"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/state"
)

const defaultHistoryLimit = 20

func newManualLimiter(minInterval time.Duration, burst int) *rate.Limiter {
	if burst <= 0 {
		burst = 1
	}
	if minInterval <= 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Every(minInterval), burst)
}

// Handler returns the admin API with middleware applied.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/check", d.handleCheck)
	mux.HandleFunc("POST /api/cancel", d.handleCancel)
	mux.HandleFunc("GET /api/status", d.handleStatus)
	mux.HandleFunc("GET /api/history", d.handleHistory)
	mux.HandleFunc("GET /healthz", d.handleHealth)

	cfg := d.Config()
	if cfg.Monitoring.Metrics.Enabled && d.registry != nil {
		mux.Handle("GET "+cfg.Monitoring.Metrics.Path, metrics.HTTPHandler(d.registry))
	}
	return middleware.Chain(slog.Default(), d.errAdapter)(mux)
}

func (d *Daemon) startHTTP(_ context.Context) error {
	addr := d.Config().Daemon.AdminAddr
	if addr == "" {
		slog.Info("Admin API disabled")
		return nil
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.DaemonError("failed to bind admin API").
			WithCause(err).
			WithContext("addr", addr).
			Build()
	}
	d.httpServer = &http.Server{
		Handler:           d.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		slog.Info("Admin API listening", slog.String("addr", ln.Addr().String()))
		if err := d.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("Admin API stopped", logfields.Error(err))
		}
	}()
	return nil
}

func (d *Daemon) stopHTTP(ctx context.Context) {
	if d.httpServer == nil {
		return
	}
	if err := d.httpServer.Shutdown(ctx); err != nil {
		slog.Warn("Admin API shutdown failed", logfields.Error(err))
	}
}

func (d *Daemon) handleCheck(w http.ResponseWriter, r *http.Request) {
	d.mu.RLock()
	limiter := d.limiter
	d.mu.RUnlock()

	res := limiter.ReserveN(d.now(), 1)
	if delay := res.DelayFrom(d.now()); delay > 0 {
		res.CancelAt(d.now())
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error": "manual checks are rate limited",
			"code":  "rate_limited",
		})
		return
	}

	queued := d.Trigger(TriggerManual)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"queued":  queued,
		"running": d.engine.Running(),
	})
}

func (d *Daemon) handleCancel(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": d.Cancel()})
}

func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := d.Status(r.Context())
	if err != nil {
		d.errAdapter.WriteErrorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (d *Daemon) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, ok := d.store.(state.HistoryStore)
	if !ok {
		d.errAdapter.WriteErrorResponse(w, r, errors.ConfigError("check history requires the sqlite state backend").Build())
		return
	}
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			d.errAdapter.WriteErrorResponse(w, r, errors.ValidationError("limit must be a positive integer").
				WithContext("limit", raw).
				Build())
			return
		}
		limit = n
	}
	records, err := history.RecentChecks(r.Context(), limit)
	if err != nil {
		d.errAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if records == nil {
		records = []state.CheckRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"checks": records})
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", logfields.Error(err))
	}
}
