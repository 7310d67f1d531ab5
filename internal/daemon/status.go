package daemon

import (
	"context"
	"time"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/version"
)

// Status is the JSON document served by /api/status.
type Status struct {
	Version     string       `json:"version"`
	StartedAt   time.Time    `json:"started_at"`
	Uptime      string       `json:"uptime"`
	Frequency   string       `json:"frequency"`
	Running     bool         `json:"running"`
	Online      *bool        `json:"online,omitempty"`
	Installed   int64        `json:"installed"`
	LastCheck   *time.Time   `json:"last_check,omitempty"`
	NextCheck   *time.Time   `json:"next_check,omitempty"`
	LastTrigger string       `json:"last_trigger,omitempty"`
	LastError   string       `json:"last_error,omitempty"`
	LastResult  *CheckStatus `json:"last_result,omitempty"`

	Builds []artifact.Record `json:"builds"`
}

// CheckStatus summarises the most recent determined check.
type CheckStatus struct {
	CheckID       string    `json:"check_id"`
	CheckedAt     time.Time `json:"checked_at"`
	Total         int       `json:"total"`
	New           int       `json:"new"`
	Real          int       `json:"real"`
	Skipped       int       `json:"skipped"`
	ServerMessage string    `json:"server_message,omitempty"`
}

// Status collects a point-in-time view of the daemon and the stored snapshot.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	now := d.now()

	d.mu.RLock()
	st := Status{
		Version:     version.Version,
		StartedAt:   d.startedAt,
		Frequency:   d.cfg.Frequency().String(),
		Installed:   d.installed.Timestamp,
		LastTrigger: string(d.lastTrigger),
	}
	if !d.startedAt.IsZero() {
		st.Uptime = now.Sub(d.startedAt).Round(time.Second).String()
	}
	if d.lastErr != nil {
		st.LastError = d.lastErr.Error()
	}
	if r := d.lastResult; r != nil {
		st.LastResult = &CheckStatus{
			CheckID:       r.CheckID,
			CheckedAt:     r.CheckedAt,
			Total:         r.Total,
			New:           r.New,
			Real:          r.Real,
			Skipped:       r.Skipped,
			ServerMessage: r.ServerMessage,
		}
	}
	if d.periodicJob != "" {
		if next := d.scheduler.NextRun(d.periodicJob); !next.IsZero() {
			st.NextCheck = &next
		}
	}
	if d.probe != nil {
		online := d.probe.Online()
		st.Online = &online
	}
	d.mu.RUnlock()

	st.Running = d.engine.Running()

	if prefs, err := d.prefs.Load(); err == nil && !prefs.LastCheck.IsZero() {
		last := prefs.LastCheck
		st.LastCheck = &last
	}

	builds, err := d.store.Load(ctx)
	if err != nil {
		return st, err
	}
	st.Builds = artifact.Records(artifact.SortLatestFirst(builds))
	if st.Builds == nil {
		st.Builds = []artifact.Record{}
	}
	return st, nil
}
