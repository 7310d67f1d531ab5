package discovery

import (
	"time"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
)

// CheckResult summarizes one update check.
type CheckResult struct {
	CheckID   string
	CheckedAt time.Time
	// Determined is false when the server could not be queried or returned
	// no content; the counts are then meaningless and state was not touched.
	Determined bool
	Installed  int64

	Total int
	New   int
	Real  int
	// Skipped counts feed entries dropped for missing or invalid fields.
	Skipped int
	// Candidates is the post-filter list in feed order. It is also what was
	// persisted as the new snapshot.
	Candidates []artifact.Descriptor

	// Status is the HTTP status of the query, when one was received.
	Status int
	// ServerMessage carries the server's reason for a "failed" result.
	ServerMessage string
}

// LatestFirst returns the candidates ordered newest first. Builds with the
// same timestamp keep their feed order.
func (r CheckResult) LatestFirst() []artifact.Descriptor {
	return artifact.SortLatestFirst(r.Candidates)
}

// RealUpdates returns the candidates newer than the installed build, newest
// first.
func (r CheckResult) RealUpdates() []artifact.Descriptor {
	out := make([]artifact.Descriptor, 0, r.Real)
	for _, d := range r.LatestFirst() {
		if d.IsNewerThan(r.Installed) {
			out = append(out, d)
		}
	}
	return out
}

// classify applies the first-run filter and computes the new and real counts.
// prev is the previously persisted snapshot.
func classify(prev, candidates []artifact.Descriptor, installed int64) (kept []artifact.Descriptor, newCount, realCount int) {
	kept = candidates
	if len(prev) == 0 {
		kept = make([]artifact.Descriptor, 0, len(candidates))
		for _, d := range candidates {
			if d.IsNewerThan(installed) {
				kept = append(kept, d)
			}
		}
	}
	for _, d := range kept {
		if !artifact.Contains(prev, d) {
			newCount++
		}
		if d.IsNewerThan(installed) {
			realCount++
		}
	}
	if kept == nil {
		kept = []artifact.Descriptor{}
	}
	return kept, newCount, realCount
}
