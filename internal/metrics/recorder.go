package metrics

import "time"

// OutcomeLabel enumerates check outcome categories for counters.
type OutcomeLabel string

const (
	OutcomeSuccess    OutcomeLabel = "success"
	OutcomeNoContent  OutcomeLabel = "no_content"
	OutcomeNetwork    OutcomeLabel = "network_error"
	OutcomeParse      OutcomeLabel = "parse_error"
	OutcomeStorage    OutcomeLabel = "storage_error"
	OutcomeCanceled   OutcomeLabel = "canceled"
	OutcomeRejected   OutcomeLabel = "rejected"
	OutcomeServerFail OutcomeLabel = "server_failed"
)

// Recorder defines observability hooks for update checks. All methods must be
// safe to call on a NoopRecorder.
type Recorder interface {
	ObserveCheckDuration(d time.Duration)
	IncCheckOutcome(outcome OutcomeLabel)
	SetCheckCounts(total, newCount, realCount int)
	AddSkippedEntries(n int)
	IncTrigger(trigger string)
	IncRetry()
	IncRetryExhausted()
	SetLastSuccess(t time.Time)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCheckDuration(time.Duration) {}
func (NoopRecorder) IncCheckOutcome(OutcomeLabel)       {}
func (NoopRecorder) SetCheckCounts(int, int, int)       {}
func (NoopRecorder) AddSkippedEntries(int)              {}
func (NoopRecorder) IncTrigger(string)                  {}
func (NoopRecorder) IncRetry()                          {}
func (NoopRecorder) IncRetryExhausted()                 {}
func (NoopRecorder) SetLastSuccess(time.Time)           {}
