package metrics

import (
	"testing"
	"time"
)

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveCheckDuration(time.Second)
	r.IncCheckOutcome(OutcomeCanceled)
	r.SetCheckCounts(0, 0, 0)
	r.AddSkippedEntries(1)
	r.IncTrigger("periodic")
	r.IncRetry()
	r.IncRetryExhausted()
	r.SetLastSuccess(time.Now())
}
