package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerCoalescesPendingRequests(t *testing.T) {
	w := newWorker(func(context.Context, checkRequest) {})

	assert.True(t, w.Submit(checkRequest{Trigger: TriggerPeriodic}))
	assert.False(t, w.Submit(checkRequest{Trigger: TriggerConnectivity}))
	assert.False(t, w.Submit(checkRequest{Trigger: TriggerManual, Manual: true}))
	assert.False(t, w.Submit(checkRequest{Trigger: TriggerRetry, Attempt: 1}))

	req, ok := w.take()
	require.True(t, ok)
	assert.Equal(t, TriggerManual, req.Trigger)
	assert.True(t, req.Manual)

	_, ok = w.take()
	assert.False(t, ok)
}

func TestWorkerRunsRequestsSequentially(t *testing.T) {
	var (
		mu      sync.Mutex
		seen    []Trigger
		active  int
		overlap bool
	)
	release := make(chan struct{})
	w := newWorker(func(_ context.Context, req checkRequest) {
		mu.Lock()
		active++
		overlap = overlap || active > 1
		seen = append(seen, req.Trigger)
		first := len(seen) == 1
		mu.Unlock()
		if first {
			<-release
		}
		mu.Lock()
		active--
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	w.Submit(checkRequest{Trigger: TriggerBoot})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	}, 2*time.Second, 5*time.Millisecond)

	w.Submit(checkRequest{Trigger: TriggerPeriodic})
	w.Submit(checkRequest{Trigger: TriggerConnectivity})
	close(release)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-w.Done()

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, overlap)
	assert.Equal(t, []Trigger{TriggerBoot, TriggerPeriodic}, seen)
}
