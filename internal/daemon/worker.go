package daemon

import (
	"context"
	"sync"
)

// checkRequest is a queued check.
type checkRequest struct {
	Trigger Trigger
	Manual  bool
	// Attempt counts retries already made for this request's failure chain.
	Attempt int
}

// merge folds a newer request into a pending one. A manual request wins so
// the user still gets an answer.
func (r checkRequest) merge(newer checkRequest) checkRequest {
	if newer.Manual && !r.Manual {
		return newer
	}
	return r
}

// worker executes checks one at a time from a queue that holds at most one
// pending request; requests arriving while one is pending are coalesced.
type worker struct {
	exec func(ctx context.Context, req checkRequest)

	mu      sync.Mutex
	pending *checkRequest
	signal  chan struct{}
	done    chan struct{}
}

func newWorker(exec func(ctx context.Context, req checkRequest)) *worker {
	return &worker{
		exec:   exec,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Submit queues req. It reports false when the request was coalesced into
// one already pending.
func (w *worker) Submit(req checkRequest) bool {
	w.mu.Lock()
	queued := w.pending == nil
	if queued {
		w.pending = &req
	} else {
		merged := w.pending.merge(req)
		w.pending = &merged
	}
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
	return queued
}

func (w *worker) take() (checkRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return checkRequest{}, false
	}
	req := *w.pending
	w.pending = nil
	return req, true
}

// Run processes requests until ctx is cancelled.
func (w *worker) Run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.signal:
			if req, ok := w.take(); ok {
				w.exec(ctx, req)
			}
		}
	}
}

// Done is closed when Run returns.
func (w *worker) Done() <-chan struct{} { return w.done }
