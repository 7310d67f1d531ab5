// Package fetch performs the single outstanding HTTP request of an update check.
//
// A Fetcher is either idle or has exactly one request in flight. Abort cancels
// the in-flight request from any goroutine; the blocked Get then returns a
// cancelled error. A second Get while one is in flight is rejected without
// touching the network.
package fetch

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/logfields"
)

// DefaultMaxBodyBytes bounds a response body when no explicit limit is configured.
const DefaultMaxBodyBytes int64 = 4 << 20

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithMaxBodyBytes sets the response body limit. Values <= 0 keep the default.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// Fetcher is safe for concurrent use; at most one Get runs at a time.
type Fetcher struct {
	client  *http.Client
	maxBody int64
	logger  *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc // non-nil while a request is in flight
	aborted bool
}

// New returns an idle Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{},
		maxBody: DefaultMaxBodyBytes,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// inFlight reports whether a request is currently outstanding.
func (f *Fetcher) inFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancel != nil
}

// Abort cancels the in-flight request. It is a no-op when idle.
func (f *Fetcher) Abort() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel == nil {
		return
	}
	f.aborted = true
	f.cancel()
}

// Get issues a GET request with the caller's headers.
//
// A 200 response yields its body. Any other status yields a nil body, the
// status code and a nil error. Transport failures and deadline expiry are
// network errors; Abort or cancellation of ctx is a cancelled error.
func (f *Fetcher) Get(ctx context.Context, url string, headers http.Header) ([]byte, int, error) {
	reqCtx, err := f.begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer f.finish()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, errors.ValidationError("invalid request URL").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, f.classify(ctx, err, url)
	}
	defer func() { _ = resp.Body.Close() }()

	f.logger.Debug("Update server responded",
		logfields.URL(url),
		logfields.Status(resp.StatusCode),
		logfields.DurationMS(float64(time.Since(started).Milliseconds())))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, resp.StatusCode, f.classify(ctx, err, url)
	}
	if int64(len(body)) > f.maxBody {
		return nil, resp.StatusCode, errors.NetworkError("response body exceeds limit").
			WithContext("url", url).
			WithContext("limit_bytes", f.maxBody).
			Build()
	}
	return body, resp.StatusCode, nil
}

func (f *Fetcher) begin(ctx context.Context) (context.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return nil, errors.InProgressError("a request is already in flight").Build()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.aborted = false
	return reqCtx, nil
}

func (f *Fetcher) finish() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
	f.cancel = nil
}

func (f *Fetcher) wasAborted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aborted
}

// classify maps a transport error onto the error taxonomy. parent is the
// caller's context, not the request context derived from it.
func (f *Fetcher) classify(parent context.Context, err error, url string) error {
	switch {
	case f.wasAborted():
		return errors.CancelledError("request aborted").
			WithCause(err).
			WithContext("url", url).
			Build()
	case stderrors.Is(parent.Err(), context.DeadlineExceeded):
		return errors.NetworkError("request timed out").
			WithCause(err).
			WithContext("url", url).
			WithContext("timeout", true).
			Build()
	case stderrors.Is(parent.Err(), context.Canceled):
		return errors.CancelledError("request cancelled").
			WithCause(err).
			WithContext("url", url).
			Build()
	default:
		return errors.NetworkError("request failed").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
}
