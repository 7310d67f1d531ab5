package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/artifact"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/feed"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/fetch"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/state"
)

type entry struct {
	name  string
	epoch int64
	md5   string
}

func feedBody(entries ...entry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		fields := []string{
			fmt.Sprintf(`"name":%q`, e.name),
			fmt.Sprintf(`"epoch":%d`, e.epoch),
			fmt.Sprintf(`"url":"/builds/%s"`, e.name),
		}
		if e.md5 != "-" {
			fields = append(fields, fmt.Sprintf(`"md5sum":%q`, e.md5))
		}
		parts = append(parts, "{"+strings.Join(fields, ",")+"}")
	}
	return `{"result":"ok","data":{"file_list":[` + strings.Join(parts, ",") + `]}}`
}

// feedServer serves whatever body is currently stored and counts requests.
type feedServer struct {
	*httptest.Server
	mu     sync.Mutex
	body   string
	status int
	hits   atomic.Int32
}

func newFeedServer(t *testing.T, body string) *feedServer {
	t.Helper()
	fs := &feedServer{body: body, status: http.StatusOK}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.hits.Add(1)
		if r.Header.Get("Cache-Control") != "no-cache" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fs.mu.Lock()
		body, status := fs.body, fs.status
		fs.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *feedServer) set(body string, status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.body, fs.status = body, status
}

type harness struct {
	engine    *Engine
	store     *state.JSONFileStore
	statePath string
}

func newHarness(t *testing.T, baseURL string, mutate ...func(*Config)) *harness {
	t.Helper()
	dialect, err := feed.NewDialect(feed.Config{
		Dialect:      feed.DialectEOS,
		BaseURL:      baseURL,
		FileListPath: "/files",
		Device:       "mako",
	})
	require.NoError(t, err)

	statePath := filepath.Join(t.TempDir(), "builds.json")
	store := state.NewJSONFileStore(statePath)
	cfg := Config{
		Fetcher:    fetch.New(),
		Dialect:    dialect,
		Store:      store,
		UserAgent:  "EOSUpdater/test",
		NewCheckID: func() string { return "check-1" },
		Now:        func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
	for _, m := range mutate {
		m(&cfg)
	}
	engine, err := New(cfg)
	require.NoError(t, err)
	return &harness{engine: engine, store: store, statePath: statePath}
}

func (h *harness) snapshot(t *testing.T) []artifact.Descriptor {
	t.Helper()
	builds, err := h.store.Load(context.Background())
	require.NoError(t, err)
	return builds
}

func names(list []artifact.Descriptor) []string {
	out := make([]string, 0, len(list))
	for _, d := range list {
		out = append(out, d.Name())
	}
	return out
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestCheck_FirstRunFiltersSupersededBuilds(t *testing.T) {
	srv := newFeedServer(t, feedBody(entry{"old.zip", 50, "a"}, entry{"new.zip", 200, "b"}))
	h := newHarness(t, srv.URL)

	res, err := h.engine.Check(context.Background(), 100)
	require.NoError(t, err)
	require.True(t, res.Determined)
	require.Equal(t, "check-1", res.CheckID)
	require.Equal(t, 1, res.Total)
	require.Equal(t, 1, res.New)
	require.Equal(t, 1, res.Real)
	require.Equal(t, []string{"new.zip"}, names(h.snapshot(t)))
}

func TestCheck_Idempotent(t *testing.T) {
	srv := newFeedServer(t, feedBody(entry{"a.zip", 200, "a"}, entry{"b.zip", 300, "b"}))
	h := newHarness(t, srv.URL)

	first, err := h.engine.Check(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 2, first.New)
	snap := h.snapshot(t)

	second, err := h.engine.Check(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 0, second.New)
	require.Equal(t, 2, second.Real)
	require.Equal(t, 2, second.Total)
	require.Equal(t, snap, h.snapshot(t))
}

// A build can be new without being newer than the installed one, and the
// other way round.
func TestCheck_NewAndRealAreIndependent(t *testing.T) {
	srv := newFeedServer(t, feedBody(entry{"A.zip", 100, "a"}))
	h := newHarness(t, srv.URL)
	_, err := h.engine.Check(context.Background(), 60)
	require.NoError(t, err)

	srv.set(feedBody(entry{"A.zip", 100, "a"}, entry{"B.zip", 50, "b"}), http.StatusOK)

	res, err := h.engine.Check(context.Background(), 160)
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	require.Equal(t, 1, res.New)
	require.Equal(t, 0, res.Real)

	res, err = h.engine.Check(context.Background(), 60)
	require.NoError(t, err)
	require.Equal(t, 0, res.New)
	require.Equal(t, 1, res.Real)
	require.Equal(t, []string{"A.zip"}, names(res.RealUpdates()))
}

func TestCheck_EmptyFeedReplacesSnapshot(t *testing.T) {
	srv := newFeedServer(t, feedBody(entry{"a.zip", 200, "a"}))
	h := newHarness(t, srv.URL)
	_, err := h.engine.Check(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, h.snapshot(t), 1)

	srv.set(`{"result":"ok","data":{"file_list":[]}}`, http.StatusOK)
	res, err := h.engine.Check(context.Background(), 100)
	require.NoError(t, err)
	require.True(t, res.Determined)
	require.Zero(t, res.Total)
	require.Empty(t, h.snapshot(t))
}

func TestCheck_ServerFailedResultIsEmptyFeed(t *testing.T) {
	srv := newFeedServer(t, `{"result":"failed","data":{"message":"no builds for device"}}`)
	h := newHarness(t, srv.URL)

	res, err := h.engine.Check(context.Background(), 100)
	require.NoError(t, err)
	require.True(t, res.Determined)
	require.Equal(t, "no builds for device", res.ServerMessage)
	require.Zero(t, res.Total)
}

func TestCheck_ParseResilience(t *testing.T) {
	srv := newFeedServer(t, feedBody(entry{"ok.zip", 200, "a"}, entry{"nosum.zip", 300, "-"}))
	h := newHarness(t, srv.URL)

	res, err := h.engine.Check(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	require.Equal(t, 1, res.Skipped)
	before, err := os.ReadFile(h.statePath)
	require.NoError(t, err)

	srv.set(`{"result": "ok", "data": {`, http.StatusOK)
	res, err = h.engine.Check(context.Background(), 100)
	require.True(t, errors.HasCategory(err, errors.CategoryParse))
	require.False(t, res.Determined)

	after, err := os.ReadFile(h.statePath)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestCheck_NonObjectPayloadLeavesStateUntouched(t *testing.T) {
	for _, body := range []string{`null`, `{}`, `{"result":"ok"}`} {
		t.Run(body, func(t *testing.T) {
			srv := newFeedServer(t, feedBody(entry{"a.zip", 200, "a"}))
			h := newHarness(t, srv.URL)
			_, err := h.engine.Check(context.Background(), 100)
			require.NoError(t, err)
			before, err := os.ReadFile(h.statePath)
			require.NoError(t, err)

			srv.set(body, http.StatusOK)
			res, err := h.engine.Check(context.Background(), 100)
			require.True(t, errors.HasCategory(err, errors.CategoryParse))
			require.False(t, res.Determined)

			after, err := os.ReadFile(h.statePath)
			require.NoError(t, err)
			require.Equal(t, before, after)
			require.Len(t, h.snapshot(t), 1)
		})
	}
}

func TestCheck_NonOKStatusLeavesStateUntouched(t *testing.T) {
	srv := newFeedServer(t, "")
	srv.set("maintenance", http.StatusServiceUnavailable)
	h := newHarness(t, srv.URL)

	res, err := h.engine.Check(context.Background(), 100)
	require.True(t, errors.HasCategory(err, errors.CategoryNoContent))
	require.False(t, res.Determined)
	require.Equal(t, http.StatusServiceUnavailable, res.Status)
	require.NoFileExists(t, h.statePath)
}

func TestCheck_NetworkErrorLeavesStateUntouched(t *testing.T) {
	srv := newFeedServer(t, "")
	url := srv.URL
	srv.Close()
	h := newHarness(t, url)

	res, err := h.engine.Check(context.Background(), 100)
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	require.False(t, res.Determined)
	require.NoFileExists(t, h.statePath)
}

func TestCheck_CorruptState(t *testing.T) {
	srv := newFeedServer(t, feedBody(entry{"a.zip", 200, "a"}))

	h := newHarness(t, srv.URL)
	require.NoError(t, os.WriteFile(h.statePath, []byte("garbage"), 0o644))
	_, err := h.engine.Check(context.Background(), 100)
	require.True(t, errors.HasCategory(err, errors.CategoryStorage))

	h = newHarness(t, srv.URL, func(c *Config) { c.ResetOnCorrupt = true })
	require.NoError(t, os.WriteFile(h.statePath, []byte("garbage"), 0o644))
	res, err := h.engine.Check(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 1, res.New)
	require.Len(t, h.snapshot(t), 1)
}

func blockingServer(t *testing.T) (*httptest.Server, <-chan struct{}, *atomic.Int32) {
	t.Helper()
	entered := make(chan struct{}, 4)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		entered <- struct{}{}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv, entered, &hits
}

func TestCheck_CancelIsPromptAndLeavesStateUntouched(t *testing.T) {
	srv, entered, _ := blockingServer(t)
	h := newHarness(t, srv.URL)
	require.False(t, h.engine.Cancel())

	done := make(chan error, 1)
	go func() {
		_, err := h.engine.Check(context.Background(), 100)
		done <- err
	}()

	<-entered
	require.True(t, h.engine.Running())
	require.True(t, h.engine.Cancel())

	select {
	case err := <-done:
		require.True(t, errors.HasCategory(err, errors.CategoryCancelled))
	case <-time.After(2 * time.Second):
		t.Fatal("Check did not return after Cancel")
	}
	require.False(t, h.engine.Running())
	require.NoFileExists(t, h.statePath)
}

func TestCheck_ConcurrentCheckIsRejected(t *testing.T) {
	srv, entered, hits := blockingServer(t)
	h := newHarness(t, srv.URL)

	done := make(chan error, 1)
	go func() {
		_, err := h.engine.Check(context.Background(), 100)
		done <- err
	}()
	<-entered

	_, err := h.engine.Check(context.Background(), 100)
	require.True(t, errors.HasCategory(err, errors.CategoryInProgress))
	require.Equal(t, int32(1), hits.Load())

	h.engine.Cancel()
	<-done
}

func TestCheck_TimeoutIsNetworkError(t *testing.T) {
	srv, _, _ := blockingServer(t)
	h := newHarness(t, srv.URL, func(c *Config) { c.Timeout = 50 * time.Millisecond })

	_, err := h.engine.Check(context.Background(), 100)
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	require.NoFileExists(t, h.statePath)
}

func TestCheckResult_LatestFirstIsStable(t *testing.T) {
	mk := func(name string, ts int64) artifact.Descriptor {
		d, err := artifact.New(name, ts, 19, "u", "c", artifact.KindNightly)
		require.NoError(t, err)
		return d
	}
	res := CheckResult{
		Installed: 150,
		Candidates: []artifact.Descriptor{
			mk("t100", 100), mk("t200a", 200), mk("t200b", 200), mk("t50", 50),
		},
		Real: 2,
	}
	require.Equal(t, []string{"t200a", "t200b", "t100", "t50"}, names(res.LatestFirst()))
	require.Equal(t, []string{"t200a", "t200b"}, names(res.RealUpdates()))
}
