package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TeamEOS/packages-apps-EOSUpdater/internal/foundation/errors"
)

func TestGet_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "EOSUpdater/test", r.Header.Get("User-Agent"))
		require.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	}))
	defer srv.Close()

	f := New()
	h := http.Header{}
	h.Set("User-Agent", "EOSUpdater/test")
	h.Set("Cache-Control", "no-cache")

	body, status, err := f.Get(context.Background(), srv.URL, h)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"result":"ok"}`, string(body))
	require.False(t, f.inFlight())
}

func TestGet_NonOKIsNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("down"))
	}))
	defer srv.Close()

	body, status, err := New().Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	require.Nil(t, body)
	require.Equal(t, http.StatusServiceUnavailable, status)
}

func TestGet_TransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, _, err := New().Get(context.Background(), url, nil)
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
	require.True(t, errors.IsRetryable(err))
}

func TestGet_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	_, _, err := New(WithMaxBodyBytes(16)).Get(context.Background(), srv.URL, nil)
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}

func TestGet_DeadlineIsNetworkTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := New().Get(ctx, srv.URL, nil)
	require.True(t, errors.HasCategory(err, errors.CategoryNetwork))
}

func TestAbort_CancelsInFlightAndAllowsReuse(t *testing.T) {
	entered := make(chan struct{}, 1)
	var block atomic.Bool
	block.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if block.Load() {
			entered <- struct{}{}
			<-r.Context().Done()
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := New()
	done := make(chan error, 1)
	go func() {
		_, _, err := f.Get(context.Background(), srv.URL, nil)
		done <- err
	}()

	<-entered
	require.True(t, f.inFlight())

	_, _, err := f.Get(context.Background(), srv.URL, nil)
	require.True(t, errors.HasCategory(err, errors.CategoryInProgress))

	f.Abort()
	select {
	case err := <-done:
		require.True(t, errors.HasCategory(err, errors.CategoryCancelled))
	case <-time.After(2 * time.Second):
		t.Fatal("Get did not return after Abort")
	}
	require.False(t, f.inFlight())

	block.Store(false)
	body, status, err := f.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", string(body))
}

func TestAbort_IdleIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := New()
	f.Abort()
	f.Abort()

	_, _, err := f.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
}
