package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/company-enricher/internal/metrics"
	"github.com/JakeFAU/company-enricher/internal/orchestrator"
)

type fakeProgress struct {
	snap orchestrator.Progress
}

func (f fakeProgress) Snapshot() orchestrator.Progress { return f.snap }

func serve(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(nil, zap.NewNop()), "/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_ReadyzReportsProgress(t *testing.T) {
	t.Parallel()

	progress := fakeProgress{snap: orchestrator.Progress{
		RunID:      "run-1",
		State:      orchestrator.StatePacing,
		RosterSize: 35,
		Checkpoint: 26,
		Batches:    2,
		Succeeded:  20,
		Failed:     6,
	}}
	rec := serve(t, NewServer(progress, zap.NewNop()), "/readyz")

	require.Equal(t, http.StatusOK, rec.Code)
	var body readyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ready", body.Status)
	require.Equal(t, progress.snap, body.Progress)
}

func TestServer_ReadyzFailedRun(t *testing.T) {
	t.Parallel()

	progress := fakeProgress{snap: orchestrator.Progress{RunID: "run-2", State: orchestrator.StateFailed}}
	rec := serve(t, NewServer(progress, zap.NewNop()), "/readyz")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"failed"`)
}

func TestServer_ReadyzWithoutRun(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(nil, nil), "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestServer_Progress(t *testing.T) {
	t.Parallel()

	progress := fakeProgress{snap: orchestrator.Progress{RunID: "run-3", State: orchestrator.StateDone, Checkpoint: 5}}
	rec := serve(t, NewServer(progress, zap.NewNop()), "/v1/progress")
	require.Equal(t, http.StatusOK, rec.Code)

	var got orchestrator.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, progress.snap, got)

	rec = serve(t, NewServer(nil, zap.NewNop()), "/v1/progress")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	metrics.Init()
	metrics.SetCheckpoint(7)
	rec := serve(t, NewServer(nil, zap.NewNop()), "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "enricher_checkpoint")
}

func TestServer_UnknownRoute(t *testing.T) {
	t.Parallel()

	rec := serve(t, NewServer(nil, zap.NewNop()), "/v1/jobs")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	s := NewServer(nil, zap.NewNop())
	handler := s.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal server error")
}

func TestRecoverMiddlewareAfterPartialWrite(t *testing.T) {
	t.Parallel()

	s := NewServer(nil, zap.NewNop())
	handler := s.recoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("partial"))
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "partial", rec.Body.String())
}

func TestRecoverMiddlewareAfterBodyOnlyWrite(t *testing.T) {
	t.Parallel()

	s := NewServer(nil, zap.NewNop())
	handler := s.recoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("partial"))
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "internal server error")
}

func TestServer_ListenAndServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(nil, zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ListenAndServeBadAddr(t *testing.T) {
	t.Parallel()

	err := NewServer(nil, zap.NewNop()).ListenAndServe(context.Background(), "256.0.0.1:bad")
	require.ErrorContains(t, err, "status server")
}
