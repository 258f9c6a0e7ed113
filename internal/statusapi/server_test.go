package statusapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrdx0/claudetray/internal/usage"
)

type stubChecker struct {
	ready bool
}

func (s *stubChecker) IsReady() bool { return s.ready }

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	server := New(&stubChecker{})

	rec := get(t, server.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	checker := &stubChecker{}
	server := New(checker)

	rec := get(t, server.Handler(), "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	checker.ready = true
	rec = get(t, server.Handler(), "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUsageEndpoint(t *testing.T) {
	server := New(&stubChecker{ready: true})

	rec := get(t, server.Handler(), "/v1/usage")
	require.Equal(t, http.StatusNotFound, rec.Code)

	server.SetUsage(&usage.Snapshot{FiveHour: usage.Period{Utilization: 42}})

	rec = get(t, server.Handler(), "/v1/usage")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp usageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Usage)
	require.InDelta(t, 42.0, resp.Usage.FiveHour.Utilization, 1e-9)
	require.False(t, resp.UpdatedAt.IsZero())
}

func TestRequestIDHeader(t *testing.T) {
	server := New(&stubChecker{})

	rec := get(t, server.Handler(), "/healthz")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// a client-supplied id is echoed back
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "my-id")
	rec = httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	require.Equal(t, "my-id", rec.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := applyMiddlewares(panicking, Recovery)

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStartAndShutdown(t *testing.T) {
	server := New(&stubChecker{ready: true})

	errCh, err := server.Start(t.Context(), "127.0.0.1:0")
	require.NoError(t, err)

	require.NoError(t, server.Shutdown(t.Context()))
	require.NoError(t, <-errCh)
}
