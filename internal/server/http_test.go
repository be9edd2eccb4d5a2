package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/teemow/inboxsort/internal/instrumentation"
)

func TestResponseWriter(t *testing.T) {
	t.Run("captures status code", func(t *testing.T) {
		rw := newResponseWriter(httptest.NewRecorder())
		rw.WriteHeader(http.StatusNotFound)
		assert.Equal(t, http.StatusNotFound, rw.statusCode)
	})

	t.Run("defaults to 200", func(t *testing.T) {
		rw := newResponseWriter(httptest.NewRecorder())
		assert.Equal(t, http.StatusOK, rw.statusCode)
	})

	t.Run("passes write header to underlying writer", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		rw := newResponseWriter(recorder)
		rw.WriteHeader(http.StatusCreated)
		assert.Equal(t, http.StatusCreated, recorder.Code)
		assert.Same(t, recorder, rw.Unwrap())
	})

	t.Run("first status wins", func(t *testing.T) {
		rw := newResponseWriter(httptest.NewRecorder())
		rw.WriteHeader(http.StatusAccepted)
		rw.WriteHeader(http.StatusInternalServerError)
		assert.Equal(t, http.StatusAccepted, rw.statusCode)
	})
}

func httpRequestCounts(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "http_requests_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				path, _ := dp.Attributes.Value(attribute.Key("path"))
				status, _ := dp.Attributes.Value(attribute.Key("status"))
				out[path.AsString()+" "+status.Emit()] += dp.Value
			}
		}
	}
	return out
}

func TestHTTPServer_Handler(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)

	mcpCalls := 0
	mcp := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mcpCalls++
		w.WriteHeader(http.StatusAccepted)
	})

	sc := newTestServerContext(t, testContextOptions{trained: false})
	srv := newHTTPServer(mcp, NewHealthChecker(sc), metrics)
	handler := srv.Handler()

	tests := []struct {
		path     string
		wantCode int
	}{
		{path: MCPEndpointPath, wantCode: http.StatusAccepted},
		{path: "/healthz", wantCode: http.StatusOK},
		{path: "/readyz", wantCode: http.StatusServiceUnavailable},
		{path: "/nope", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))
		assert.Equal(t, tt.wantCode, rec.Code, tt.path)
	}

	assert.Equal(t, 1, mcpCalls)
	counts := httpRequestCounts(t, reader)
	assert.Equal(t, int64(1), counts["/mcp 202"])
	assert.Equal(t, int64(1), counts["/healthz 200"])
	assert.Equal(t, int64(1), counts["/readyz 503"])
	assert.Len(t, counts, 3, "unrouted paths are not recorded")
}

func TestHTTPServer_NoMetrics(t *testing.T) {
	called := false
	srv := newHTTPServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}), nil, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, MCPEndpointPath, nil))
	assert.True(t, called)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "health routes need a checker")

	assert.Empty(t, srv.Addr())
	assert.NoError(t, srv.Shutdown(context.Background()))
}
