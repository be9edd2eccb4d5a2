package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxsort/internal/instrumentation"
)

// MCPEndpointPath is where the streamable HTTP transport is mounted.
const MCPEndpointPath = "/mcp"

// HTTPServer serves the MCP streamable HTTP transport together with the
// health probes.
type HTTPServer struct {
	mcpHandler http.Handler
	health     *HealthChecker
	metrics    *instrumentation.Metrics

	mu         sync.Mutex
	listener   net.Listener
	httpServer *http.Server
}

// NewHTTPServer wraps an MCP server in a streamable HTTP transport.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, health *HealthChecker, metrics *instrumentation.Metrics, disableStreaming bool) *HTTPServer {
	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(MCPEndpointPath),
	}
	if disableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}
	return newHTTPServer(mcpserver.NewStreamableHTTPServer(mcpSrv, opts...), health, metrics)
}

func newHTTPServer(mcpHandler http.Handler, health *HealthChecker, metrics *instrumentation.Metrics) *HTTPServer {
	if metrics == nil {
		metrics = &instrumentation.Metrics{}
	}
	return &HTTPServer{
		mcpHandler: mcpHandler,
		health:     health,
		metrics:    metrics,
	}
}

// Handler returns the routed and instrumented handler.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, s.instrumentationMiddleware(MCPEndpointPath, s.mcpHandler))
	if s.health != nil {
		mux.Handle("/healthz", s.instrumentationMiddleware("/healthz", s.health.LivenessHandler()))
		mux.Handle("/readyz", s.instrumentationMiddleware("/readyz", s.health.ReadinessHandler()))
	}
	return mux
}

// Start listens on addr and serves until Shutdown.
func (s *HTTPServer) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultMetricsReadTimeout,
		IdleTimeout:       DefaultMetricsIdleTimeout,
	}

	s.mu.Lock()
	s.listener = ln
	s.httpServer = srv
	s.mu.Unlock()

	slog.Info("starting MCP HTTP server", "addr", ln.Addr().String(), "endpoint", MCPEndpointPath)
	return srv.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Addr returns the bound address once listening.
func (s *HTTPServer) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// instrumentationMiddleware records request count and latency. The route is
// passed in so the path label stays bounded.
func (s *HTTPServer) instrumentationMiddleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, route, rw.statusCode, time.Since(start))
	})
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
