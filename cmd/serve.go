package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxsort/internal/config"
	"github.com/teemow/inboxsort/internal/instrumentation"
	"github.com/teemow/inboxsort/internal/logging"
	"github.com/teemow/inboxsort/internal/scheduler"
	"github.com/teemow/inboxsort/internal/server"
	"github.com/teemow/inboxsort/internal/tools/gmail_tools"
	"github.com/teemow/inboxsort/internal/tools/google_tools"
	"github.com/teemow/inboxsort/internal/tools/vsm_tools"
)

// Scheduled job names.
const (
	jobLearnGmail = "learn-gmail"
	jobSnapshot   = "snapshot"
)

type serveOptions struct {
	transport        string
	httpAddr         string
	readOnly         bool
	disableStreaming bool
	metricsEnabled   bool
	metricsAddr      string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide email
classification tools for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport on /mcp, with /healthz and /readyz

The model artifact is loaded once at startup. When learn.schedule is set the
server learns from Gmail category labels on that schedule, and when
persistence is enabled the adapted centroids are snapshotted to SQLite.

Read-only mode:
  --read-only hides the tools that change the model or write files
  (vsm_learn, vsm_export_model, vsm_snapshot, gmail_learn_labels,
  google_save_auth_code).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyServeOverrides(cmd, cfg, opts)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", config.TransportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "", "HTTP server address (for streamable-http transport)")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Hide tools that change the model or write files")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// applyServeOverrides applies explicitly set serve flags and the metrics
// environment variables on top of the loaded config.
func applyServeOverrides(cmd *cobra.Command, c *config.Config, opts serveOptions) {
	flags := cmd.Flags()
	if flags.Changed("transport") {
		c.Server.Transport = opts.transport
	}
	if flags.Changed("http-addr") {
		c.Server.HTTPAddr = opts.httpAddr
	}

	if flags.Changed("metrics-enabled") {
		enabled := opts.metricsEnabled
		c.Server.MetricsEnabled = &enabled
	} else if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled := strings.EqualFold(v, "true")
		c.Server.MetricsEnabled = &enabled
	}

	if flags.Changed("metrics-addr") {
		c.Server.MetricsAddr = opts.metricsAddr
	} else if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		c.Server.MetricsAddr = addr
	}
}

func runServe(c *config.Config, opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stdio := c.Server.Transport == config.TransportStdio

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(flushCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	rt, err := openRuntime(shutdownCtx, c, logger, runtimeOptions{provider: provider})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(true); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	health := server.NewHealthChecker(rt.sc)

	// Start metrics server if enabled and not in stdio mode
	if !stdio && c.Server.MetricsOn() && provider.Enabled() && provider.PrometheusHandler() != nil {
		metricsServer, err := startMetricsServer(c.Server.MetricsAddr, provider, health)
		if err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(stopCtx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	sched, err := scheduleJobs(rt.sc, c, logger)
	if err != nil {
		return err
	}
	sched.Start()
	logJobSchedule(sched, logger)
	if c.Learn.OnStartup {
		go learnOnStartup(shutdownCtx, sched, logger)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			logger.Warn("scheduled jobs did not finish", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxsort", version,
		mcpserver.WithToolCapabilities(true),
	)

	if !stdio {
		if opts.readOnly {
			logger.Info("starting server in READ-ONLY mode")
		}
		info := rt.svc.Info()
		logger.Info("classifier ready", "state", info.State, "dimensions", info.Dimensions, "labels", info.Labels)
	}

	if err := registerAllTools(mcpSrv, rt.sc, opts.readOnly); err != nil {
		return err
	}
	health.SetReady(true)

	// Start the appropriate server based on transport type
	switch c.Server.Transport {
	case config.TransportStdio:
		return runStdioServer(shutdownCtx, mcpSrv)
	case config.TransportStreamableHTTP:
		httpSrv := server.NewHTTPServer(mcpSrv, health, provider.Metrics(), opts.disableStreaming)
		return runStreamableHTTPServer(shutdownCtx, httpSrv, c.Server.HTTPAddr, health)
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", c.Server.Transport)
	}
}

func startMetricsServer(addr string, provider *instrumentation.Provider, health *server.HealthChecker) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		Health:                  health,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

// scheduleJobs registers the periodic learn and snapshot jobs. A job with
// an empty schedule is not added.
func scheduleJobs(sc *server.ServerContext, c *config.Config, l *slog.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(l)

	if _, err := sched.Add(scheduler.Job{
		Name: jobLearnGmail,
		Spec: c.Learn.Schedule,
		Run: func(ctx context.Context) error {
			res, err := sc.LearnFromGmail(ctx, "", nil, 0)
			if err != nil {
				return err
			}
			l.Info("scheduled learn finished", logging.Batch(res.BatchID), "learned", res.Learned, "skipped", res.Skipped)
			return nil
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to schedule %s: %w", jobLearnGmail, err)
	}

	if sc.Store() != nil {
		if _, err := sched.Add(scheduler.Job{
			Name: jobSnapshot,
			Spec: c.Persistence.SnapshotSchedule,
			Run: func(ctx context.Context) error {
				_, err := sc.SnapshotCentroids(ctx)
				return err
			},
		}); err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", jobSnapshot, err)
		}
	}

	return sched, nil
}

// logJobSchedule logs the next activation of every scheduled job.
func logJobSchedule(sched *scheduler.Scheduler, l *slog.Logger) {
	for _, name := range sched.Jobs() {
		if next, ok := sched.Next(name); ok && !next.IsZero() {
			l.Info("next job run", "job", name, "next", next.Format(time.RFC3339))
		}
	}
}

// learnOnStartup runs the Gmail learn job once without waiting for its
// schedule. It returns false when no learn job is registered.
func learnOnStartup(ctx context.Context, sched *scheduler.Scheduler, l *slog.Logger) bool {
	if err := sched.RunNow(ctx, jobLearnGmail); err != nil {
		l.Warn("startup learn skipped", logging.Err(err))
		return false
	}
	return true
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	}
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Classifier",
			register: func() error {
				return vsm_tools.RegisterVSMTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Gmail",
			register: func() error {
				return gmail_tools.RegisterGmailTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Google OAuth",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc, readOnly)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, httpSrv *server.HTTPServer, addr string, health *server.HealthChecker) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpSrv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		health.SetReady(false)
		stopCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(stopCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		logger.Info("HTTP server stopped normally")
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
