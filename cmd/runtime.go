package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/inboxsort/internal/config"
	"github.com/teemow/inboxsort/internal/instrumentation"
	"github.com/teemow/inboxsort/internal/logging"
	"github.com/teemow/inboxsort/internal/server"
	"github.com/teemow/inboxsort/internal/store"
	"github.com/teemow/inboxsort/internal/vsm"
)

// runtimeOptions carries the optional pieces a command wires into the
// classifier runtime.
type runtimeOptions struct {
	provider *instrumentation.Provider
	// requireModel fails instead of starting untrained.
	requireModel bool
}

// classifierRuntime is a loaded classifier with its persistence and server context.
type classifierRuntime struct {
	svc    *vsm.Service
	st     *store.Store
	sc     *server.ServerContext
	logger *slog.Logger
}

// openRuntime loads the model artifact, restores adapted centroids when
// persistence is on and builds the shared server context.
func openRuntime(ctx context.Context, c *config.Config, l *slog.Logger, opts runtimeOptions) (*classifierRuntime, error) {
	var observer vsm.Observer
	metrics := &instrumentation.Metrics{}
	var audit *instrumentation.AuditLogger
	if opts.provider != nil && opts.provider.Enabled() {
		observer = opts.provider.Observer()
		metrics = opts.provider.Metrics()
		audit = instrumentation.NewAuditLoggerWithConfig(l, instrumentation.DefaultConfig().AuditLogging)
	}

	svc := vsm.New(vsm.Options{
		Logger:         logging.NewSlogAdapter(l),
		Observer:       observer,
		LearnQueueSize: c.Learn.QueueSize,
	})

	if _, err := svc.LoadModelFile(c.ModelPath); err != nil {
		if opts.requireModel {
			_ = svc.Close()
			return nil, fmt.Errorf("failed to load model: %w", err)
		}
		l.Warn("model not loaded, classifier stays untrained", logging.Model(c.ModelPath), logging.Err(err))
	}

	var st *store.Store
	if c.Persistence.Enabled {
		var err error
		st, err = store.Open(c.Persistence.DBPath)
		if err != nil {
			_ = svc.Close()
			return nil, err
		}
		n, err := st.Restore(ctx, svc)
		if err != nil {
			l.Warn("failed to restore adapted centroids", logging.Err(err))
		} else if n > 0 {
			l.Info("restored adapted centroids", "centroids", n)
		}
	}

	sc, err := server.NewServerContext(ctx, server.Options{
		Service:     svc,
		Config:      c,
		Store:       st,
		Metrics:     metrics,
		AuditLogger: audit,
		Logger:      l,
	})
	if err != nil {
		_ = svc.Close()
		if st != nil {
			_ = st.Close()
		}
		return nil, err
	}

	return &classifierRuntime{svc: svc, st: st, sc: sc, logger: l}, nil
}

// Close snapshots the centroids when asked to, drains the learner and
// closes the store.
func (r *classifierRuntime) Close(snapshot bool) error {
	var errs []error
	if snapshot && r.st != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		n, err := r.sc.SnapshotCentroids(ctx)
		cancel()
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to snapshot centroids: %w", err))
		} else if n > 0 {
			r.logger.Info("saved centroid snapshot", "centroids", n)
		}
	}
	if err := r.sc.Shutdown(); err != nil && !errors.Is(err, vsm.ErrServiceClosed) {
		errs = append(errs, err)
	}
	if r.st != nil {
		if err := r.st.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// exportsOneShot reports whether telemetry from a short-lived command can
// leave the process. A Prometheus endpoint is never scraped before exit.
func exportsOneShot(ic instrumentation.Config) bool {
	if !ic.Enabled {
		return false
	}
	return ic.TracingExporter != instrumentation.ExporterNone ||
		ic.MetricsExporter != instrumentation.ExporterPrometheus
}

// startTelemetry creates an instrumentation provider for one-shot commands
// when traces or metrics are pushed. The returned func flushes it.
func startTelemetry(ctx context.Context) (*instrumentation.Provider, func()) {
	ic := instrumentation.DefaultConfig()
	ic.ServiceVersion = version
	if !exportsOneShot(ic) {
		return nil, func() {}
	}
	provider, err := instrumentation.NewProvider(ctx, ic)
	if err != nil {
		slog.Warn("failed to initialize instrumentation", logging.Err(err))
		return nil, func() {}
	}
	return provider, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to flush telemetry", logging.Err(err))
		}
	}
}
