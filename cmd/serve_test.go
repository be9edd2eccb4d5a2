package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"sort"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxsort/internal/config"
	"github.com/teemow/inboxsort/internal/logging"
	"github.com/teemow/inboxsort/internal/server"
	"github.com/teemow/inboxsort/internal/store"
	"github.com/teemow/inboxsort/internal/vsm"
)

func newTestServerContext(t *testing.T, c *config.Config, st *store.Store) *server.ServerContext {
	t.Helper()
	svc := vsm.New(vsm.Options{Logger: logging.Discard()})
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Service: svc,
		Config:  c,
		Store:   st,
		Logger:  logging.Discard().Logger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func toolNames(s *mcpserver.MCPServer) []string {
	var names []string
	for name := range s.ListTools() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestRegisterAllTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{
			name:     "read-only",
			readOnly: true,
			want: []string{
				"gmail_classify_inbox", "google_auth_status", "google_get_auth_url",
				"vsm_classify", "vsm_model_info", "vsm_recent_batches",
			},
		},
		{
			name:     "read-write",
			readOnly: false,
			want: []string{
				"gmail_classify_inbox", "gmail_learn_labels",
				"google_auth_status", "google_get_auth_url", "google_save_auth_code",
				"vsm_classify", "vsm_export_model", "vsm_learn",
				"vsm_model_info", "vsm_recent_batches", "vsm_snapshot",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t, config.Default(), nil)
			s := mcpserver.NewMCPServer("inboxsort-test", "test", mcpserver.WithToolCapabilities(true))

			require.NoError(t, registerAllTools(s, sc, tt.readOnly))
			assert.Equal(t, tt.want, toolNames(s))
		})
	}
}

func TestApplyServeOverrides(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "")
	t.Setenv("METRICS_ADDR", "")

	t.Run("flags win", func(t *testing.T) {
		c := config.Default()
		var opts serveOptions
		cmd := &cobra.Command{}
		cmd.Flags().StringVar(&opts.transport, "transport", config.TransportStdio, "")
		cmd.Flags().StringVar(&opts.httpAddr, "http-addr", "", "")
		cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "")
		cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "")
		require.NoError(t, cmd.Flags().Parse([]string{
			"--transport", "streamable-http",
			"--http-addr", "127.0.0.1:9000",
			"--metrics-enabled=false",
			"--metrics-addr", ":9999",
		}))

		applyServeOverrides(cmd, c, opts)

		assert.Equal(t, config.TransportStreamableHTTP, c.Server.Transport)
		assert.Equal(t, "127.0.0.1:9000", c.Server.HTTPAddr)
		assert.False(t, c.Server.MetricsOn())
		assert.Equal(t, ":9999", c.Server.MetricsAddr)
	})

	t.Run("env applies without flags", func(t *testing.T) {
		t.Setenv("METRICS_ENABLED", "false")
		t.Setenv("METRICS_ADDR", ":7070")

		c := config.Default()
		cmd := newServeCmd()
		applyServeOverrides(cmd, c, serveOptions{})

		assert.Equal(t, config.TransportStdio, c.Server.Transport)
		assert.Equal(t, ":8080", c.Server.HTTPAddr)
		assert.False(t, c.Server.MetricsOn())
		assert.Equal(t, ":7070", c.Server.MetricsAddr)
	})

	t.Run("defaults untouched", func(t *testing.T) {
		c := config.Default()
		applyServeOverrides(newServeCmd(), c, serveOptions{})

		assert.True(t, c.Server.MetricsOn())
		assert.Equal(t, ":9090", c.Server.MetricsAddr)
	})
}

func TestScheduleJobs(t *testing.T) {
	t.Run("learn schedule and snapshot with persistence", func(t *testing.T) {
		st, err := store.Open(filepath.Join(t.TempDir(), "inboxsort.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })

		c := config.Default()
		c.Learn.Schedule = "@every 1h"
		c.Persistence.Enabled = true
		sc := newTestServerContext(t, c, st)

		sched, err := scheduleJobs(sc, c, logging.Discard().Logger())
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{jobLearnGmail, jobSnapshot}, sched.Jobs())
	})

	t.Run("no schedule and no store", func(t *testing.T) {
		c := config.Default()
		sc := newTestServerContext(t, c, nil)

		sched, err := scheduleJobs(sc, c, logging.Discard().Logger())
		require.NoError(t, err)
		assert.Empty(t, sched.Jobs())
	})

	t.Run("snapshot job saves centroids", func(t *testing.T) {
		st, err := store.Open(filepath.Join(t.TempDir(), "inboxsort.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })

		c := config.Default()
		sc := newTestServerContext(t, c, st)
		m, _, err := vsm.Train(context.Background(), testCorpus(), logging.Discard())
		require.NoError(t, err)
		_, err = sc.Service().LoadModel(m)
		require.NoError(t, err)

		sched, err := scheduleJobs(sc, c, logging.Discard().Logger())
		require.NoError(t, err)
		require.NoError(t, sched.RunNow(context.Background(), jobSnapshot))

		centroids, err := st.LoadSnapshot(context.Background(), m.Fingerprint())
		require.NoError(t, err)
		assert.Len(t, centroids, 2)
	})
}

func TestLogJobSchedule(t *testing.T) {
	c := config.Default()
	c.Learn.Schedule = "@every 1h"
	sc := newTestServerContext(t, c, nil)

	sched, err := scheduleJobs(sc, c, logging.Discard().Logger())
	require.NoError(t, err)
	sched.Start()
	t.Cleanup(func() { _ = sched.Stop(context.Background()) })

	var buf bytes.Buffer
	logJobSchedule(sched, slog.New(slog.NewTextHandler(&buf, nil)))
	assert.Contains(t, buf.String(), "job=learn-gmail")
	assert.Contains(t, buf.String(), "next=")
}

func TestLearnOnStartup(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	t.Run("no learn schedule", func(t *testing.T) {
		c := config.Default()
		sc := newTestServerContext(t, c, nil)
		sched, err := scheduleJobs(sc, c, logging.Discard().Logger())
		require.NoError(t, err)

		assert.False(t, learnOnStartup(context.Background(), sched, logging.Discard().Logger()))
	})

	t.Run("runs the learn job", func(t *testing.T) {
		c := config.Default()
		c.Learn.Schedule = "@every 1h"
		sc := newTestServerContext(t, c, nil)

		var buf bytes.Buffer
		l := slog.New(slog.NewTextHandler(&buf, nil))
		sched, err := scheduleJobs(sc, c, l)
		require.NoError(t, err)

		assert.True(t, learnOnStartup(context.Background(), sched, l))
		// without a stored token the job fails and the scheduler logs it
		assert.Contains(t, buf.String(), "job failed")
		assert.Contains(t, buf.String(), "job=learn-gmail")
	})
}
