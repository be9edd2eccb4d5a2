package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inboxsort.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INBOXSORT_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "model.json", cfg.ModelPath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "stdio", cfg.Server.Transport)
	assert.True(t, cfg.Server.MetricsOn())
	assert.Equal(t, 64, cfg.Learn.QueueSize)
	assert.Equal(t, 50, cfg.Learn.MaxPerLabel)
	assert.Equal(t, DefaultLabels, cfg.Learn.Labels)
	assert.Equal(t, "default", cfg.Gmail.Account)
	assert.False(t, cfg.Persistence.Enabled)
	assert.Equal(t, "inboxsort.db", cfg.Persistence.DBPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
model_path: /data/model.json
log:
  level: debug
  format: json
server:
  transport: streamable-http
  metrics_enabled: false
learn:
  schedule: "@every 1h"
  labels: [Work, Spam]
  on_startup: true
persistence:
  enabled: true
  db_path: /data/yaml.db
`)
	t.Setenv("INBOXSORT_DB_PATH", "/data/env.db")
	t.Setenv("INBOXSORT_LOG_LEVEL", "warn")
	t.Setenv("INBOXSORT_LEARN_MAX_PER_LABEL", "10")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/model.json", cfg.ModelPath)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "streamable-http", cfg.Server.Transport)
	assert.False(t, cfg.Server.MetricsOn())
	assert.Equal(t, "@every 1h", cfg.Learn.Schedule)
	assert.Equal(t, []string{"Work", "Spam"}, cfg.Learn.Labels)
	assert.Equal(t, 10, cfg.Learn.MaxPerLabel)
	assert.True(t, cfg.Learn.OnStartup)
	assert.True(t, cfg.Persistence.Enabled)
	assert.Equal(t, "/data/env.db", cfg.Persistence.DBPath)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ConfigFromEnv(t *testing.T) {
	path := writeConfig(t, "model_path: from-env.json\n")
	t.Setenv("INBOXSORT_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env.json", cfg.ModelPath)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("explicit missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("invalid env int", func(t *testing.T) {
		t.Setenv("INBOXSORT_LEARN_MAX_PER_LABEL", "many")
		_, err := Load(writeConfig(t, ""))
		assert.Error(t, err)
	})

	t.Run("invalid env bool", func(t *testing.T) {
		t.Setenv("INBOXSORT_PERSISTENCE", "maybe")
		_, err := Load(writeConfig(t, ""))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"bad transport", func(c *Config) { c.Server.Transport = "sse" }},
		{"bad learn schedule", func(c *Config) { c.Learn.Schedule = "every now and then" }},
		{"bad snapshot schedule", func(c *Config) {
			c.Persistence.Enabled = true
			c.Persistence.SnapshotSchedule = "* * *"
		}},
		{"max per label too large", func(c *Config) { c.Learn.MaxPerLabel = 1000 }},
		{"max results zero", func(c *Config) { c.Gmail.MaxResults = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("INBOXSORT_MODEL_PATH", "ignored.json")

	cfg := Default()
	assert.Equal(t, "model.json", cfg.ModelPath)
	assert.Equal(t, DefaultLabels, cfg.Learn.Labels)
	assert.NoError(t, cfg.Validate())
}
