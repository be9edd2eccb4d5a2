// Package config loads inboxsort settings from a YAML file with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/teemow/inboxsort/internal/logging"
)

// DefaultPath is used when neither --config nor INBOXSORT_CONFIG is set.
const DefaultPath = "inboxsort.yaml"

// Supported MCP transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// DefaultLabels are the categories learned from Gmail when none are configured.
var DefaultLabels = []string{"Work", "Personal", "Promotion", "Social", "Spam", "Phishing", "Game", "Education"}

type Config struct {
	ModelPath   string            `yaml:"model_path"`
	Log         LogConfig         `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
	Learn       LearnConfig       `yaml:"learn"`
	Gmail       GmailConfig       `yaml:"gmail"`
	Persistence PersistenceConfig `yaml:"persistence"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Transport      string `yaml:"transport"`
	HTTPAddr       string `yaml:"http_addr"`
	MetricsEnabled *bool  `yaml:"metrics_enabled"`
	MetricsAddr    string `yaml:"metrics_addr"`
}

// LearnConfig controls incremental learning.
type LearnConfig struct {
	QueueSize int `yaml:"queue_size"`
	// Schedule is a cron spec for learning from Gmail labels. Empty disables it.
	Schedule    string   `yaml:"schedule"`
	Labels      []string `yaml:"labels"`
	MaxPerLabel int      `yaml:"max_per_label"`
	// OnStartup runs the scheduled learn once when serve starts.
	OnStartup bool `yaml:"on_startup"`
}

type GmailConfig struct {
	Account       string `yaml:"account"`
	ClassifyQuery string `yaml:"classify_query"`
	MaxResults    int    `yaml:"max_results"`
}

// PersistenceConfig controls saving adapted centroids across restarts.
type PersistenceConfig struct {
	Enabled          bool   `yaml:"enabled"`
	DBPath           string `yaml:"db_path"`
	SnapshotSchedule string `yaml:"snapshot_schedule"`
}

// MetricsOn reports whether the metrics server should run.
func (s ServerConfig) MetricsOn() bool {
	return s.MetricsEnabled == nil || *s.MetricsEnabled
}

// Load reads the config file at path. An empty path falls back to
// INBOXSORT_CONFIG and then DefaultPath; only an explicitly named file has
// to exist. Environment overrides and defaults are applied afterwards.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv("INBOXSORT_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a Config with defaults only, ignoring files and environment.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() error {
	envOverride(&c.ModelPath, "INBOXSORT_MODEL_PATH")
	envOverride(&c.Log.Level, "INBOXSORT_LOG_LEVEL")
	envOverride(&c.Log.Format, "INBOXSORT_LOG_FORMAT")
	envOverride(&c.Learn.Schedule, "INBOXSORT_LEARN_SCHEDULE")
	envOverride(&c.Gmail.Account, "INBOXSORT_GMAIL_ACCOUNT")
	envOverride(&c.Persistence.DBPath, "INBOXSORT_DB_PATH")
	envOverride(&c.Server.MetricsAddr, "METRICS_ADDR")
	if err := envOverrideBool(&c.Persistence.Enabled, "INBOXSORT_PERSISTENCE"); err != nil {
		return err
	}
	if err := envOverrideBool(&c.Learn.OnStartup, "INBOXSORT_LEARN_ON_STARTUP"); err != nil {
		return err
	}
	return envOverrideInt(&c.Learn.MaxPerLabel, "INBOXSORT_LEARN_MAX_PER_LABEL")
}

func (c *Config) applyDefaults() {
	setDefault(&c.ModelPath, "model.json")
	setDefault(&c.Log.Level, "info")
	setDefault(&c.Log.Format, logging.FormatText)
	setDefault(&c.Server.Transport, TransportStdio)
	setDefault(&c.Server.HTTPAddr, ":8080")
	setDefault(&c.Server.MetricsAddr, ":9090")
	setDefault(&c.Gmail.Account, "default")
	setDefault(&c.Gmail.ClassifyQuery, "in:inbox")
	setDefault(&c.Persistence.DBPath, "inboxsort.db")
	setDefault(&c.Persistence.SnapshotSchedule, "@every 15m")

	if c.Learn.QueueSize == 0 {
		c.Learn.QueueSize = 64
	}
	if c.Learn.MaxPerLabel == 0 {
		c.Learn.MaxPerLabel = 50
	}
	if len(c.Learn.Labels) == 0 {
		c.Learn.Labels = append([]string(nil), DefaultLabels...)
	}
	if c.Gmail.MaxResults == 0 {
		c.Gmail.MaxResults = 25
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	switch c.Server.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		errs = append(errs, fmt.Errorf("unsupported transport %q (supported: stdio, streamable-http)", c.Server.Transport))
	}
	if c.Learn.Schedule != "" {
		if _, err := cron.ParseStandard(c.Learn.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid learn schedule %q: %w", c.Learn.Schedule, err))
		}
	}
	if c.Persistence.Enabled {
		if _, err := cron.ParseStandard(c.Persistence.SnapshotSchedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid snapshot schedule %q: %w", c.Persistence.SnapshotSchedule, err))
		}
	}
	if c.Learn.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("learn queue size must be positive, got %d", c.Learn.QueueSize))
	}
	if c.Learn.MaxPerLabel < 1 || c.Learn.MaxPerLabel > 500 {
		errs = append(errs, fmt.Errorf("learn max_per_label must be between 1 and 500, got %d", c.Learn.MaxPerLabel))
	}
	if c.Gmail.MaxResults < 1 || c.Gmail.MaxResults > 500 {
		errs = append(errs, fmt.Errorf("gmail max_results must be between 1 and 500, got %d", c.Gmail.MaxResults))
	}

	return errors.Join(errs...)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideBool(field *bool, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
