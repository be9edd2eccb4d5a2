package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsort/internal/config"
	"github.com/teemow/inboxsort/internal/logging"
)

// rootCmd represents the base command for the inboxsort application
var rootCmd = &cobra.Command{
	Use:   "inboxsort",
	Short: "Sorts email into categories with a vector-space classifier",
	Long: `inboxsort classifies email into categories (Work, Personal, Promotion,
Social, Spam, Phishing, Game, Education) with a TF-IDF centroid classifier
that keeps learning from labelled mail.

It can run as:
  - A CLI to train, classify, learn and export models
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// version will be set by main
var version = "dev"

var (
	configPath string
	logLevel   string
	logFormat  string
	modelPath  string

	// cfg and logger are set before any subcommand runs.
	cfg    *config.Config
	logger *slog.Logger
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxsort version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $INBOXSORT_CONFIG or ./inboxsort.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&modelPath, "model", "", "Model artifact path")

	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newLearnCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig reads the config file, applies flag overrides and installs the
// default logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, loaded)
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	l, err := logging.New(loaded.Log.Level, loaded.Log.Format, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(l)

	cfg, logger = loaded, l
	return nil
}

func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		c.Log.Format = logFormat
	}
	if flags.Changed("model") {
		c.ModelPath = modelPath
	}
}
