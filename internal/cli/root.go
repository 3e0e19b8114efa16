package cli

import (
	"log/slog"
	"os"

	"github.com/ogulcanaydogan/budget-alert-relay/internal/config"
	"github.com/ogulcanaydogan/budget-alert-relay/pkg/alerts"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Budget alert relay - forward budget notifications to a chat webhook",
	Long: `budget-alert-relay receives budget alert events from a notification topic
and posts each alert as a formatted message to an incoming webhook.
It can process a single event batch from a file or run as an HTTP endpoint.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.relay/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// NewLogger creates a structured logger from config.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// NewDispatcher creates a dispatcher wired to an HTTP webhook client.
func NewDispatcher(cfg *config.Config, logger *slog.Logger) *alerts.Dispatcher {
	return alerts.NewDispatcher(alerts.NewWebhookClient(cfg.HTTPTimeout()), logger)
}
