package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/harvest/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "harvestctl",
	Short: "Operate the harvest listing extractor from the command line",
	Long:  "Runs listing extraction in-process, applies the scraped_data schema and inspects stored records.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		initLogger(cfg.Log)
		return nil
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initLogger configures slog on stderr so command output on stdout stays
// machine-readable.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
