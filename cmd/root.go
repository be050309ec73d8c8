package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/concentra-cli/internal/config"
	"github.com/KaramelBytes/concentra-cli/internal/logger"
)

var (
	// Global flags
	cfgFile     string
	debug       bool
	flagWorkers int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "concentra",
	Short: "Concentra: how much of a measure the top N% of records hold, per period",
	Long: `Concentra loads CSV/TSV/XLSX tables, classifies their columns into numerical,
categorical and time roles, and reports concentration metrics: the share of each
measure held by the top 10/20/50% of records within every time period or group.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.concentra/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging to stderr")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "measures computed in parallel (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c
	if rootCmd.PersistentFlags().Changed("workers") && flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}
}

// newLogger returns a discard logger for one-shot commands unless --debug is set.
// Long-running commands pass always=true to log in the configured mode.
func newLogger(always bool) (*logger.Logger, error) {
	switch {
	case debug:
		return logger.New("dev")
	case always:
		return logger.New(cfg.LogMode)
	default:
		return logger.Nop(), nil
	}
}
