package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bit4id/siaep7/config"
	"github.com/bit4id/siaep7/internal/telemetry"
)

var (
	argConfig   string
	argLogLevel string
	argLogFile  string

	currentConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "siaep7",
	PersistentPreRunE: setup,
	RunE:              bailWithUsage,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&argConfig, "config", "c", "", "configuration file")
	rootCmd.PersistentFlags().StringVar(&argLogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&argLogFile, "log-file", "", "log file path, or \"-\" for JSON to stderr")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := telemetry.Setup(argLogLevel, argLogFile); err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	if argConfig != "" {
		cfg, err := config.ReadFile(argConfig)
		if err != nil {
			return fmt.Errorf("loading %q: %w", argConfig, err)
		}
		currentConfig = cfg
	} else {
		currentConfig = &config.Config{}
	}
	return nil
}

func bailWithUsage(cmd *cobra.Command, args []string) error {
	return errors.New("expected a subcommand")
}

// Main is the CLI entry point.
func Main() {
	defer manager.Close()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
