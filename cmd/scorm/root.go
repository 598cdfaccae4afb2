package main

import (
	"fmt"
	"os"

	"github.com/aretw0/scorm/internal/cli"
	"github.com/aretw0/scorm/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scorm",
	Short: "scorm hosts SCORM 2004 content sessions",
	Long: `scorm is a SCORM 2004 run-time environment. It tracks learner attempts,
enforces the data model rules and persists attempts to memory, files, SQLite or Redis.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (SCORM_* variables override it)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig reads --config and applies --log-level on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

// openRuntime wires the configured store and session manager.
func openRuntime(cmd *cobra.Command) (*cli.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.CreateLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	return cli.Build(cfg, logger)
}
