package main

import (
	"relint/internal/config"
	"relint/internal/logging"
	"relint/internal/version"

	"github.com/spf13/cobra"
)

var (
	// workspaceFlag is the CLI --workspace flag value
	workspaceFlag string
	// logLevelFlag overrides the configured log level
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "relint",
	Short: "relint - editor-integrated compile/lint runner",
	Long: `relint runs an external compiler or linter across a selected subset of a
workspace's projects from inside an interactive editing session. It classifies
tool output into structured diagnostics and, when the linter rewrites files in
place, suspends the editor's external-change notifications around the rewrite.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("relint version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", ".",
		"Workspace root containing the .relint directory")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error (default from config)")
}

// loadConfig reads the workspace configuration and builds the root logger.
// Precedence for the log level: CLI flag > config file > default.
func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(workspaceFlag)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(cfg.Logging.Format),
		Level:  logging.ParseLevel(level),
	})
	return cfg, logger, nil
}
