// Command casewatch watches an HR case-management API and surfaces derived
// notifications in a terminal UI or on stdout.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/casewatch/internal/logger"
	"github.com/nhle/casewatch/internal/model"
)

var (
	// Global flags
	cfgPath  string
	logLevel string
	envFile  string

	cfg *model.AppConfig
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "casewatch",
	Short: "Notifications for HR alerts and cases",
	Long: `casewatch polls the HR case-management API, derives notifications
from alerts and cases, and remembers which ones you have already seen.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}

		var err error
		cfg, err = model.LoadConfig(cfgPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}

		// The TUI owns the terminal, so its logs go to a file.
		logFile := cfg.Log.File
		if logFile == "" && isTUI(cmd) {
			logFile = filepath.Join(filepath.Dir(cfgPath), "casewatch.log")
			if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
				return fmt.Errorf("creating log directory: %w", err)
			}
		}

		log, err = logger.New(cfg.Log.Level, cfg.Log.Format, logFile)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: runTUI,
}

// isTUI reports whether cmd starts the interactive interface: either the
// tui subcommand or the bare root command.
func isTUI(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "tui"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", model.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading config")

	rootCmd.AddCommand(tuiCmd, watchCmd, listCmd, ackCmd, statusCmd, signalCmd, configureCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "casewatch: %v\n", err)
		os.Exit(1)
	}
}
