package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/canopyhq/canopy/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "Canopy compiles orchestration graphs and drives agent runs",
	Long: `Canopy turns visual orchestration graphs into executable specs and
streams agent run execution from the backend, with pause and resume.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("backend", "http://localhost:8080", "Base URL of the run backend")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}

// newLogger builds the CLI logger from the persistent --log-level flag.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.New(logging.ParseLevel(level))
}
