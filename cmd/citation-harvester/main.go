// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citation-harvester CLI.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citation-harvester/internal/harvest"
)

// version is set at build time via ldflags.
var version = "dev"

// Process exit codes.
const (
	exitOK     = 0
	exitFatal  = 1
	exitDesync = 2
)

// rootCmd is the base command for the citation-harvester CLI.
var rootCmd = &cobra.Command{
	Use:   "citation-harvester",
	Short: "Harvest citations of a researcher's papers into a ledger",
	Long: `citation-harvester walks a Google Scholar profile, collects the formatted
citation of every work citing the profile's papers, and appends them to a
numbered plain-text ledger. Each run resumes after the last recorded citation.

Optionally it saves the openly linked PDF of each citing work as <index>.pdf.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(setupLogger(viper.GetBool("verbose"), viper.GetString("log_level")))
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citation-harvester.yaml or ~/.config/citation-harvester/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("ledger", "citation.txt", "citation ledger file")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("ledger", rootCmd.PersistentFlags().Lookup("ledger"))
	viper.SetDefault("log_level", "info")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("citation-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "citation-harvester"))
		}
	}

	viper.SetEnvPrefix("CITATION_HARVESTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setupLogger builds the stderr text logger. verbose wins over level.
func setupLogger(verbose bool, level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, harvest.ErrDesync):
		return exitDesync
	default:
		return exitFatal
	}
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		slog.Error("citation-harvester failed", "error", err)
	}
	os.Exit(exitCode(err))
}
