// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-harvester/internal/download"
	"github.com/pdiddy/citation-harvester/internal/harvest"
	"github.com/pdiddy/citation-harvester/internal/httputil"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Append new citations from the profile to the ledger",
	Long: `Harvest fetches the profile's citation total, recomputes the resume point
from the ledger, and walks every paper list page and citation list page in
source order, appending each citation not yet recorded.

Requests are strictly sequential with a fixed delay before each. A bot
verification page or any fetch error stops the run (exit 1); a ledger that
holds more citations than the profile reports stops it with exit 2.`,
	RunE: runHarvest,
}

func init() {
	f := harvestCmd.Flags()
	f.String("source-uri", "", "profile listing URL, e.g. https://scholar.google.com/citations?user=XXXX&hl=en")
	f.Bool("download", false, "download openly linked PDFs as <index>.pdf")
	f.String("download-dir", types.DefaultDownloadDir, "directory for downloaded PDFs")
	f.Duration("delay", types.DefaultDelay, "delay before every page request")
	f.String("user-agent", types.DefaultUserAgent, "User-Agent header for page requests")
	f.Duration("timeout", 0, "HTTP request timeout (0 = transport default)")
	f.String("cite-base-uri", types.DefaultCiteBaseURI, "endpoint serving formatted citations")
	f.String("format", "text", "run summary format: text, yaml or json")

	for key, flag := range map[string]string{
		"source_uri":      "source-uri",
		"should_download": "download",
		"download_dir":    "download-dir",
		"delay":           "delay",
		"user_agent":      "user-agent",
		"timeout":         "timeout",
		"cite_base_uri":   "cite-base-uri",
	} {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(harvestCmd)
}

// harvestConfig merges flags, environment, and config file into a
// validated HarvestConfig.
func harvestConfig() (types.HarvestConfig, error) {
	var cfg types.HarvestConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runHarvest(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if err := checkSummaryFormat(format); err != nil {
		return err
	}
	cfg, err := harvestConfig()
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Timeout}
	fetcher := httputil.NewFetcher(
		httputil.WithHTTPClient(client),
		httputil.WithDelay(cfg.Delay),
		httputil.WithUserAgent(cfg.UserAgent),
	)
	pdf := download.New(&http.Client{}, cfg.DownloadDir)

	logger := slog.Default()
	logger.Info("harvesting", "source", cfg.SourceURI, "ledger", cfg.LedgerPath,
		"delay", cfg.Delay, "download", cfg.ShouldDownload)

	summary, err := harvest.New(cfg, fetcher, pdf, logger).Run(cmd.Context())
	logger.Info("harvest finished", "requests", fetcher.Requests(),
		"recorded", summary.Recorded, "last_index", summary.LastIndex)
	if werr := writeSummary(cmd.OutOrStdout(), summary, format); werr != nil {
		logger.Error("writing run summary", "error", werr)
	}
	return err
}

func checkSummaryFormat(format string) error {
	switch format {
	case "text", "yaml", "json", "":
		return nil
	}
	return fmt.Errorf("unsupported format %q: use text, yaml or json", format)
}

// writeSummary prints the run summary in the requested format.
func writeSummary(w io.Writer, s types.RunSummary, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "text", "":
		printSummary(w, s)
		return nil
	default:
		return checkSummaryFormat(format)
	}
}

func printSummary(w io.Writer, s types.RunSummary) {
	fmt.Fprintf(w, "\nHarvest summary: %d recorded, %d downloaded, %d skipped (ledger at [%d] of %d reported, resumed from [%d])\n",
		s.Recorded, s.Downloaded, s.Skipped, s.LastIndex, s.TotalCitations, s.ResumedFrom)
}
