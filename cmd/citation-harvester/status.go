// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/citation-harvester/internal/ledger"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the next harvest will resume",
	Long: `Status scans the ledger the same way harvest does at startup and prints
the last recorded citation index and the paper it belongs to. It makes no
network requests.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(statusCmd)
}

type statusOutput struct {
	Ledger    string `json:"ledger"`
	LastIndex int    `json:"last_index"`
	Paper     string `json:"paper,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	path := viper.GetString("ledger")
	cur, err := ledger.Locate(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(statusOutput{Ledger: path, LastIndex: cur.Index, Paper: cur.Paper})
	}

	if cur.Index == 0 {
		fmt.Fprintf(out, "%s: no citations recorded; next harvest starts fresh\n", path)
		return nil
	}
	fmt.Fprintf(out, "%s: last citation [%d]", path, cur.Index)
	if cur.Paper != "" {
		fmt.Fprintf(out, " in %q", cur.Paper)
	}
	fmt.Fprintf(out, "; next harvest resumes at [%d]\n", cur.Index+1)
	return nil
}
