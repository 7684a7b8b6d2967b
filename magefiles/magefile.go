//go:build mage

// Package main contains Mage build targets for citation-harvester developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"

	"github.com/pdiddy/citation-harvester/internal/ledger"
)

const (
	binDir  = "bin"
	binName = "citation-harvester"
	cmdPkg  = "./cmd/citation-harvester"
)

// Default target when mage runs without arguments.
var Default = Build

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || version == "" {
		version = "dev"
	}
	ldflags := "-X main.version=" + version
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s (%s)\n", out, version)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Check vets and tests the module.
func Check() error {
	mg.SerialDeps(Vet, Test)
	return nil
}

// Vet runs go vet.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}

// Stats prints ledger metrics: papers, citations, and PDFs saved by index.
// CITATION_HARVESTER_LEDGER and CITATION_HARVESTER_DOWNLOAD_DIR override the
// default locations.
func Stats() error {
	path := envOr("CITATION_HARVESTER_LEDGER", "citation.txt")
	dir := envOr("CITATION_HARVESTER_DOWNLOAD_DIR", ".")

	sections, err := ledger.Read(path)
	if err != nil {
		return fmt.Errorf("reading ledger: %w", err)
	}
	citations, papers := 0, 0
	for _, s := range sections {
		citations += len(s.Citations)
		if s.Title != "" {
			papers++
		}
	}
	cur, err := ledger.Locate(path)
	if err != nil {
		return err
	}
	pdfs, err := countIndexedPDFs(dir)
	if err != nil {
		return err
	}

	fmt.Printf("Papers (comment lines):   %d\n", papers)
	fmt.Printf("Citations recorded:       %d\n", citations)
	fmt.Printf("Last citation index:      %d\n", cur.Index)
	fmt.Printf("PDFs saved (%s): %d\n", dir, pdfs)
	return nil
}

// countIndexedPDFs counts <index>.pdf files directly under dir.
func countIndexedPDFs(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading %s: %w", dir, err)
	}
	total := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".pdf" {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimSuffix(name, ".pdf")); err == nil && n > 0 {
			total++
		}
	}
	return total, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

const configFile = "citation-harvester.yaml"

const starterConfig = `# citation-harvester configuration
source_uri: "https://scholar.google.com/citations?user=REPLACE_ME&hl=en"
should_download: false
ledger: citation.txt
download_dir: .
delay: 60s
user_agent: "Innocent Browser"
log_level: info
`

// Init writes a starter citation-harvester.yaml unless one exists.
func Init() error {
	if _, err := os.Stat(configFile); err == nil {
		fmt.Printf("%s already exists\n", configFile)
		return nil
	}
	if err := os.WriteFile(configFile, []byte(starterConfig), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configFile, err)
	}
	fmt.Printf("Wrote %s\n", configFile)
	return nil
}
