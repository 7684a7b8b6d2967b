package types

import (
	"fmt"
	"net/url"
	"time"
)

// Defaults for the harvest stage. They mirror the values the upstream
// profile tolerates without triggering its bot wall.
const (
	DefaultLedgerPath  = "citation.txt"
	DefaultDelay       = 60 * time.Second
	DefaultUserAgent   = "Innocent Browser"
	DefaultCiteBaseURI = "https://scholar.google.com/scholar"
	DefaultDownloadDir = "."
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero leaves the transport default.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with page requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// HarvestConfig holds settings for the harvest stage.
type HarvestConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// SourceURI is the profile listing endpoint, e.g.
	// "https://scholar.google.com/citations?user=XXXX&hl=en".
	SourceURI string `json:"source_uri" yaml:"source_uri" mapstructure:"source_uri"`

	// ShouldDownload enables best-effort PDF downloads for each new citation.
	ShouldDownload bool `json:"should_download" yaml:"should_download" mapstructure:"should_download"`

	// LedgerPath is the append-only citation ledger (default citation.txt).
	LedgerPath string `json:"ledger" yaml:"ledger" mapstructure:"ledger"`

	// DownloadDir receives <index>.pdf files (default working directory).
	DownloadDir string `json:"download_dir" yaml:"download_dir" mapstructure:"download_dir"`

	// Delay is the courtesy pause before every page request (default 60s).
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`

	// CiteBaseURI is the endpoint serving formatted citations.
	CiteBaseURI string `json:"cite_base_uri" yaml:"cite_base_uri" mapstructure:"cite_base_uri"`
}

// WithDefaults returns a copy of cfg with empty fields set to their defaults.
// A zero Delay is kept as is; callers decide whether zero means "use default".
func (cfg HarvestConfig) WithDefaults() HarvestConfig {
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = DefaultLedgerPath
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = DefaultDownloadDir
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.CiteBaseURI == "" {
		cfg.CiteBaseURI = DefaultCiteBaseURI
	}
	return cfg
}

// Validate reports configuration errors that would make a run meaningless.
func (cfg HarvestConfig) Validate() error {
	if cfg.SourceURI == "" {
		return fmt.Errorf("source_uri is required")
	}
	u, err := url.Parse(cfg.SourceURI)
	if err != nil {
		return fmt.Errorf("parsing source_uri: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("source_uri must be an http(s) URL, got %q", cfg.SourceURI)
	}
	if cfg.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %v", cfg.Delay)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", cfg.Timeout)
	}
	return nil
}
