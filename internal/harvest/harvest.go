// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package harvest walks a researcher's profile and appends every citation
// not yet in the ledger. A run recomputes its resume point from the ledger,
// skips papers whose citations are already recorded, resumes inside the
// paper holding the resume point, and records everything after it.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/citation-harvester/internal/ledger"
	"github.com/pdiddy/citation-harvester/internal/scholar"
	"github.com/pdiddy/citation-harvester/pkg/types"
)

// ErrDesync reports a ledger holding more citations than the source now
// reports. Someone has to inspect the ledger before harvesting again.
var ErrDesync = errors.New("ledger is ahead of the source")

// PageFetcher fetches and parses one page. Errors are fatal to the run.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// PDFDownloader saves the PDF for a citation index and returns its path.
type PDFDownloader interface {
	Download(ctx context.Context, url string, index int) (string, error)
}

// State is the controller's position relative to the resume point.
type State int

const (
	// StateFresh: the ledger holds no citations yet.
	StateFresh State = iota
	// StateSkipping: papers so far are fully recorded and only counted.
	StateSkipping
	// StateResuming: walking the paper that holds the resume point.
	StateResuming
	// StateAppending: recording every citation of every later paper.
	StateAppending
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateSkipping:
		return "skipping"
	case StateResuming:
		return "resuming"
	case StateAppending:
		return "appending"
	default:
		return "unknown"
	}
}

// Controller holds the state of one harvest run.
type Controller struct {
	cfg     types.HarvestConfig
	fetcher PageFetcher
	pdf     PDFDownloader
	ledger  *ledger.Writer
	log     *slog.Logger

	state  State
	cursor ledger.Cursor
	seen   int // running total of reported per-paper counts
	index  int // last index written to the ledger

	summary types.RunSummary
}

// New creates a Controller. pdf may be nil; it is only used when
// cfg.ShouldDownload is set.
func New(cfg types.HarvestConfig, fetcher PageFetcher, pdf PDFDownloader, logger *slog.Logger) *Controller {
	cfg = cfg.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.ShouldDownload {
		pdf = nil
	}
	return &Controller{
		cfg:     cfg,
		fetcher: fetcher,
		pdf:     pdf,
		ledger:  ledger.NewWriter(cfg.LedgerPath),
		log:     logger,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	return c.state
}

// Run harvests until the last paper list page. The returned summary is
// valid even when err is non-nil and reflects what reached the ledger.
func (c *Controller) Run(ctx context.Context) (types.RunSummary, error) {
	total, err := c.totalCitations(ctx)
	if err != nil {
		return c.finish(), err
	}
	c.summary.TotalCitations = total

	cur, err := ledger.Locate(c.cfg.LedgerPath)
	if err != nil {
		return c.finish(), fmt.Errorf("locating resume point: %w", err)
	}
	if cur.Index > total {
		c.log.Error("unexpected start citation number", "start", cur.Index, "total", total)
		return c.finish(), fmt.Errorf("%w: start citation %d, total citations %d", ErrDesync, cur.Index, total)
	}

	c.cursor = cur
	c.index = cur.Index
	c.seen = 0
	c.summary.ResumedFrom = cur.Index
	if cur.Index == 0 {
		c.state = StateFresh
	} else {
		c.state = StateSkipping
		c.log.Info("start from citation", "index", cur.Index, "paper", cur.Paper)
	}

	for page := 0; ; page++ {
		pageURL, err := scholar.PaperListURL(c.cfg.SourceURI, page)
		if err != nil {
			return c.finish(), err
		}
		c.log.Info("processing paper list", "url", pageURL)

		doc, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return c.finish(), err
		}
		list, err := scholar.ParsePaperList(doc)
		if err != nil {
			return c.finish(), fmt.Errorf("paper list page %d: %w", page, err)
		}

		for _, p := range list.Papers {
			if err := c.visitPaper(ctx, p); err != nil {
				return c.finish(), err
			}
		}

		if !list.HasNext {
			break
		}
	}
	return c.finish(), nil
}

func (c *Controller) totalCitations(ctx context.Context) (int, error) {
	doc, err := c.fetcher.Fetch(ctx, c.cfg.SourceURI)
	if err != nil {
		return 0, err
	}
	total, err := scholar.TotalCitations(doc)
	if err != nil {
		return 0, fmt.Errorf("profile %s: %w", c.cfg.SourceURI, err)
	}
	c.log.Info("total citations number", "total", total)
	return total, nil
}

// visitPaper advances the state machine by one paper.
func (c *Controller) visitPaper(ctx context.Context, p scholar.Paper) error {
	c.log.Info("processing paper", "title", p.Title)
	if p.CitationsURL == "" || p.CitationCount <= 0 {
		c.log.Warn("current paper has not been cited", "title", p.Title)
		return nil
	}
	c.seen += p.CitationCount

	if c.state == StateAppending {
		return c.walkPaper(ctx, p, 0, true)
	}

	// Fresh or skipping: the paper is fully recorded until the running
	// total passes the resume point.
	if c.seen <= c.cursor.Index {
		c.state = StateSkipping
		c.log.Debug("paper already recorded", "title", p.Title, "seen", c.seen)
		return nil
	}

	offset := p.CitationCount - (c.seen - c.cursor.Index)
	c.state = StateResuming
	c.log.Debug("continue from paper", "title", p.Title, "start_index", offset)

	// The comment line may already be on disk: above the last citation when
	// resuming mid-paper, or after it when the last run stopped before the
	// paper's first citation.
	title := ledger.NormalizeTitle(p.Title)
	comment := true
	if offset > 0 {
		comment = title != c.cursor.Paper
	} else if title == c.cursor.Pending {
		comment = false
		c.log.Debug("comment line already written", "title", title)
	}
	if err := c.walkPaper(ctx, p, offset, comment); err != nil {
		return err
	}
	c.state = StateAppending
	return nil
}

func (c *Controller) walkPaper(ctx context.Context, p scholar.Paper, offset int, comment bool) error {
	if comment {
		if err := c.ledger.AppendComment(p.Title); err != nil {
			return err
		}
	}
	c.summary.PapersVisited++
	return c.walkCitations(ctx, p.CitationsURL, p.CitationCount, offset)
}

// walkCitations fetches the citation list pages covering count-offset
// citations and records each citable block in page order.
func (c *Controller) walkCitations(ctx context.Context, citationsURL string, count, offset int) error {
	pages := scholar.CitationPages(count, offset)
	for page := 0; page < pages; page++ {
		pageURL, err := scholar.CitationListURL(citationsURL, page*scholar.CitationsPerPage+offset)
		if err != nil {
			return err
		}
		c.log.Debug("processing citations", "url", pageURL)

		doc, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return err
		}
		blocks, skipped := scholar.ParseCitationBlocks(doc)
		c.summary.Skipped += skipped
		for _, b := range blocks {
			if err := c.record(ctx, b); err != nil {
				return err
			}
		}
	}
	return nil
}

// record fetches the formatted citation, appends it under the next index,
// and downloads its PDF when enabled.
func (c *Controller) record(ctx context.Context, b scholar.CitationBlock) error {
	detailURL := scholar.CiteDetailURL(c.cfg.CiteBaseURI, b.ID)
	c.log.Info("getting formatted cite", "url", detailURL)

	doc, err := c.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		return err
	}
	text, err := scholar.FormattedCitation(doc)
	if err != nil {
		return fmt.Errorf("citation %s: %w", b.ID, err)
	}

	next := c.index + 1
	if err := c.ledger.AppendCitation(next, text); err != nil {
		return err
	}
	c.index = next
	c.summary.Recorded++

	if c.pdf != nil && b.PDFURL != "" {
		path, err := c.pdf.Download(ctx, b.PDFURL, next)
		if err != nil {
			c.log.Error("can't download link", "url", b.PDFURL, "error", err)
			return nil
		}
		c.summary.Downloaded++
		c.log.Info("downloaded citation", "index", next, "url", b.PDFURL, "path", path)
	}
	return nil
}

func (c *Controller) finish() types.RunSummary {
	s := c.summary
	s.LastIndex = c.index
	return s
}
