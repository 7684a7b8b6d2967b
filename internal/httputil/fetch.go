// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil fetches profile pages politely: one request at a time,
// a fixed pause before each, and no retries. Any failure is fatal to the run.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ChallengeHeading is the primary heading of the source's bot-verification page.
const ChallengeHeading = "Please show you're not a robot"

const acceptCharset = "UTF-8,*;q=0.5"

// ErrChallenge reports that the source served its bot-verification page.
// A human has to clear it before the harvest can continue.
var ErrChallenge = errors.New("bot verification challenge: verify manually that you're not a robot")

// FatalError wraps any failure to obtain a page. The harvest never retries
// past one; it stops and leaves the ledger as it is on disk.
type FatalError struct {
	URL string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("can't open link %s: %v", e.URL, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err came from a failed page fetch.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Fetcher issues page requests with a fixed courtesy delay.
type Fetcher struct {
	client    *http.Client
	delay     time.Duration
	userAgent string
	sleep     func(ctx context.Context, d time.Duration) error

	requests int
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = hc
	}
}

// WithDelay sets the pause taken before every request.
func WithDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.delay = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithSleep replaces the delay implementation (for testing).
func WithSleep(fn func(ctx context.Context, d time.Duration) error) FetcherOption {
	return func(f *Fetcher) {
		f.sleep = fn
	}
}

// NewFetcher creates a Fetcher. Without options it uses http.DefaultClient's
// settings, no delay, and the default user agent.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{},
		userAgent: "Innocent Browser",
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Requests returns the number of requests issued so far.
func (f *Fetcher) Requests() int {
	return f.requests
}

// Fetch sleeps the courtesy delay, GETs url, and parses the body as HTML.
// Every error it returns is a *FatalError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := f.sleep(ctx, f.delay); err != nil {
		return nil, &FatalError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FatalError{URL: url, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Charset", acceptCharset)

	f.requests++
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FatalError{URL: url, Err: fmt.Errorf("HTTP request: %w", err)}
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FatalError{URL: url, Err: fmt.Errorf("parsing HTML: %w", err)}
	}
	doc.Url = resp.Request.URL

	// The challenge page may arrive with an error status; name it first.
	if IsChallenge(doc) {
		return nil, &FatalError{URL: url, Err: ErrChallenge}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FatalError{URL: url, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	return doc, nil
}

// IsChallenge reports whether the page's primary heading is the
// bot-verification text.
func IsChallenge(doc *goquery.Document) bool {
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return false
	}
	return strings.TrimSpace(h1.Text()) == ChallengeHeading
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
