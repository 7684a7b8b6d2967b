// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scholar

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PaperListURL returns the profile URL for paper list page n (zero-based).
func PaperListURL(sourceURI string, page int) (string, error) {
	return withParams(sourceURI,
		param{"cstart", page * PapersPerPage},
		param{"pagesize", PapersPerPage},
	)
}

// CitationListURL returns the citation list URL starting at the given
// absolute offset.
func CitationListURL(citationsURL string, start int) (string, error) {
	return withParams(citationsURL, param{"start", start})
}

// CiteDetailURL returns the formatted-citation URL for a citation token.
// The query is assembled verbatim; the source expects the unescaped form.
func CiteDetailURL(base, id string) string {
	return base + "?q=info:" + id + ":scholar.google.com/&output=cite"
}

// CitationPages returns how many citation list pages cover the citations
// from offset to count.
func CitationPages(count, offset int) int {
	remaining := count - offset
	if remaining <= 0 {
		return 0
	}
	return (remaining + CitationsPerPage - 1) / CitationsPerPage
}

type param struct {
	key   string
	value int
}

// withParams appends params to raw's query in order. The existing query is
// kept byte for byte apart from earlier values of the same keys.
func withParams(raw string, params ...param) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing %q: %w", raw, err)
	}

	replaced := make(map[string]bool, len(params))
	for _, p := range params {
		replaced[p.key] = true
	}

	var pairs []string
	if u.RawQuery != "" {
		for _, pair := range strings.Split(u.RawQuery, "&") {
			key, _, _ := strings.Cut(pair, "=")
			if k, err := url.QueryUnescape(key); err == nil && replaced[k] {
				continue
			}
			pairs = append(pairs, pair)
		}
	}
	for _, p := range params {
		pairs = append(pairs, p.key+"="+strconv.Itoa(p.value))
	}
	u.RawQuery = strings.Join(pairs, "&")
	return u.String(), nil
}
