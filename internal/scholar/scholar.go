// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scholar turns fetched profile pages into typed records and builds
// the URLs the harvest walks. It knows the page markup and nothing else.
package scholar

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page sizes imposed by the source. The paper list and the citation list
// paginate independently.
const (
	PapersPerPage    = 20
	CitationsPerPage = 10
)

// ErrMalformedPage reports that a page lacks structure the harvest depends on.
var ErrMalformedPage = errors.New("malformed page")

// Paper is one row of the profile's paper list.
type Paper struct {
	// Title has its whitespace collapsed to single spaces.
	Title string

	// CitationsURL lists the works citing this paper. Empty when uncited.
	CitationsURL string

	// CitationCount is the count the source currently reports.
	CitationCount int
}

// PaperList is one page of the profile's paper list.
type PaperList struct {
	Papers  []Paper
	HasNext bool
}

// CitationBlock is one citing work on a citation list page.
type CitationBlock struct {
	// ID is the opaque token used to request the formatted citation.
	ID string

	// PDFURL is a direct PDF link, when the source offers one.
	PDFURL string
}

// TotalCitations reads the profile's all-time citation total.
func TotalCitations(doc *goquery.Document) (int, error) {
	cell := doc.Find("td.gsc_rsb_std").First()
	if cell.Length() == 0 {
		return 0, fmt.Errorf("%w: no citation total on profile", ErrMalformedPage)
	}
	n, err := strconv.Atoi(strings.TrimSpace(cell.Text()))
	if err != nil {
		return 0, fmt.Errorf("%w: citation total %q: %v", ErrMalformedPage, cell.Text(), err)
	}
	return n, nil
}

// ParsePaperList extracts paper rows and the pagination state.
func ParsePaperList(doc *goquery.Document) (PaperList, error) {
	var list PaperList
	var parseErr error
	doc.Find("tr.gsc_a_tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		title := strings.Join(strings.Fields(row.Find("a.gsc_a_at").First().Text()), " ")
		p := Paper{Title: title}

		anchor := row.Find("a.gsc_a_ac").First()
		href, _ := anchor.Attr("href")
		count := strings.TrimSpace(anchor.Text())
		if href != "" && count != "" {
			n, err := strconv.Atoi(count)
			if err != nil {
				parseErr = fmt.Errorf("%w: citation count %q for %q", ErrMalformedPage, count, title)
				return false
			}
			p.CitationCount = n
			p.CitationsURL = resolve(doc, href)
		}
		list.Papers = append(list.Papers, p)
		return true
	})
	if parseErr != nil {
		return PaperList{}, parseErr
	}

	next := doc.Find("button#gsc_bpf_next").First()
	if next.Length() > 0 {
		_, disabled := next.Attr("disabled")
		list.HasNext = !disabled
	}
	return list, nil
}

// ParseCitationBlocks returns the citable blocks of a citation list page in
// page order. Blocks without an identifier are counted but not returned.
func ParseCitationBlocks(doc *goquery.Document) (blocks []CitationBlock, skipped int) {
	doc.Find("div.gs_r").Each(func(_ int, s *goquery.Selection) {
		id, ok := blockID(s)
		if !ok {
			skipped++
			return
		}
		b := CitationBlock{ID: id}
		if href, ok := s.Find("div.gs_ggs.gs_fl a").First().Attr("href"); ok && href != "" {
			b.PDFURL = resolve(doc, href)
		}
		blocks = append(blocks, b)
	})
	return blocks, skipped
}

// FormattedCitation returns the rendered citation text of a cite detail page.
func FormattedCitation(doc *goquery.Document) (string, error) {
	sel := doc.Find("div#gs_cit0").First()
	if sel.Length() == 0 {
		sel = doc.Find(".gs_citr").First()
	}
	text := strings.TrimSpace(sel.Text())
	if text == "" {
		return "", fmt.Errorf("%w: no formatted citation", ErrMalformedPage)
	}
	return text, nil
}

// CitationID pulls the citation token out of a cite control's onclick
// handler, e.g. `gs_ocit(event,'Xk3vQ1dJ9ZUJ','0')` yields "Xk3vQ1dJ9ZUJ".
// The token is the second argument with its quotes stripped.
func CitationID(onclick string) (string, bool) {
	parts := strings.Split(onclick, ",")
	if len(parts) < 2 {
		return "", false
	}
	arg := strings.TrimSpace(parts[1])
	if len(arg) < 2 {
		return "", false
	}
	q := arg[0]
	if (q != '\'' && q != '"') || arg[len(arg)-1] != q {
		return "", false
	}
	id := arg[1 : len(arg)-1]
	if id == "" {
		return "", false
	}
	return id, true
}

func blockID(s *goquery.Selection) (string, bool) {
	onclick, ok := s.Find(`a.gs_nph[href="#"][role="button"]`).First().Attr("onclick")
	if !ok {
		return "", false
	}
	return CitationID(onclick)
}

// resolve makes href absolute against the page it came from.
func resolve(doc *goquery.Document, href string) string {
	if doc.Url == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return doc.Url.ResolveReference(ref).String()
}
