// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakePaper is one publication served by fakeScholar.
type fakePaper struct {
	title string
	count int

	// uncitable lists citation positions rendered without a cite control.
	uncitable map[int]bool
	// pdf lists citation positions offering a PDF link.
	pdf map[int]bool
}

// fakeScholar serves profile, paper list, citation list, cite detail and
// PDF pages from in-memory counts. Paper i's citation j has id "p<i>c<j>".
type fakeScholar struct {
	papers []fakePaper
	total  int

	challengeID string
	malformedID string
	brokenPDF   map[string]bool

	mu   sync.Mutex
	hits []string

	server *httptest.Server
}

func newFakeScholar(t *testing.T, counts ...int) *fakeScholar {
	t.Helper()
	fs := &fakeScholar{brokenPDF: map[string]bool{}}
	for i, n := range counts {
		fs.papers = append(fs.papers, fakePaper{title: fmt.Sprintf("Paper %d", i), count: n})
		fs.total += n
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/citations", fs.handleProfile)
	mux.HandleFunc("/scholar", fs.handleCitationList)
	mux.HandleFunc("/cite", fs.handleCite)
	mux.HandleFunc("/pdf/", fs.handlePDF)
	fs.server = httptest.NewServer(mux)
	t.Cleanup(fs.server.Close)
	return fs
}

func (fs *fakeScholar) sourceURI() string { return fs.server.URL + "/citations?user=abc&hl=en" }
func (fs *fakeScholar) citeBase() string { return fs.server.URL + "/cite" }

func (fs *fakeScholar) hit(key string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.hits = append(fs.hits, key)
}

// hitsWithPrefix returns recorded hits starting with prefix, in order.
func (fs *fakeScholar) hitsWithPrefix(prefix string) []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var out []string
	for _, h := range fs.hits {
		if strings.HasPrefix(h, prefix) {
			out = append(out, h)
		}
	}
	return out
}

func (fs *fakeScholar) handleProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cstart, _ := strconv.Atoi(q.Get("cstart"))
	pagesize := 20
	if ps, err := strconv.Atoi(q.Get("pagesize")); err == nil {
		pagesize = ps
	}
	if q.Has("cstart") {
		fs.hit(fmt.Sprintf("list:%d", cstart))
	} else {
		fs.hit("profile")
	}

	var b strings.Builder
	b.WriteString(`<html><body><table id="gsc_rsb_st"><tr><td class="gsc_rsb_sc1">Citations</td>`)
	fmt.Fprintf(&b, `<td class="gsc_rsb_std">%d</td><td class="gsc_rsb_std">0</td></tr></table>`, fs.total)
	b.WriteString(`<table id="gsc_a_t"><tbody>`)
	end := min(cstart+pagesize, len(fs.papers))
	for i := cstart; i < end; i++ {
		p := fs.papers[i]
		fmt.Fprintf(&b, `<tr class="gsc_a_tr"><td class="gsc_a_t"><a class="gsc_a_at" href="#">%s</a></td>`, p.title)
		if p.count > 0 {
			fmt.Fprintf(&b, `<td class="gsc_a_c"><a class="gsc_a_ac gs_ibl" href="/scholar?oi=bibs&cites=%d">%d</a></td></tr>`, i, p.count)
		} else {
			b.WriteString(`<td class="gsc_a_c"><a class="gsc_a_ac gs_ibl"></a></td></tr>`)
		}
	}
	b.WriteString(`</tbody></table>`)
	if end >= len(fs.papers) {
		b.WriteString(`<button type="button" id="gsc_bpf_next" disabled=""></button>`)
	} else {
		b.WriteString(`<button type="button" id="gsc_bpf_next"></button>`)
	}
	b.WriteString(`</body></html>`)
	fmt.Fprint(w, b.String())
}

func (fs *fakeScholar) handleCitationList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	i, err := strconv.Atoi(q.Get("cites"))
	if err != nil || i < 0 || i >= len(fs.papers) {
		http.NotFound(w, r)
		return
	}
	start, _ := strconv.Atoi(q.Get("start"))
	fs.hit(fmt.Sprintf("cites:%d:%d", i, start))

	p := fs.papers[i]
	var b strings.Builder
	b.WriteString(`<html><body><div id="gs_res_ccl_mid">`)
	for j := start; j < min(start+10, p.count); j++ {
		id := fmt.Sprintf("p%dc%d", i, j)
		b.WriteString(`<div class="gs_r gs_or gs_scl">`)
		if p.pdf[j] {
			fmt.Fprintf(&b, `<div class="gs_ggs gs_fl"><div class="gs_ggsd"><a href="/pdf/%s.pdf">[PDF]</a></div></div>`, id)
		}
		if p.uncitable[j] {
			b.WriteString(`<div class="gs_ri">[CITATION] no controls</div>`)
		} else {
			fmt.Fprintf(&b, `<div class="gs_ri"><a class="gs_nph" href="#" role="button" onclick="return gs_ocit(event,'%s','0')">Cite</a></div>`, id)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></body></html>`)
	fmt.Fprint(w, b.String())
}

func (fs *fakeScholar) handleCite(w http.ResponseWriter, r *http.Request) {
	info := strings.TrimPrefix(r.URL.Query().Get("q"), "info:")
	id, _, _ := strings.Cut(info, ":")
	fs.hit("cite:" + id)

	switch id {
	case fs.challengeID:
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `<html><body><h1>Please show you&#39;re not a robot</h1></body></html>`)
	case fs.malformedID:
		fmt.Fprint(w, `<html><body><div id="gs_citt"></div></body></html>`)
	default:
		fmt.Fprintf(w, `<html><body><div id="gs_cit0" class="gs_citr">Citation %s</div></body></html>`, id)
	}
}

func (fs *fakeScholar) handlePDF(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/pdf/"), ".pdf")
	fs.hit("pdf:" + id)
	if fs.brokenPDF[id] {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	fmt.Fprintf(w, "%%PDF-1.4 %s", id)
}
