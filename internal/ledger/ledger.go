// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger reads and appends the citation ledger: a plain text file of
// paper comment lines ("# <title>") and numbered citation lines
// ("[<index>] <text>"). The ledger is the only state a harvest keeps.
package ledger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pdiddy/citation-harvester/pkg/types"
)

const (
	indexMarker   = '['
	commentPrefix = "# "
)

// ErrCorrupt reports a citation line whose index cannot be parsed.
var ErrCorrupt = errors.New("corrupt ledger")

// Cursor is the resume point recomputed from the ledger at the start of a run.
type Cursor struct {
	// Index is the highest fully written citation index, 0 for a fresh ledger.
	Index int

	// Paper is the title on the comment line governing Index, if any.
	Paper string

	// Pending is the title of a comment line written after Index, when a
	// run stopped between a paper's comment and its first citation.
	Pending string
}

// Locate scans the ledger at path from the end for the last citation line.
// A missing ledger, an empty one, or one without citation lines yields a
// zero Index. The index is not bounded here; the caller checks it against
// the source.
func Locate(path string) (Cursor, error) {
	lines, err := readLines(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Cursor{}, nil
		}
		return Cursor{}, err
	}

	var cur Cursor
	i := len(lines) - 1
	for ; i >= 0 && !isCitation(lines[i]); i-- {
		if title, ok := parseComment(lines[i]); ok && cur.Pending == "" {
			cur.Pending = title
		}
	}
	if i < 0 {
		return cur, nil
	}

	n, _, err := parseCitation(lines[i])
	if err != nil {
		return Cursor{}, fmt.Errorf("%s line %d: %w", path, i+1, err)
	}

	cur.Index = n
	for j := i - 1; j >= 0; j-- {
		if title, ok := parseComment(lines[j]); ok {
			cur.Paper = title
			break
		}
	}
	return cur, nil
}

// Read parses the whole ledger into paper sections in file order. Citation
// lines ahead of the first comment land in a section with an empty title.
// Lines of any other shape are ignored.
func Read(path string) ([]types.PaperSection, error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	var sections []types.PaperSection
	for n, line := range lines {
		if title, ok := parseComment(line); ok {
			sections = append(sections, types.PaperSection{Title: title})
			continue
		}
		if !isCitation(line) {
			continue
		}
		idx, text, err := parseCitation(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, n+1, err)
		}
		if len(sections) == 0 {
			sections = append(sections, types.PaperSection{})
		}
		last := &sections[len(sections)-1]
		last.Citations = append(last.Citations, types.CitationEntry{Index: idx, Text: text})
	}
	return sections, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", path, err)
	}
	return lines, nil
}

func isCitation(line string) bool {
	return len(line) > 0 && line[0] == indexMarker
}

func parseComment(line string) (string, bool) {
	if !strings.HasPrefix(line, "#") {
		return "", false
	}
	return NormalizeTitle(line[1:]), true
}

// NormalizeTitle collapses runs of whitespace, newlines included, to single
// spaces. Titles are compared in this form.
func NormalizeTitle(s string) string {
	return oneLine(s)
}

// parseCitation splits "[12] text" into 12 and "text".
func parseCitation(line string) (int, string, error) {
	end := strings.IndexByte(line, ']')
	if end < 0 {
		return 0, "", fmt.Errorf("%w: no closing bracket in %q", ErrCorrupt, line)
	}
	n, err := strconv.Atoi(line[1:end])
	if err != nil || n < 1 {
		return 0, "", fmt.Errorf("%w: bad index in %q", ErrCorrupt, line)
	}
	return n, strings.TrimSpace(line[end+1:]), nil
}
