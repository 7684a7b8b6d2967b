// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"fmt"
	"os"
	"strings"
)

// Writer appends lines to the ledger. Each call opens, writes, and closes
// the file, so every line is durable as soon as the call returns.
type Writer struct {
	path string
}

// NewWriter returns a Writer for the ledger at path. The file is created on
// first append.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// AppendComment writes a paper boundary line.
func (w *Writer) AppendComment(title string) error {
	return w.appendLine(commentPrefix + NormalizeTitle(title))
}

// AppendCitation writes a numbered citation line.
func (w *Writer) AppendCitation(index int, text string) error {
	if index < 1 {
		return fmt.Errorf("citation index must be positive, got %d", index)
	}
	return w.appendLine(fmt.Sprintf("[%d] %s", index, oneLine(text)))
}

func (w *Writer) appendLine(line string) error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	_, writeErr := f.WriteString(line + "\n")
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("appending to ledger: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing ledger: %w", closeErr)
	}
	return nil
}

// oneLine collapses runs of whitespace, newlines included, to single spaces.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
