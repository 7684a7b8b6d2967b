// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// CitationEntry is one numbered citation line of the ledger.
type CitationEntry struct {
	// Index is the ledger index, contiguous from 1.
	Index int `json:"index" yaml:"index"`

	// Text is the formatted citation as rendered by the source.
	Text string `json:"text" yaml:"text"`
}

// PaperSection groups the citation lines that follow one paper comment line.
type PaperSection struct {
	// Title is the cited paper's title. Empty for citation lines that
	// precede the first comment line.
	Title string `json:"title" yaml:"title"`

	Citations []CitationEntry `json:"citations" yaml:"citations"`
}

// RunSummary reports the outcome of one harvest run.
type RunSummary struct {
	// TotalCitations is the total reported by the source profile.
	TotalCitations int `json:"total_citations" yaml:"total_citations"`

	// ResumedFrom is the resume cursor recomputed from the ledger.
	ResumedFrom int `json:"resumed_from" yaml:"resumed_from"`

	// LastIndex is the highest index on disk after the run.
	LastIndex int `json:"last_index" yaml:"last_index"`

	// Recorded is the number of citation lines written this run.
	Recorded int `json:"recorded" yaml:"recorded"`

	// Downloaded is the number of PDFs saved this run.
	Downloaded int `json:"downloaded" yaml:"downloaded"`

	// Skipped counts citation blocks without an extractable id.
	Skipped int `json:"skipped" yaml:"skipped"`

	// PapersVisited counts papers whose citation lists were walked.
	PapersVisited int `json:"papers_visited" yaml:"papers_visited"`
}
