package domain

// SourceSegment is one extracted unit of source text before cleaning and
// chunking. PDF extraction yields a segment per page, spreadsheets one per
// sheet, CSV exports one per row, plain text one per file.
type SourceSegment struct {
	// Title is a source-provided title when the format carries one. Blank
	// means the title is derived from the text itself.
	Title string
	// Text is the raw extracted text.
	Text string
	// Source is the provenance label shown alongside answers, for example
	// "histoire.pdf - page 3" or a public URL.
	Source string
}

// IngestReport summarizes one corpus build.
type IngestReport struct {
	Segments        int `json:"segments"`
	SegmentsSkipped int `json:"segments_skipped"`
	Documents       int `json:"documents"`
	Words           int `json:"words"`
}
