// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sync

import (
	"fmt"
	"io"
)

// Stats accumulates counters over one run. Created at run start, finalized
// at run end, never persisted.
type Stats struct {
	BooksProcessed      int
	BooksSuspended      int
	HighlightsProcessed int
	Created             int
	Updated             int
	Unchanged           int
	Suspended           int
	Failed              int
	Orphaned            int
	Deleted             int
}

// Summary writes the end-of-run report.
func (s *Stats) Summary(w io.Writer) {
	fmt.Fprintf(w, "Processed %d source(s) with %d highlight(s)\n", s.BooksProcessed, s.HighlightsProcessed)
	fmt.Fprintf(w, "Created: %d, Updated: %d, Unchanged: %d, Suspended: %d\n", s.Created, s.Updated, s.Unchanged, s.Suspended)
	if s.BooksSuspended > 0 {
		fmt.Fprintf(w, "Suspended sources: %d\n", s.BooksSuspended)
	}
	if s.Failed > 0 {
		fmt.Fprintf(w, "Failed: %d\n", s.Failed)
	}
	if s.Orphaned > 0 {
		fmt.Fprintf(w, "Orphaned notes: %d\n", s.Orphaned)
	}
	if s.Deleted > 0 {
		fmt.Fprintf(w, "Deleted notes: %d\n", s.Deleted)
	}
}
