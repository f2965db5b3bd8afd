// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sync

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/highlight-sync/pkg/types"
)

// previewLen caps the text excerpt shown per orphan.
const previewLen = 100

// Orphan is a managed local note whose embedded highlight ID no longer
// appears in the remote export.
type Orphan struct {
	NoteID      int64
	HighlightID string
	Title       string
	Preview     string
}

// RemoteIDs collects every highlight ID in the export, deleted ones
// included: an upstream-deleted highlight still exists remotely, so its
// note is suspended rather than orphaned.
func RemoteIDs(books []types.Book) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, b := range books {
		for _, h := range b.Highlights {
			ids[strconv.FormatInt(h.ID, 10)] = struct{}{}
		}
	}
	return ids
}

// FindOrphans reads every note in the deck and returns those whose embedded
// highlight ID is absent from remoteIDs. Notes without a HighlightID value
// are not managed by this tool and are ignored. Read-only: no mutating
// bridge call is made.
func (r *Reconciler) FindOrphans(ctx context.Context, remoteIDs map[string]struct{}) ([]Orphan, error) {
	ids, err := r.Bridge.FindNotes(ctx, fmt.Sprintf("deck:%q", r.Bridge.Deck))
	if err != nil {
		return nil, fmt.Errorf("listing deck notes: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	infos, err := r.Bridge.NotesInfo(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("reading deck notes: %w", err)
	}

	var orphans []Orphan
	for _, info := range infos {
		hid := info.Fields["HighlightID"].Value
		if hid == "" {
			continue
		}
		if _, ok := remoteIDs[hid]; ok {
			continue
		}
		orphans = append(orphans, Orphan{
			NoteID:      info.NoteID,
			HighlightID: hid,
			Title:       defaultStr(info.Fields["Title"].Value, "Unknown"),
			Preview:     preview(info.Fields["Text"].Value),
		})
	}

	r.Stats.Orphaned = len(orphans)
	return orphans, nil
}

// ReportOrphans lists each orphan with its title and a short text preview.
func ReportOrphans(w io.Writer, orphans []Orphan) {
	if len(orphans) == 0 {
		fmt.Fprintln(w, "No orphaned notes found")
		return
	}

	plural := ""
	if len(orphans) != 1 {
		plural = "s"
	}
	fmt.Fprintf(w, "Found %d orphaned note%s (in Anki but not in Readwise)\n", len(orphans), plural)
	for _, o := range orphans {
		fmt.Fprintf(w, "  - %s: %s\n", o.HighlightID, o.Title)
		fmt.Fprintf(w, "    %s\n", o.Preview)
	}
}

// DeleteOrphans removes exactly the given orphan notes.
func (r *Reconciler) DeleteOrphans(ctx context.Context, orphans []Orphan) error {
	if len(orphans) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orphans))
	for _, o := range orphans {
		ids = append(ids, o.NoteID)
	}
	if err := r.Bridge.DeleteNotes(ctx, ids); err != nil {
		return fmt.Errorf("deleting orphaned notes: %w", err)
	}
	r.Stats.Deleted = len(ids)
	return nil
}

// preview flattens and truncates note text for display.
func preview(text string) string {
	flat := strings.ReplaceAll(text, "\n", " ")
	runes := []rune(flat)
	if len(runes) <= previewLen {
		return flat
	}
	return string(runes[:previewLen]) + "..."
}
