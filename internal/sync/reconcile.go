// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sync

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pdiddy/highlight-sync/internal/anki"
	"github.com/pdiddy/highlight-sync/pkg/types"
)

// Reconciler pushes mapped notes into the deck through the bridge.
type Reconciler struct {
	Bridge *anki.Client
	Model  anki.Model
	Stats  *Stats

	// Out receives progress and warning lines (normally os.Stderr).
	Out io.Writer

	// Verbose enables per-note detail lines.
	Verbose bool

	// SuspendDeleted suspends notes whose highlight or source was deleted
	// upstream instead of leaving them active.
	SuspendDeleted bool
}

// SyncBooks reconciles every export item into the deck. Individual bridge
// failures are reported and counted but never abort the remaining loop.
func (r *Reconciler) SyncBooks(ctx context.Context, books []types.Book) error {
	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return err
		}

		if book.IsDeleted {
			if r.SuspendDeleted {
				r.suspendBookNotes(ctx, book)
			}
			continue
		}

		r.Stats.BooksProcessed++
		for _, h := range book.Highlights {
			r.syncHighlight(ctx, h, book)
		}
	}
	return nil
}

// syncHighlight creates, updates, or skips the note for one highlight.
func (r *Reconciler) syncHighlight(ctx context.Context, h types.Highlight, book types.Book) {
	if h.IsDeleted {
		if r.SuspendDeleted {
			r.suspendHighlightNote(ctx, strconv.FormatInt(h.ID, 10))
		}
		return
	}

	r.Stats.HighlightsProcessed++
	mapped := MapHighlight(h, book)

	existing, err := r.Bridge.FindNotes(ctx, r.highlightQuery(mapped.HighlightID))
	if err != nil {
		r.warn("looking up highlight %s: %v", mapped.HighlightID, err)
		return
	}

	if len(existing) == 0 {
		r.createNote(ctx, mapped)
		return
	}
	r.updateNote(ctx, mapped, existing)
}

func (r *Reconciler) createNote(ctx context.Context, mapped MappedNote) {
	note := anki.NoteInput{
		DeckName:  r.Bridge.Deck,
		ModelName: r.Model.Name,
		Fields:    mapped.Fields,
		Tags:      mapped.Tags,
		Options: anki.NoteOptions{
			// Duplicate text is legitimate (the same passage highlighted in
			// two sources); identity is the HighlightID field.
			AllowDuplicate: true,
			DuplicateScope: "deck",
		},
	}

	if _, err := r.Bridge.AddNote(ctx, note); err != nil {
		r.warn("creating note for highlight %s: %v", mapped.HighlightID, err)
		return
	}
	r.Stats.Created++
	r.debug("created note for highlight %s", mapped.HighlightID)
}

// updateNote compares the stored note field by field against the mapped
// content and pushes only the changed fields. Identical notes are skipped.
func (r *Reconciler) updateNote(ctx context.Context, mapped MappedNote, noteIDs []int64) {
	infos, err := r.Bridge.NotesInfo(ctx, noteIDs)
	if err != nil {
		r.warn("reading note for highlight %s: %v", mapped.HighlightID, err)
		return
	}
	if len(infos) == 0 {
		r.warn("note for highlight %s vanished during sync", mapped.HighlightID)
		return
	}
	stored := infos[0]

	changed := map[string]string{}
	for name, want := range mapped.Fields {
		got, ok := stored.Fields[name]
		if !ok {
			// Field absent from the stored model; EnsureDeck already warned.
			continue
		}
		if got.Value != want {
			changed[name] = want
		}
	}

	if len(changed) == 0 {
		r.Stats.Unchanged++
		return
	}

	if err := r.Bridge.UpdateNoteFields(ctx, stored.NoteID, changed); err != nil {
		r.warn("updating note for highlight %s: %v", mapped.HighlightID, err)
		return
	}
	if err := r.Bridge.UpdateNoteTags(ctx, stored.NoteID, mapped.Tags); err != nil {
		r.warn("updating tags for highlight %s: %v", mapped.HighlightID, err)
	}
	r.Stats.Updated++

	names := make([]string, 0, len(changed))
	for n := range changed {
		names = append(names, n)
	}
	r.debug("updated note for highlight %s (%s)", mapped.HighlightID, strings.Join(names, ", "))
}

// suspendHighlightNote suspends all cards of the note for a deleted highlight.
func (r *Reconciler) suspendHighlightNote(ctx context.Context, highlightID string) {
	ids, err := r.Bridge.FindNotes(ctx, r.highlightQuery(highlightID))
	if err != nil {
		r.warn("looking up deleted highlight %s: %v", highlightID, err)
		return
	}
	if len(ids) == 0 {
		return
	}

	infos, err := r.Bridge.NotesInfo(ctx, ids)
	if err != nil || len(infos) == 0 || len(infos[0].Cards) == 0 {
		return
	}
	if err := r.Bridge.Suspend(ctx, infos[0].Cards); err != nil {
		r.warn("suspending note for highlight %s: %v", highlightID, err)
		return
	}
	r.Stats.Suspended++
	r.debug("suspended note for deleted highlight %s", highlightID)
}

// suspendBookNotes suspends every note belonging to a deleted source,
// matched by title.
func (r *Reconciler) suspendBookNotes(ctx context.Context, book types.Book) {
	escaped := strings.ReplaceAll(book.Title, `"`, `\"`)
	query := fmt.Sprintf(`deck:%q Title:"%s"`, r.Bridge.Deck, escaped)

	ids, err := r.Bridge.FindNotes(ctx, query)
	if err != nil {
		r.warn("looking up deleted source %q: %v", book.Title, err)
		return
	}
	if len(ids) == 0 {
		return
	}

	infos, err := r.Bridge.NotesInfo(ctx, ids)
	if err != nil {
		r.warn("reading notes for deleted source %q: %v", book.Title, err)
		return
	}

	count := 0
	for _, info := range infos {
		if len(info.Cards) == 0 {
			continue
		}
		if err := r.Bridge.Suspend(ctx, info.Cards); err != nil {
			r.warn("suspending note %d: %v", info.NoteID, err)
			continue
		}
		count++
	}

	if count > 0 {
		r.Stats.BooksSuspended++
		r.Stats.Suspended += count
		r.debug("suspended %d note(s) from deleted source %q", count, book.Title)
	}
}

// highlightQuery builds the deck-scoped lookup for one embedded highlight ID.
func (r *Reconciler) highlightQuery(highlightID string) string {
	return fmt.Sprintf("deck:%q HighlightID:%s", r.Bridge.Deck, highlightID)
}

func (r *Reconciler) warn(format string, args ...any) {
	r.Stats.Failed++
	fmt.Fprintf(r.Out, "warning: "+format+"\n", args...)
}

func (r *Reconciler) debug(format string, args ...any) {
	if r.Verbose {
		fmt.Fprintf(r.Out, format+"\n", args...)
	}
}
