// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sync

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/highlight-sync/pkg/types"
)

func TestRemoteIDs(t *testing.T) {
	books := []types.Book{
		{Highlights: []types.Highlight{{ID: 1}, {ID: 2}}},
		{Highlights: []types.Highlight{{ID: 3, IsDeleted: true}}},
	}

	ids := RemoteIDs(books)
	assert.Len(t, ids, 3)
	assert.Contains(t, ids, "1")
	assert.Contains(t, ids, "2")
	// Deleted upstream still counts as remote: its note is suspended, not orphaned.
	assert.Contains(t, ids, "3")
}

func TestFindOrphans_SetDifference(t *testing.T) {
	fa := newFakeAnki(t)
	fa.seed("A", map[string]string{"Title": "Book A", "Text": "alpha"}, []string{"readwise"})
	fa.seed("B", map[string]string{"Title": "Book B", "Text": "beta"}, []string{"readwise"})
	seedC := fa.seed("C", map[string]string{"Title": "Book C", "Text": "gamma"}, []string{"readwise"})

	remote := map[string]struct{}{"A": {}, "B": {}}

	stats := &Stats{}
	orphans, err := fa.reconciler(t, stats).FindOrphans(context.Background(), remote)
	require.NoError(t, err)

	require.Len(t, orphans, 1)
	assert.Equal(t, "C", orphans[0].HighlightID)
	assert.Equal(t, seedC.id, orphans[0].NoteID)
	assert.Equal(t, "Book C", orphans[0].Title)
	assert.Equal(t, "gamma", orphans[0].Preview)
	assert.Equal(t, 1, stats.Orphaned)
}

func TestFindOrphans_IgnoresUnmanagedNotes(t *testing.T) {
	fa := newFakeAnki(t)
	fa.seed("", map[string]string{"Title": "Hand-made"}, nil)
	fa.seed("X", map[string]string{"Title": "Managed"}, []string{"readwise"})

	orphans, err := fa.reconciler(t, &Stats{}).FindOrphans(context.Background(), map[string]struct{}{})
	require.NoError(t, err)

	require.Len(t, orphans, 1)
	assert.Equal(t, "X", orphans[0].HighlightID)
}

func TestFindOrphans_IsReadOnly(t *testing.T) {
	fa := newFakeAnki(t)
	fa.seed("A", map[string]string{"Title": "Book A"}, []string{"readwise"})

	orphans, err := fa.reconciler(t, &Stats{}).FindOrphans(context.Background(), map[string]struct{}{})
	require.NoError(t, err)
	require.Len(t, orphans, 1)

	var out strings.Builder
	ReportOrphans(&out, orphans)
	assert.Contains(t, out.String(), "Found 1 orphaned note (in Anki but not in Readwise)")

	assert.Equal(t, 0, fa.mutations(), "orphan detection and reporting must not mutate the bridge")
}

func TestFindOrphans_EmptyDeck(t *testing.T) {
	fa := newFakeAnki(t)

	orphans, err := fa.reconciler(t, &Stats{}).FindOrphans(context.Background(), map[string]struct{}{"A": {}})
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestDeleteOrphans_DeletesExactlyTheOrphanSet(t *testing.T) {
	fa := newFakeAnki(t)
	fa.seed("A", map[string]string{"Title": "Keep"}, []string{"readwise"})
	fa.seed("B", map[string]string{"Title": "Drop 1"}, []string{"readwise"})
	fa.seed("C", map[string]string{"Title": "Drop 2"}, []string{"readwise"})

	remote := map[string]struct{}{"A": {}}

	stats := &Stats{}
	r := fa.reconciler(t, stats)
	orphans, err := r.FindOrphans(context.Background(), remote)
	require.NoError(t, err)
	require.Len(t, orphans, 2)

	require.NoError(t, r.DeleteOrphans(context.Background(), orphans))

	assert.Equal(t, 2, stats.Deleted)
	fa.requireNoteCount(t, 1)
	assert.Equal(t, "A", fa.notes[0].fields["HighlightID"])
}

func TestDeleteOrphans_EmptySetIsNoop(t *testing.T) {
	fa := newFakeAnki(t)

	stats := &Stats{}
	require.NoError(t, fa.reconciler(t, stats).DeleteOrphans(context.Background(), nil))
	assert.Equal(t, 0, stats.Deleted)
	assert.Equal(t, 0, fa.mutations())
}

func TestReportOrphans_Empty(t *testing.T) {
	var out strings.Builder
	ReportOrphans(&out, nil)
	assert.Contains(t, out.String(), "No orphaned notes found")
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("a", 150)
	got := preview(long)
	assert.Len(t, got, 103)
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "one two", preview("one\ntwo"))
}
