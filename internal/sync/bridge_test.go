// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sync

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdiddy/highlight-sync/internal/anki"
	"github.com/pdiddy/highlight-sync/pkg/types"
)

const testDeck = "Readwise::imports"

// storedNote is the fake bridge's record of one note.
type storedNote struct {
	id        int64
	fields    map[string]string
	tags      []string
	cards     []int64
	suspended bool
}

// fakeAnki is a stateful AnkiConnect stand-in backed by httptest. It keeps
// notes in memory and records every action name so tests can assert which
// bridge calls a code path made.
type fakeAnki struct {
	server  *httptest.Server
	actions []string
	notes   []*storedNote
	nextID  int64

	// failAddFor lists highlight IDs whose addNote calls fail.
	failAddFor map[string]bool
}

func newFakeAnki(t *testing.T) *fakeAnki {
	t.Helper()
	fa := &fakeAnki{nextID: 1000, failAddFor: map[string]bool{}}
	fa.server = httptest.NewServer(http.HandlerFunc(fa.handle))
	t.Cleanup(fa.server.Close)
	return fa
}

func (fa *fakeAnki) reconciler(t *testing.T, stats *Stats) *Reconciler {
	t.Helper()
	client := anki.NewClient(fa.server.Client(), types.AnkiConfig{URL: fa.server.URL, Deck: testDeck})
	return &Reconciler{
		Bridge:         client,
		Model:          anki.DefaultModel(),
		Stats:          stats,
		Out:            &strings.Builder{},
		SuspendDeleted: true,
	}
}

func (fa *fakeAnki) seed(highlightID string, fields map[string]string, tags []string) *storedNote {
	all := map[string]string{"HighlightID": highlightID}
	for k, v := range fields {
		all[k] = v
	}
	fa.nextID++
	n := &storedNote{
		id:     fa.nextID,
		fields: all,
		tags:   tags,
		cards:  []int64{fa.nextID * 10},
	}
	fa.notes = append(fa.notes, n)
	return n
}

func (fa *fakeAnki) find(highlightID string) *storedNote {
	for _, n := range fa.notes {
		if n.fields["HighlightID"] == highlightID {
			return n
		}
	}
	return nil
}

// mutations counts the mutating actions the fake has served.
func (fa *fakeAnki) mutations() int {
	count := 0
	for _, a := range fa.actions {
		switch a {
		case "addNote", "updateNoteFields", "updateNoteTags", "deleteNotes", "suspend", "unsuspend", "createDeck", "createModel", "saveDeckConfig":
			count++
		}
	}
	return count
}

func (fa *fakeAnki) handle(w http.ResponseWriter, r *http.Request) {
	var envelope struct {
		Action string          `json:"action"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fa.actions = append(fa.actions, envelope.Action)

	result, errMsg := fa.dispatch(envelope.Action, envelope.Params)
	body := map[string]any{"result": result, "error": nil}
	if errMsg != "" {
		body["error"] = errMsg
	}
	json.NewEncoder(w).Encode(body)
}

func (fa *fakeAnki) dispatch(action string, params json.RawMessage) (any, string) {
	switch action {
	case "findNotes":
		var p struct {
			Query string `json:"query"`
		}
		json.Unmarshal(params, &p)
		return fa.findNotes(p.Query), ""

	case "notesInfo":
		var p struct {
			Notes []int64 `json:"notes"`
		}
		json.Unmarshal(params, &p)
		var infos []map[string]any
		for _, id := range p.Notes {
			for _, n := range fa.notes {
				if n.id != id {
					continue
				}
				fields := map[string]any{}
				for k, v := range n.fields {
					fields[k] = map[string]any{"value": v, "order": 0}
				}
				infos = append(infos, map[string]any{
					"noteId": n.id, "modelName": anki.DefaultModelName,
					"fields": fields, "tags": n.tags, "cards": n.cards,
				})
			}
		}
		return infos, ""

	case "addNote":
		var p struct {
			Note anki.NoteInput `json:"note"`
		}
		json.Unmarshal(params, &p)
		if fa.failAddFor[p.Note.Fields["HighlightID"]] {
			return nil, "simulated addNote failure"
		}
		fa.nextID++
		fa.notes = append(fa.notes, &storedNote{
			id:     fa.nextID,
			fields: p.Note.Fields,
			tags:   p.Note.Tags,
			cards:  []int64{fa.nextID * 10},
		})
		return fa.nextID, ""

	case "updateNoteFields":
		var p struct {
			Note struct {
				ID     int64             `json:"id"`
				Fields map[string]string `json:"fields"`
			} `json:"note"`
		}
		json.Unmarshal(params, &p)
		for _, n := range fa.notes {
			if n.id == p.Note.ID {
				for k, v := range p.Note.Fields {
					n.fields[k] = v
				}
				return nil, ""
			}
		}
		return nil, "note not found"

	case "updateNoteTags":
		var p struct {
			Note int64    `json:"note"`
			Tags []string `json:"tags"`
		}
		json.Unmarshal(params, &p)
		for _, n := range fa.notes {
			if n.id == p.Note {
				n.tags = p.Tags
				return nil, ""
			}
		}
		return nil, "note not found"

	case "deleteNotes":
		var p struct {
			Notes []int64 `json:"notes"`
		}
		json.Unmarshal(params, &p)
		var kept []*storedNote
		for _, n := range fa.notes {
			deleted := false
			for _, id := range p.Notes {
				if n.id == id {
					deleted = true
					break
				}
			}
			if !deleted {
				kept = append(kept, n)
			}
		}
		fa.notes = kept
		return nil, ""

	case "suspend":
		var p struct {
			Cards []int64 `json:"cards"`
		}
		json.Unmarshal(params, &p)
		for _, n := range fa.notes {
			for _, c := range n.cards {
				for _, target := range p.Cards {
					if c == target {
						n.suspended = true
					}
				}
			}
		}
		return true, ""

	default:
		return nil, "unhandled action: " + action
	}
}

// findNotes supports the three query shapes the reconciler issues:
// deck-only, deck + HighlightID, and deck + Title.
func (fa *fakeAnki) findNotes(query string) []int64 {
	ids := []int64{}
	if !strings.Contains(query, fmt.Sprintf("deck:%q", testDeck)) {
		return ids
	}

	if idx := strings.Index(query, "HighlightID:"); idx >= 0 {
		want := strings.TrimSpace(query[idx+len("HighlightID:"):])
		if n := fa.find(want); n != nil {
			ids = append(ids, n.id)
		}
		return ids
	}

	if idx := strings.Index(query, `Title:"`); idx >= 0 {
		want := strings.TrimSuffix(query[idx+len(`Title:"`):], `"`)
		want = strings.ReplaceAll(want, `\"`, `"`)
		for _, n := range fa.notes {
			if n.fields["Title"] == want {
				ids = append(ids, n.id)
			}
		}
		return ids
	}

	for _, n := range fa.notes {
		ids = append(ids, n.id)
	}
	return ids
}

// requireNoteCount asserts how many notes the fake currently stores.
func (fa *fakeAnki) requireNoteCount(t *testing.T, want int) {
	t.Helper()
	require.Len(t, fa.notes, want)
}
