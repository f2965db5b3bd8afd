// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package anki manipulates notes in Anki through the AnkiConnect HTTP bridge.
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pdiddy/highlight-sync/pkg/types"
)

// DefaultURL is the AnkiConnect endpoint on a local Anki instance.
const DefaultURL = "http://localhost:8765"

// connectVersion is the AnkiConnect protocol version in every request envelope.
const connectVersion = 6

// Client invokes AnkiConnect actions against a running Anki instance.
type Client struct {
	http *http.Client
	url  string

	// Deck is the deck path all queries and new notes are scoped to.
	Deck string
}

// NewClient builds a Client from config. An empty URL falls back to
// DefaultURL; tests point it at an httptest server instead.
func NewClient(httpClient *http.Client, cfg types.AnkiConfig) *Client {
	u := cfg.URL
	if u == "" {
		u = DefaultURL
	}
	return &Client{http: httpClient, url: u, Deck: cfg.Deck}
}

// invoke posts one action envelope and decodes the result into out (skipped
// when out is nil). AnkiConnect always answers 200 with a two-field body;
// anything else is a protocol error.
func (c *Client) invoke(ctx context.Context, action string, params, out any) error {
	envelope := struct {
		Action  string `json:"action"`
		Version int    `json:"version"`
		Params  any    `json:"params,omitempty"`
	}{Action: action, Version: connectVersion, Params: params}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to AnkiConnect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("AnkiConnect returned HTTP %d for %s", resp.StatusCode, action)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("parsing %s response: %w", action, err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("%s response has unexpected number of fields", action)
	}
	errRaw, ok := raw["error"]
	if !ok {
		return fmt.Errorf("%s response is missing required error field", action)
	}
	resultRaw, ok := raw["result"]
	if !ok {
		return fmt.Errorf("%s response is missing required result field", action)
	}

	var bridgeErr *string
	if err := json.Unmarshal(errRaw, &bridgeErr); err != nil {
		return fmt.Errorf("parsing %s error field: %w", action, err)
	}
	if bridgeErr != nil {
		return fmt.Errorf("%s: %s", action, *bridgeErr)
	}

	if out != nil {
		if err := json.Unmarshal(resultRaw, out); err != nil {
			return fmt.Errorf("parsing %s result: %w", action, err)
		}
	}
	return nil
}

// Version returns the AnkiConnect protocol version of the running instance.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	if err := c.invoke(ctx, "version", nil, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// Ping verifies the bridge is reachable. The returned error tells the user
// how to get Anki into a usable state, since an unreachable bridge aborts
// the whole run.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Version(ctx); err != nil {
		return fmt.Errorf("cannot reach Anki: make sure Anki is running and the AnkiConnect add-on is installed: %w", err)
	}
	return nil
}

// CreateDeck creates the deck if it does not exist. Existing decks are a no-op.
func (c *Client) CreateDeck(ctx context.Context, deck string) error {
	return c.invoke(ctx, "createDeck", map[string]any{"deck": deck}, nil)
}

// ModelNames lists the note models known to Anki.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.invoke(ctx, "modelNames", nil, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// ModelFieldNames lists the field names of a model in order.
func (c *Client) ModelFieldNames(ctx context.Context, model string) ([]string, error) {
	var fields []string
	if err := c.invoke(ctx, "modelFieldNames", map[string]any{"modelName": model}, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// CardTemplate holds one card's front and back templates.
type CardTemplate struct {
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

// ModelTemplates returns the card templates of a model keyed by card name.
func (c *Client) ModelTemplates(ctx context.Context, model string) (map[string]CardTemplate, error) {
	var templates map[string]CardTemplate
	if err := c.invoke(ctx, "modelTemplates", map[string]any{"modelName": model}, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// ModelStyling returns the CSS of a model.
func (c *Client) ModelStyling(ctx context.Context, model string) (string, error) {
	var styling struct {
		CSS string `json:"css"`
	}
	if err := c.invoke(ctx, "modelStyling", map[string]any{"modelName": model}, &styling); err != nil {
		return "", err
	}
	return styling.CSS, nil
}

// CreateModel registers a new note model.
func (c *Client) CreateModel(ctx context.Context, m Model) error {
	params := map[string]any{
		"modelName":     m.Name,
		"inOrderFields": m.Fields,
		"css":           m.CSS,
		"cardTemplates": []map[string]string{
			{"Name": "Card 1", "Front": m.Front, "Back": m.Back},
		},
	}
	return c.invoke(ctx, "createModel", params, nil)
}

// FindNotes returns the note IDs matching an Anki search query.
func (c *Client) FindNotes(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	if err := c.invoke(ctx, "findNotes", map[string]any{"query": query}, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// FieldValue is a stored note field with its display order.
type FieldValue struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

// NoteInfo is the bridge's view of one stored note.
type NoteInfo struct {
	NoteID int64                 `json:"noteId"`
	Model  string                `json:"modelName"`
	Fields map[string]FieldValue `json:"fields"`
	Tags   []string              `json:"tags"`
	Cards  []int64               `json:"cards"`
}

// NotesInfo returns detailed information for the given note IDs.
func (c *Client) NotesInfo(ctx context.Context, ids []int64) ([]NoteInfo, error) {
	var infos []NoteInfo
	if err := c.invoke(ctx, "notesInfo", map[string]any{"notes": ids}, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// NoteInput is the payload for creating a note.
type NoteInput struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
	Options   NoteOptions       `json:"options"`
}

// NoteOptions controls duplicate handling on note creation.
type NoteOptions struct {
	AllowDuplicate bool   `json:"allowDuplicate"`
	DuplicateScope string `json:"duplicateScope"`
}

// AddNote creates a note and returns its ID.
func (c *Client) AddNote(ctx context.Context, note NoteInput) (int64, error) {
	var id int64
	if err := c.invoke(ctx, "addNote", map[string]any{"note": note}, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateNoteFields replaces the given fields on an existing note. Fields not
// present in the map keep their stored values.
func (c *Client) UpdateNoteFields(ctx context.Context, noteID int64, fields map[string]string) error {
	params := map[string]any{
		"note": map[string]any{"id": noteID, "fields": fields},
	}
	return c.invoke(ctx, "updateNoteFields", params, nil)
}

// UpdateNoteTags replaces the tag set of an existing note.
func (c *Client) UpdateNoteTags(ctx context.Context, noteID int64, tags []string) error {
	params := map[string]any{"note": noteID, "tags": tags}
	return c.invoke(ctx, "updateNoteTags", params, nil)
}

// DeleteNotes removes the given notes and all their cards.
func (c *Client) DeleteNotes(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return c.invoke(ctx, "deleteNotes", map[string]any{"notes": ids}, nil)
}

// Suspend suspends the given cards.
func (c *Client) Suspend(ctx context.Context, cardIDs []int64) error {
	if len(cardIDs) == 0 {
		return nil
	}
	return c.invoke(ctx, "suspend", map[string]any{"cards": cardIDs}, nil)
}

// Unsuspend unsuspends the given cards.
func (c *Client) Unsuspend(ctx context.Context, cardIDs []int64) error {
	if len(cardIDs) == 0 {
		return nil
	}
	return c.invoke(ctx, "unsuspend", map[string]any{"cards": cardIDs}, nil)
}

// GetDeckConfig returns the options group of a deck as a generic document.
// The shape is owned by Anki; callers mutate nested keys and save it back.
func (c *Client) GetDeckConfig(ctx context.Context, deck string) (map[string]any, error) {
	var cfg map[string]any
	if err := c.invoke(ctx, "getDeckConfig", map[string]any{"deck": deck}, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveDeckConfig persists a modified options group.
func (c *Client) SaveDeckConfig(ctx context.Context, cfg map[string]any) error {
	return c.invoke(ctx, "saveDeckConfig", map[string]any{"config": cfg}, nil)
}

// CloneDeckConfigID clones an options group and returns the new group's ID.
func (c *Client) CloneDeckConfigID(ctx context.Context, name string, cloneFrom any) (int64, error) {
	var id int64
	params := map[string]any{"name": name, "cloneFrom": cloneFrom}
	if err := c.invoke(ctx, "cloneDeckConfigId", params, &id); err != nil {
		return 0, err
	}
	return id, nil
}

// SetDeckConfigID assigns an options group to the given decks.
func (c *Client) SetDeckConfigID(ctx context.Context, decks []string, configID int64) error {
	params := map[string]any{"decks": decks, "configId": configID}
	return c.invoke(ctx, "setDeckConfigId", params, nil)
}
