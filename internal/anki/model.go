// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package anki

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// DefaultModelName is the note model highlight notes are created with.
const DefaultModelName = "Readwise Highlight"

// presetName is the options group applied to the sync deck. The long
// learning steps suit passive review of reading highlights.
const presetName = "Readwise Learning"

// presetDelays are the learning steps in minutes: 3 days, 10 days, 30 days.
var presetDelays = []int{4320, 14400, 43200}

// DefaultModelFields lists the note model fields in order. FieldHighlightID
// is the stable external identifier every sync decision keys on.
var DefaultModelFields = []string{
	"Text",
	"Title",
	"Author",
	"Source",
	"Category",
	"Note",
	"Tags",
	"HighlightID",
	"UpdatedAt",
	"HighlightURL",
	"ReadwiseURL",
	"Color",
	"IsFavorite",
}

// FieldHighlightID is the field embedding the Readwise highlight ID.
const FieldHighlightID = "HighlightID"

const defaultFront = `<div class="highlight">{{Text}}</div>
<div class="source">— {{Title}}</div>`

const defaultBack = `{{FrontSide}}
<hr id="answer">
<div class="metadata">
    <div><strong>Author:</strong> {{Author}}</div>
    <div><strong>Source:</strong> {{Source}}</div>
    <div><strong>Category:</strong> {{Category}}</div>
    {{#Note}}<div class="note"><strong>Note:</strong> {{Note}}</div>{{/Note}}
    {{#HighlightURL}}<div class="url-link"><a href="{{HighlightURL}}" target="_blank">View Source ↗</a></div>{{/HighlightURL}}
    {{#ReadwiseURL}}<div><a href="{{ReadwiseURL}}" target="_blank">On Readwise.com ↗</a></div>{{/ReadwiseURL}}
    <div>{{#IsFavorite}}<span class="favorite-icon">❤️</span>{{/IsFavorite}}{{#Color}}<span class="color-indicator" style="background-color: {{Color}};"></span>{{/Color}}</div>
</div>`

const defaultCSS = `.card {
    font-family: arial;
    text-align: left;
    color: black;
    background-color: white;
}
.highlight {
    margin-bottom: 20px;
    line-height: 1.4;
}
.source {
    color: #666;
    font-style: italic;
    margin-bottom: 20px;
}
.metadata {
    color: #555;
}
.metadata div {
    margin: 5px 0;
}
.note {
    margin-top: 15px;
    padding: 10px;
    background-color: #f0f0f0;
    border-left: 3px solid #4CAF50;
}
.color-indicator {
    display: inline-block;
    width: 12px;
    height: 12px;
    border-radius: 50%;
    margin-right: 8px;
    vertical-align: middle;
}
.favorite-icon {
    color: red;
    margin-left: 8px;
}
.url-link {
    word-break: break-all;
}`

// Model describes the note model: its fields and the single card's
// templates and styling.
type Model struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
	Front  string   `yaml:"front"`
	Back   string   `yaml:"back"`
	CSS    string   `yaml:"css"`
}

// DefaultModel returns the built-in note model.
func DefaultModel() Model {
	return Model{
		Name:   DefaultModelName,
		Fields: DefaultModelFields,
		Front:  defaultFront,
		Back:   defaultBack,
		CSS:    defaultCSS,
	}
}

// LoadModelFile reads a YAML model override and applies its non-empty
// sections over the defaults. The HighlightID field is always kept: without
// it existing notes can no longer be matched to their highlights.
func LoadModelFile(path string) (Model, error) {
	m := DefaultModel()

	data, err := os.ReadFile(path)
	if err != nil {
		return Model{}, fmt.Errorf("reading model file %s: %w", path, err)
	}

	var override Model
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Model{}, fmt.Errorf("parsing model file %s: %w", path, err)
	}

	if override.Name != "" {
		m.Name = override.Name
	}
	if len(override.Fields) > 0 {
		m.Fields = override.Fields
	}
	if override.Front != "" {
		m.Front = override.Front
	}
	if override.Back != "" {
		m.Back = override.Back
	}
	if override.CSS != "" {
		m.CSS = override.CSS
	}

	if !contains(m.Fields, FieldHighlightID) {
		return Model{}, fmt.Errorf("model file %s: fields must include %s", path, FieldHighlightID)
	}
	return m, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// EnsureDeck prepares the target deck for syncing: the deck exists, its
// options group is configured (best effort), and the note model exists.
// When the model already exists it is validated instead: AnkiConnect
// cannot alter models in place, so drift produces manual-update guidance
// on w rather than an error.
func (c *Client) EnsureDeck(ctx context.Context, m Model, w io.Writer) error {
	if err := c.CreateDeck(ctx, c.Deck); err != nil {
		return fmt.Errorf("creating deck %q: %w", c.Deck, err)
	}

	if err := c.configureDeckPreset(ctx); err != nil {
		fmt.Fprintf(w, "warning: could not configure deck preset: %v\n", err)
	}

	return c.ensureModel(ctx, m, w)
}

// configureDeckPreset gives the deck its own options group with long
// learning steps, cloning the current group when the deck still uses a
// shared one.
func (c *Client) configureDeckPreset(ctx context.Context) error {
	cfg, err := c.GetDeckConfig(ctx, c.Deck)
	if err != nil {
		return err
	}
	if cfg == nil {
		return nil
	}

	name, _ := cfg["name"].(string)
	if name != presetName {
		newID, err := c.CloneDeckConfigID(ctx, presetName, cfg["id"])
		if err != nil {
			return err
		}
		if err := c.SetDeckConfigID(ctx, []string{c.Deck}, newID); err != nil {
			return err
		}
		if cfg, err = c.GetDeckConfig(ctx, c.Deck); err != nil {
			return err
		}
	} else if delaysMatch(cfg) {
		return nil
	}

	applyPresetSteps(cfg)
	return c.SaveDeckConfig(ctx, cfg)
}

// delaysMatch reports whether the options group already carries the preset
// learning steps.
func delaysMatch(cfg map[string]any) bool {
	newCfg, _ := cfg["new"].(map[string]any)
	delays, _ := newCfg["delays"].([]any)
	if len(delays) != len(presetDelays) {
		return false
	}
	for i, d := range delays {
		f, ok := d.(float64)
		if !ok || int(f) != presetDelays[i] {
			return false
		}
	}
	return true
}

func applyPresetSteps(cfg map[string]any) {
	newCfg, ok := cfg["new"].(map[string]any)
	if !ok {
		newCfg = map[string]any{}
		cfg["new"] = newCfg
	}
	newCfg["delays"] = presetDelays
	newCfg["ints"] = []int{30, 30}

	revCfg, ok := cfg["rev"].(map[string]any)
	if !ok {
		revCfg = map[string]any{}
		cfg["rev"] = revCfg
	}
	revCfg["ease4"] = 1.3
}

// ensureModel creates the note model if missing, or validates the existing
// one against m.
func (c *Client) ensureModel(ctx context.Context, m Model, w io.Writer) error {
	names, err := c.ModelNames(ctx)
	if err != nil {
		return fmt.Errorf("listing models: %w", err)
	}

	if !contains(names, m.Name) {
		if err := c.CreateModel(ctx, m); err != nil {
			return fmt.Errorf("creating model %q: %w", m.Name, err)
		}
		fmt.Fprintf(w, "created model %q\n", m.Name)
		return nil
	}

	c.validateModel(ctx, m, w)
	return nil
}

// validateModel compares the stored model against m and prints guidance for
// each drifted part. Validation failures never abort the run.
func (c *Client) validateModel(ctx context.Context, m Model, w io.Writer) {
	fields, err := c.ModelFieldNames(ctx, m.Name)
	if err != nil {
		return
	}

	var missing []string
	for _, f := range m.Fields {
		if !contains(fields, f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(w, "warning: model %q is missing fields: %s\n", m.Name, strings.Join(missing, ", "))
		fmt.Fprintf(w, "  add them in Anki under Tools > Manage Note Types > Fields; new fields populate on the next sync\n")
	}

	if templates, err := c.ModelTemplates(ctx, m.Name); err == nil {
		card := templates["Card 1"]
		if squash(card.Front) != squash(m.Front) || squash(card.Back) != squash(m.Back) {
			fmt.Fprintf(w, "warning: model %q card template differs from expected; update it under Tools > Manage Note Types > Cards\n", m.Name)
		}
	}

	if css, err := c.ModelStyling(ctx, m.Name); err == nil {
		if squash(css) != squash(m.CSS) {
			fmt.Fprintf(w, "warning: model %q styling differs from expected; update it under Tools > Manage Note Types > Cards > Styling\n", m.Name)
		}
	}
}

// squash normalizes whitespace so template comparison ignores formatting.
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
