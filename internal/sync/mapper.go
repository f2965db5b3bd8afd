// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sync reconciles the Readwise export against the Anki deck.
package sync

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/pdiddy/highlight-sync/pkg/types"
)

// md renders highlight Markdown to HTML for note fields. Hard wraps mirror
// how Readwise formats multi-line captures; raw HTML passes through because
// the content is the user's own.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
)

// managedTag marks every note this tool owns; orphan queries key on it.
const managedTag = "readwise"

// MappedNote is the rendered note content for one highlight, keyed by the
// embedded highlight ID.
type MappedNote struct {
	// HighlightID is the stringified Readwise highlight identifier.
	HighlightID string

	// Fields holds the rendered note field values by field name.
	Fields map[string]string

	// Tags is the normalized tag set, always including the managed tag.
	Tags []string
}

// MapHighlight renders one highlight and its source into note content.
// Pure and deterministic: the same highlight always yields the same output,
// which is what makes unchanged-detection by field comparison work. Missing
// source fields fall back to "Unknown", missing highlight fields to "".
func MapHighlight(h types.Highlight, book types.Book) MappedNote {
	tags := NormalizeTags(h.Tags)

	fields := map[string]string{
		"Text":         RenderMarkdown(h.Text),
		"Title":        defaultStr(book.Title, "Unknown"),
		"Author":       defaultStr(book.Author, "Unknown"),
		"Source":       defaultStr(book.Source, "Unknown"),
		"Category":     defaultStr(book.Category, "Unknown"),
		"Note":         RenderMarkdown(h.Note),
		"Tags":         strings.Join(tags, ", "),
		"HighlightID":  strconv.FormatInt(h.ID, 10),
		"UpdatedAt":    h.UpdatedAt,
		"HighlightURL": h.URL,
		"ReadwiseURL":  book.ReadwiseURL,
		"Color":        h.Color,
		"IsFavorite":   "",
	}
	if h.IsFavorite {
		fields["IsFavorite"] = "true"
	}

	return MappedNote{
		HighlightID: strconv.FormatInt(h.ID, 10),
		Fields:      fields,
		Tags:        tags,
	}
}

// RenderMarkdown converts Markdown to HTML. Empty input stays empty so
// optional fields (Note) render nothing instead of an empty paragraph.
// On renderer failure the raw text is used as-is.
func RenderMarkdown(s string) string {
	if s == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(s), &buf); err != nil {
		return s
	}
	return strings.TrimSpace(buf.String())
}

// NormalizeTags converts Readwise tags to Anki tag names: spaces become
// underscores, empties are dropped, and the managed tag is always appended.
func NormalizeTags(tags []types.Tag) []string {
	var out []string
	for _, t := range tags {
		name := strings.ReplaceAll(strings.TrimSpace(t.Name), " ", "_")
		if name != "" {
			out = append(out, name)
		}
	}
	return append(out, managedTag)
}

func defaultStr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
