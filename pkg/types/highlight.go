// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for highlight-sync.
package types

// Tag is a user-assigned label on a highlight.
type Tag struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Highlight is a single captured excerpt from the Readwise export.
// Records are immutable as fetched; Readwise remains the source of truth.
type Highlight struct {
	// ID is the Readwise highlight identifier.
	ID int64 `json:"id" yaml:"id"`

	// Text is the highlighted excerpt, in Markdown.
	Text string `json:"text" yaml:"text"`

	// Note is the user's annotation on the highlight, in Markdown.
	Note string `json:"note" yaml:"note"`

	// Location is the position within the source (page, offset, order).
	Location int `json:"location" yaml:"location"`

	// LocationType names the unit of Location (e.g. "page", "order", "offset").
	LocationType string `json:"location_type" yaml:"location_type"`

	// Color is the highlight color name (e.g. "yellow"), empty if unset.
	Color string `json:"color" yaml:"color"`

	// URL links to the highlighted passage in the source, when available.
	URL string `json:"url" yaml:"url"`

	// HighlightedAt is the capture timestamp (ISO 8601).
	HighlightedAt string `json:"highlighted_at" yaml:"highlighted_at"`

	// UpdatedAt is the last-modified timestamp; equals the creation
	// timestamp when the highlight was never edited.
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`

	// IsFavorite marks highlights the user favorited.
	IsFavorite bool `json:"is_favorite" yaml:"is_favorite"`

	// IsDeleted marks highlights deleted upstream; deleted highlights are
	// suspended locally rather than synced.
	IsDeleted bool `json:"is_deleted" yaml:"is_deleted"`

	// Tags lists user-assigned labels.
	Tags []Tag `json:"tags" yaml:"tags"`
}

// Book is one export item: a source document with its nested highlights.
// Articles, tweets and podcasts also carry a user_book_id.
type Book struct {
	// UserBookID is the Readwise source identifier.
	UserBookID int64 `json:"user_book_id" yaml:"user_book_id"`

	// Title is the source title.
	Title string `json:"title" yaml:"title"`

	// Author is the source author.
	Author string `json:"author" yaml:"author"`

	// Source names the capture origin (e.g. "kindle", "api_article").
	Source string `json:"source" yaml:"source"`

	// Category is the source kind: books, articles, tweets, or podcasts.
	Category string `json:"category" yaml:"category"`

	// ReadwiseURL links to the source page on readwise.io.
	ReadwiseURL string `json:"readwise_url" yaml:"readwise_url"`

	// IsDeleted marks sources deleted upstream.
	IsDeleted bool `json:"is_deleted" yaml:"is_deleted"`

	// Highlights lists the highlights captured from this source.
	Highlights []Highlight `json:"highlights" yaml:"highlights"`
}
