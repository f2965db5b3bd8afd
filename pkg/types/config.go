package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "highlight-sync/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ReadwiseConfig holds settings for the Readwise export client.
type ReadwiseConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the Readwise API v2 base (default "https://readwise.io/api/v2").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// PageDelay is the delay between consecutive export page fetches (default 0).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`
}

// AnkiConfig holds settings for the AnkiConnect bridge.
type AnkiConfig struct {
	// URL is the AnkiConnect endpoint (default "http://localhost:8765").
	URL string `json:"url" yaml:"url"`

	// Deck is the deck path notes are synced into (default "Readwise::imports").
	Deck string `json:"deck" yaml:"deck"`

	// Timeout is the bridge request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// SyncConfig holds settings for a sync run.
type SyncConfig struct {
	// CachePath is the export snapshot location (default "/tmp/readwise-export.json").
	CachePath string `json:"cache_path" yaml:"cache_path"`

	// SuspendDeleted controls whether notes for deleted highlights and books
	// are suspended (default true).
	SuspendDeleted bool `json:"suspend_deleted" yaml:"suspend_deleted"`
}
