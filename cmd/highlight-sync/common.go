// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/highlight-sync/internal/anki"
	"github.com/pdiddy/highlight-sync/internal/readwise"
	syncer "github.com/pdiddy/highlight-sync/internal/sync"
	"github.com/pdiddy/highlight-sync/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "highlight-sync/0.1"
	defaultDeck      = "Readwise::imports"
	defaultCachePath = "/tmp/readwise-export.json"
)

// addFetchFlags registers the flags every export-fetching command shares.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().String("api-token", "", "Readwise API token (or set READWISE_API_TOKEN)")
	cmd.Flags().String("deck", "", "Anki deck path for synced notes (default "+defaultDeck+")")
	cmd.Flags().String("anki-url", "", "AnkiConnect endpoint (default "+anki.DefaultURL+")")
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	cmd.Flags().Bool("use-cache", false, "use the cached export snapshot instead of fetching from the API")
	cmd.Flags().String("cache-path", "", "export snapshot path (default "+defaultCachePath+")")
	cmd.Flags().String("updated-after", "", "only fetch sources updated after this ISO 8601 timestamp")
}

// stringSetting resolves a string option: flag, then config file, then fallback.
func stringSetting(cmd *cobra.Command, flag, viperKey, fallback string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	if v := viper.GetString(viperKey); v != "" {
		return v
	}
	return fallback
}

// resolveToken finds the Readwise API token: --api-token flag, then the
// READWISE_API_TOKEN environment variable, then the config file, then the
// .secrets/ directory.
func resolveToken(cmd *cobra.Command) (string, error) {
	if tok, _ := cmd.Flags().GetString("api-token"); tok != "" {
		return tok, nil
	}
	if tok := os.Getenv("READWISE_API_TOKEN"); tok != "" {
		return tok, nil
	}
	if tok := viper.GetString("readwise.api_token"); tok != "" {
		return tok, nil
	}
	if tok, ok := loadedSecrets["readwise-api-token"]; ok {
		return tok, nil
	}
	return "", fmt.Errorf("no Readwise API token: pass --api-token, set READWISE_API_TOKEN, or create .secrets/readwise-api-token")
}

// runContext groups everything a fetching command needs.
type runContext struct {
	books   []types.Book
	bridge  *anki.Client
	rec     *syncer.Reconciler
	stats   *syncer.Stats
	verbose bool
}

// setup resolves configuration, fetches the export (API or cache), and
// verifies the bridge is reachable. Both fatal error classes surface here:
// a failed remote fetch and an unreachable bridge.
func setup(cmd *cobra.Command) (*runContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		if timeout = viper.GetDuration("readwise.timeout"); timeout == 0 {
			timeout = defaultTimeout
		}
	}
	verbose, _ := cmd.Flags().GetBool("verbose")

	token, err := resolveToken(cmd)
	if err != nil {
		return nil, err
	}

	rwCfg := types.ReadwiseConfig{
		HTTPConfig: types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent},
		BaseURL:    viper.GetString("readwise.base_url"),
		PageDelay:  viper.GetDuration("readwise.page_delay"),
	}
	client := readwise.NewClient(&http.Client{Timeout: timeout}, token, rwCfg)

	syncCfg := types.SyncConfig{
		CachePath:      stringSetting(cmd, "cache-path", "sync.cache_path", defaultCachePath),
		SuspendDeleted: true,
	}
	if viper.IsSet("sync.suspend_deleted") {
		syncCfg.SuspendDeleted = viper.GetBool("sync.suspend_deleted")
	}

	useCache, _ := cmd.Flags().GetBool("use-cache")
	updatedAfter, _ := cmd.Flags().GetString("updated-after")

	var books []types.Book
	if useCache {
		books, err = readwise.LoadCache(ctx, client, syncCfg.CachePath)
	} else {
		books, err = client.FetchExport(ctx, updatedAfter)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching Readwise export: %w", err)
	}

	ankiCfg := types.AnkiConfig{
		URL:     stringSetting(cmd, "anki-url", "anki.url", ""),
		Deck:    stringSetting(cmd, "deck", "anki.deck", defaultDeck),
		Timeout: timeout,
	}
	bridge := anki.NewClient(&http.Client{Timeout: timeout}, ankiCfg)
	if err := bridge.Ping(ctx); err != nil {
		return nil, err
	}

	stats := &syncer.Stats{}
	rec := &syncer.Reconciler{
		Bridge:         bridge,
		Model:          anki.DefaultModel(),
		Stats:          stats,
		Out:            os.Stderr,
		Verbose:        verbose,
		SuspendDeleted: syncCfg.SuspendDeleted,
	}

	return &runContext{books: books, bridge: bridge, rec: rec, stats: stats, verbose: verbose}, nil
}
