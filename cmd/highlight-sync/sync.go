// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/highlight-sync/internal/anki"
	syncer "github.com/pdiddy/highlight-sync/internal/sync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror Readwise highlights into the Anki deck",
	Long: `Sync fetches the Readwise export (or the local snapshot with --use-cache),
ensures the deck and note model exist, then reconciles every highlight:
new highlights become notes, changed highlights update their note in
place, unchanged highlights are skipped. Highlights deleted upstream
have their notes suspended.`,
	RunE: runSync,
}

func init() {
	addFetchFlags(syncCmd)
	syncCmd.Flags().String("model-file", "", "YAML note-model override (fields, templates, styling)")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	rc, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	model := anki.DefaultModel()
	if path, _ := cmd.Flags().GetString("model-file"); path != "" {
		if model, err = anki.LoadModelFile(path); err != nil {
			return err
		}
	}
	rc.rec.Model = model

	if err := rc.bridge.EnsureDeck(ctx, model, os.Stderr); err != nil {
		return err
	}

	if err := rc.rec.SyncBooks(ctx, rc.books); err != nil {
		return err
	}

	// Count orphans so the summary flags stale notes; removal stays behind
	// the explicit delete-orphaned command.
	if orphans, err := rc.rec.FindOrphans(ctx, syncer.RemoteIDs(rc.books)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: orphan check failed: %v\n", err)
	} else if len(orphans) > 0 && rc.verbose {
		syncer.ReportOrphans(os.Stderr, orphans)
	}

	rc.stats.Summary(os.Stdout)
	return nil
}
