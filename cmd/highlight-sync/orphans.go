// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	syncer "github.com/pdiddy/highlight-sync/internal/sync"
)

var showOrphanedCmd = &cobra.Command{
	Use:   "show-orphaned",
	Short: "List notes whose highlight no longer exists in Readwise",
	Long: `Show-orphaned fetches the current Readwise export and lists every note
in the deck whose embedded highlight ID is absent from it. Read-only:
no note is created, changed, or removed.`,
	RunE: runShowOrphaned,
}

var deleteOrphanedCmd = &cobra.Command{
	Use:   "delete-orphaned",
	Short: "Delete notes whose highlight no longer exists in Readwise",
	Long: `Delete-orphaned fetches the current Readwise export, lists every orphaned
note, and deletes exactly those notes from the deck. Notes with a
highlight still present in Readwise are never touched.`,
	RunE: runDeleteOrphaned,
}

func init() {
	addFetchFlags(showOrphanedCmd)
	addFetchFlags(deleteOrphanedCmd)

	rootCmd.AddCommand(showOrphanedCmd)
	rootCmd.AddCommand(deleteOrphanedCmd)
}

func runShowOrphaned(cmd *cobra.Command, args []string) error {
	orphans, _, err := findOrphans(cmd)
	if err != nil {
		return err
	}
	syncer.ReportOrphans(os.Stdout, orphans)
	return nil
}

func runDeleteOrphaned(cmd *cobra.Command, args []string) error {
	orphans, rc, err := findOrphans(cmd)
	if err != nil {
		return err
	}
	syncer.ReportOrphans(os.Stdout, orphans)
	if len(orphans) == 0 {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := rc.rec.DeleteOrphans(ctx, orphans); err != nil {
		return err
	}

	plural := ""
	if rc.stats.Deleted != 1 {
		plural = "s"
	}
	fmt.Printf("Deleted %d orphaned note%s\n", rc.stats.Deleted, plural)
	return nil
}

func findOrphans(cmd *cobra.Command) ([]syncer.Orphan, *runContext, error) {
	rc, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	orphans, err := rc.rec.FindOrphans(ctx, syncer.RemoteIDs(rc.books))
	if err != nil {
		return nil, nil, err
	}
	return orphans, rc, nil
}
