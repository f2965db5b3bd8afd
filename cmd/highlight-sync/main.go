// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the highlight-sync CLI.
//
// highlight-sync mirrors Readwise highlights into Anki through the
// AnkiConnect bridge. Readwise is the source of truth; the deck is a
// one-directional projection of it.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/highlight-sync/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the highlight-sync CLI.
var rootCmd = &cobra.Command{
	Use:   "highlight-sync",
	Short: "Sync Readwise highlights into Anki",
	Long: `highlight-sync mirrors highlights from the Readwise export API into an
Anki deck via the AnkiConnect add-on. Each highlight becomes one note,
tracked by its Readwise ID so repeated runs update in place instead of
duplicating.

Notes that exist locally but no longer exist in Readwise are "orphaned";
show-orphaned lists them and delete-orphaned removes them.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./highlight-sync.yaml or ~/.config/highlight-sync/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable per-note detail output")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("highlight-sync")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "highlight-sync"))
		}
	}

	viper.SetEnvPrefix("HIGHLIGHT_SYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
