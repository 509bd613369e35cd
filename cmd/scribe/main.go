// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scribe CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scribe/internal/compose"
	"github.com/pdiddy/scribe/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback when set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the scribe CLI.
var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Push handwritten scientific notes from PDF to Notion",
	Long: `scribe transcribes scanned PDFs of handwritten scientific notes into
Markdown with LaTeX math, then delivers the result to a Notion database as a
richly formatted page. Equations are preserved as native Notion equations;
content that cannot be delivered in structured form falls back to code
blocks, and a local backup is written whenever remote delivery fails.

Each stage is a subcommand: transcribe (PDF to Markdown), preview (Markdown
to HTML for local inspection), push (the full pipeline), and history (past
runs).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scribe.yaml or ~/.config/scribe/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scribe")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scribe"))
		}
	}

	viper.SetEnvPrefix("SCRIBE")
	viper.AutomaticEnv()

	viper.SetDefault("transcription.model", "gemini-2.0-flash")
	viper.SetDefault("transcription.transcripts_dir", "transcripts")
	viper.SetDefault("transcription.max_retries", 5)
	viper.SetDefault("notion.max_retries", 5)
	viper.SetDefault("notion.block_limit", compose.DefaultBlockLimit)
	viper.SetDefault("delivery.backup_dir", "backups")
	viper.SetDefault("journal.dir", "journal")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
