// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scribe/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent pipeline runs",
	Long: `History lists recent runs from the local journal: what was pushed,
whether delivery completed, how many blocks needed the code fallback, and
where backups were written.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to show")
	historyCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	j, err := journal.Open(viper.GetString("journal.dir"))
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.Recent(context.Background(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-30s  %-21s  %-7s  %s\n",
		"When", "Title", "Status", "Blocks", "Page / Backup")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, r := range runs {
		target := r.PageURL
		if r.BackupPath != "" {
			target = r.BackupPath
		}
		title := r.Title
		if len(title) > 30 {
			title = title[:27] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-30s  %-21s  %3d/%-3d  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			title, r.Status, r.Delivered+r.Fallbacks, r.Blocks, target)
	}
	return nil
}
