// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scribe/internal/preview"
)

var previewCmd = &cobra.Command{
	Use:   "preview [markdown]",
	Short: "Render a transcription to HTML for local inspection",
	Long: `Preview renders a Markdown transcription to a standalone HTML file,
with LaTeX math converted to MathML and fenced code syntax-highlighted.
Useful for checking a transcription before pushing it to Notion.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringP("out", "o", "", "output HTML path (default: input with .html extension)")

	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading markdown: %w", err)
	}

	html, err := preview.Render(stem(args[0]), string(data))
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = strings.TrimSuffix(args[0], ".md") + ".html"
	}
	if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
		return fmt.Errorf("writing HTML: %w", err)
	}

	fmt.Fprintf(os.Stdout, "preview written: %s\n", out)
	return nil
}
