// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scribe/internal/compose"
	"github.com/pdiddy/scribe/internal/deliver"
	"github.com/pdiddy/scribe/internal/journal"
	"github.com/pdiddy/scribe/internal/markdown"
	"github.com/pdiddy/scribe/internal/notion"
	"github.com/pdiddy/scribe/internal/secrets"
	"github.com/pdiddy/scribe/internal/transcribe"
	"github.com/pdiddy/scribe/pkg/types"
)

const (
	defaultHTTPTimeout = 60 * time.Second
	defaultUserAgent   = "scribe/0.1"
)

var pushCmd = &cobra.Command{
	Use:   "push [pdf]",
	Short: "Transcribe a PDF and deliver it to Notion",
	Long: `Push runs the full pipeline: the PDF is transcribed to Markdown with
LaTeX math, parsed into typed blocks, and appended in order to a new page in
the target Notion database. Blocks rejected by Notion are retried once as
code blocks; if delivery cannot be completed, the full Markdown is saved
locally and the run exits non-zero.

With --from-markdown the transcription step is skipped and an existing
Markdown file is delivered instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPush,
}

func init() {
	pushCmd.Flags().String("title", "", "page title (default: PDF filename stem)")
	pushCmd.Flags().String("database-id", "", "target Notion database ID")
	pushCmd.Flags().String("model", "", "Gemini model identifier")
	pushCmd.Flags().String("from-markdown", "", "deliver an existing markdown file instead of transcribing")
	pushCmd.Flags().Bool("keep-transcript", false, "cache the transcription under the transcripts directory")
	pushCmd.Flags().Duration("timeout", defaultHTTPTimeout, "HTTP request timeout")
	pushCmd.Flags().Duration("processing-timeout", 2*time.Minute, "max wait for Gemini file processing")
	pushCmd.Flags().Duration("poll-interval", 2*time.Second, "delay between file status checks")
	pushCmd.Flags().Int64("max-pdf-mb", 50, "largest accepted PDF size in MB")

	rootCmd.AddCommand(pushCmd)
}

func runPush(cmd *cobra.Command, args []string) error {
	fromMarkdown, _ := cmd.Flags().GetString("from-markdown")
	if len(args) == 0 && fromMarkdown == "" {
		return fmt.Errorf("provide a PDF path or --from-markdown")
	}

	cfg := pipelineConfig(cmd)
	if cfg.Notion.APIKey == "" {
		return fmt.Errorf("missing Notion API key: add .secrets/notion-api-key or set notion.api_key")
	}
	if cfg.Notion.DatabaseID == "" {
		return fmt.Errorf("missing database ID: use --database-id, .secrets/notion-database-id, or notion.database_id")
	}

	ctx := cmd.Context()
	started := time.Now()

	var (
		source  string
		pdfPath string
		err     error
	)
	title, _ := cmd.Flags().GetString("title")

	if fromMarkdown != "" {
		data, readErr := os.ReadFile(fromMarkdown)
		if readErr != nil {
			return fmt.Errorf("reading markdown: %w", readErr)
		}
		source = string(data)
		if title == "" {
			title = stem(fromMarkdown)
		}
	} else {
		pdfPath = args[0]
		if title == "" {
			title = stem(pdfPath)
		}
		if cfg.Transcription.APIKey == "" {
			return fmt.Errorf("missing Gemini API key: add .secrets/gemini-api-key or set transcription.api_key")
		}

		source, err = transcribePDF(ctx, pdfPath, cfg.Transcription)
		if err != nil {
			recordRun(cfg.Journal.Dir, journal.Run{
				PDFPath:    pdfPath,
				Title:      title,
				Status:     string(deliver.StatusFailed),
				Error:      err.Error(),
				StartedAt:  started,
				FinishedAt: time.Now(),
			})
			return err
		}

		if keep, _ := cmd.Flags().GetBool("keep-transcript"); keep {
			path, werr := transcribe.WriteTranscript(cfg.Transcription.TranscriptsDir,
				pdfPath, cfg.Transcription.Model, source, time.Since(started))
			if werr != nil {
				fmt.Fprintf(os.Stderr, "warning: transcript not cached: %v\n", werr)
			} else {
				fmt.Fprintf(os.Stdout, "transcript saved: %s\n", path)
			}
		}
	}

	doc := compose.Build(markdown.Segment(source), cfg.Notion.BlockLimit)

	client := &notion.Client{
		APIKey:     cfg.Notion.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.Notion.Timeout},
		MaxRetries: cfg.Notion.MaxRetries,
	}

	rep, deliverErr := deliver.Deliver(ctx, client, doc, deliver.Options{
		DatabaseID: cfg.Notion.DatabaseID,
		Title:      title,
		Source:     source,
		BackupDir:  cfg.Delivery.BackupDir,
		BlockLimit: cfg.Notion.BlockLimit,
	}, os.Stdout)

	run := journal.Run{
		PDFPath:    pdfPath,
		Title:      title,
		Status:     string(rep.Status),
		Blocks:     rep.Total(),
		Delivered:  rep.Delivered,
		Fallbacks:  rep.Fallbacks,
		PageURL:    rep.PageURL,
		BackupPath: rep.BackupPath,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if deliverErr != nil {
		run.Error = deliverErr.Error()
	}
	recordRun(cfg.Journal.Dir, run)

	if deliverErr != nil {
		return fmt.Errorf("delivery %s: %w", rep.Status, deliverErr)
	}

	fmt.Fprintf(os.Stdout, "\nPage created: %s\n", rep.PageURL)
	return nil
}

// transcribePDF runs the transcription stage with a Gemini backend.
func transcribePDF(ctx context.Context, pdfPath string, cfg types.TranscriptionConfig) (string, error) {
	backend := &transcribe.Gemini{
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		HTTPClient:        &http.Client{Timeout: cfg.Timeout},
		MaxRetries:        cfg.MaxRetries,
		ProcessingTimeout: cfg.ProcessingTimeout,
		PollInterval:      cfg.PollInterval,
	}
	return transcribe.Run(ctx, backend, pdfPath, cfg, os.Stdout)
}

// pipelineConfig assembles stage configs from flags, config file, and secrets.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	processingTimeout, _ := cmd.Flags().GetDuration("processing-timeout")
	pollInterval, _ := cmd.Flags().GetDuration("poll-interval")
	maxPDFMB, _ := cmd.Flags().GetInt64("max-pdf-mb")

	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		model = viper.GetString("transcription.model")
	}
	databaseID, _ := cmd.Flags().GetString("database-id")
	if databaseID == "" {
		databaseID = secretDefault(secrets.NotionDatabaseID, viper.GetString("notion.database_id"))
	}

	return types.PipelineConfig{
		Transcription: types.TranscriptionConfig{
			HTTPConfig:        types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent},
			Model:             model,
			APIKey:            secretDefault(secrets.GeminiAPIKey, viper.GetString("transcription.api_key")),
			ProcessingTimeout: processingTimeout,
			PollInterval:      pollInterval,
			MaxFileSizeMB:     maxPDFMB,
			MaxRetries:        viper.GetInt("transcription.max_retries"),
			TranscriptsDir:    viper.GetString("transcription.transcripts_dir"),
		},
		Notion: types.NotionConfig{
			HTTPConfig: types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent},
			APIKey:     secretDefault(secrets.NotionAPIKey, viper.GetString("notion.api_key")),
			DatabaseID: databaseID,
			BlockLimit: viper.GetInt("notion.block_limit"),
			MaxRetries: viper.GetInt("notion.max_retries"),
		},
		Delivery: types.DeliveryConfig{BackupDir: viper.GetString("delivery.backup_dir")},
		Journal:  types.JournalConfig{Dir: viper.GetString("journal.dir")},
	}
}

// recordRun appends to the journal, warning rather than failing: journal
// trouble must never mask the pipeline outcome.
func recordRun(dir string, run journal.Run) {
	j, err := journal.Open(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: journal unavailable: %v\n", err)
		return
	}
	defer j.Close()
	if err := j.Record(context.Background(), run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: run not journaled: %v\n", err)
	}
}

// stem returns the filename without directory or extension.
func stem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
