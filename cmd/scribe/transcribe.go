// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scribe/internal/transcribe"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [pdf]",
	Short: "Transcribe a PDF to Markdown without pushing",
	Long: `Transcribe converts a scanned PDF to Markdown with LaTeX math and
caches it under the transcripts directory with a metadata sidecar. The
cached file can be delivered later with "scribe push --from-markdown".`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	transcribeCmd.Flags().String("model", "", "Gemini model identifier")
	transcribeCmd.Flags().Bool("stdout", false, "print the markdown instead of caching it")
	transcribeCmd.Flags().Duration("timeout", defaultHTTPTimeout, "HTTP request timeout")
	transcribeCmd.Flags().Duration("processing-timeout", 2*time.Minute, "max wait for Gemini file processing")
	transcribeCmd.Flags().Duration("poll-interval", 2*time.Second, "delay between file status checks")
	transcribeCmd.Flags().Int64("max-pdf-mb", 50, "largest accepted PDF size in MB")

	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd).Transcription
	if cfg.APIKey == "" {
		return fmt.Errorf("missing Gemini API key: add .secrets/gemini-api-key or set transcription.api_key")
	}

	start := time.Now()
	source, err := transcribePDF(cmd.Context(), args[0], cfg)
	if err != nil {
		return err
	}

	if toStdout, _ := cmd.Flags().GetBool("stdout"); toStdout {
		fmt.Fprintln(os.Stdout, source)
		return nil
	}

	path, err := transcribe.WriteTranscript(cfg.TranscriptsDir, args[0], cfg.Model, source, time.Since(start))
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "transcript saved: %s\n", path)
	return nil
}
