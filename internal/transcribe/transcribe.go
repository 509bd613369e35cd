// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcribe turns a scanned PDF into a Markdown+LaTeX string via a
// generative AI backend.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/scribe/pkg/types"
)

// Backend abstracts the transcription API so tests can supply a mock.
type Backend interface {
	// Transcribe uploads the PDF and returns its Markdown transcription.
	Transcribe(ctx context.Context, pdfPath string) (string, error)
}

// ErrEmptyTranscription marks a transcription too short to be real content.
// The run aborts before any store interaction; the PDF on disk remains the
// source of truth.
var ErrEmptyTranscription = errors.New("transcription empty or too short")

// minTranscriptionLen is the threshold below which a transcription is
// rejected rather than delivered. shortTranscriptionLen only warns: a
// one-page scan of sparse notes can legitimately come out short.
const (
	minTranscriptionLen   = 10
	shortTranscriptionLen = 100
)

// ValidatePDF checks the input before any upload: the file must exist,
// carry a .pdf extension, and stay under the size ceiling. A suspiciously
// small file produces a warning on w but is allowed through.
func ValidatePDF(path string, maxSizeMB int64, w io.Writer) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("file must be a PDF, got %q", filepath.Ext(path))
	}

	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	sizeMB := info.Size() / (1 << 20)
	if sizeMB > maxSizeMB {
		return fmt.Errorf("PDF too large: %dMB (max %dMB); compress or split it first", sizeMB, maxSizeMB)
	}

	if info.Size() < 1024 {
		fmt.Fprintf(w, "warning: %s is very small (%d bytes); it may be empty or corrupted\n",
			filepath.Base(path), info.Size())
	}

	return nil
}

// Run validates the PDF, calls the backend, and rejects degenerate output.
func Run(ctx context.Context, backend Backend, pdfPath string, cfg types.TranscriptionConfig, w io.Writer) (string, error) {
	if err := ValidatePDF(pdfPath, cfg.MaxFileSizeMB, w); err != nil {
		return "", err
	}

	fmt.Fprintf(w, "transcribing %s\n", filepath.Base(pdfPath))
	start := time.Now()

	markdown, err := backend.Transcribe(ctx, pdfPath)
	if err != nil {
		return "", fmt.Errorf("transcribing %s: %w", filepath.Base(pdfPath), err)
	}

	trimmed := len(strings.TrimSpace(markdown))
	if trimmed < minTranscriptionLen {
		return "", fmt.Errorf("%s: %w", filepath.Base(pdfPath), ErrEmptyTranscription)
	}
	if trimmed < shortTranscriptionLen {
		fmt.Fprintf(w, "warning: transcription is only %d chars; check the scan quality\n", trimmed)
	}

	fmt.Fprintf(w, "transcribed %d chars in %s\n", len(markdown), time.Since(start).Round(time.Second))
	return markdown, nil
}

// transcriptMeta is the sidecar written next to a cached transcript.
type transcriptMeta struct {
	Source   string    `yaml:"source"`
	Model    string    `yaml:"model"`
	Chars    int       `yaml:"chars"`
	SavedAt  time.Time `yaml:"saved_at"`
	Duration string    `yaml:"duration,omitempty"`
}

// WriteTranscript caches a transcription under dir as <stem>.md with a
// YAML metadata sidecar, so later runs can push without re-transcribing.
// Returns the markdown path.
func WriteTranscript(dir, pdfPath, model, markdown string, took time.Duration) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating transcripts directory %s: %w", dir, err)
	}

	stem := strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
	mdPath := filepath.Join(dir, stem+".md")
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("writing transcript: %w", err)
	}

	meta := transcriptMeta{
		Source:   pdfPath,
		Model:    model,
		Chars:    len(markdown),
		SavedAt:  time.Now().UTC(),
		Duration: took.Round(time.Second).String(),
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshaling transcript metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, stem+".yaml"), data, 0o644); err != nil {
		return "", fmt.Errorf("writing transcript metadata: %w", err)
	}

	return mdPath, nil
}
