// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package deliver sends a composed document to the Notion page store,
// applying the per-block code fallback and the local-backup escape hatch.
package deliver

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/scribe/internal/compose"
	"github.com/pdiddy/scribe/internal/notion"
	"github.com/pdiddy/scribe/pkg/types"
)

// Result is the outcome for one block.
type Result string

const (
	// ResultDelivered means the block reached the page in structured form.
	ResultDelivered Result = "delivered"

	// ResultFallback means the structured append was rejected and the
	// block's raw text was delivered as a code block instead.
	ResultFallback Result = "fallback_applied"

	// ResultBackedUp means delivery aborted before this block; its content
	// survives only in the local backup.
	ResultBackedUp Result = "backed_up"
)

// Status is the aggregate outcome of a run.
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusPartial   Status = "partially_delivered"
	StatusFailed    Status = "failed"
)

// Store is the page-creation handle delivery drives. notion.Client
// implements it; tests supply fakes.
type Store interface {
	CreatePage(ctx context.Context, databaseID, title string) (notion.Page, error)
	AppendBlock(ctx context.Context, pageID string, b types.Block) error
}

// Options configures one delivery run.
type Options struct {
	DatabaseID string
	Title      string

	// Source is the original untransformed markdown, persisted locally
	// when delivery cannot be completed.
	Source string

	// BackupDir is where the backup file is written.
	BackupDir string

	// BlockLimit caps the serialized length of fallback code blocks.
	// Zero means the default ceiling.
	BlockLimit int
}

// Report aggregates per-block results for one run.
type Report struct {
	Status     Status
	PageID     string
	PageURL    string
	Results    []Result
	Delivered  int
	Fallbacks  int
	BackedUp   int
	BackupPath string
}

// Total returns the number of blocks in the run.
func (r Report) Total() int {
	return len(r.Results)
}

// Deliver appends the document's blocks to a new page, strictly in order.
// A validation rejection of one block is retried once with that block's raw
// text wrapped as ceiling-compliant code blocks. If the fallback is also
// rejected, or the
// failure is transport- or auth-level, the remaining document is not
// attempted: the full original markdown is written to BackupDir and the
// returned error carries the cause. Partially delivered pages are left
// as-is; the backup is the recovery path.
func Deliver(ctx context.Context, store Store, doc types.Document, opts Options, w io.Writer) (Report, error) {
	rep := Report{Results: make([]Result, 0, len(doc.Blocks))}

	page, err := store.CreatePage(ctx, opts.DatabaseID, opts.Title)
	if err != nil {
		return abort(rep, doc, opts, w, fmt.Errorf("creating page %q: %w", opts.Title, err))
	}
	rep.PageID, rep.PageURL = page.ID, page.URL
	fmt.Fprintf(w, "created page: %s\n", opts.Title)

	for i, b := range doc.Blocks {
		// Cancellation is honored between appends, never mid-request.
		select {
		case <-ctx.Done():
			return abort(rep, doc, opts, w, ctx.Err())
		default:
		}

		err := store.AppendBlock(ctx, page.ID, b)
		if err == nil {
			rep.Results = append(rep.Results, ResultDelivered)
			rep.Delivered++
			continue
		}

		var apiErr *notion.APIError
		if !errors.As(err, &apiErr) || !apiErr.Validation() {
			return abort(rep, doc, opts, w, fmt.Errorf("appending block %d: %w", i+1, err))
		}

		fmt.Fprintf(w, "rejected: block %d/%d (%s), retrying as code\n", i+1, len(doc.Blocks), b.Kind)

		for _, fb := range fallbackBlocks(b, opts.BlockLimit) {
			if fbErr := store.AppendBlock(ctx, page.ID, fb); fbErr != nil {
				return abort(rep, doc, opts, w, fmt.Errorf("fallback append for block %d: %w", i+1, fbErr))
			}
		}
		rep.Results = append(rep.Results, ResultFallback)
		rep.Fallbacks++
	}

	rep.Status = StatusDelivered
	fmt.Fprintf(w, "delivered %d block(s) (%d as fallback)\n", rep.Total(), rep.Fallbacks)
	return rep, nil
}

// fallbackBlocks wraps a block's raw text as code blocks, trading rendering
// fidelity for guaranteed content delivery. The raw text is chunked:
// restoring $/$$ delimiters can push it past the ceiling even when the
// source block's serialized span form was within it.
func fallbackBlocks(b types.Block, limit int) []types.Block {
	lang := "markdown"
	if b.Kind == types.BlockEquation {
		lang = "latex"
	}
	return compose.CodeFallback(b.RawText(), lang, limit)
}

// abort stops delivery, marks the unattempted blocks, and persists the
// original markdown. A backup write failure is fatal: there is nothing
// left to fall back to, so it is joined onto the delivery error.
func abort(rep Report, doc types.Document, opts Options, w io.Writer, cause error) (Report, error) {
	for range len(doc.Blocks) - len(rep.Results) {
		rep.Results = append(rep.Results, ResultBackedUp)
		rep.BackedUp++
	}

	if rep.Delivered+rep.Fallbacks > 0 {
		rep.Status = StatusPartial
	} else {
		rep.Status = StatusFailed
	}

	path, backupErr := WriteBackup(opts.BackupDir, opts.Title, opts.Source)
	if backupErr != nil {
		return rep, errors.Join(cause, fmt.Errorf("writing backup: %w", backupErr))
	}
	rep.BackupPath = path
	fmt.Fprintf(w, "backup saved: %s\n", path)

	return rep, cause
}
