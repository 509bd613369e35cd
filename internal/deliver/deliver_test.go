// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package deliver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scribe/internal/notion"
	"github.com/pdiddy/scribe/pkg/types"
)

var validationErr = &notion.APIError{Status: http.StatusBadRequest, Code: "validation_error", Message: "bad block"}

// fakeStore scripts AppendBlock errors per call and records every block it
// receives.
type fakeStore struct {
	pageErr    error
	appendErrs []error
	appended   []types.Block
}

func (f *fakeStore) CreatePage(ctx context.Context, databaseID, title string) (notion.Page, error) {
	if f.pageErr != nil {
		return notion.Page{}, f.pageErr
	}
	return notion.Page{ID: "page-1", URL: "https://notion.so/page-1"}, nil
}

func (f *fakeStore) AppendBlock(ctx context.Context, pageID string, b types.Block) error {
	call := len(f.appended)
	f.appended = append(f.appended, b)
	if call < len(f.appendErrs) {
		return f.appendErrs[call]
	}
	return nil
}

func paragraph(text string) types.Block {
	return types.Block{Kind: types.BlockParagraph, Spans: []types.Span{{Kind: types.SpanText, Text: text}}}
}

func testDoc() types.Document {
	return types.Document{Blocks: []types.Block{
		paragraph("one"),
		{Kind: types.BlockEquation, Content: "x^2"},
		paragraph("three"),
	}}
}

func testOpts(t *testing.T) Options {
	return Options{
		DatabaseID: "db-1",
		Title:      "Notes",
		Source:     "# Notes\n\noriginal markdown",
		BackupDir:  t.TempDir(),
	}
}

func backupFiles(t *testing.T, dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	require.NoError(t, err)
	return matches
}

func TestDeliver_AllBlocksDelivered(t *testing.T) {
	store := &fakeStore{}
	opts := testOpts(t)

	rep, err := Deliver(context.Background(), store, testDoc(), opts, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, StatusDelivered, rep.Status)
	assert.Equal(t, "page-1", rep.PageID)
	assert.Equal(t, "https://notion.so/page-1", rep.PageURL)
	assert.Equal(t, 3, rep.Delivered)
	assert.Equal(t, 3, rep.Total())
	assert.Equal(t, []Result{ResultDelivered, ResultDelivered, ResultDelivered}, rep.Results)
	assert.Empty(t, backupFiles(t, opts.BackupDir), "no backup on full delivery")
}

func TestDeliver_ValidationFallbackSucceeds(t *testing.T) {
	store := &fakeStore{appendErrs: []error{nil, validationErr, nil, nil}}
	opts := testOpts(t)

	rep, err := Deliver(context.Background(), store, testDoc(), opts, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, StatusDelivered, rep.Status)
	assert.Equal(t, []Result{ResultDelivered, ResultFallback, ResultDelivered}, rep.Results)
	assert.Equal(t, 1, rep.Fallbacks)
	assert.Empty(t, backupFiles(t, opts.BackupDir))

	// Call 3 is the retried equation as a latex code block.
	require.Len(t, store.appended, 4)
	fb := store.appended[2]
	assert.Equal(t, types.BlockCode, fb.Kind)
	assert.Equal(t, "latex", fb.Language)
	assert.Equal(t, "x^2", fb.Content)
	assert.True(t, fb.Fallback)
}

func TestDeliver_TransportErrorAborts(t *testing.T) {
	store := &fakeStore{appendErrs: []error{nil, errors.New("connection reset")}}
	opts := testOpts(t)

	rep, err := Deliver(context.Background(), store, testDoc(), opts, io.Discard)
	require.Error(t, err)

	assert.Equal(t, StatusPartial, rep.Status)
	assert.Equal(t, []Result{ResultDelivered, ResultBackedUp, ResultBackedUp}, rep.Results)
	assert.Equal(t, 2, rep.BackedUp)
	require.Len(t, store.appended, 2, "delivery must stop at the first transport failure")

	files := backupFiles(t, opts.BackupDir)
	require.Len(t, files, 1)
	assert.Equal(t, files[0], rep.BackupPath)

	data, readErr := os.ReadFile(files[0])
	require.NoError(t, readErr)
	assert.Equal(t, opts.Source, string(data), "backup must hold the original markdown")
}

func TestDeliver_PageCreationFails(t *testing.T) {
	store := &fakeStore{pageErr: &notion.APIError{Status: http.StatusUnauthorized, Message: "bad token"}}
	opts := testOpts(t)

	rep, err := Deliver(context.Background(), store, testDoc(), opts, io.Discard)
	require.Error(t, err)

	assert.Equal(t, StatusFailed, rep.Status)
	assert.Equal(t, 3, rep.BackedUp)
	assert.Empty(t, store.appended)
	assert.Len(t, backupFiles(t, opts.BackupDir), 1)
}

func TestDeliver_FallbackAlsoRejected(t *testing.T) {
	store := &fakeStore{appendErrs: []error{validationErr, validationErr}}
	opts := testOpts(t)

	rep, err := Deliver(context.Background(), store, testDoc(), opts, io.Discard)
	require.Error(t, err)

	assert.Equal(t, StatusFailed, rep.Status)
	assert.Equal(t, []Result{ResultBackedUp, ResultBackedUp, ResultBackedUp}, rep.Results)
	assert.Len(t, backupFiles(t, opts.BackupDir), 1)
}

func TestDeliver_AuthErrorIsNotRetriedAsCode(t *testing.T) {
	store := &fakeStore{appendErrs: []error{&notion.APIError{Status: http.StatusForbidden, Message: "no access"}}}
	opts := testOpts(t)

	_, err := Deliver(context.Background(), store, testDoc(), opts, io.Discard)
	require.Error(t, err)
	require.Len(t, store.appended, 1, "non-validation API errors must not trigger the fallback")
}

func TestDeliver_CancelledBetweenAppends(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{}
	opts := testOpts(t)

	rep, err := Deliver(ctx, store, testDoc(), opts, io.Discard)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, rep.Status)
	assert.Empty(t, store.appended)
	assert.Len(t, backupFiles(t, opts.BackupDir), 1)
}

func TestDeliver_FallbackParagraphRestoresDelimiters(t *testing.T) {
	doc := types.Document{Blocks: []types.Block{{
		Kind: types.BlockParagraph,
		Spans: []types.Span{
			{Kind: types.SpanText, Text: "slope "},
			{Kind: types.SpanInlineMath, Text: "m"},
		},
	}}}
	store := &fakeStore{appendErrs: []error{validationErr, nil}}

	_, err := Deliver(context.Background(), store, doc, testOpts(t), io.Discard)
	require.NoError(t, err)

	require.Len(t, store.appended, 2)
	fb := store.appended[1]
	assert.Equal(t, "markdown", fb.Language)
	assert.Equal(t, "slope $m$", fb.Content)
}

func TestDeliver_OversizedFallbackIsChunked(t *testing.T) {
	// A paragraph sitting exactly at the ceiling in span form grows past it
	// once the fallback restores the $ delimiters; the fallback must arrive
	// as multiple ceiling-compliant code blocks, losing nothing.
	var spans []types.Span
	for i := 0; i < 100; i++ {
		spans = append(spans,
			types.Span{Kind: types.SpanText, Text: strings.Repeat("a", 19)},
			types.Span{Kind: types.SpanInlineMath, Text: "x"},
		)
	}
	block := types.Block{Kind: types.BlockParagraph, Spans: spans}
	require.Equal(t, 2000, block.Len())
	require.Greater(t, len(block.RawText()), 2000)

	store := &fakeStore{appendErrs: []error{validationErr}}
	doc := types.Document{Blocks: []types.Block{block}}

	rep, err := Deliver(context.Background(), store, doc, testOpts(t), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []Result{ResultFallback}, rep.Results)

	// Calls after the rejected structured append are the fallback pieces.
	require.Greater(t, len(store.appended), 2)
	var rebuilt strings.Builder
	for _, fb := range store.appended[1:] {
		assert.Equal(t, types.BlockCode, fb.Kind)
		assert.True(t, fb.Fallback)
		assert.LessOrEqual(t, fb.Len(), 2000, "fallback block exceeds the ceiling")
		rebuilt.WriteString(fb.Content)
	}
	assert.Equal(t, block.RawText(), rebuilt.String())
}

func TestWriteBackup(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteBackup(dir, "Lecture 4: Integrals", "body text")
	require.NoError(t, err)

	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "Lecture_4__Integrals-"), "title not sanitized: %s", base)
	assert.True(t, strings.HasSuffix(base, ".md"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "body text", string(data))

	sidecar := strings.TrimSuffix(path, ".md") + ".yaml"
	meta, err := os.ReadFile(sidecar)
	require.NoError(t, err)
	assert.Contains(t, string(meta), "Lecture 4: Integrals")
	assert.Contains(t, string(meta), "bytes: 9")
}

func TestWriteBackup_EmptyTitle(t *testing.T) {
	path, err := WriteBackup(t.TempDir(), "", "x")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "untitled-"))
}

func TestSafeTitle(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Plain Title", "Plain_Title"},
		{"a/b\\c", "a_b_c"},
		{"keep-these_chars9", "keep-these_chars9"},
		{"", "untitled"},
	}
	for _, tt := range tests {
		if got := safeTitle(tt.input); got != tt.want {
			t.Errorf("safeTitle(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
