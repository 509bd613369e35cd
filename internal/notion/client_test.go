// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/scribe/internal/httputil"
	"github.com/pdiddy/scribe/pkg/types"
)

func TestMain(m *testing.M) {
	httputil.RetryBaseDelay = time.Millisecond
	m.Run()
}

func newTestClient(ts *httptest.Server) *Client {
	return &Client{
		APIKey:     "secret-key",
		BaseURL:    ts.URL,
		HTTPClient: ts.Client(),
		MaxRetries: 2,
	}
}

func TestCreatePage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/pages", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		assert.Equal(t, apiVersion, r.Header.Get("Notion-Version"))

		var req createPageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "db-123", req.Parent.DatabaseID)
		require.Len(t, req.Properties.Name.Title, 1)
		assert.Equal(t, "Lecture Notes", req.Properties.Name.Title[0].Text.Content)

		json.NewEncoder(w).Encode(Page{ID: "page-1", URL: "https://notion.so/page-1"})
	}))
	defer ts.Close()

	page, err := newTestClient(ts).CreatePage(context.Background(), "db-123", "Lecture Notes")
	require.NoError(t, err)
	assert.Equal(t, "page-1", page.ID)
	assert.Equal(t, "https://notion.so/page-1", page.URL)
}

func TestAppendBlock(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/blocks/page-1/children", r.URL.Path)

		var req appendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Children, 1)
		assert.Equal(t, "paragraph", req.Children[0].Type)

		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	block := types.Block{
		Kind:  types.BlockParagraph,
		Spans: []types.Span{{Kind: types.SpanText, Text: "hello"}},
	}
	err := newTestClient(ts).AppendBlock(context.Background(), "page-1", block)
	require.NoError(t, err)
}

func TestAppendBlock_ValidationError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"validation_error","message":"expression is too long"}`))
	}))
	defer ts.Close()

	block := types.Block{Kind: types.BlockEquation, Content: "\\frac{1}{2}"}
	err := newTestClient(ts).AppendBlock(context.Background(), "page-1", block)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Validation())
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "expression is too long")
}

func TestAppendBlock_ServerErrorIsNotValidation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`oops`))
	}))
	defer ts.Close()

	block := types.Block{Kind: types.BlockEquation, Content: "x"}
	err := newTestClient(ts).AppendBlock(context.Background(), "page-1", block)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.False(t, apiErr.Validation())
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
}

func TestCreatePage_RetriesRateLimit(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		var req createPageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "db-123", req.Parent.DatabaseID, "retried request lost its body")
		json.NewEncoder(w).Encode(Page{ID: "page-1", URL: "https://notion.so/page-1"})
	}))
	defer ts.Close()

	page, err := newTestClient(ts).CreatePage(context.Background(), "db-123", "Notes")
	require.NoError(t, err)
	assert.Equal(t, "page-1", page.ID)
	assert.Equal(t, 2, calls)
}

func TestAppendBlock_UnsupportedHeadingLevel(t *testing.T) {
	block := types.Block{Kind: types.BlockHeading, Level: 4}
	err := (&Client{}).AppendBlock(context.Background(), "page-1", block)
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "render failures are local, not API errors")
}
