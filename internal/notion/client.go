// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notion is a minimal client for the Notion REST API: page creation
// in a database and ordered block appends.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/scribe/internal/httputil"
	"github.com/pdiddy/scribe/pkg/types"
)

// DefaultBaseURL is the production Notion API endpoint.
const DefaultBaseURL = "https://api.notion.com"

// apiVersion is the Notion-Version header value.
const apiVersion = "2022-06-28"

// APIError is a non-2xx response from the Notion API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion API %d (%s): %s", e.Status, e.Code, e.Message)
}

// Validation reports whether the failure is content-shaped (the request
// itself was rejected) rather than transport- or auth-level. Validation
// failures are recoverable per block via the code-block fallback; anything
// else aborts delivery for the page.
func (e *APIError) Validation() bool {
	return e.Status == http.StatusBadRequest
}

// Page identifies a created Notion page.
type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client calls the Notion REST API.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
}

// createPageRequest is the body of pages.create.
type createPageRequest struct {
	Parent     pageParent     `json:"parent"`
	Properties pageProperties `json:"properties"`
}

type pageParent struct {
	DatabaseID string `json:"database_id"`
}

type pageProperties struct {
	Name titleProperty `json:"Name"`
}

type titleProperty struct {
	Title []richText `json:"title"`
}

// appendRequest is the body of blocks.children.append.
type appendRequest struct {
	Children []apiBlock `json:"children"`
}

// errorResponse is Notion's error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreatePage creates a page titled title in the given database.
func (c *Client) CreatePage(ctx context.Context, databaseID, title string) (Page, error) {
	body := createPageRequest{
		Parent: pageParent{DatabaseID: databaseID},
		Properties: pageProperties{
			Name: titleProperty{
				Title: []richText{{Type: "text", Text: &textBody{Content: title}}},
			},
		},
	}

	var page Page
	if err := c.post(ctx, "/v1/pages", body, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// AppendBlock appends one block to the page. Appends on the same page are
// order-preserving, so delivery issues them strictly in document order.
func (c *Client) AppendBlock(ctx context.Context, pageID string, b types.Block) error {
	wire, err := renderBlock(b)
	if err != nil {
		return fmt.Errorf("rendering block: %w", err)
	}
	return c.patch(ctx, "/v1/blocks/"+pageID+"/children", appendRequest{Children: []apiBlock{wire}}, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Notion-Version", apiVersion)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return fmt.Errorf("calling Notion API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode}
		var parsed errorResponse
		if json.Unmarshal(raw, &parsed) == nil && parsed.Message != "" {
			apiErr.Code, apiErr.Message = parsed.Code, parsed.Message
		} else {
			apiErr.Message = string(raw)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding Notion response: %w", err)
	}
	return nil
}
