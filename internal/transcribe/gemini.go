// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/scribe/internal/httputil"
)

// DefaultBaseURL is the production Gemini API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// ErrProcessingTimeout marks an upload that never reached ACTIVE within the
// processing timeout.
var ErrProcessingTimeout = errors.New("file processing timed out")

// fileStateActive and fileStateFailed are the terminal Gemini file states.
const (
	fileStateActive = "ACTIVE"
	fileStateFailed = "FAILED"
)

// Gemini transcribes PDFs through the Gemini REST API: resumable file
// upload, a bounded poll until the file is ACTIVE, one generateContent
// call with the typesetter system instruction, and cleanup of the
// uploaded file.
type Gemini struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int

	// ProcessingTimeout bounds the ACTIVE poll; PollInterval spaces the
	// status checks.
	ProcessingTimeout time.Duration
	PollInterval      time.Duration
}

// geminiFile is the file resource returned by the upload and files.get calls.
type geminiFile struct {
	Name  string `json:"name"`
	URI   string `json:"uri"`
	State string `json:"state"`
}

type uploadResponse struct {
	File geminiFile `json:"file"`
}

type generateRequest struct {
	SystemInstruction content   `json:"systemInstruction"`
	Contents          []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"fileData,omitempty"`
}

type fileData struct {
	MIMEType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Transcribe implements Backend against the Gemini API.
func (g *Gemini) Transcribe(ctx context.Context, pdfPath string) (string, error) {
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return "", fmt.Errorf("reading PDF: %w", err)
	}

	file, err := g.upload(ctx, filepath.Base(pdfPath), data)
	if err != nil {
		return "", fmt.Errorf("uploading PDF: %w", err)
	}
	// Uploaded files expire server-side anyway; deletion is best-effort.
	defer g.deleteFile(context.WithoutCancel(ctx), file.Name)

	active, err := g.waitActive(ctx, file)
	if err != nil {
		return "", err
	}

	text, err := g.generate(ctx, active.URI)
	if err != nil {
		return "", fmt.Errorf("generating transcription: %w", err)
	}
	return text, nil
}

// upload pushes the PDF bytes through the resumable upload protocol:
// a start request yields a session URL, a second request carries the bytes
// and finalizes in one shot.
func (g *Gemini) upload(ctx context.Context, name string, data []byte) (geminiFile, error) {
	startBody, err := json.Marshal(map[string]any{
		"file": map[string]any{"display_name": name},
	})
	if err != nil {
		return geminiFile{}, fmt.Errorf("marshaling upload start: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL()+"/upload/v1beta/files?key="+g.APIKey, bytes.NewReader(startBody))
	if err != nil {
		return geminiFile{}, fmt.Errorf("creating upload start request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(data)))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", "application/pdf")

	resp, err := httputil.DoWithRetry(ctx, g.client(), req, g.MaxRetries)
	if err != nil {
		return geminiFile{}, fmt.Errorf("upload start: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return geminiFile{}, fmt.Errorf("upload start returned HTTP %d", resp.StatusCode)
	}

	sessionURL := resp.Header.Get("X-Goog-Upload-URL")
	if sessionURL == "" {
		return geminiFile{}, fmt.Errorf("upload start returned no session URL")
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, sessionURL, bytes.NewReader(data))
	if err != nil {
		return geminiFile{}, fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	req.Header.Set("X-Goog-Upload-Offset", "0")

	resp, err = httputil.DoWithRetry(ctx, g.client(), req, g.MaxRetries)
	if err != nil {
		return geminiFile{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return geminiFile{}, fmt.Errorf("upload returned HTTP %d", resp.StatusCode)
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return geminiFile{}, fmt.Errorf("decoding upload response: %w", err)
	}
	return ur.File, nil
}

// waitActive polls files.get until the uploaded file is ACTIVE. The wait is
// bounded by ProcessingTimeout and interruptible through ctx.
func (g *Gemini) waitActive(ctx context.Context, file geminiFile) (geminiFile, error) {
	if file.State == fileStateActive {
		return file, nil
	}

	timeout := g.ProcessingTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	interval := g.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return geminiFile{}, ctx.Err()
		case <-time.After(interval):
		}

		current, err := g.getFile(ctx, file.Name)
		if err != nil {
			return geminiFile{}, fmt.Errorf("polling file state: %w", err)
		}

		switch current.State {
		case fileStateActive:
			return current, nil
		case fileStateFailed:
			return geminiFile{}, fmt.Errorf("file processing failed for %s", file.Name)
		}
	}

	return geminiFile{}, fmt.Errorf("%s not ready after %s: %w", file.Name, timeout, ErrProcessingTimeout)
}

func (g *Gemini) getFile(ctx context.Context, name string) (geminiFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL()+"/v1beta/"+name+"?key="+g.APIKey, nil)
	if err != nil {
		return geminiFile{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := g.client().Do(req)
	if err != nil {
		return geminiFile{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return geminiFile{}, fmt.Errorf("files.get returned HTTP %d", resp.StatusCode)
	}

	var f geminiFile
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return geminiFile{}, fmt.Errorf("decoding file state: %w", err)
	}
	return f, nil
}

// generate runs one generateContent call referencing the uploaded file.
func (g *Gemini) generate(ctx context.Context, fileURI string) (string, error) {
	body, err := json.Marshal(generateRequest{
		SystemInstruction: content{Parts: []part{{Text: systemPrompt}}},
		Contents: []content{{Parts: []part{
			{FileData: &fileData{MIMEType: "application/pdf", FileURI: fileURI}},
			{Text: userPrompt},
		}}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.baseURL(), g.Model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httputil.DoWithRetry(ctx, g.client(), req, g.MaxRetries)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generateContent returned HTTP %d: %s", resp.StatusCode, string(raw))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		return "", fmt.Errorf("generateContent returned no candidates")
	}

	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

// deleteFile removes the uploaded file. Failures are swallowed: the API
// expires files on its own.
func (g *Gemini) deleteFile(ctx context.Context, name string) {
	if name == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		g.baseURL()+"/v1beta/"+name+"?key="+g.APIKey, nil)
	if err != nil {
		return
	}
	if resp, err := g.client().Do(req); err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}

func (g *Gemini) baseURL() string {
	if g.BaseURL != "" {
		return g.BaseURL
	}
	return DefaultBaseURL
}

func (g *Gemini) client() *http.Client {
	if g.HTTPClient != nil {
		return g.HTTPClient
	}
	return http.DefaultClient
}
