// Package httpapi provides a transcription adapter for HTTP speech-to-text
// services that accept multipart audio uploads.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"ai-browser-assistant-service/internal/voice"
)

// audioField is the multipart form field the service reads the upload from.
const audioField = "audio"

// Client implements voice.Transcriber against a remote HTTP endpoint.
type Client struct {
	endpoint string
	httpc    *http.Client
}

// New creates a transcription client for the given endpoint.
func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
	}
}

// Transcribe uploads the artifact as multipart form data and returns the
// recognized text from the service's {"text": ...} response.
func (c *Client) Transcribe(ctx context.Context, artifact voice.Artifact) (string, error) {
	audio, err := artifact.Open()
	if err != nil {
		return "", fmt.Errorf("open audio artifact: %w", err)
	}
	defer audio.Close()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, audioField, artifact.Filename))
	header.Set("Content-Type", artifact.MIMEType)
	part, err := form.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copy audio into form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("transcription service returned %s: %s",
			resp.Status, strings.TrimSpace(string(detail)))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return result.Text, nil
}
