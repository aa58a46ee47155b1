// Package client talks to a running voice relay over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-relay/internal/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// APIError is a non-200 reply from the relay.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("relay error %d: %s", e.StatusCode, e.Message)
}

type Health struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	Running    bool   `json:"running"`
	Configured bool   `json:"configured"`
}

type ProcessResponse struct {
	Transcript string            `json:"transcript"`
	Parsed     domain.Extraction `json:"parsed"`
	Context    domain.Context    `json:"context"`
}

type voiceRequest struct {
	Audio      string `json:"audio"`
	Context    string `json:"context,omitempty"`
	MimeType   string `json:"mimeType,omitempty"`
	ByteLength int    `json:"byteLength"`
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) Process(ctx context.Context, audio []byte, mimeType string, dc domain.Context) (*ProcessResponse, error) {
	body := voiceRequest{
		Audio:      base64.StdEncoding.EncodeToString(audio),
		Context:    string(dc),
		MimeType:   mimeType,
		ByteLength: len(audio),
	}

	var res ProcessResponse
	if err := c.do(ctx, http.MethodPost, "/api/voice/process", body, &res); err != nil {
		return nil, err
	}
	res.Parsed.Context = res.Context
	return &res, nil
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	body := voiceRequest{
		Audio:      base64.StdEncoding.EncodeToString(audio),
		MimeType:   mimeType,
		ByteLength: len(audio),
	}

	var res struct {
		Transcript string `json:"transcript"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/voice/transcribe", body, &res); err != nil {
		return "", err
	}
	return res.Transcript, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(respBody))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
