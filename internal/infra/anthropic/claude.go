package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"voice-relay/internal/domain"
	"voice-relay/internal/infra"
	"voice-relay/internal/infra/llm"
)

const DefaultModel = "claude-sonnet-4-20250514"

type ClaudeClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	userName   string
	now        func() time.Time
}

func NewClaudeClient(apiKey, model, userName string) *ClaudeClient {
	return NewClaudeClientWithURL(apiKey, model, userName, "https://api.anthropic.com/v1")
}

func NewClaudeClientWithURL(apiKey, model, userName, baseURL string) *ClaudeClient {
	if model == "" {
		model = DefaultModel
	}
	return &ClaudeClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
		userName:   userName,
		now:        time.Now,
	}
}

// WithClock overrides the clock used for calendar prompts.
func (c *ClaudeClient) WithClock(now func() time.Time) *ClaudeClient {
	c.now = now
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system"`
	Messages    []message `json:"messages"`
}

type response struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *ClaudeClient) Extract(ctx context.Context, transcript string, dc domain.Context) (*domain.Extraction, error) {
	reqBody := request{
		Model:       c.model,
		MaxTokens:   llm.MaxTokens,
		Temperature: llm.Temperature,
		System:      llm.SystemPrompt(dc, c.userName, c.now()),
		Messages: []message{
			{Role: "user", Content: transcript},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var result response
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			return &infra.StatusError{Provider: "claude", StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	})

	if retryErr != nil {
		return nil, &infra.UpstreamError{Op: "parsing", Message: retryErr.Error(), Err: retryErr}
	}

	if len(result.Content) == 0 {
		return nil, &infra.UpstreamError{Op: "parsing", Message: "empty response from claude"}
	}

	extraction, err := llm.DecodeExtraction(dc, result.Content[0].Text)
	if err != nil {
		return nil, &infra.UpstreamError{Op: "parsing", Message: err.Error(), Err: err}
	}
	return extraction, nil
}
