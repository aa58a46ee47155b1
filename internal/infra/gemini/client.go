package gemini

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

const DefaultModel = "gemini-2.0-flash"

type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	userName   string
	now        func() time.Time
}

func NewClient(apiKey, model, userName string) *Client {
	return NewClientWithURL(apiKey, model, userName, "https://generativelanguage.googleapis.com/v1beta")
}

func NewClientWithURL(apiKey, model, userName, baseURL string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
		userName:   userName,
		now:        time.Now,
	}
}

// WithClock overrides the clock used for calendar prompts.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

type request struct {
	Contents         []content        `json:"contents"`
	SystemInstruct   *content         `json:"systemInstruction,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *Client) Extract(ctx context.Context, transcript string, dc domain.Context) (*domain.Extraction, error) {
	reqBody := request{
		SystemInstruct: &content{
			Parts: []part{{Text: llm.SystemPrompt(dc, c.userName, c.now())}},
		},
		Contents: []content{
			{
				Role:  "user",
				Parts: []part{{Text: transcript}},
			},
		},
		GenerationConfig: generationConfig{
			MaxOutputTokens:  llm.MaxTokens,
			Temperature:      llm.Temperature,
			ResponseMimeType: "application/json",
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var result response
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

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
			return &infra.StatusError{Provider: "gemini", StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		if err = json.Unmarshal(respBody, &result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	})

	if retryErr != nil {
		return nil, &infra.UpstreamError{Op: "parsing", Message: retryErr.Error(), Err: retryErr}
	}

	if result.Error != nil {
		return nil, &infra.UpstreamError{Op: "parsing", Message: result.Error.Message}
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, &infra.UpstreamError{Op: "parsing", Message: "empty response from gemini"}
	}

	extraction, err := llm.DecodeExtraction(dc, result.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, &infra.UpstreamError{Op: "parsing", Message: err.Error(), Err: err}
	}
	return extraction, nil
}
