package openai

import (
	"errors"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-relay/internal/infra"
)

const (
	DefaultBaseURL            = "https://api.openai.com/v1"
	DefaultTranscriptionModel = goopenai.Whisper1
	DefaultChatModel          = "gpt-4.1-mini"
	defaultTimeout            = 30 * time.Second
)

type Config struct {
	APIKey             string
	BaseURL            string
	Language           string
	TranscriptionModel string
	ChatModel          string
	UserName           string
	Timeout            time.Duration
}

func newClient(cfg Config) *goopenai.Client {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	return goopenai.NewClientWithConfig(clientCfg)
}

func retryConfig() infra.RetryConfig {
	cfg := infra.DefaultRetryConfig()
	cfg.Retryable = isRetryable
	return cfg
}

// isRetryable retries rate limits, server errors and transport failures.
func isRetryable(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return infra.IsRetryableHTTPStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return infra.IsRetryableHTTPStatus(reqErr.HTTPStatusCode)
	}
	return true
}

// apiMessage extracts the upstream error message when there is one.
func apiMessage(err error) string {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
