package openai

import (
	"context"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-relay/internal/domain"
	"voice-relay/internal/infra"
	"voice-relay/internal/infra/llm"
)

type ChatExtractor struct {
	client   *goopenai.Client
	model    string
	userName string
	now      func() time.Time
}

// NewChatExtractor builds an extractor; now supplies the date used to resolve
// relative days in calendar speech and defaults to time.Now.
func NewChatExtractor(cfg Config, now func() time.Time) *ChatExtractor {
	model := cfg.ChatModel
	if model == "" {
		model = DefaultChatModel
	}
	if now == nil {
		now = time.Now
	}
	return &ChatExtractor{
		client:   newClient(cfg),
		model:    model,
		userName: cfg.UserName,
		now:      now,
	}
}

func (e *ChatExtractor) Extract(ctx context.Context, transcript string, c domain.Context) (*domain.Extraction, error) {
	req := goopenai.ChatCompletionRequest{
		Model: e.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.SystemPrompt(c, e.userName, e.now())},
			{Role: goopenai.ChatMessageRoleUser, Content: transcript},
		},
		Temperature: llm.Temperature,
		MaxTokens:   llm.MaxTokens,
	}

	var resp goopenai.ChatCompletionResponse
	err := infra.WithRetry(ctx, retryConfig(), func() error {
		r, err := e.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, &infra.UpstreamError{Op: "parsing", Message: apiMessage(err), Err: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &infra.UpstreamError{Op: "parsing", Message: "empty response from model"}
	}

	extraction, err := llm.DecodeExtraction(c, resp.Choices[0].Message.Content)
	if err != nil {
		return nil, &infra.UpstreamError{Op: "parsing", Message: err.Error(), Err: err}
	}
	return extraction, nil
}
