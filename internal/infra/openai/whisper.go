package openai

import (
	"bytes"
	"context"

	goopenai "github.com/sashabaranov/go-openai"

	"voice-relay/internal/application"
	"voice-relay/internal/domain"
	"voice-relay/internal/infra"
)

type WhisperClient struct {
	client   *goopenai.Client
	model    string
	language string
}

func NewWhisperClient(cfg Config) *WhisperClient {
	model := cfg.TranscriptionModel
	if model == "" {
		model = DefaultTranscriptionModel
	}
	return &WhisperClient{
		client:   newClient(cfg),
		model:    model,
		language: cfg.Language,
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, clip domain.AudioClip, opts application.TranscribeOptions) (string, error) {
	filename, _ := clip.FileMeta()

	language := opts.Language
	if language == "" {
		language = c.language
	}

	var result goopenai.AudioResponse
	err := infra.WithRetry(ctx, retryConfig(), func() error {
		resp, err := c.client.CreateTranscription(ctx, goopenai.AudioRequest{
			Model:       c.model,
			FilePath:    filename,
			Reader:      bytes.NewReader(clip.Data),
			Prompt:      opts.Prompt,
			Temperature: 0,
			Language:    language,
			Format:      goopenai.AudioResponseFormatJSON,
		})
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		return "", &infra.UpstreamError{Op: "transcription", Message: apiMessage(err), Err: err}
	}

	return result.Text, nil
}
