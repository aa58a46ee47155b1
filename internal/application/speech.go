package application

import (
	"context"

	"voice-relay/internal/domain"
)

type TranscribeOptions struct {
	Prompt   string
	Language string
}

type SpeechToText interface {
	Transcribe(ctx context.Context, clip domain.AudioClip, opts TranscribeOptions) (string, error)
}
