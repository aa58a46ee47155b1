package application

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voice-relay/internal/domain"
	"voice-relay/internal/fallback"
)

const (
	MinVoiceBytes     = 512
	MinNoteVoiceBytes = 128

	voicePrompt = "Transcribe clear spoken English for a personal productivity app. Names may include Rahman and Arjun."
	notesPrompt = "Transcribe spoken English note text accurately. Prefer English words only."
)

type ProcessRequest struct {
	Audio      string `json:"audio"`
	Context    string `json:"context"`
	MimeType   string `json:"mimeType"`
	ByteLength int64  `json:"byteLength,omitempty"`
}

type ProcessResult struct {
	Transcript string             `json:"transcript"`
	Parsed     *domain.Extraction `json:"parsed"`
	Context    domain.Context     `json:"context"`
}

type TranscribeRequest struct {
	Audio      string `json:"audio"`
	MimeType   string `json:"mimeType"`
	ByteLength int64  `json:"byteLength,omitempty"`
}

type TranscribeResult struct {
	Transcript string `json:"transcript"`
}

// Relay runs the transcription and extraction pipeline. A nil SpeechToText or
// StructuredExtractor means the upstream API key is not configured.
type Relay struct {
	stt       SpeechToText
	extractor StructuredExtractor
	metrics   Metrics
	notifier  Notifier
	logger    *slog.Logger
}

func NewRelay(stt SpeechToText, extractor StructuredExtractor, metrics Metrics, logger *slog.Logger) *Relay {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Relay{
		stt:       stt,
		extractor: extractor,
		metrics:   metrics,
		notifier:  &NoopNotifier{},
		logger:    logger,
	}
}

// WithNotifier sets where upstream failures are reported.
func (r *Relay) WithNotifier(n Notifier) *Relay {
	if n != nil {
		r.notifier = n
	}
	return r
}

func (r *Relay) Configured() bool {
	return r.stt != nil && r.extractor != nil
}

func (r *Relay) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	logger := LoggerFrom(ctx, r.logger)

	if req.Audio == "" || req.Context == "" {
		return nil, userError(ErrMissingInput, "Missing audio or context")
	}

	c, err := domain.ParseContext(req.Context)
	if err != nil {
		return nil, userError(ErrInvalidContext, "Invalid context: must be 'calendar' or 'todo'")
	}

	if !r.Configured() {
		return nil, userError(ErrNotConfigured, "API key not configured")
	}

	data := decodeAudio(req.Audio)
	if len(data) < MinVoiceBytes {
		return nil, userError(ErrAudioTooShort, "No usable audio captured. Record for 1-2 seconds and try again.")
	}

	clip := domain.AudioClip{Data: data, MimeType: req.MimeType}
	logger.Info("transcribing audio",
		"mime", mimeOrUnknown(req.MimeType),
		"bytes", len(data),
		"client_bytes", req.ByteLength,
	)

	transcript, err := r.transcribe(ctx, clip, voicePrompt)
	if err != nil {
		return nil, err
	}
	logger.Info("transcribed", "text", transcript)

	logger.Info("parsing transcript", "context", c)
	start := time.Now()
	parsed, err := r.extractor.Extract(ctx, transcript, c)
	r.metrics.ExtractionDone(string(c), time.Since(start), err)
	if err != nil {
		r.notifyFailure(ctx, err)
		return nil, fmt.Errorf("extracting %s: %w", c, err)
	}
	if parsed == nil {
		parsed = &domain.Extraction{}
	}
	parsed.Context = c

	if c == domain.ContextTodo {
		if len(parsed.Tasks) == 0 {
			if tasks := fallback.Tasks(transcript); len(tasks) > 0 {
				parsed.Tasks = tasks
				r.metrics.FallbackApplied()
				logger.Info("applied fallback task extraction")
			}
		}
		logger.Info("parsed tasks", "count", len(parsed.Tasks))
	}

	logger.Info("processing complete")

	return &ProcessResult{
		Transcript: transcript,
		Parsed:     parsed,
		Context:    c,
	}, nil
}

func (r *Relay) Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResult, error) {
	logger := LoggerFrom(ctx, r.logger)

	if req.Audio == "" {
		return nil, userError(ErrMissingInput, "Missing audio")
	}

	if !r.Configured() {
		return nil, userError(ErrNotConfigured, "API key not configured")
	}

	data := decodeAudio(req.Audio)
	if len(data) < MinNoteVoiceBytes {
		return nil, userError(ErrAudioTooShort, "Audio is too short. Try speaking for at least 1 second.")
	}

	logger.Info("notes transcription",
		"mime", mimeOrUnknown(req.MimeType),
		"bytes", len(data),
		"client_bytes", req.ByteLength,
	)

	transcript, err := r.transcribe(ctx, domain.AudioClip{Data: data, MimeType: req.MimeType}, notesPrompt)
	if err != nil {
		return nil, err
	}

	return &TranscribeResult{Transcript: transcript}, nil
}

func (r *Relay) transcribe(ctx context.Context, clip domain.AudioClip, prompt string) (string, error) {
	start := time.Now()
	transcript, err := r.stt.Transcribe(ctx, clip, TranscribeOptions{Prompt: prompt})
	r.metrics.TranscriptionDone(time.Since(start), err)
	if err != nil {
		r.notifyFailure(ctx, err)
		return "", fmt.Errorf("transcribing: %w", err)
	}

	if strings.TrimSpace(transcript) == "" {
		return "", userError(ErrNoTranscript, "Could not transcribe audio")
	}
	return transcript, nil
}

func (r *Relay) notifyFailure(ctx context.Context, err error) {
	if notifyErr := r.notifier.Notify(ctx, fmt.Sprintf("Error: %s", err.Error())); notifyErr != nil {
		LoggerFrom(ctx, r.logger).Error("notifying error", "error", notifyErr)
	}
}

var urlSafeAlphabet = strings.NewReplacer("-", "+", "_", "/")

// decodeAudio accepts standard or URL-safe base64, padded or not. Undecodable
// input yields nil so it is reported as unusable audio.
func decodeAudio(s string) []byte {
	s = urlSafeAlphabet.Replace(strings.TrimRight(strings.TrimSpace(s), "="))
	data, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil
	}
	return data
}

func mimeOrUnknown(m string) string {
	if m == "" {
		return "unknown"
	}
	return m
}
