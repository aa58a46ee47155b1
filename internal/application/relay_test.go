package application_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice-relay/internal/application"
	"voice-relay/internal/domain"
)

type mockSTT struct {
	text  string
	err   error
	calls []application.TranscribeOptions
	clips []domain.AudioClip
}

func (m *mockSTT) Transcribe(_ context.Context, clip domain.AudioClip, opts application.TranscribeOptions) (string, error) {
	m.calls = append(m.calls, opts)
	m.clips = append(m.clips, clip)
	return m.text, m.err
}

type mockExtractor struct {
	result *domain.Extraction
	err    error
	seen   []domain.Context
}

func (m *mockExtractor) Extract(_ context.Context, _ string, c domain.Context) (*domain.Extraction, error) {
	m.seen = append(m.seen, c)
	return m.result, m.err
}

type countingMetrics struct {
	transcriptions int
	extractions    int
	fallbacks      int
}

func (m *countingMetrics) TranscriptionDone(time.Duration, error)      { m.transcriptions++ }
func (m *countingMetrics) ExtractionDone(string, time.Duration, error) { m.extractions++ }
func (m *countingMetrics) FallbackApplied()                            { m.fallbacks++ }

func newTestRelay(stt *mockSTT, ext *mockExtractor, metrics application.Metrics) *application.Relay {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return application.NewRelay(stt, ext, metrics, logger)
}

func audioOf(n int) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("a", n)))
}

func TestRelay_ProcessTodoUsesModelTasks(t *testing.T) {
	stt := &mockSTT{text: "buy milk urgently"}
	ext := &mockExtractor{result: &domain.Extraction{
		Tasks: []domain.Task{{Title: "Buy milk", Priority: domain.PriorityHigh}},
	}}
	metrics := &countingMetrics{}

	res, err := newTestRelay(stt, ext, metrics).Process(context.Background(), application.ProcessRequest{
		Audio:    audioOf(1024),
		Context:  "todo",
		MimeType: "audio/mp4",
	})
	require.NoError(t, err)

	assert.Equal(t, "buy milk urgently", res.Transcript)
	assert.Equal(t, domain.ContextTodo, res.Context)
	assert.Equal(t, domain.ContextTodo, res.Parsed.Context)
	require.Len(t, res.Parsed.Tasks, 1)
	assert.Equal(t, domain.PriorityHigh, res.Parsed.Tasks[0].Priority)

	require.Len(t, stt.clips, 1)
	assert.Len(t, stt.clips[0].Data, 1024)
	assert.Equal(t, "audio/mp4", stt.clips[0].MimeType)
	assert.Contains(t, stt.calls[0].Prompt, "productivity app")

	assert.Equal(t, 1, metrics.transcriptions)
	assert.Equal(t, 1, metrics.extractions)
	assert.Zero(t, metrics.fallbacks)
}

func TestRelay_ProcessTodoFallback(t *testing.T) {
	stt := &mockSTT{text: "Remind me to call Arjun."}
	ext := &mockExtractor{result: &domain.Extraction{}}
	metrics := &countingMetrics{}

	res, err := newTestRelay(stt, ext, metrics).Process(context.Background(), application.ProcessRequest{
		Audio:   audioOf(600),
		Context: "todo",
	})
	require.NoError(t, err)

	assert.Equal(t, []domain.Task{{Title: "Call Arjun", Priority: domain.PriorityMedium}}, res.Parsed.Tasks)
	assert.Equal(t, 1, metrics.fallbacks)
}

func TestRelay_ProcessTodoFillerStaysEmpty(t *testing.T) {
	stt := &mockSTT{text: "Hello."}
	ext := &mockExtractor{result: nil}

	res, err := newTestRelay(stt, ext, nil).Process(context.Background(), application.ProcessRequest{
		Audio:   audioOf(600),
		Context: "todo",
	})
	require.NoError(t, err)
	assert.Empty(t, res.Parsed.Tasks)
}

func TestRelay_ProcessCalendarSkipsFallback(t *testing.T) {
	stt := &mockSTT{text: "remind me to call Arjun"}
	ext := &mockExtractor{result: &domain.Extraction{}}
	metrics := &countingMetrics{}

	res, err := newTestRelay(stt, ext, metrics).Process(context.Background(), application.ProcessRequest{
		Audio:   audioOf(600),
		Context: "calendar",
	})
	require.NoError(t, err)

	assert.Empty(t, res.Parsed.Tasks)
	assert.Equal(t, []domain.Context{domain.ContextCalendar}, ext.seen)
	assert.Zero(t, metrics.fallbacks)
}

func TestRelay_ProcessValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     application.ProcessRequest
		wantErr error
	}{
		{"missing audio", application.ProcessRequest{Context: "todo"}, application.ErrMissingInput},
		{"missing context", application.ProcessRequest{Audio: audioOf(600)}, application.ErrMissingInput},
		{"bad context", application.ProcessRequest{Audio: audioOf(600), Context: "notes"}, application.ErrInvalidContext},
		{"too short", application.ProcessRequest{Audio: audioOf(511), Context: "todo"}, application.ErrAudioTooShort},
		{"not base64", application.ProcessRequest{Audio: "!!!not-audio!!!", Context: "todo"}, application.ErrAudioTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stt := &mockSTT{text: "anything"}
			_, err := newTestRelay(stt, &mockExtractor{}, nil).Process(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, stt.calls)

			var userErr *application.UserError
			assert.True(t, errors.As(err, &userErr))
		})
	}
}

func TestRelay_ProcessBlankTranscript(t *testing.T) {
	stt := &mockSTT{text: "   "}
	ext := &mockExtractor{}

	_, err := newTestRelay(stt, ext, nil).Process(context.Background(), application.ProcessRequest{
		Audio:   audioOf(600),
		Context: "todo",
	})
	assert.ErrorIs(t, err, application.ErrNoTranscript)
	assert.Empty(t, ext.seen)
}

func TestRelay_ProcessUpstreamErrors(t *testing.T) {
	upstream := errors.New("whisper API error 503")

	_, err := newTestRelay(&mockSTT{err: upstream}, &mockExtractor{}, nil).Process(context.Background(), application.ProcessRequest{
		Audio:   audioOf(600),
		Context: "todo",
	})
	assert.ErrorIs(t, err, upstream)

	var userErr *application.UserError
	assert.False(t, errors.As(err, &userErr))

	_, err = newTestRelay(&mockSTT{text: "x"}, &mockExtractor{err: upstream}, nil).Process(context.Background(), application.ProcessRequest{
		Audio:   audioOf(600),
		Context: "calendar",
	})
	assert.ErrorIs(t, err, upstream)
}

func TestRelay_NotConfigured(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	relay := application.NewRelay(nil, nil, nil, logger)
	assert.False(t, relay.Configured())

	_, err := relay.Process(context.Background(), application.ProcessRequest{Audio: audioOf(10), Context: "todo"})
	assert.ErrorIs(t, err, application.ErrNotConfigured)

	_, err = relay.Transcribe(context.Background(), application.TranscribeRequest{Audio: audioOf(10)})
	assert.ErrorIs(t, err, application.ErrNotConfigured)
}

func TestRelay_Transcribe(t *testing.T) {
	stt := &mockSTT{text: "note to self"}
	relay := newTestRelay(stt, &mockExtractor{}, nil)

	res, err := relay.Transcribe(context.Background(), application.TranscribeRequest{Audio: audioOf(128)})
	require.NoError(t, err)
	assert.Equal(t, "note to self", res.Transcript)
	assert.Contains(t, stt.calls[0].Prompt, "note text")

	_, err = relay.Transcribe(context.Background(), application.TranscribeRequest{Audio: audioOf(127)})
	assert.ErrorIs(t, err, application.ErrAudioTooShort)

	_, err = relay.Transcribe(context.Background(), application.TranscribeRequest{})
	assert.ErrorIs(t, err, application.ErrMissingInput)
}

func TestRelay_AcceptsUnpaddedBase64(t *testing.T) {
	stt := &mockSTT{text: "note"}
	raw := base64.RawStdEncoding.EncodeToString([]byte(strings.Repeat("b", 130)))

	_, err := newTestRelay(stt, &mockExtractor{}, nil).Transcribe(context.Background(), application.TranscribeRequest{Audio: raw})
	require.NoError(t, err)
	assert.Len(t, stt.clips[0].Data, 130)
}

func TestRelay_AcceptsURLSafeBase64(t *testing.T) {
	audio := bytes.Repeat([]byte{0xfb, 0xff, 0xbf}, 50)

	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding} {
		stt := &mockSTT{text: "note"}
		_, err := newTestRelay(stt, &mockExtractor{}, nil).Transcribe(context.Background(), application.TranscribeRequest{
			Audio: enc.EncodeToString(audio),
		})
		require.NoError(t, err)
		assert.Equal(t, audio, stt.clips[0].Data)
	}
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func TestRelay_NotifiesUpstreamFailures(t *testing.T) {
	notifier := &recordingNotifier{}
	relay := newTestRelay(&mockSTT{err: errors.New("whisper down")}, &mockExtractor{}, nil).WithNotifier(notifier)

	_, err := relay.Process(context.Background(), application.ProcessRequest{Audio: audioOf(600), Context: "todo"})
	require.Error(t, err)
	assert.Equal(t, []string{"Error: whisper down"}, notifier.messages)

	_, err = relay.Process(context.Background(), application.ProcessRequest{Audio: audioOf(10), Context: "todo"})
	require.Error(t, err)
	assert.Len(t, notifier.messages, 1, "client errors are not reported")
}
