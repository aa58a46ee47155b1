package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"voice-relay/internal/client"
	"voice-relay/internal/domain"
	"voice-relay/internal/infra/capture"
)

const usage = `usage: voicectl [flags] <process|transcribe|health> [audio-file]

Sends an audio file, or a fresh microphone recording with -mic, to a voice relay.

flags:
`

func main() {
	server := flag.String("server", envOr("VOICE_RELAY_URL", "http://localhost:3001"), "relay base URL")
	contextName := flag.String("context", "todo", "extraction context for process: todo or calendar")
	mimeType := flag.String("mime", "", "audio mime type (guessed from the file extension when empty)")
	mic := flag.Bool("mic", false, "record from the default microphone instead of reading a file")
	maxDuration := flag.Duration("max", 10*time.Second, "maximum microphone recording length")
	out := flag.String("out", "", "keep the microphone recording at this path")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := client.New(*server)

	var result any
	var err error

	switch cmd := flag.Arg(0); cmd {
	case "health":
		result, err = c.Health(ctx)

	case "process", "transcribe":
		var audio []byte
		var mime string
		audio, mime, err = loadAudio(ctx, flag.Arg(1), *mimeType, *mic, *maxDuration, *out, logger)
		if err != nil {
			break
		}
		if cmd == "transcribe" {
			var text string
			text, err = c.Transcribe(ctx, audio, mime)
			result = map[string]string{"transcript": text}
			break
		}
		var dc domain.Context
		if dc, err = domain.ParseContext(*contextName); err != nil {
			break
		}
		result, err = c.Process(ctx, audio, mime, dc)

	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "voicectl:", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

func loadAudio(ctx context.Context, path, mime string, mic bool, maxDuration time.Duration, out string, logger *slog.Logger) ([]byte, string, error) {
	if mic {
		return recordAudio(ctx, maxDuration, out, logger)
	}
	if path == "" {
		return nil, "", fmt.Errorf("audio file required (or use -mic)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading audio: %w", err)
	}
	if mime == "" {
		mime = domain.MimeTypeForExtension(filepath.Ext(path))
	}
	return data, mime, nil
}

func recordAudio(ctx context.Context, maxDuration time.Duration, out string, logger *slog.Logger) ([]byte, string, error) {
	opts := capture.DefaultOptions()
	opts.MaxDuration = maxDuration

	fmt.Fprintln(os.Stderr, "recording... pause for a second to finish")
	samples, err := capture.Record(ctx, opts, logger)
	if err != nil {
		return nil, "", err
	}

	path := out
	if path == "" {
		tmp, err := os.CreateTemp("", "voicectl-*.wav")
		if err != nil {
			return nil, "", fmt.Errorf("creating temp file: %w", err)
		}
		tmp.Close()
		path = tmp.Name()
		defer os.Remove(path)
	}

	if err := capture.WriteWAV(path, samples, opts.SampleRate); err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading recording: %w", err)
	}
	return data, "audio/wav", nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
