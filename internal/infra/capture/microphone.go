//go:build portaudio

package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

// Record captures mono audio from the default input device until the speaker
// pauses, MaxDuration elapses or ctx is done.
func Record(ctx context.Context, opts Options, logger *slog.Logger) ([]int16, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	buffer := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(opts.SampleRate), len(buffer), buffer)
	if err != nil {
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	defer stream.Stop()

	logger.Info("recording", "sample_rate", opts.SampleRate, "max", opts.MaxDuration)

	detector := &stopDetector{opts: opts}
	samples := make([]int16, 0, opts.SampleRate*5)

	for {
		select {
		case <-ctx.Done():
			return samples, ctx.Err()
		default:
		}

		if err := stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}
		samples = append(samples, buffer...)

		if detector.push(buffer) {
			break
		}
	}

	logger.Info("recording finished", "samples", len(samples))
	return samples, nil
}
