//go:build !portaudio

package capture

import (
	"context"
	"fmt"
	"log/slog"
)

// Record is unavailable without portaudio.
func Record(_ context.Context, _ Options, _ *slog.Logger) ([]int16, error) {
	return nil, fmt.Errorf("microphone capture not available: rebuild with -tags portaudio")
}
