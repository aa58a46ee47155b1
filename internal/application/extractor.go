package application

import (
	"context"

	"voice-relay/internal/domain"
)

// StructuredExtractor turns a transcript into calendar events or tasks.
type StructuredExtractor interface {
	Extract(ctx context.Context, transcript string, c domain.Context) (*domain.Extraction, error)
}
