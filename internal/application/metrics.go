package application

import "time"

// Metrics receives pipeline timings. Errors are passed through so
// implementations can label outcomes.
type Metrics interface {
	TranscriptionDone(elapsed time.Duration, err error)
	ExtractionDone(c string, elapsed time.Duration, err error)
	FallbackApplied()
}

type NoopMetrics struct{}

func (NoopMetrics) TranscriptionDone(time.Duration, error) {}

func (NoopMetrics) ExtractionDone(string, time.Duration, error) {}

func (NoopMetrics) FallbackApplied() {}
