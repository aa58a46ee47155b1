// Package capture records short voice clips from the default microphone for
// the command-line client.
package capture

import (
	"fmt"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	DefaultSampleRate = 16000
	framesPerBuffer   = 1024
	bitDepth          = 16
	pcmFormat         = 1
)

type Options struct {
	SampleRate int
	// MaxDuration stops recording even if the speaker never pauses.
	MaxDuration time.Duration
	// Silence ends the recording once this much quiet follows speech.
	Silence          time.Duration
	SilenceThreshold int16
}

func DefaultOptions() Options {
	return Options{
		SampleRate:       DefaultSampleRate,
		MaxDuration:      10 * time.Second,
		Silence:          time.Second,
		SilenceThreshold: 500,
	}
}

// isSilent reports whether every sample stays within the threshold.
func isSilent(samples []int16, threshold int16) bool {
	for _, s := range samples {
		if s > threshold || s < -threshold {
			return false
		}
	}
	return true
}

// stopDetector tracks how long the input has been quiet.
type stopDetector struct {
	opts        Options
	total       int
	quiet       int
	heardSpeech bool
}

// push records a buffer and reports whether recording should stop.
func (d *stopDetector) push(buf []int16) bool {
	d.total += len(buf)
	if isSilent(buf, d.opts.SilenceThreshold) {
		d.quiet += len(buf)
	} else {
		d.quiet = 0
		d.heardSpeech = true
	}

	maxSamples := int(d.opts.MaxDuration.Seconds() * float64(d.opts.SampleRate))
	if maxSamples > 0 && d.total >= maxSamples {
		return true
	}

	silenceSamples := int(d.opts.Silence.Seconds() * float64(d.opts.SampleRate))
	return d.heardSpeech && silenceSamples > 0 && d.quiet >= silenceSamples
}

// WriteWAV stores 16-bit mono PCM samples as a WAV file.
func WriteWAV(path string, samples []int16, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, pcmFormat)
	if err := enc.Write(&audio.IntBuffer{
		Data:           data,
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
	}); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}
