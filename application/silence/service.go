package silence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog"

	"montage-media/domain/analysis"
	"montage-media/domain/media"
)

const (
	// DefaultSampleRate is assumed when the container does not report one
	DefaultSampleRate = 48000

	minimumWindow = 1024
	fullScale     = 32768.0
)

// Service finds low-energy spans of the audio track
type Service struct {
	decoder     media.Decoder
	fileChecker media.FileChecker
	config      analysis.SilenceDetectionConfig
	logger      zerolog.Logger
}

// NewService creates a new silence detection Service
func NewService(decoder media.Decoder, fileChecker media.FileChecker, config analysis.SilenceDetectionConfig, logger zerolog.Logger) *Service {
	return &Service{
		decoder:     decoder,
		fileChecker: fileChecker,
		config:      config,
		logger:      logger.With().Str("component", "silence").Logger(),
	}
}

// Detect returns the silences of the file in ascending order
func (s *Service) Detect(ctx context.Context, path string) ([]analysis.SilenceRange, error) {
	if !s.fileChecker.Exists(path) {
		return nil, fmt.Errorf("%w: %s", analysis.ErrInputNotFound, path)
	}

	session, err := s.decoder.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w: %w", path, analysis.ErrIO, err)
	}
	defer session.Close()

	info := session.Info()
	if !info.HasAudio() {
		s.logger.Debug().Str("path", path).Msg("no audio stream, skipping")
		return []analysis.SilenceRange{}, nil
	}

	sampleRate := info.SampleRate
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	tracker := newTracker(sampleRate, s.config)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("silence detection interrupted: %w", err)
		}

		chunk, err := session.NextAudio()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read audio: %w: %w", analysis.ErrIO, err)
		}

		channels := chunk.Channels
		if channels <= 0 {
			channels = info.AudioChannels
		}
		tracker.feed(chunk.Samples, channels)
	}

	silences, err := tracker.finish()
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("path", path).
		Int("silences", len(silences)).
		Msg("silence detection complete")

	return silences, nil
}

// WindowSize returns the analysis window in sample frames
func WindowSize(sampleRate int) int {
	return max(minimumWindow, sampleRate/20)
}

// tracker runs the silent/non-silent state machine over fixed windows.
// Windows span chunk boundaries.
type tracker struct {
	sampleRate int
	window     int
	threshold  float64
	minimum    time.Duration

	framesProcessed int64
	windowFrames    int
	windowSamples   int
	windowSum       float64

	silent       bool
	silenceStart time.Duration
	silences     []analysis.SilenceRange
	err          error
}

func newTracker(sampleRate int, config analysis.SilenceDetectionConfig) *tracker {
	return &tracker{
		sampleRate: sampleRate,
		window:     WindowSize(sampleRate),
		threshold:  config.RMSThreshold,
		minimum:    config.MinimumSilence,
		silences:   []analysis.SilenceRange{},
	}
}

// feed consumes interleaved samples. Energy is taken over every sample of
// every channel; the window length is counted in frames.
func (t *tracker) feed(samples []int16, channels int) {
	channels = max(1, channels)
	for i := 0; i+channels <= len(samples); i += channels {
		for ch := 0; ch < channels; ch++ {
			v := float64(samples[i+ch]) / fullScale
			t.windowSum += v * v
		}
		t.windowSamples += channels
		t.windowFrames++
		if t.windowFrames == t.window {
			t.closeWindow()
		}
	}
}

func (t *tracker) closeWindow() {
	if t.windowFrames == 0 {
		return
	}
	rms := math.Sqrt(t.windowSum / float64(t.windowSamples))
	at := t.elapsed()
	t.framesProcessed += int64(t.windowFrames)
	t.windowFrames = 0
	t.windowSamples = 0
	t.windowSum = 0

	if rms < t.threshold {
		if !t.silent {
			t.silent = true
			t.silenceStart = at
		}
		return
	}
	if t.silent {
		t.emit(at)
		t.silent = false
	}
}

func (t *tracker) finish() ([]analysis.SilenceRange, error) {
	t.closeWindow()
	if t.silent {
		t.emit(t.elapsed())
		t.silent = false
	}
	if t.err != nil {
		return nil, t.err
	}
	return t.silences, nil
}

func (t *tracker) emit(end time.Duration) {
	if t.err != nil || end-t.silenceStart < t.minimum {
		return
	}
	r, err := analysis.NewSilenceRange(t.silenceStart, end)
	if err != nil {
		t.err = err
		return
	}
	t.silences = append(t.silences, r)
}

func (t *tracker) elapsed() time.Duration {
	return time.Duration(t.framesProcessed * int64(time.Second) / int64(t.sampleRate))
}
