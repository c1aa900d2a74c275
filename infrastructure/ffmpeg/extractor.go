package ffmpeg

import (
	"context"
	"fmt"
)

// SpeechSampleRate is the rate speech recognizers expect
const SpeechSampleRate = 16000

// Extractor writes the audio track of a media file to a standalone file
type Extractor struct {
	ffmpegPath string
	runner     CommandRunner
}

// ExtractorOption is a functional option for configuring Extractor
type ExtractorOption func(*Extractor)

// WithExtractorFFmpegPath sets a custom ffmpeg executable path
func WithExtractorFFmpegPath(path string) ExtractorOption {
	return func(e *Extractor) {
		e.ffmpegPath = path
	}
}

// WithExtractorCommandRunner sets a custom command runner (for testing)
func WithExtractorCommandRunner(runner CommandRunner) ExtractorOption {
	return func(e *Extractor) {
		e.runner = runner
	}
}

// NewExtractor creates a new FFmpeg-based audio extractor
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ExtractSpeech writes a 16 kHz mono WAV of the first audio stream
func (e *Extractor) ExtractSpeech(ctx context.Context, sourcePath, outputPath string) error {
	args := []string{
		"-y",
		"-v", "error",
		"-nostdin",
		"-i", sourcePath,
		"-vn", // No video
		"-map", "0:a:0",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", fmt.Sprint(SpeechSampleRate),
		outputPath,
	}

	if err := e.runner.Run(ctx, e.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg audio extraction failed: %w", err)
	}

	return nil
}
