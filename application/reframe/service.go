package reframe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"montage-media/domain/analysis"
	"montage-media/domain/media"
)

const (
	// DefaultFrameRate is assumed when the source does not report one
	DefaultFrameRate = 30.0

	outputFormat      = "mp4"
	defaultAudioCodec = "aac"
)

// ProgressFunc receives the number of frames written and the estimated
// total. total is 0 when the source length is unknown.
type ProgressFunc func(done, total int)

// Option configures a Service
type Option func(*Service)

// WithProgress reports progress after every written frame
func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) {
		s.progress = fn
	}
}

// Service renders a new file whose frames follow the most active region of
// the source at a different aspect ratio
type Service struct {
	decoder     media.Decoder
	encoder     media.Encoder
	analyzer    media.Analyzer
	fileChecker media.FileChecker
	dirs        media.DirectoryCreator
	logger      zerolog.Logger
	progress    ProgressFunc
}

// NewService creates a new auto-reframe Service
func NewService(decoder media.Decoder, encoder media.Encoder, analyzer media.Analyzer, fileChecker media.FileChecker, dirs media.DirectoryCreator, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		decoder:     decoder,
		encoder:     encoder,
		analyzer:    analyzer,
		fileChecker: fileChecker,
		dirs:        dirs,
		logger:      logger.With().Str("component", "reframe").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reframe renders input into output at the aspect ratio of cfg. Audio is
// copied through unmodified.
func (s *Service) Reframe(ctx context.Context, input, output string, cfg analysis.ReframeConfig) (analysis.ReframeResult, error) {
	if !s.fileChecker.Exists(input) {
		return analysis.ReframeResult{}, fmt.Errorf("%w: %s", analysis.ErrInputNotFound, input)
	}
	if err := s.dirs.EnsureParentDir(output); err != nil {
		return analysis.ReframeResult{}, fmt.Errorf("failed to prepare output directory: %w: %w", analysis.ErrIO, err)
	}

	session, err := s.decoder.Open(ctx, input)
	if err != nil {
		return analysis.ReframeResult{}, fmt.Errorf("failed to open %s: %w: %w", input, analysis.ErrIO, err)
	}
	defer session.Close()

	info := session.Info()
	if info.Width <= 0 || info.Height <= 0 {
		return analysis.ReframeResult{}, fmt.Errorf("%w: %s reports no picture size", analysis.ErrIO, input)
	}
	fps := info.FrameRate
	if fps <= 0 {
		fps = DefaultFrameRate
	}

	aspect := cfg.Aspect()
	targetWidth, targetHeight := TargetSize(info.Width, info.Height, aspect)

	audioCodec := info.AudioCodec
	if audioCodec == "" {
		audioCodec = defaultAudioCodec
	}
	sink, err := s.encoder.Create(ctx, output, media.SinkOptions{
		Width:         targetWidth,
		Height:        targetHeight,
		AudioChannels: info.AudioChannels,
		SampleRate:    info.SampleRate,
		FrameRate:     fps,
		Format:        outputFormat,
		VideoCodec:    info.VideoCodec,
		AudioCodec:    audioCodec,
		HardwareAccel: cfg.EnableGPU,
	})
	if err != nil {
		return analysis.ReframeResult{}, fmt.Errorf("failed to create %s: %w: %w", output, analysis.ErrIO, err)
	}
	defer func() {
		if sink != nil {
			sink.Close()
		}
	}()

	s.logger.Info().
		Str("input", input).
		Str("output", output).
		Int("source_width", info.Width).
		Int("source_height", info.Height).
		Int("width", targetWidth).
		Int("height", targetHeight).
		Float64("fps", fps).
		Msg("reframing")

	total := int(info.Duration.Seconds() * fps)
	var (
		roi    media.Rect
		frames int
	)

	for {
		if err := ctx.Err(); err != nil {
			return analysis.ReframeResult{}, fmt.Errorf("reframe interrupted: %w", err)
		}

		frame, err := session.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return analysis.ReframeResult{}, fmt.Errorf("failed to read frame %d: %w: %w", frames, analysis.ErrIO, err)
		}

		if !frame.IsVideo() {
			if frame.Audio == nil {
				continue
			}
			if err := sink.WriteAudio(*frame.Audio); err != nil {
				return analysis.ReframeResult{}, fmt.Errorf("failed to write audio at %s: %w: %w", frame.Timestamp, analysis.ErrIO, err)
			}
			continue
		}

		roi, err = s.writeFrame(sink, frame.Image, roi, frames == 0, targetWidth, targetHeight, aspect, cfg.Smoothing)
		if err != nil {
			return analysis.ReframeResult{}, fmt.Errorf("frame %d: %w", frames, err)
		}
		frames++
		if s.progress != nil {
			s.progress(frames, total)
		}
	}

	err = sink.Close()
	sink = nil
	if err != nil {
		return analysis.ReframeResult{}, fmt.Errorf("failed to finalise %s: %w: %w", output, analysis.ErrIO, err)
	}

	result := analysis.ReframeResult{
		OutputPath:        output,
		ProcessedDuration: time.Duration(float64(frames) / fps * float64(time.Second)),
		FramesProcessed:   frames,
		Width:             targetWidth,
		Height:            targetHeight,
	}
	s.logger.Info().
		Str("output", output).
		Int("frames", frames).
		Dur("duration", result.ProcessedDuration).
		Msg("reframe complete")

	return result, nil
}

// writeFrame tracks the region of interest on img, writes the cropped
// picture and returns the updated region. img is always released.
func (s *Service) writeFrame(sink media.Sink, img media.Image, previous media.Rect, first bool, targetWidth, targetHeight int, aspect, smoothing float64) (media.Rect, error) {
	defer img.Close()

	detected, err := s.analyzer.EdgeBounds(img)
	if err != nil {
		return previous, fmt.Errorf("failed to detect subject: %w: %w", analysis.ErrIO, err)
	}

	var roi media.Rect
	if first {
		roi = InitialROI(detected, img.Width(), img.Height(), aspect)
	} else {
		roi = Blend(previous, detected, smoothing)
	}

	rect := CropRect(roi, img.Width(), img.Height(), targetWidth, targetHeight)
	cropped, err := s.analyzer.Crop(img, rect, targetWidth, targetHeight)
	if err != nil {
		return previous, fmt.Errorf("failed to crop %s: %w: %w", rect, analysis.ErrIO, err)
	}
	defer cropped.Close()

	if err := sink.WriteImage(cropped); err != nil {
		return previous, fmt.Errorf("failed to write picture: %w: %w", analysis.ErrIO, err)
	}
	return roi, nil
}
