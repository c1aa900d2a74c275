package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"montage-media/application/highlight"
	"montage-media/domain/analysis"
)

// SceneDetector splits a file into scenes
type SceneDetector interface {
	Detect(ctx context.Context, path string) ([]analysis.SceneSegment, error)
}

// SilenceDetector finds silent spans of a file
type SilenceDetector interface {
	Detect(ctx context.Context, path string) ([]analysis.SilenceRange, error)
}

// HighlightScorer ranks scenes
type HighlightScorer interface {
	Score(ctx context.Context, path string, scenes []analysis.SceneSegment, silences []analysis.SilenceRange, subtitles []analysis.SubtitleLine, keywords []string) ([]analysis.HighlightSegment, error)
	Config() analysis.HighlightConfig
}

// Reframer renders a file at a new aspect ratio
type Reframer interface {
	Reframe(ctx context.Context, input, output string, cfg analysis.ReframeConfig) (analysis.ReframeResult, error)
}

// SubtitleReader loads subtitles that were produced ahead of time
type SubtitleReader interface {
	ReadSubtitles(path string) ([]analysis.SubtitleLine, error)
}

// Request describes one analysis run
type Request struct {
	Path     string
	Keywords []string

	// SubtitlesPath points at an existing SRT or WebVTT file. When empty the
	// configured transcriber, if any, is asked instead.
	SubtitlesPath string
}

// Report is the complete analysis of one file
type Report struct {
	Path       string
	Scenes     []analysis.SceneSegment
	Silences   []analysis.SilenceRange
	Subtitles  []analysis.SubtitleLine
	Highlights []analysis.HighlightSegment

	// Reel is the chronological selection of highlights that fits the target duration
	Reel    []analysis.HighlightSegment
	Elapsed time.Duration
}

// Option configures a Service
type Option func(*Service)

// WithTranscriber sets the speech-to-text strategy used when a request has no subtitles file
func WithTranscriber(t analysis.Transcriber) Option {
	return func(s *Service) {
		s.transcriber = t
	}
}

// WithSubtitleReader sets how Request.SubtitlesPath is loaded
func WithSubtitleReader(r SubtitleReader) Option {
	return func(s *Service) {
		s.subtitleReader = r
	}
}

// Service runs the analysis stages in order and collects their output
type Service struct {
	scenes         SceneDetector
	silences       SilenceDetector
	highlights     HighlightScorer
	reframer       Reframer
	transcriber    analysis.Transcriber
	subtitleReader SubtitleReader
	logger         zerolog.Logger
}

// NewService creates a new pipeline Service
func NewService(scenes SceneDetector, silences SilenceDetector, highlights HighlightScorer, reframer Reframer, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		scenes:     scenes,
		silences:   silences,
		highlights: highlights,
		reframer:   reframer,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze detects scenes and silences, gathers subtitles, then scores
// highlights and selects the reel
func (s *Service) Analyze(ctx context.Context, req Request) (*Report, error) {
	started := time.Now()
	report := &Report{Path: req.Path}

	s.logger.Info().Str("path", req.Path).Msg("detecting scenes")
	scenes, err := s.scenes.Detect(ctx, req.Path)
	if err != nil {
		return nil, fmt.Errorf("scene detection failed: %w", err)
	}
	report.Scenes = scenes

	s.logger.Info().Str("path", req.Path).Msg("detecting silences")
	silences, err := s.silences.Detect(ctx, req.Path)
	if err != nil {
		return nil, fmt.Errorf("silence detection failed: %w", err)
	}
	report.Silences = silences

	subtitles, err := s.Subtitles(ctx, req)
	if err != nil {
		return nil, err
	}
	report.Subtitles = subtitles

	s.logger.Info().Str("path", req.Path).Int("scenes", len(scenes)).Msg("scoring highlights")
	highlights, err := s.highlights.Score(ctx, req.Path, scenes, silences, subtitles, req.Keywords)
	if err != nil {
		return nil, fmt.Errorf("highlight scoring failed: %w", err)
	}
	report.Highlights = highlights
	report.Reel = highlight.SelectReel(highlights, s.highlights.Config().TargetDuration)
	report.Elapsed = time.Since(started)

	s.logger.Info().
		Str("path", req.Path).
		Int("scenes", len(report.Scenes)).
		Int("silences", len(report.Silences)).
		Int("subtitles", len(report.Subtitles)).
		Int("reel", len(report.Reel)).
		Dur("elapsed", report.Elapsed).
		Msg("analysis complete")

	return report, nil
}

// Subtitles returns the subtitles for a request: the given file if there is
// one, otherwise the transcriber's output, otherwise none
func (s *Service) Subtitles(ctx context.Context, req Request) ([]analysis.SubtitleLine, error) {
	if req.SubtitlesPath != "" {
		if s.subtitleReader == nil {
			return nil, fmt.Errorf("%w: no subtitle reader configured for %s", analysis.ErrInvalidConfiguration, req.SubtitlesPath)
		}
		lines, err := s.subtitleReader.ReadSubtitles(req.SubtitlesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read subtitles: %w", err)
		}
		return lines, nil
	}
	if s.transcriber == nil {
		return []analysis.SubtitleLine{}, nil
	}

	s.logger.Info().Str("path", req.Path).Msg("transcribing")
	lines, err := s.transcriber.Transcribe(ctx, req.Path)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	return lines, nil
}

// Reframe delegates to the reframe service
func (s *Service) Reframe(ctx context.Context, input, output string, cfg analysis.ReframeConfig) (analysis.ReframeResult, error) {
	return s.reframer.Reframe(ctx, input, output, cfg)
}
