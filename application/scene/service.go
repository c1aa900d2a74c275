package scene

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

// featureScale converts the HSV feature distance into threshold units
const featureScale = 100.0

// Service splits footage into scenes by comparing colour statistics of
// sampled frames
type Service struct {
	decoder     media.Decoder
	analyzer    media.Analyzer
	fileChecker media.FileChecker
	config      analysis.SceneDetectionConfig
	logger      zerolog.Logger
}

// NewService creates a new scene detection Service
func NewService(decoder media.Decoder, analyzer media.Analyzer, fileChecker media.FileChecker, config analysis.SceneDetectionConfig, logger zerolog.Logger) *Service {
	return &Service{
		decoder:     decoder,
		analyzer:    analyzer,
		fileChecker: fileChecker,
		config:      config,
		logger:      logger.With().Str("component", "scene").Logger(),
	}
}

// Detect returns contiguous scene segments covering the whole file
func (s *Service) Detect(ctx context.Context, path string) ([]analysis.SceneSegment, error) {
	if !s.fileChecker.Exists(path) {
		return nil, fmt.Errorf("%w: %s", analysis.ErrInputNotFound, path)
	}

	session, err := s.decoder.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w: %w", path, analysis.ErrIO, err)
	}
	defer session.Close()

	info := session.Info()
	stride := FrameStride(info.FrameRate)
	minLength := s.config.MinimumSceneLength

	var (
		cuts         []analysis.SceneSegment
		previous     []float64
		segmentStart time.Duration
		lastSeen     time.Duration
		frameIndex   int
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scene detection interrupted: %w", err)
		}

		img, ts, err := session.NextImage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read frame %d: %w: %w", frameIndex, analysis.ErrIO, err)
		}
		lastSeen = ts

		if frameIndex%stride != 0 {
			img.Close()
			frameIndex++
			continue
		}

		feature, err := s.analyzer.ColorFeature(img)
		img.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to analyze frame %d: %w: %w", frameIndex, analysis.ErrIO, err)
		}

		if previous != nil {
			diff := Distance(previous, feature) * featureScale
			if diff > s.config.Threshold && ts-segmentStart >= minLength {
				cut, err := analysis.NewSceneSegment(segmentStart, ts)
				if err != nil {
					return nil, err
				}
				cuts = append(cuts, cut)
				s.logger.Debug().
					Dur("at", ts).
					Float64("diff", diff).
					Msg("scene cut")
				segmentStart = ts
			}
		}
		previous = feature
		frameIndex++
	}

	total := trailingEnd(info.Duration, lastSeen, segmentStart, minLength)
	last, err := analysis.NewSceneSegment(segmentStart, total)
	if err != nil {
		return nil, err
	}
	cuts = append(cuts, last)

	scenes := MergeShort(cuts, minLength)
	s.logger.Info().
		Str("path", path).
		Int("frames", frameIndex).
		Int("scenes", len(scenes)).
		Msg("scene detection complete")

	return scenes, nil
}

// FrameStride returns how many decoded frames to advance between samples,
// giving roughly two samples per second
func FrameStride(fps float64) int {
	return max(1, int(math.Round(max(1, fps)/2)))
}

// Distance returns the Euclidean distance between two feature vectors
func Distance(a, b []float64) float64 {
	var sum float64
	for i := 0; i < min(len(a), len(b)); i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// trailingEnd picks the end of the final scene: the reported stream length,
// then the last decoded timestamp, then one minimum length past the last cut.
// A candidate that does not lie beyond the last cut is skipped.
func trailingEnd(duration, lastSeen, segmentStart, minLength time.Duration) time.Duration {
	for _, candidate := range []time.Duration{duration, lastSeen} {
		if candidate > segmentStart {
			return candidate
		}
	}
	return segmentStart + minLength
}

// MergeShort folds every segment shorter than minLength into its successor.
// Only the final segment may remain short.
func MergeShort(segments []analysis.SceneSegment, minLength time.Duration) []analysis.SceneSegment {
	if len(segments) == 0 {
		return segments
	}
	merged := make([]analysis.SceneSegment, 0, len(segments))
	current := segments[0]
	for _, next := range segments[1:] {
		if current.Duration() < minLength {
			current = analysis.SceneSegment{Start: current.Start, End: next.End}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
