package highlight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"montage-media/domain/analysis"
	"montage-media/domain/media"
)

const (
	minimumMotionStep = 200 * time.Millisecond
	samplesPerScene   = 5

	// keywordSaturation is the number of matching lines that earns a full keyword score
	keywordSaturation = 5.0
)

// Service ranks scenes as highlight candidates from motion, speech activity
// and keyword hits
type Service struct {
	decoder     media.Decoder
	analyzer    media.Analyzer
	fileChecker media.FileChecker
	config      analysis.HighlightConfig
	logger      zerolog.Logger
}

// NewService creates a new highlight scoring Service
func NewService(decoder media.Decoder, analyzer media.Analyzer, fileChecker media.FileChecker, config analysis.HighlightConfig, logger zerolog.Logger) *Service {
	return &Service{
		decoder:     decoder,
		analyzer:    analyzer,
		fileChecker: fileChecker,
		config:      config,
		logger:      logger.With().Str("component", "highlight").Logger(),
	}
}

// Config returns the weights the service scores with
func (s *Service) Config() analysis.HighlightConfig {
	return s.config
}

// Score returns one highlight per scene, best first. Ties keep the earlier scene first.
func (s *Service) Score(ctx context.Context, path string, scenes []analysis.SceneSegment, silences []analysis.SilenceRange, subtitles []analysis.SubtitleLine, keywords []string) ([]analysis.HighlightSegment, error) {
	if len(scenes) == 0 {
		return []analysis.HighlightSegment{}, nil
	}
	if !s.fileChecker.Exists(path) {
		return nil, fmt.Errorf("%w: %s", analysis.ErrInputNotFound, path)
	}

	session, err := s.decoder.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w: %w", path, analysis.ErrIO, err)
	}
	defer session.Close()

	terms := normalizeKeywords(keywords)
	highlights := make([]analysis.HighlightSegment, 0, len(scenes))

	for _, scene := range scenes {
		motion, err := s.sampleMotion(ctx, session, scene)
		if err != nil {
			return nil, err
		}
		audio := AudioScore(scene, silences)
		keyword := KeywordScore(scene, subtitles, terms)
		face := FaceScore(motion)

		score := s.config.MotionWeight*motion +
			s.config.AudioWeight*audio +
			s.config.FaceWeight*face +
			s.config.KeywordWeight*keyword

		s.logger.Debug().
			Dur("start", scene.Start).
			Dur("end", scene.End).
			Float64("motion", motion).
			Float64("audio", audio).
			Float64("keyword", keyword).
			Float64("score", score).
			Msg("scored scene")

		highlights = append(highlights, analysis.HighlightSegment{
			Start: scene.Start,
			End:   scene.End,
			Score: min(score, 1),
		})
	}

	Rank(highlights)
	s.logger.Info().
		Str("path", path).
		Int("highlights", len(highlights)).
		Msg("highlight scoring complete")

	return highlights, nil
}

// sampleMotion seeks through the scene at a fixed step and averages the
// difference between consecutive blurred grayscale samples
func (s *Service) sampleMotion(ctx context.Context, session media.Session, scene analysis.SceneSegment) (float64, error) {
	step := MotionStep(scene.Duration())

	var (
		previous    media.Image
		total       float64
		comparisons int
	)
	defer func() {
		if previous != nil {
			previous.Close()
		}
	}()

	for at := scene.Start; at < scene.End; at += step {
		if err := ctx.Err(); err != nil {
			return 0, fmt.Errorf("highlight scoring interrupted: %w", err)
		}
		if err := session.Seek(at); err != nil {
			return 0, fmt.Errorf("failed to seek to %s: %w: %w", at, analysis.ErrIO, err)
		}

		img, _, err := session.NextImage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read frame at %s: %w: %w", at, analysis.ErrIO, err)
		}

		prepared, err := s.analyzer.PrepareMotion(img)
		img.Close()
		if err != nil {
			return 0, fmt.Errorf("failed to prepare frame at %s: %w: %w", at, analysis.ErrIO, err)
		}

		if previous != nil {
			diff, err := s.analyzer.MeanAbsDiff(previous, prepared)
			previous.Close()
			previous = nil
			if err != nil {
				prepared.Close()
				return 0, fmt.Errorf("failed to compare frames at %s: %w: %w", at, analysis.ErrIO, err)
			}
			total += diff
			comparisons++
		}
		previous = prepared
	}

	if comparisons == 0 {
		return 0, nil
	}
	return min(1, total/float64(comparisons)), nil
}

// MotionStep returns the sampling interval for a scene of the given length
func MotionStep(sceneDuration time.Duration) time.Duration {
	return max(minimumMotionStep, sceneDuration/samplesPerScene)
}

// AudioScore is the fraction of the scene not covered by silence
func AudioScore(scene analysis.SceneSegment, silences []analysis.SilenceRange) float64 {
	if scene.Duration() <= 0 {
		return 0
	}
	var covered time.Duration
	for _, r := range silences {
		covered += analysis.Overlap(scene.Start, scene.End, r.Start, r.End)
	}
	coverage := min(1, float64(covered)/float64(scene.Duration()))
	return 1 - coverage
}

// KeywordScore counts subtitle lines overlapping the scene that contain any
// keyword, saturating at five lines. terms must already be lower case.
func KeywordScore(scene analysis.SceneSegment, subtitles []analysis.SubtitleLine, terms []string) float64 {
	if len(terms) == 0 || len(subtitles) == 0 {
		return 0
	}
	matches := 0
	for _, line := range subtitles {
		if !line.Overlaps(scene.Start, scene.End) {
			continue
		}
		text := strings.ToLower(line.Text)
		for _, term := range terms {
			if strings.Contains(text, term) {
				matches++
				break
			}
		}
	}
	return min(1, float64(matches)/keywordSaturation)
}

// FaceScore stands in for subject detection until a real detector exists.
// It is derived from motion and never drops below 0.5.
func FaceScore(motion float64) float64 {
	return 0.5*motion + 0.5
}

// Rank sorts highlights by descending score, earlier start first on ties
func Rank(highlights []analysis.HighlightSegment) {
	sort.SliceStable(highlights, func(i, j int) bool {
		if highlights[i].Score != highlights[j].Score {
			return highlights[i].Score > highlights[j].Score
		}
		return highlights[i].Start < highlights[j].Start
	})
}

func normalizeKeywords(keywords []string) []string {
	terms := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			terms = append(terms, k)
		}
	}
	return terms
}
