package analysis

import (
	"fmt"
	"time"
)

// SceneSegment is a span of visually coherent footage bounded by detected cuts
type SceneSegment struct {
	Start time.Duration
	End   time.Duration
}

// NewSceneSegment creates a SceneSegment, rejecting empty or negative intervals
func NewSceneSegment(start, end time.Duration) (SceneSegment, error) {
	if err := validateInterval(start, end); err != nil {
		return SceneSegment{}, fmt.Errorf("scene segment: %w", err)
	}
	return SceneSegment{Start: start, End: end}, nil
}

// Duration returns the length of the segment
func (s SceneSegment) Duration() time.Duration {
	return s.End - s.Start
}

// SilenceRange is a low-energy span of the audio track
type SilenceRange struct {
	Start time.Duration
	End   time.Duration
}

// NewSilenceRange creates a SilenceRange, rejecting empty or negative intervals
func NewSilenceRange(start, end time.Duration) (SilenceRange, error) {
	if err := validateInterval(start, end); err != nil {
		return SilenceRange{}, fmt.Errorf("silence range: %w", err)
	}
	return SilenceRange{Start: start, End: end}, nil
}

// Duration returns the length of the silence
func (s SilenceRange) Duration() time.Duration {
	return s.End - s.Start
}

// HighlightSegment is a scored candidate interval for excerpt selection
type HighlightSegment struct {
	Start time.Duration
	End   time.Duration

	// Score is produced in [0,1] by the scorer; construction does not constrain it
	Score float64
}

// NewHighlightSegment creates a HighlightSegment, rejecting empty or negative intervals
func NewHighlightSegment(start, end time.Duration, score float64) (HighlightSegment, error) {
	if err := validateInterval(start, end); err != nil {
		return HighlightSegment{}, fmt.Errorf("highlight segment: %w", err)
	}
	return HighlightSegment{Start: start, End: end, Score: score}, nil
}

// Duration returns the length of the highlight
func (h HighlightSegment) Duration() time.Duration {
	return h.End - h.Start
}

// ReframeResult describes a finished auto-reframe render
type ReframeResult struct {
	OutputPath        string
	ProcessedDuration time.Duration
	FramesProcessed   int
	Width             int
	Height            int
}

// Overlap returns how much of [aStart, aEnd) intersects [bStart, bEnd)
func Overlap(aStart, aEnd, bStart, bEnd time.Duration) time.Duration {
	start := max(aStart, bStart)
	end := min(aEnd, bEnd)
	if end <= start {
		return 0
	}
	return end - start
}

func validateInterval(start, end time.Duration) error {
	if start < 0 {
		return fmt.Errorf("%w: start %s is negative", ErrInvalidSegment, start)
	}
	if end <= start {
		return fmt.Errorf("%w: end %s must be after start %s", ErrInvalidSegment, end, start)
	}
	return nil
}
