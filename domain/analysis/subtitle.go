package analysis

import (
	"context"
	"fmt"
	"time"
)

// SubtitleLine is one timed line of transcribed speech
type SubtitleLine struct {
	Index int
	Start time.Duration
	End   time.Duration
	Text  string
}

// NewSubtitleLine creates a SubtitleLine with a 1-based index and a non-empty interval
func NewSubtitleLine(index int, start, end time.Duration, text string) (SubtitleLine, error) {
	if index < 1 {
		return SubtitleLine{}, fmt.Errorf("subtitle line: %w: index %d must be >= 1", ErrInvalidSegment, index)
	}
	if err := validateInterval(start, end); err != nil {
		return SubtitleLine{}, fmt.Errorf("subtitle line %d: %w", index, err)
	}
	return SubtitleLine{Index: index, Start: start, End: end, Text: text}, nil
}

// Overlaps reports whether the line intersects [start, end)
func (l SubtitleLine) Overlaps(start, end time.Duration) bool {
	return l.End > start && l.Start < end
}

// Transcriber produces ordered subtitle lines for a media file.
// Implementations are interchangeable strategies injected at construction.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) ([]SubtitleLine, error)
}
