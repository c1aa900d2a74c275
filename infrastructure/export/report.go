package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"montage-media/application/pipeline"
	"montage-media/domain/analysis"
)

// Interval is a time span in milliseconds
type Interval struct {
	StartMs int64 `json:"start_ms"`
	EndMs   int64 `json:"end_ms"`
}

// Highlight is a scored interval
type Highlight struct {
	StartMs int64   `json:"start_ms"`
	EndMs   int64   `json:"end_ms"`
	Score   float64 `json:"score"`
}

// Subtitle is one timed line of text
type Subtitle struct {
	Index   int    `json:"index"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Text    string `json:"text"`
}

// ReportDocument is the JSON form of an analysis report
type ReportDocument struct {
	Path       string      `json:"path"`
	ElapsedMs  int64       `json:"elapsed_ms"`
	Scenes     []Interval  `json:"scenes"`
	Silences   []Interval  `json:"silences"`
	Subtitles  []Subtitle  `json:"subtitles"`
	Highlights []Highlight `json:"highlights"`
	Reel       []Highlight `json:"reel"`
	ReelMs     int64       `json:"reel_ms"`
}

// NewReportDocument converts a pipeline report
func NewReportDocument(r *pipeline.Report) ReportDocument {
	doc := ReportDocument{
		Path:       r.Path,
		ElapsedMs:  r.Elapsed.Milliseconds(),
		Scenes:     SceneIntervals(r.Scenes),
		Silences:   SilenceIntervals(r.Silences),
		Subtitles:  make([]Subtitle, 0, len(r.Subtitles)),
		Highlights: Highlights(r.Highlights),
		Reel:       Highlights(r.Reel),
	}
	for _, l := range r.Subtitles {
		doc.Subtitles = append(doc.Subtitles, Subtitle{
			Index:   l.Index,
			StartMs: l.Start.Milliseconds(),
			EndMs:   l.End.Milliseconds(),
			Text:    l.Text,
		})
	}
	for _, h := range r.Reel {
		doc.ReelMs += h.Duration().Milliseconds()
	}
	return doc
}

// SceneIntervals converts scenes to millisecond intervals
func SceneIntervals(scenes []analysis.SceneSegment) []Interval {
	out := make([]Interval, 0, len(scenes))
	for _, s := range scenes {
		out = append(out, interval(s.Start, s.End))
	}
	return out
}

// SilenceIntervals converts silences to millisecond intervals
func SilenceIntervals(silences []analysis.SilenceRange) []Interval {
	out := make([]Interval, 0, len(silences))
	for _, s := range silences {
		out = append(out, interval(s.Start, s.End))
	}
	return out
}

// Highlights converts highlights to their JSON form
func Highlights(highlights []analysis.HighlightSegment) []Highlight {
	out := make([]Highlight, 0, len(highlights))
	for _, h := range highlights {
		out = append(out, Highlight{StartMs: h.Start.Milliseconds(), EndMs: h.End.Milliseconds(), Score: h.Score})
	}
	return out
}

func interval(start, end time.Duration) Interval {
	return Interval{StartMs: start.Milliseconds(), EndMs: end.Milliseconds()}
}

// WriteReport writes the report as indented JSON
func WriteReport(path string, r *pipeline.Report) error {
	data, err := json.MarshalIndent(NewReportDocument(r), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w: %w", analysis.ErrIO, err)
	}
	return nil
}
