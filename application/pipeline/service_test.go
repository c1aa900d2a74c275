package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"montage-media/domain/analysis"
)

// --- Mock implementations for testing ---

type mockScenes struct {
	scenes []analysis.SceneSegment
	err    error
}

func (m *mockScenes) Detect(ctx context.Context, path string) ([]analysis.SceneSegment, error) {
	return m.scenes, m.err
}

type mockSilences struct {
	silences []analysis.SilenceRange
	err      error
	called   bool
}

func (m *mockSilences) Detect(ctx context.Context, path string) ([]analysis.SilenceRange, error) {
	m.called = true
	return m.silences, m.err
}

type mockScorer struct {
	config       analysis.HighlightConfig
	err          error
	gotSubtitles []analysis.SubtitleLine
	gotKeywords  []string
	gotSilences  []analysis.SilenceRange
}

func (m *mockScorer) Score(ctx context.Context, path string, scenes []analysis.SceneSegment, silences []analysis.SilenceRange, subtitles []analysis.SubtitleLine, keywords []string) ([]analysis.HighlightSegment, error) {
	m.gotSubtitles = subtitles
	m.gotKeywords = keywords
	m.gotSilences = silences
	if m.err != nil {
		return nil, m.err
	}
	out := make([]analysis.HighlightSegment, 0, len(scenes))
	for i, sc := range scenes {
		out = append(out, analysis.HighlightSegment{Start: sc.Start, End: sc.End, Score: 1 / float64(i+1)})
	}
	return out, nil
}

func (m *mockScorer) Config() analysis.HighlightConfig {
	return m.config
}

type mockReframer struct {
	gotInput string
	gotCfg   analysis.ReframeConfig
}

func (m *mockReframer) Reframe(ctx context.Context, input, output string, cfg analysis.ReframeConfig) (analysis.ReframeResult, error) {
	m.gotInput = input
	m.gotCfg = cfg
	return analysis.ReframeResult{OutputPath: output, ProcessedDuration: time.Second}, nil
}

type mockTranscriber struct {
	lines  []analysis.SubtitleLine
	err    error
	called bool
}

func (m *mockTranscriber) Transcribe(ctx context.Context, mediaPath string) ([]analysis.SubtitleLine, error) {
	m.called = true
	return m.lines, m.err
}

type mockReader struct {
	lines   []analysis.SubtitleLine
	gotPath string
}

func (m *mockReader) ReadSubtitles(path string) ([]analysis.SubtitleLine, error) {
	m.gotPath = path
	return m.lines, nil
}

func threeScenes() []analysis.SceneSegment {
	return []analysis.SceneSegment{
		{Start: 0, End: 30 * time.Second},
		{Start: 30 * time.Second, End: 50 * time.Second},
		{Start: 50 * time.Second, End: 90 * time.Second},
	}
}

func TestService_Analyze(t *testing.T) {
	silences := &mockSilences{silences: []analysis.SilenceRange{{Start: 0, End: time.Second}}}
	scorer := &mockScorer{config: analysis.DefaultHighlightConfig()}
	transcriber := &mockTranscriber{lines: []analysis.SubtitleLine{{Index: 1, Start: 0, End: time.Second, Text: "goal"}}}
	svc := NewService(&mockScenes{scenes: threeScenes()}, silences, scorer, &mockReframer{}, zerolog.Nop(), WithTranscriber(transcriber))

	report, err := svc.Analyze(context.Background(), Request{Path: "/in.mp4", Keywords: []string{"goal"}})
	if err != nil {
		t.Fatalf("Analyze() unexpected error: %v", err)
	}

	if report.Path != "/in.mp4" {
		t.Errorf("Path = %q", report.Path)
	}
	if len(report.Scenes) != 3 || len(report.Highlights) != 3 {
		t.Errorf("got %d scenes and %d highlights, want 3 each", len(report.Scenes), len(report.Highlights))
	}
	if !transcriber.called || len(scorer.gotSubtitles) != 1 {
		t.Error("transcribed subtitles were not passed to the scorer")
	}
	if len(scorer.gotKeywords) != 1 || scorer.gotKeywords[0] != "goal" {
		t.Errorf("keywords = %v, want [goal]", scorer.gotKeywords)
	}
	if len(scorer.gotSilences) != 1 {
		t.Error("silences were not passed to the scorer")
	}

	// Ranked 0-30 (1.0), 30-50 (0.5), 50-90 (0.33); 60s target keeps the first two
	if len(report.Reel) != 2 || report.Reel[0].Start != 0 || report.Reel[1].Start != 30*time.Second {
		t.Errorf("Reel = %+v, want scenes starting at 0s and 30s", report.Reel)
	}
}

func TestService_Analyze_SubtitlesFileTakesPrecedence(t *testing.T) {
	transcriber := &mockTranscriber{}
	reader := &mockReader{lines: []analysis.SubtitleLine{{Index: 1, Start: 0, End: time.Second, Text: "hi"}}}
	svc := NewService(&mockScenes{scenes: threeScenes()}, &mockSilences{}, &mockScorer{config: analysis.DefaultHighlightConfig()}, &mockReframer{}, zerolog.Nop(),
		WithTranscriber(transcriber), WithSubtitleReader(reader))

	report, err := svc.Analyze(context.Background(), Request{Path: "/in.mp4", SubtitlesPath: "/in.srt"})
	if err != nil {
		t.Fatalf("Analyze() unexpected error: %v", err)
	}
	if transcriber.called {
		t.Error("transcriber should not run when a subtitles file is given")
	}
	if reader.gotPath != "/in.srt" || len(report.Subtitles) != 1 {
		t.Errorf("subtitles not loaded from file: path=%q lines=%d", reader.gotPath, len(report.Subtitles))
	}
}

func TestService_Analyze_NoTranscriber(t *testing.T) {
	svc := NewService(&mockScenes{scenes: threeScenes()}, &mockSilences{}, &mockScorer{config: analysis.DefaultHighlightConfig()}, &mockReframer{}, zerolog.Nop())

	report, err := svc.Analyze(context.Background(), Request{Path: "/in.mp4"})
	if err != nil {
		t.Fatalf("Analyze() unexpected error: %v", err)
	}
	if report.Subtitles == nil || len(report.Subtitles) != 0 {
		t.Errorf("Subtitles = %#v, want empty slice", report.Subtitles)
	}
}

func TestService_Analyze_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		scenes   *mockScenes
		silences *mockSilences
		scorer   *mockScorer
		opts     []Option
		req      Request
		wantErr  error
	}{
		{
			name:     "scene failure stops the run",
			scenes:   &mockScenes{err: analysis.ErrInputNotFound},
			silences: &mockSilences{},
			scorer:   &mockScorer{},
			req:      Request{Path: "/in.mp4"},
			wantErr:  analysis.ErrInputNotFound,
		},
		{
			name:     "silence failure",
			scenes:   &mockScenes{scenes: threeScenes()},
			silences: &mockSilences{err: analysis.ErrIO},
			scorer:   &mockScorer{},
			req:      Request{Path: "/in.mp4"},
			wantErr:  analysis.ErrIO,
		},
		{
			name:     "transcription failure",
			scenes:   &mockScenes{scenes: threeScenes()},
			silences: &mockSilences{},
			scorer:   &mockScorer{},
			opts:     []Option{WithTranscriber(&mockTranscriber{err: boom})},
			req:      Request{Path: "/in.mp4"},
			wantErr:  boom,
		},
		{
			name:     "subtitles file without reader",
			scenes:   &mockScenes{scenes: threeScenes()},
			silences: &mockSilences{},
			scorer:   &mockScorer{},
			req:      Request{Path: "/in.mp4", SubtitlesPath: "/in.srt"},
			wantErr:  analysis.ErrInvalidConfiguration,
		},
		{
			name:     "scoring failure",
			scenes:   &mockScenes{scenes: threeScenes()},
			silences: &mockSilences{},
			scorer:   &mockScorer{err: boom},
			req:      Request{Path: "/in.mp4"},
			wantErr:  boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.scenes, tt.silences, tt.scorer, &mockReframer{}, zerolog.Nop(), tt.opts...)
			report, err := svc.Analyze(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Analyze() error = %v, want %v", err, tt.wantErr)
			}
			if report != nil {
				t.Errorf("Analyze() returned partial report %+v", report)
			}
		})
	}
}

func TestService_Analyze_SceneFailureSkipsLaterStages(t *testing.T) {
	silences := &mockSilences{}
	svc := NewService(&mockScenes{err: analysis.ErrIO}, silences, &mockScorer{}, &mockReframer{}, zerolog.Nop())
	if _, err := svc.Analyze(context.Background(), Request{Path: "/in.mp4"}); err == nil {
		t.Fatal("Analyze() expected error")
	}
	if silences.called {
		t.Error("silence detection ran after scene detection failed")
	}
}

func TestService_Reframe(t *testing.T) {
	reframer := &mockReframer{}
	svc := NewService(&mockScenes{}, &mockSilences{}, &mockScorer{}, reframer, zerolog.Nop())

	result, err := svc.Reframe(context.Background(), "/in.mp4", "/out.mp4", analysis.Square(false))
	if err != nil {
		t.Fatalf("Reframe() unexpected error: %v", err)
	}
	if result.OutputPath != "/out.mp4" || reframer.gotInput != "/in.mp4" || reframer.gotCfg.Aspect() != 1 {
		t.Errorf("Reframe() did not delegate: %+v", result)
	}
}
