package export

import (
	"context"
	"encoding/json"
	"errors"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"montage-media/application/pipeline"
	"montage-media/domain/analysis"
	"montage-media/domain/media/mediatest"

	"github.com/rs/zerolog"
)

func sampleReport() *pipeline.Report {
	return &pipeline.Report{
		Path: "/media/match.mp4",
		Scenes: []analysis.SceneSegment{
			{Start: 0, End: 2 * time.Second},
			{Start: 2 * time.Second, End: 4500 * time.Millisecond},
		},
		Silences:  []analysis.SilenceRange{{Start: 0, End: 3 * time.Second}},
		Subtitles: []analysis.SubtitleLine{{Index: 1, Start: time.Second, End: 2 * time.Second, Text: "goal"}},
		Highlights: []analysis.HighlightSegment{
			{Start: 2 * time.Second, End: 4500 * time.Millisecond, Score: 0.8},
			{Start: 0, End: 2 * time.Second, Score: 0.4},
		},
		Reel: []analysis.HighlightSegment{
			{Start: 0, End: 2 * time.Second, Score: 0.4},
			{Start: 2 * time.Second, End: 4500 * time.Millisecond, Score: 0.8},
		},
		Elapsed: 1234 * time.Millisecond,
	}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := WriteReport(path, sampleReport()); err != nil {
		t.Fatalf("WriteReport() unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc ReportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}

	if doc.ElapsedMs != 1234 || doc.ReelMs != 4500 {
		t.Errorf("elapsed/reel = %d/%d, want 1234/4500", doc.ElapsedMs, doc.ReelMs)
	}
	if len(doc.Scenes) != 2 || doc.Scenes[1] != (Interval{StartMs: 2000, EndMs: 4500}) {
		t.Errorf("scenes = %+v", doc.Scenes)
	}
	if doc.Subtitles[0].Text != "goal" || doc.Highlights[0].Score != 0.8 {
		t.Errorf("unexpected document %+v", doc)
	}
	if !strings.Contains(string(data), `"start_ms"`) {
		t.Error("expected snake_case millisecond fields")
	}
}

func TestNewReportDocument_EmptyListsAreArrays(t *testing.T) {
	data, err := json.Marshal(NewReportDocument(&pipeline.Report{Path: "/x.mp4"}))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("empty lists should encode as [], got %s", data)
	}
}

func TestGenerateEDL(t *testing.T) {
	clips := ReelClips("/media/match day.mp4", sampleReport().Reel)
	edl := GenerateEDL(clips, "Match Reel", 25)

	want := []string{
		"TITLE: Match Reel",
		"FCM: NON-DROP FRAME",
		"001  AX       AA/V  C        00:00:00:00 00:00:02:00 00:00:00:00 00:00:02:00",
		"* FROM CLIP NAME:  match day highlight 01 (0.40)",
		"* MEDIA PATH:  /media/match day.mp4",
		"002  AX       AA/V  C        00:00:02:00 00:00:04:13 00:00:02:00 00:00:04:13",
	}
	for _, line := range want {
		if !strings.Contains(edl, line) {
			t.Errorf("EDL missing line %q\n%s", line, edl)
		}
	}
}

func TestGenerateEDL_FractionalRatesAreNonDrop(t *testing.T) {
	// one minute: drop-frame timecode would read 00:01:00;02
	clips := []Clip{{Name: "minute", MediaPath: "/m.mp4", StartMs: 0, EndMs: 60_000}}

	tests := []struct {
		name      string
		frameRate float64
		wantEvent string
	}{
		{"ntsc", 29.97, "00:00:00:00 00:01:00:00 00:00:00:00 00:01:00:00"},
		{"ntsc double rate", 59.94, "00:00:00:00 00:01:00:00 00:00:00:00 00:01:00:00"},
		{"film", 23.976, "00:00:00:00 00:01:00:00 00:00:00:00 00:01:00:00"},
		{"unknown rate", 0, "00:00:00:00 00:01:00:00 00:00:00:00 00:01:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edl := GenerateEDL(clips, "x", tt.frameRate)
			if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
				t.Errorf("expected non-drop header, got %q", edl)
			}
			if strings.Contains(edl, "FCM: DROP FRAME") {
				t.Errorf("unexpected drop frame header in %q", edl)
			}
			if !strings.Contains(edl, tt.wantEvent) {
				t.Errorf("expected event timecodes %q, got %q", tt.wantEvent, edl)
			}
		})
	}
}

func TestMsToTimecode(t *testing.T) {
	tests := []struct {
		ms   int64
		fps  int
		want string
	}{
		{0, 30, "00:00:00:00"},
		{1500, 30, "00:00:01:15"},
		{3_723_040, 25, "01:02:03:01"},
	}
	for _, tt := range tests {
		if got := msToTimecode(tt.ms, tt.fps); got != tt.want {
			t.Errorf("msToTimecode(%d, %d) = %s, want %s", tt.ms, tt.fps, got, tt.want)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	if got := SanitizeName("final/cut*v2\t", 0); got != "final_cut_v2" {
		t.Errorf("SanitizeName() = %q", got)
	}
	if got := SanitizeName("abcdef", 3); got != "abc" {
		t.Errorf("SanitizeName() truncation = %q", got)
	}
}

func TestPosterWriter_Write(t *testing.T) {
	clip := mediatest.NewClip(640, 360, 10).AddVideo(5*time.Second, mediatest.Image{Luma: 128})
	dec := mediatest.NewDecoder().Add("/in.mp4", clip)
	dir := filepath.Join(t.TempDir(), "posters")

	writer := NewPosterWriter(dec, zerolog.Nop(), WithPosterWidth(160), WithJPEGQuality(80))
	paths, err := writer.Write(context.Background(), "/in.mp4", sampleReport().Reel, dir)
	if err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}

	if len(paths) != 2 || filepath.Base(paths[0]) != "poster_01_1000ms.jpg" || filepath.Base(paths[1]) != "poster_02_3250ms.jpg" {
		t.Errorf("Write() paths = %v", paths)
	}

	f, err := os.Open(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	if err != nil {
		t.Fatalf("poster is not a JPEG: %v", err)
	}
	if cfg.Width != 160 || cfg.Height != 90 {
		t.Errorf("poster size = %dx%d, want 160x90", cfg.Width, cfg.Height)
	}

	if !dec.AllClosed() {
		t.Error("expected session and pictures to be released")
	}
	if got := dec.Sessions[0].Seeks; len(got) != 2 || got[0] != time.Second {
		t.Errorf("seeks = %v", got)
	}
}

func TestPosterWriter_Errors(t *testing.T) {
	dec := mediatest.NewDecoder()
	dec.OpenErr = errors.New("cannot decode")
	_, err := NewPosterWriter(dec, zerolog.Nop()).Write(context.Background(), "/in.mp4", sampleReport().Reel, t.TempDir())
	if !errors.Is(err, analysis.ErrIO) {
		t.Errorf("Write() error = %v, want ErrIO", err)
	}

	short := mediatest.NewClip(64, 36, 10).AddVideo(time.Second, mediatest.Image{})
	dec = mediatest.NewDecoder().Add("/short.mp4", short)
	late := []analysis.HighlightSegment{{Start: 10 * time.Second, End: 12 * time.Second}}
	_, err = NewPosterWriter(dec, zerolog.Nop()).Write(context.Background(), "/short.mp4", late, t.TempDir())
	if !errors.Is(err, analysis.ErrIO) {
		t.Errorf("Write() past the end error = %v, want ErrIO", err)
	}
	if !dec.AllClosed() {
		t.Error("session must be closed on failure")
	}
}
