package subtitles

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"montage-media/domain/analysis"

	"github.com/rs/zerolog"
)

func sampleLines() []analysis.SubtitleLine {
	return []analysis.SubtitleLine{
		{Index: 1, Start: 1500 * time.Millisecond, End: 3 * time.Second, Text: "What a goal!"},
		{Index: 2, Start: time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond, End: time.Hour + 2*time.Minute + 5*time.Second, Text: "Second line"},
	}
}

func TestFormatSRT(t *testing.T) {
	want := "1\r\n00:00:01,500 --> 00:00:03,000\r\nWhat a goal!\r\n\r\n" +
		"2\r\n01:02:03,004 --> 01:02:05,000\r\nSecond line\r\n\r\n"
	if got := FormatSRT(sampleLines()); got != want {
		t.Errorf("FormatSRT() =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatVTT(t *testing.T) {
	want := "WEBVTT\n\n00:00:01.500 --> 00:00:03.000\nWhat a goal!\n\n" +
		"01:02:03.004 --> 01:02:05.000\nSecond line\n\n"
	if got := FormatVTT(sampleLines()); got != want {
		t.Errorf("FormatVTT() =\n%q\nwant\n%q", got, want)
	}
	if got := FormatVTT(nil); got != "WEBVTT\n\n" {
		t.Errorf("FormatVTT(nil) = %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := FormatTimestamp(-time.Second, ','); got != "00:00:00,000" {
		t.Errorf("negative duration = %q", got)
	}
	if got := FormatTimestamp(59*time.Second+999*time.Millisecond, '.'); got != "00:00:59.999" {
		t.Errorf("FormatTimestamp() = %q", got)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"00:00:01,500", 1500 * time.Millisecond, false},
		{"01:02:03.004", time.Hour + 2*time.Minute + 3*time.Second + 4*time.Millisecond, false},
		{"02:05.25", 2*time.Minute + 5*time.Second + 250*time.Millisecond, false},
		{"00:00:07", 7 * time.Second, false},
		{"7", 0, true},
		{"aa:00:01.000", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimestamp() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTimestamp() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseSRT_RoundTrip(t *testing.T) {
	lines, err := ParseSRT(strings.NewReader(FormatSRT(sampleLines())))
	if err != nil {
		t.Fatalf("ParseSRT() unexpected error: %v", err)
	}
	want := sampleLines()
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, lines[i], want[i])
		}
	}
}

func TestParseVTT(t *testing.T) {
	input := `WEBVTT
Kind: captions

NOTE this block is ignored

00:01.000 --> 00:02.500 align:start position:0%
<v Commentator>He <i>shoots</i></v>
and scores

00:03.000 --> 00:03.000
zero length cue is dropped

00:04.000 --> 00:05.000
<00:00:04.200><c>last</c>
`
	lines, err := ParseVTT(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseVTT() unexpected error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %+v", len(lines), lines)
	}
	if lines[0].Text != "He shoots and scores" || lines[0].Start != time.Second || lines[0].End != 2500*time.Millisecond {
		t.Errorf("first cue = %+v", lines[0])
	}
	if lines[1].Index != 2 || lines[1].Text != "last" {
		t.Errorf("second cue = %+v, want renumbered index 2", lines[1])
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	srt := filepath.Join(dir, "a.srt")
	if err := WriteFile(srt, sampleLines()); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}
	lines, err := NewReader().ReadSubtitles(srt)
	if err != nil || len(lines) != 2 {
		t.Fatalf("ReadSubtitles() = %v, %v", lines, err)
	}

	if _, err := ParseFile(filepath.Join(dir, "missing.srt")); !errors.Is(err, analysis.ErrInputNotFound) {
		t.Errorf("ParseFile(missing) error = %v, want ErrInputNotFound", err)
	}

	txt := filepath.Join(dir, "a.txt")
	os.WriteFile(txt, nil, 0644)
	if _, err := ParseFile(txt); !errors.Is(err, analysis.ErrInvalidConfiguration) {
		t.Errorf("ParseFile(.txt) error = %v, want ErrInvalidConfiguration", err)
	}
	if err := WriteFile(filepath.Join(dir, "a.ass"), nil); !errors.Is(err, analysis.ErrInvalidConfiguration) {
		t.Errorf("WriteFile(.ass) error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestSidecarTranscriber(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "match.mp4")
	tr := NewSidecarTranscriber(zerolog.Nop())

	lines, err := tr.Transcribe(context.Background(), media)
	if err != nil || lines == nil || len(lines) != 0 {
		t.Fatalf("Transcribe() without sidecar = %v, %v; want empty slice", lines, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "match.en.vtt"), []byte(FormatVTT(sampleLines()[:1])), 0644); err != nil {
		t.Fatal(err)
	}
	lines, err = tr.Transcribe(context.Background(), media)
	if err != nil || len(lines) != 1 {
		t.Fatalf("Transcribe() with .en.vtt = %v, %v", lines, err)
	}

	if err := os.WriteFile(filepath.Join(dir, "match.srt"), []byte(FormatSRT(sampleLines())), 0644); err != nil {
		t.Fatal(err)
	}
	if path, _ := FindSidecar(media); filepath.Base(path) != "match.srt" {
		t.Errorf("FindSidecar() = %s, want .srt preferred", path)
	}
}

type mockExtractor struct {
	calls      int
	shouldFail bool
}

func (m *mockExtractor) ExtractSpeech(ctx context.Context, sourcePath, outputPath string) error {
	m.calls++
	if m.shouldFail {
		return errors.New("no audio stream")
	}
	return os.WriteFile(outputPath, []byte("RIFF"), 0644)
}

// mockRecognizer writes canned SRT to the last argument it receives
type mockRecognizer struct {
	output     string
	shouldFail bool
	args       []string
}

func (m *mockRecognizer) Run(ctx context.Context, name string, args ...string) error {
	m.args = append([]string{name}, args...)
	if m.shouldFail {
		return errors.New("exit status 2")
	}
	return os.WriteFile(args[len(args)-1], []byte(m.output), 0644)
}

func (m *mockRecognizer) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return nil, nil
}

func (m *mockRecognizer) Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	return nil, errors.New("not supported")
}

func TestCommandTranscriber(t *testing.T) {
	extractor := &mockExtractor{}
	recognizer := &mockRecognizer{output: FormatSRT(sampleLines())}
	tr := NewCommandTranscriber("whisper-cli", []string{"--model", "base"}, extractor, zerolog.Nop(),
		WithTranscriberCommandRunner(recognizer), WithTranscriberTempDir(t.TempDir()))

	lines, err := tr.Transcribe(context.Background(), "/media/match.mp4")
	if err != nil {
		t.Fatalf("Transcribe() unexpected error: %v", err)
	}
	if len(lines) != 2 || extractor.calls != 1 {
		t.Errorf("lines = %d, extractor calls = %d", len(lines), extractor.calls)
	}
	if recognizer.args[0] != "whisper-cli" || recognizer.args[1] != "--model" || !strings.HasSuffix(recognizer.args[3], "speech.wav") {
		t.Errorf("unexpected recognizer invocation %v", recognizer.args)
	}
}

func TestCommandTranscriber_Errors(t *testing.T) {
	tests := []struct {
		name       string
		command    string
		extractor  *mockExtractor
		recognizer *mockRecognizer
		wantErr    error
	}{
		{"no command", "", &mockExtractor{}, &mockRecognizer{}, analysis.ErrInvalidConfiguration},
		{"extraction fails", "stt", &mockExtractor{shouldFail: true}, &mockRecognizer{}, analysis.ErrIO},
		{"recognizer fails", "stt", &mockExtractor{}, &mockRecognizer{shouldFail: true}, analysis.ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewCommandTranscriber(tt.command, nil, tt.extractor, zerolog.Nop(),
				WithTranscriberCommandRunner(tt.recognizer), WithTranscriberTempDir(t.TempDir()))
			if _, err := tr.Transcribe(context.Background(), "/in.mp4"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Transcribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
