package subtitles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"montage-media/domain/analysis"
	"montage-media/infrastructure/ffmpeg"

	"github.com/rs/zerolog"
)

// sidecarSuffixes are tried in order next to the media file
var sidecarSuffixes = []string{".srt", ".vtt", ".en.srt", ".en.vtt"}

// SidecarTranscriber reads subtitles that sit next to the media file,
// e.g. match.srt for match.mp4. No sidecar means no subtitles.
type SidecarTranscriber struct {
	logger zerolog.Logger
}

// NewSidecarTranscriber creates a new sidecar transcriber
func NewSidecarTranscriber(logger zerolog.Logger) *SidecarTranscriber {
	return &SidecarTranscriber{logger: logger.With().Str("component", "sidecar_transcriber").Logger()}
}

// Transcribe implements analysis.Transcriber
func (t *SidecarTranscriber) Transcribe(ctx context.Context, mediaPath string) ([]analysis.SubtitleLine, error) {
	if path, ok := FindSidecar(mediaPath); ok {
		t.logger.Debug().Str("subtitles", path).Msg("using sidecar subtitles")
		return ParseFile(path)
	}
	t.logger.Debug().Str("path", mediaPath).Msg("no sidecar subtitles found")
	return []analysis.SubtitleLine{}, nil
}

// FindSidecar returns the first existing subtitle file next to mediaPath
func FindSidecar(mediaPath string) (string, bool) {
	base := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	for _, suffix := range sidecarSuffixes {
		candidate := base + suffix
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// SpeechExtractor writes a recognizer-ready WAV of a media file's audio
type SpeechExtractor interface {
	ExtractSpeech(ctx context.Context, sourcePath, outputPath string) error
}

// CommandTranscriber runs an external speech recognizer. The command is
// invoked as: command args... <input.wav> <output.srt>
type CommandTranscriber struct {
	command   string
	args      []string
	extractor SpeechExtractor
	runner    ffmpeg.CommandRunner
	tempDir   string
	logger    zerolog.Logger
}

// CommandTranscriberOption is a functional option for configuring CommandTranscriber
type CommandTranscriberOption func(*CommandTranscriber)

// WithTranscriberCommandRunner sets a custom command runner (for testing)
func WithTranscriberCommandRunner(runner ffmpeg.CommandRunner) CommandTranscriberOption {
	return func(t *CommandTranscriber) {
		t.runner = runner
	}
}

// WithTranscriberTempDir sets where the intermediate WAV and SRT are written
func WithTranscriberTempDir(dir string) CommandTranscriberOption {
	return func(t *CommandTranscriber) {
		t.tempDir = dir
	}
}

// NewCommandTranscriber creates a transcriber around an external command
func NewCommandTranscriber(command string, args []string, extractor SpeechExtractor, logger zerolog.Logger, opts ...CommandTranscriberOption) *CommandTranscriber {
	t := &CommandTranscriber{
		command:   command,
		args:      args,
		extractor: extractor,
		runner:    &ffmpeg.ExecCommandRunner{},
		logger:    logger.With().Str("component", "command_transcriber").Logger(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Transcribe implements analysis.Transcriber
func (t *CommandTranscriber) Transcribe(ctx context.Context, mediaPath string) ([]analysis.SubtitleLine, error) {
	if t.command == "" {
		return nil, fmt.Errorf("%w: no transcription command configured", analysis.ErrInvalidConfiguration)
	}

	dir, err := os.MkdirTemp(t.tempDir, "montage-stt-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w: %w", analysis.ErrIO, err)
	}
	defer os.RemoveAll(dir)

	wav := filepath.Join(dir, "speech.wav")
	srt := filepath.Join(dir, "speech.srt")

	if err := t.extractor.ExtractSpeech(ctx, mediaPath, wav); err != nil {
		return nil, fmt.Errorf("failed to extract speech audio: %w: %w", analysis.ErrIO, err)
	}

	args := append(append([]string{}, t.args...), wav, srt)
	t.logger.Info().Str("command", t.command).Str("path", mediaPath).Msg("transcribing")
	if err := t.runner.Run(ctx, t.command, args...); err != nil {
		return nil, fmt.Errorf("transcription command failed: %w: %w", analysis.ErrIO, err)
	}

	lines, err := ParseFile(srt)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcription output: %w", err)
	}
	t.logger.Info().Int("lines", len(lines)).Msg("transcription complete")
	return lines, nil
}

// Ensure the strategies implement analysis.Transcriber
var (
	_ analysis.Transcriber = (*SidecarTranscriber)(nil)
	_ analysis.Transcriber = (*CommandTranscriber)(nil)
	_ SpeechExtractor      = (*ffmpeg.Extractor)(nil)
)
