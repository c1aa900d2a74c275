package ffmpeg

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Default output codecs
const (
	DefaultVideoEncoder = "libx264"
	DefaultAudioEncoder = "aac"
)

// MuxRequest describes the final assembly of a rendered file
type MuxRequest struct {
	// VideoPath is an intermediate file holding the rendered pictures
	VideoPath string

	// AudioPath is raw interleaved s16le PCM. Empty means no audio track.
	AudioPath  string
	SampleRate int
	Channels   int

	OutputPath string

	// VideoCodec and AudioCodec name the source codecs to match (e.g. "h264")
	VideoCodec string
	AudioCodec string

	HardwareAccel bool
}

// Muxer re-encodes rendered pictures and merges the audio track with ffmpeg
type Muxer struct {
	ffmpegPath string
	runner     CommandRunner
}

// MuxerOption is a functional option for configuring Muxer
type MuxerOption func(*Muxer)

// WithMuxerFFmpegPath sets a custom ffmpeg executable path
func WithMuxerFFmpegPath(path string) MuxerOption {
	return func(m *Muxer) {
		m.ffmpegPath = path
	}
}

// WithMuxerCommandRunner sets a custom command runner (for testing)
func WithMuxerCommandRunner(runner CommandRunner) MuxerOption {
	return func(m *Muxer) {
		m.runner = runner
	}
}

// NewMuxer creates a new FFmpeg-based muxer
func NewMuxer(opts ...MuxerOption) *Muxer {
	m := &Muxer{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Mux writes req.OutputPath from the intermediate video and PCM files
func (m *Muxer) Mux(ctx context.Context, req MuxRequest) error {
	if req.VideoPath == "" || req.OutputPath == "" {
		return fmt.Errorf("video and output paths are required")
	}

	args := []string{"-y", "-v", "error", "-nostdin"}
	if req.HardwareAccel {
		args = append(args, "-hwaccel", "auto")
	}
	args = append(args, "-i", req.VideoPath)

	withAudio := req.AudioPath != "" && req.SampleRate > 0 && req.Channels > 0
	if withAudio {
		args = append(args,
			"-f", "s16le",
			"-ar", strconv.Itoa(req.SampleRate),
			"-ac", strconv.Itoa(req.Channels),
			"-i", req.AudioPath,
		)
	}

	args = append(args, "-map", "0:v:0")
	if withAudio {
		args = append(args, "-map", "1:a:0")
	}
	args = append(args,
		"-c:v", VideoEncoderFor(req.VideoCodec),
		"-pix_fmt", "yuv420p",
	)
	if withAudio {
		args = append(args, "-c:a", AudioEncoderFor(req.AudioCodec), "-shortest")
	}
	args = append(args, "-movflags", "+faststart", req.OutputPath)

	if err := m.runner.Run(ctx, m.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg mux failed: %w", err)
	}
	return nil
}

// VerifyInstalled checks that ffmpeg is available
func (m *Muxer) VerifyInstalled(ctx context.Context) error {
	_, err := m.runner.Output(ctx, m.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// HardwareAccels lists the acceleration methods the local ffmpeg build supports
func (m *Muxer) HardwareAccels(ctx context.Context) ([]string, error) {
	out, err := m.runner.Output(ctx, m.ffmpegPath, "-hide_banner", "-hwaccels")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg hwaccel query failed: %w", err)
	}
	return ParseHardwareAccels(string(out)), nil
}

// ParseHardwareAccels extracts method names from `ffmpeg -hwaccels` output
func ParseHardwareAccels(out string) []string {
	methods := []string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		methods = append(methods, line)
	}
	return methods
}

// VideoEncoderFor picks the ffmpeg encoder matching a source codec
func VideoEncoderFor(codec string) string {
	switch strings.ToLower(codec) {
	case "hevc", "h265":
		return "libx265"
	case "vp9":
		return "libvpx-vp9"
	case "mpeg4":
		return "mpeg4"
	default:
		return DefaultVideoEncoder
	}
}

// AudioEncoderFor picks the ffmpeg encoder matching a source codec
func AudioEncoderFor(codec string) string {
	switch strings.ToLower(codec) {
	case "mp3":
		return "libmp3lame"
	case "opus":
		return "libopus"
	default:
		return DefaultAudioEncoder
	}
}
