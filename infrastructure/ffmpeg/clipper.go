package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"montage-media/domain/analysis"
)

// Clipper cuts highlight segments out of a source file using ffmpeg
type Clipper struct {
	ffmpegPath string
	runner     CommandRunner
}

// ClipperOption is a functional option for configuring Clipper
type ClipperOption func(*Clipper)

// WithClipperFFmpegPath sets a custom ffmpeg executable path
func WithClipperFFmpegPath(path string) ClipperOption {
	return func(c *Clipper) {
		c.ffmpegPath = path
	}
}

// WithClipperCommandRunner sets a custom command runner (for testing)
func WithClipperCommandRunner(runner CommandRunner) ClipperOption {
	return func(c *Clipper) {
		c.runner = runner
	}
}

// NewClipper creates a new FFmpeg-based clipper
func NewClipper(opts ...ClipperOption) *Clipper {
	c := &Clipper{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Cut copies [seg.Start, seg.End) of source into outputPath without re-encoding
func (c *Clipper) Cut(ctx context.Context, source string, seg analysis.HighlightSegment, outputPath string) error {
	args := []string{
		"-y",
		"-v", "error",
		"-nostdin",
		"-ss", formatSeconds(seg.Start),
		"-to", formatSeconds(seg.End),
		"-i", source,
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		outputPath,
	}

	if err := c.runner.Run(ctx, c.ffmpegPath, args...); err != nil {
		return fmt.Errorf("ffmpeg clip failed: %w", err)
	}

	return nil
}

// CutReel writes one file per highlight into dir, named after the source and
// the clip's position in the reel. The written paths are returned in order.
func (c *Clipper) CutReel(ctx context.Context, source string, reel []analysis.HighlightSegment, dir string) ([]string, error) {
	ext := filepath.Ext(source)
	base := strings.TrimSuffix(filepath.Base(source), ext)
	if ext == "" {
		ext = ".mp4"
	}

	paths := make([]string, 0, len(reel))
	for i, seg := range reel {
		out := filepath.Join(dir, fmt.Sprintf("%s_clip%02d%s", base, i+1, ext))
		if err := c.Cut(ctx, source, seg, out); err != nil {
			return nil, fmt.Errorf("clip %d: %w", i+1, err)
		}
		paths = append(paths, out)
	}
	return paths, nil
}

// VerifyInstalled checks that ffmpeg is available
func (c *Clipper) VerifyInstalled(ctx context.Context) error {
	_, err := c.runner.Output(ctx, c.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}
