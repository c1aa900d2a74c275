package export

import (
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"time"

	"montage-media/domain/analysis"
	"montage-media/domain/media"

	"github.com/nfnt/resize"
	"github.com/rs/zerolog"
)

// DefaultPosterWidth is the width of generated poster frames
const DefaultPosterWidth = 480

// PosterWriter saves one JPEG still per highlight, taken at its midpoint
type PosterWriter struct {
	decoder media.Decoder
	width   uint
	quality int
	logger  zerolog.Logger
}

// PosterOption is a functional option for configuring PosterWriter
type PosterOption func(*PosterWriter)

// WithPosterWidth sets the output width; height follows the source aspect
func WithPosterWidth(width uint) PosterOption {
	return func(p *PosterWriter) {
		if width > 0 {
			p.width = width
		}
	}
}

// WithJPEGQuality sets the encoder quality (1-100)
func WithJPEGQuality(quality int) PosterOption {
	return func(p *PosterWriter) {
		if quality >= 1 && quality <= 100 {
			p.quality = quality
		}
	}
}

// NewPosterWriter creates a poster writer reading frames through decoder
func NewPosterWriter(decoder media.Decoder, logger zerolog.Logger, opts ...PosterOption) *PosterWriter {
	p := &PosterWriter{
		decoder: decoder,
		width:   DefaultPosterWidth,
		quality: jpeg.DefaultQuality,
		logger:  logger.With().Str("component", "posters").Logger(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Write saves posters for highlights into dir and returns their paths in
// the order of highlights
func (p *PosterWriter) Write(ctx context.Context, mediaPath string, highlights []analysis.HighlightSegment, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create poster directory: %w: %w", analysis.ErrIO, err)
	}

	session, err := p.decoder.Open(ctx, mediaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w: %w", mediaPath, analysis.ErrIO, err)
	}
	defer session.Close()

	paths := make([]string, 0, len(highlights))
	for i, h := range highlights {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("poster export interrupted: %w", err)
		}

		at := h.Start + h.Duration()/2
		out := filepath.Join(dir, fmt.Sprintf("poster_%02d_%dms.jpg", i+1, at.Milliseconds()))
		if err := p.writeOne(session, at, out); err != nil {
			return nil, fmt.Errorf("poster %d: %w", i+1, err)
		}
		p.logger.Debug().Str("file", out).Dur("at", at).Msg("poster written")
		paths = append(paths, out)
	}
	return paths, nil
}

func (p *PosterWriter) writeOne(session media.Session, at time.Duration, out string) error {
	if err := session.Seek(at); err != nil {
		return fmt.Errorf("failed to seek to %s: %w: %w", at, analysis.ErrIO, err)
	}
	img, _, err := session.NextImage()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: no picture at %s", analysis.ErrIO, at)
	}
	if err != nil {
		return fmt.Errorf("failed to read frame at %s: %w: %w", at, analysis.ErrIO, err)
	}
	defer img.Close()

	src, err := img.ToImage()
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w: %w", analysis.ErrIO, err)
	}
	thumb := resize.Resize(p.width, 0, src, resize.Bilinear)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w: %w", out, analysis.ErrIO, err)
	}
	if err := jpeg.Encode(f, thumb, &jpeg.Options{Quality: p.quality}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w: %w", out, analysis.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w: %w", out, analysis.ErrIO, err)
	}
	return nil
}
