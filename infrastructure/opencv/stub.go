//go:build !detection

package opencv

import (
	"context"

	"montage-media/domain/media"
)

// Decoder is a stub when GoCV/OpenCV is not available
type Decoder struct{}

// NewDecoder creates a stub decoder (requires building with -tags=detection)
func NewDecoder(inspector StreamInspector, audio AudioSource, opts ...DecoderOption) *Decoder {
	return &Decoder{}
}

// Open returns ErrUnavailable
func (d *Decoder) Open(ctx context.Context, path string) (media.Session, error) {
	return nil, ErrUnavailable
}

// Analyzer is a stub when GoCV/OpenCV is not available
type Analyzer struct{}

// NewAnalyzer creates a stub analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) ColorFeature(img media.Image) ([]float64, error) {
	return nil, ErrUnavailable
}

func (a *Analyzer) PrepareMotion(img media.Image) (media.Image, error) {
	return nil, ErrUnavailable
}

func (a *Analyzer) MeanAbsDiff(x, y media.Image) (float64, error) {
	return 0, ErrUnavailable
}

func (a *Analyzer) EdgeBounds(img media.Image) (media.Rect, error) {
	return media.Rect{}, ErrUnavailable
}

func (a *Analyzer) Crop(img media.Image, r media.Rect, width, height int) (media.Image, error) {
	return nil, ErrUnavailable
}

// Encoder is a stub when GoCV/OpenCV is not available
type Encoder struct{}

// NewEncoder creates a stub encoder
func NewEncoder(muxer Muxer, opts ...EncoderOption) *Encoder {
	return &Encoder{}
}

// Create returns ErrUnavailable
func (e *Encoder) Create(ctx context.Context, path string, opts media.SinkOptions) (media.Sink, error) {
	return nil, ErrUnavailable
}

// Available reports whether this build can decode and encode video
func Available() bool {
	return false
}

var (
	_ media.Decoder  = (*Decoder)(nil)
	_ media.Analyzer = (*Analyzer)(nil)
	_ media.Encoder  = (*Encoder)(nil)
)
