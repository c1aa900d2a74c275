// Package opencv adapts gocv to the media ports. The gocv-backed
// implementations are only compiled with the detection build tag; without it
// every constructor returns a stub that reports how to enable them.
package opencv

import (
	"context"
	"errors"
	"time"

	"montage-media/domain/media"
	"montage-media/infrastructure/ffmpeg"
)

// DefaultSampleRate is used when the container does not report one
const DefaultSampleRate = 48000

// ErrUnavailable is returned by every operation of a build without OpenCV
var ErrUnavailable = errors.New("opencv not available: build with '-tags=detection' and install OpenCV/GoCV")

// StreamInspector reads stream metadata
type StreamInspector interface {
	Inspect(ctx context.Context, path string) (media.StreamInfo, error)
}

// AudioSource decodes the audio track of a file starting at a position
type AudioSource interface {
	Open(ctx context.Context, path string, start time.Duration, sampleRate, channels int) (*ffmpeg.PCMStream, error)
}

// Muxer assembles the intermediate render files into the final output
type Muxer interface {
	Mux(ctx context.Context, req ffmpeg.MuxRequest) error
}

// Ensure the ffmpeg adapters satisfy the collaborators used here
var (
	_ StreamInspector = (*ffmpeg.Inspector)(nil)
	_ AudioSource  = (*ffmpeg.AudioReader)(nil)
	_ Muxer        = (*ffmpeg.Muxer)(nil)
)

// DecoderOption is a functional option for configuring Decoder
type DecoderOption func(*decoderOptions)

type decoderOptions struct {
	sampleRate int
}

// WithFallbackSampleRate sets the PCM rate used when the container reports none
func WithFallbackSampleRate(rate int) DecoderOption {
	return func(o *decoderOptions) {
		if rate > 0 {
			o.sampleRate = rate
		}
	}
}

// EncoderOption is a functional option for configuring Encoder
type EncoderOption func(*encoderOptions)

type encoderOptions struct {
	tempDir string
}

// WithTempDir sets where intermediate render files are written
func WithTempDir(dir string) EncoderOption {
	return func(o *encoderOptions) {
		o.tempDir = dir
	}
}
