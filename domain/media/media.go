package media

import (
	"context"
	"image"
	"time"
)

// StreamInfo describes the streams of an opened media file.
// Zero values mean the container did not report the property.
type StreamInfo struct {
	FrameRate     float64
	SampleRate    int
	AudioChannels int
	Width         int
	Height        int
	Duration      time.Duration
	VideoCodec    string
	AudioCodec    string
}

// HasAudio returns true if the file carries at least one audio channel
func (i StreamInfo) HasAudio() bool {
	return i.AudioChannels > 0
}

// Image is a decoded picture. The holder owns it and must Close it.
type Image interface {
	Width() int
	Height() int
	// ToImage copies the pixels into a standard library image
	ToImage() (image.Image, error)
	Close() error
}

// AudioChunk is a block of interleaved signed 16-bit PCM samples
type AudioChunk struct {
	Samples    []int16
	Channels   int
	SampleRate int
	Timestamp  time.Duration
}

// Frames returns the number of samples per channel in the chunk
func (c AudioChunk) Frames() int {
	if c.Channels <= 0 {
		return len(c.Samples)
	}
	return len(c.Samples) / c.Channels
}

// Frame is one item of an interleaved audio/video stream.
// Exactly one of Image and Audio is set.
type Frame struct {
	Timestamp time.Duration
	Image     Image
	Audio     *AudioChunk
}

// IsVideo returns true if the frame carries a picture
func (f Frame) IsVideo() bool {
	return f.Image != nil
}

// Session is an exclusive read handle on one media file.
// All Next* methods return io.EOF at end of stream.
type Session interface {
	Info() StreamInfo

	// NextImage returns the next decoded picture and its presentation time
	NextImage() (Image, time.Duration, error)

	// NextAudio returns the next block of decoded samples
	NextAudio() (AudioChunk, error)

	// Next returns the next picture or audio block in presentation order
	Next() (Frame, error)

	// Seek repositions the session. It is not frame-accurate.
	Seek(ts time.Duration) error

	Close() error
}

// Decoder opens read sessions on media files
// This is a port that can be implemented by different infrastructure adapters
type Decoder interface {
	Open(ctx context.Context, path string) (Session, error)
}

// SinkOptions describes the stream layout of an encode target
type SinkOptions struct {
	Width         int
	Height        int
	AudioChannels int
	SampleRate    int
	FrameRate     float64
	Format        string
	VideoCodec    string
	AudioCodec    string
	HardwareAccel bool
}

// Sink is an exclusive write handle on an output file.
// Close finalises the file; nothing is guaranteed on disk before it returns.
type Sink interface {
	WriteImage(img Image) error
	WriteAudio(chunk AudioChunk) error
	Close() error
}

// Encoder creates encode targets
type Encoder interface {
	Create(ctx context.Context, path string, opts SinkOptions) (Sink, error)
}

// Analyzer performs the per-frame image maths used by the analysis services
type Analyzer interface {
	// ColorFeature returns HSV channel means followed by standard deviations,
	// computed on a 64x36 downscale
	ColorFeature(img Image) ([]float64, error)

	// PrepareMotion returns a grayscale, 5x5 Gaussian-blurred copy of img
	PrepareMotion(img Image) (Image, error)

	// MeanAbsDiff returns the mean absolute pixel difference of two prepared
	// images, normalised to [0,1]
	MeanAbsDiff(a, b Image) (float64, error)

	// EdgeBounds returns the bounding box of the edge pixels in img, or an
	// empty Rect if there are none
	EdgeBounds(img Image) (Rect, error)

	// Crop extracts r from img and resizes it to exactly width x height
	Crop(img Image, r Rect, width, height int) (Image, error)
}

// FileChecker defines the interface for checking file existence
// This is used to validate that inputs exist before a session is opened
type FileChecker interface {
	// Exists returns true if the file exists
	Exists(path string) bool
}

// DirectoryCreator prepares the location of an output file
type DirectoryCreator interface {
	// EnsureParentDir creates the directory that will hold path
	EnsureParentDir(path string) error
}
