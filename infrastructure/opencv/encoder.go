//go:build detection

package opencv

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"montage-media/domain/media"
	"montage-media/infrastructure/ffmpeg"

	"gocv.io/x/gocv"
)

// intermediateCodec is the FourCC of the temporary picture track
const intermediateCodec = "MJPG"

// Encoder implements media.Encoder. Pictures are written with
// gocv.VideoWriter and raw PCM to a side file; Close muxes both into the
// final output with ffmpeg.
type Encoder struct {
	muxer Muxer
	opts  encoderOptions
}

// NewEncoder creates a new OpenCV encoder
func NewEncoder(muxer Muxer, opts ...EncoderOption) *Encoder {
	e := &Encoder{muxer: muxer}

	for _, opt := range opts {
		opt(&e.opts)
	}

	return e
}

// Create implements media.Encoder
func (e *Encoder) Create(ctx context.Context, path string, opts media.SinkOptions) (media.Sink, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", opts.Width, opts.Height)
	}
	if opts.FrameRate <= 0 {
		return nil, fmt.Errorf("invalid output frame rate %v", opts.FrameRate)
	}

	dir, err := os.MkdirTemp(e.opts.tempDir, "montage-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	s := &sink{
		ctx:     ctx,
		muxer:   e.muxer,
		path:    path,
		opts:    opts,
		tempDir: dir,
	}

	s.videoPath = filepath.Join(dir, "video.avi")
	s.writer, err = gocv.VideoWriterFile(s.videoPath, intermediateCodec, opts.FrameRate, opts.Width, opts.Height, true)
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to open video writer: %w", err)
	}

	if opts.AudioChannels > 0 && opts.SampleRate > 0 {
		s.audioPath = filepath.Join(dir, "audio.pcm")
		s.audioFile, err = os.Create(s.audioPath)
		if err != nil {
			s.writer.Close()
			os.RemoveAll(dir)
			return nil, fmt.Errorf("failed to create audio buffer: %w", err)
		}
		s.audio = bufio.NewWriter(s.audioFile)
	}

	return s, nil
}

type sink struct {
	ctx     context.Context
	muxer   Muxer
	path    string
	opts    media.SinkOptions
	tempDir string

	videoPath string
	writer    *gocv.VideoWriter

	audioPath string
	audioFile *os.File
	audio     *bufio.Writer

	closed bool
}

// WriteImage implements media.Sink
func (s *sink) WriteImage(img media.Image) error {
	if s.closed {
		return errors.New("sink is closed")
	}
	mat, err := asMat(img)
	if err != nil {
		return err
	}
	if mat.Cols() != s.opts.Width || mat.Rows() != s.opts.Height {
		return fmt.Errorf("picture is %dx%d, sink expects %dx%d", mat.Cols(), mat.Rows(), s.opts.Width, s.opts.Height)
	}
	return s.writer.Write(mat)
}

// WriteAudio implements media.Sink. Chunks for a sink without audio are dropped.
func (s *sink) WriteAudio(chunk media.AudioChunk) error {
	if s.closed {
		return errors.New("sink is closed")
	}
	if s.audio == nil {
		return nil
	}
	if chunk.Channels != s.opts.AudioChannels {
		return fmt.Errorf("audio has %d channels, sink expects %d", chunk.Channels, s.opts.AudioChannels)
	}
	return binary.Write(s.audio, binary.LittleEndian, chunk.Samples)
}

// Close implements media.Sink. The temp directory is removed on every path.
func (s *sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	defer os.RemoveAll(s.tempDir)

	var errs []error
	errs = append(errs, s.writer.Close())
	if s.audio != nil {
		errs = append(errs, s.audio.Flush(), s.audioFile.Close())
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to finish intermediate files: %w", err)
	}

	return s.muxer.Mux(s.ctx, ffmpeg.MuxRequest{
		VideoPath:     s.videoPath,
		AudioPath:     s.audioPath,
		SampleRate:    s.opts.SampleRate,
		Channels:      s.opts.AudioChannels,
		OutputPath:    s.path,
		VideoCodec:    s.opts.VideoCodec,
		AudioCodec:    s.opts.AudioCodec,
		HardwareAccel: s.opts.HardwareAccel,
	})
}

var (
	_ media.Encoder = (*Encoder)(nil)
	_ media.Sink    = (*sink)(nil)
)
