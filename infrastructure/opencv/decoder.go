//go:build detection

package opencv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"montage-media/domain/media"
	"montage-media/infrastructure/ffmpeg"

	"gocv.io/x/gocv"
)

// Decoder implements media.Decoder. Pictures come from gocv.VideoCapture,
// audio from an ffmpeg PCM pipe.
type Decoder struct {
	inspector StreamInspector
	audio     AudioSource
	opts      decoderOptions
}

// NewDecoder creates a new OpenCV decoder
func NewDecoder(inspector StreamInspector, audio AudioSource, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		inspector: inspector,
		audio:     audio,
		opts:      decoderOptions{sampleRate: DefaultSampleRate},
	}

	for _, opt := range opts {
		opt(&d.opts)
	}

	return d
}

// Open implements media.Decoder
func (d *Decoder) Open(ctx context.Context, path string) (media.Session, error) {
	info, err := d.inspector.Inspect(ctx, path)
	if err != nil {
		return nil, err
	}

	s := &session{
		ctx:    ctx,
		path:   path,
		info:   info,
		source: d.audio,
	}

	if info.Width > 0 && info.Height > 0 {
		capture, err := gocv.VideoCaptureFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open video stream: %w", err)
		}
		if !capture.IsOpened() {
			capture.Close()
			return nil, fmt.Errorf("failed to open video stream of %s", path)
		}
		s.capture = capture
		if s.info.FrameRate <= 0 {
			s.info.FrameRate = capture.Get(gocv.VideoCaptureFPS)
		}
	}

	if info.HasAudio() && d.audio != nil {
		if s.info.SampleRate <= 0 {
			s.info.SampleRate = d.opts.sampleRate
		}
	} else {
		s.info.AudioChannels = 0
	}

	return s, nil
}

// session interleaves one video capture with one PCM pipe
type session struct {
	ctx    context.Context
	path   string
	info   media.StreamInfo
	source AudioSource

	capture    *gocv.VideoCapture
	videoBase  time.Duration
	videoCount int
	videoDone  bool

	audio     *ffmpeg.PCMStream
	audioFrom time.Duration
	audioDone bool

	pendingImage media.Image
	pendingTS    time.Duration
	pendingAudio *media.AudioChunk
}

func (s *session) Info() media.StreamInfo {
	return s.info
}

// NextImage implements media.Session
func (s *session) NextImage() (media.Image, time.Duration, error) {
	if s.pendingImage != nil {
		img, ts := s.pendingImage, s.pendingTS
		s.pendingImage = nil
		return img, ts, nil
	}
	if s.capture == nil || s.videoDone {
		return nil, 0, io.EOF
	}
	if err := s.ctx.Err(); err != nil {
		return nil, 0, err
	}

	mat := gocv.NewMat()
	if ok := s.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		s.videoDone = true
		return nil, 0, io.EOF
	}

	ts := s.frameTime()
	s.videoCount++
	return NewImage(mat), ts, nil
}

// frameTime reports the presentation time of the picture just read. The
// container clock is preferred; the frame counter covers backends that
// report nothing.
func (s *session) frameTime() time.Duration {
	ms := s.capture.Get(gocv.VideoCapturePosMsec)
	if ms > 0 || (s.videoCount == 0 && s.videoBase == 0) {
		return time.Duration(ms * float64(time.Millisecond))
	}
	if s.info.FrameRate <= 0 {
		return s.videoBase
	}
	return s.videoBase + time.Duration(float64(s.videoCount)/s.info.FrameRate*float64(time.Second))
}

// NextAudio implements media.Session. The ffmpeg pipe is started on first use.
func (s *session) NextAudio() (media.AudioChunk, error) {
	if s.pendingAudio != nil {
		chunk := *s.pendingAudio
		s.pendingAudio = nil
		return chunk, nil
	}
	if !s.info.HasAudio() || s.audioDone {
		return media.AudioChunk{}, io.EOF
	}
	if s.audio == nil {
		stream, err := s.source.Open(s.ctx, s.path, s.audioFrom, s.info.SampleRate, s.info.AudioChannels)
		if err != nil {
			return media.AudioChunk{}, err
		}
		s.audio = stream
	}

	chunk, err := s.audio.Next()
	if errors.Is(err, io.EOF) {
		s.audioDone = true
		if cerr := s.closeAudio(); cerr != nil {
			return media.AudioChunk{}, cerr
		}
		return media.AudioChunk{}, io.EOF
	}
	return chunk, err
}

// Next implements media.Session. Pictures win timestamp ties.
func (s *session) Next() (media.Frame, error) {
	if s.pendingImage == nil {
		img, ts, err := s.NextImage()
		if err != nil && !errors.Is(err, io.EOF) {
			return media.Frame{}, err
		}
		s.pendingImage, s.pendingTS = img, ts
	}
	if s.pendingAudio == nil {
		chunk, err := s.NextAudio()
		if err != nil && !errors.Is(err, io.EOF) {
			return media.Frame{}, err
		}
		if err == nil {
			s.pendingAudio = &chunk
		}
	}

	switch {
	case s.pendingImage == nil && s.pendingAudio == nil:
		return media.Frame{}, io.EOF
	case s.pendingAudio == nil || (s.pendingImage != nil && s.pendingTS <= s.pendingAudio.Timestamp):
		img, ts := s.pendingImage, s.pendingTS
		s.pendingImage = nil
		return media.Frame{Timestamp: ts, Image: img}, nil
	default:
		chunk := s.pendingAudio
		s.pendingAudio = nil
		return media.Frame{Timestamp: chunk.Timestamp, Audio: chunk}, nil
	}
}

// Seek implements media.Session. Buffered items are discarded and the audio
// pipe is restarted at ts.
func (s *session) Seek(ts time.Duration) error {
	if ts < 0 {
		ts = 0
	}
	s.dropPending()

	if s.capture != nil {
		s.capture.Set(gocv.VideoCapturePosMsec, float64(ts)/float64(time.Millisecond))
		s.videoBase = ts
		s.videoCount = 0
		s.videoDone = false
	}

	if err := s.closeAudio(); err != nil {
		return err
	}
	s.audioFrom = ts
	s.audioDone = false
	return nil
}

func (s *session) dropPending() {
	if s.pendingImage != nil {
		s.pendingImage.Close()
		s.pendingImage = nil
	}
	s.pendingAudio = nil
}

func (s *session) closeAudio() error {
	if s.audio == nil {
		return nil
	}
	err := s.audio.Close()
	s.audio = nil
	return err
}

// Close implements media.Session
func (s *session) Close() error {
	s.dropPending()
	var errs []error
	if s.capture != nil {
		errs = append(errs, s.capture.Close())
		s.capture = nil
	}
	errs = append(errs, s.closeAudio())
	return errors.Join(errs...)
}

var (
	_ media.Decoder = (*Decoder)(nil)
	_ media.Session = (*session)(nil)
)
