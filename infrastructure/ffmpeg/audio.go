package ffmpeg

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"montage-media/domain/media"
)

// DefaultChunkFrames is the number of sample frames returned per read
const DefaultChunkFrames = 1024

// bytesPerSample is the size of one signed 16-bit little-endian sample
const bytesPerSample = 2

// AudioReader decodes audio tracks to interleaved s16le PCM using ffmpeg
type AudioReader struct {
	ffmpegPath  string
	runner      CommandRunner
	chunkFrames int
}

// AudioReaderOption is a functional option for configuring AudioReader
type AudioReaderOption func(*AudioReader)

// WithAudioFFmpegPath sets a custom ffmpeg executable path
func WithAudioFFmpegPath(path string) AudioReaderOption {
	return func(r *AudioReader) {
		r.ffmpegPath = path
	}
}

// WithAudioCommandRunner sets a custom command runner (for testing)
func WithAudioCommandRunner(runner CommandRunner) AudioReaderOption {
	return func(r *AudioReader) {
		r.runner = runner
	}
}

// WithChunkFrames sets how many sample frames each read returns
func WithChunkFrames(frames int) AudioReaderOption {
	return func(r *AudioReader) {
		if frames > 0 {
			r.chunkFrames = frames
		}
	}
}

// NewAudioReader creates a new ffmpeg-based PCM reader
func NewAudioReader(opts ...AudioReaderOption) *AudioReader {
	r := &AudioReader{
		ffmpegPath:  "ffmpeg",
		runner:      &ExecCommandRunner{},
		chunkFrames: DefaultChunkFrames,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Open starts decoding the first audio stream of path from start
func (r *AudioReader) Open(ctx context.Context, path string, start time.Duration, sampleRate, channels int) (*PCMStream, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid pcm layout: %d Hz, %d channels", sampleRate, channels)
	}

	args := []string{"-v", "error", "-nostdin"}
	if start > 0 {
		args = append(args, "-ss", formatSeconds(start))
	}
	args = append(args,
		"-i", path,
		"-vn",
		"-map", "0:a:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(channels),
		"-ar", strconv.Itoa(sampleRate),
		"pipe:1",
	)

	stdout, err := r.runner.Stream(ctx, r.ffmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg audio decode failed: %w", err)
	}
	return NewPCMStream(stdout, start, sampleRate, channels, r.chunkFrames), nil
}

// PCMStream reads fixed-size chunks of interleaved samples
type PCMStream struct {
	r           io.ReadCloser
	start       time.Duration
	sampleRate  int
	channels    int
	chunkFrames int
	frames      int64
	buf         []byte
}

// NewPCMStream wraps a raw s16le reader
func NewPCMStream(r io.ReadCloser, start time.Duration, sampleRate, channels, chunkFrames int) *PCMStream {
	if chunkFrames <= 0 {
		chunkFrames = DefaultChunkFrames
	}
	return &PCMStream{
		r:           r,
		start:       start,
		sampleRate:  sampleRate,
		channels:    channels,
		chunkFrames: chunkFrames,
		buf:         make([]byte, chunkFrames*channels*bytesPerSample),
	}
}

// Next returns the next chunk. A short final chunk is returned before io.EOF;
// a trailing partial sample frame is dropped.
func (s *PCMStream) Next() (media.AudioChunk, error) {
	n, err := io.ReadFull(s.r, s.buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return media.AudioChunk{}, err
	}

	frameBytes := s.channels * bytesPerSample
	frames := n / frameBytes
	if frames == 0 {
		return media.AudioChunk{}, io.EOF
	}

	samples := make([]int16, frames*s.channels)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(s.buf[i*bytesPerSample:]))
	}

	chunk := media.AudioChunk{
		Samples:    samples,
		Channels:   s.channels,
		SampleRate: s.sampleRate,
		Timestamp:  s.Position(),
	}
	s.frames += int64(frames)
	return chunk, nil
}

// Position returns the presentation time of the next chunk
func (s *PCMStream) Position() time.Duration {
	return s.start + time.Duration(s.frames*int64(time.Second)/int64(s.sampleRate))
}

// Close stops decoding
func (s *PCMStream) Close() error {
	return s.r.Close()
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
