// Package mediatest provides in-memory implementations of the media ports
// for exercising the analysis services without a real decoder.
package mediatest

import (
	"image"
	"math"
	"time"

	"montage-media/domain/media"
)

// Image is a synthetic picture. Pixel content is summarised by the fields
// the fake Analyzer reads back.
type Image struct {
	W, H int

	// Feature is returned verbatim by Analyzer.ColorFeature
	Feature []float64

	// Luma is the uniform brightness (0-255) used for motion differences
	Luma float64

	// Edges is returned verbatim by Analyzer.EdgeBounds
	Edges media.Rect

	// Prepared is set on images produced by Analyzer.PrepareMotion
	Prepared bool

	Closed bool
}

func (i *Image) Width() int  { return i.W }
func (i *Image) Height() int { return i.H }

// ToImage renders a uniform gray picture at the image's luma
func (i *Image) ToImage() (image.Image, error) {
	img := image.NewGray(image.Rect(0, 0, i.W, i.H))
	level := uint8(min(max(i.Luma, 0), 255))
	for p := range img.Pix {
		img.Pix[p] = level
	}
	return img, nil
}

func (i *Image) Close() error {
	i.Closed = true
	return nil
}

func (i *Image) clone() *Image {
	c := *i
	c.Feature = append([]float64(nil), i.Feature...)
	c.Closed = false
	return &c
}

var _ media.Image = (*Image)(nil)

// ClipFrame is one picture of a Clip at its presentation time
type ClipFrame struct {
	Timestamp time.Duration
	Image     Image
}

// Clip is an in-memory media file
type Clip struct {
	Info   media.StreamInfo
	Frames []ClipFrame
	Audio  []media.AudioChunk

	// ReadErr is returned by the session after ReadErrAfter pictures
	ReadErr      error
	ReadErrAfter int

	// AudioErr is returned by the session after AudioErrAfter audio chunks
	AudioErr      error
	AudioErrAfter int

	videoCursor time.Duration
}

// NewClip creates an empty clip with the given picture geometry and rate
func NewClip(width, height int, fps float64) *Clip {
	return &Clip{
		Info: media.StreamInfo{
			FrameRate:  fps,
			Width:      width,
			Height:     height,
			VideoCodec: "h264",
		},
	}
}

// AddVideo appends pictures at the clip frame rate covering duration.
// Every picture is a copy of tmpl sized to the clip.
func (c *Clip) AddVideo(duration time.Duration, tmpl Image) *Clip {
	fps := c.Info.FrameRate
	if fps <= 0 {
		fps = 30
	}
	start := c.videoCursor
	count := int(math.Round(duration.Seconds() * fps))
	tmpl.W, tmpl.H = c.Info.Width, c.Info.Height
	for i := 0; i < count; i++ {
		ts := start + time.Duration(float64(i)/fps*float64(time.Second))
		c.Frames = append(c.Frames, ClipFrame{Timestamp: ts, Image: *tmpl.clone()})
	}
	c.videoCursor = start + duration
	c.extend(c.videoCursor)
	return c
}

// AddAudio appends interleaved PCM covering duration. An amplitude of 0 is
// digital silence; otherwise samples alternate between +amplitude and
// -amplitude, giving an RMS of amplitude/32768.
func (c *Clip) AddAudio(duration time.Duration, sampleRate, channels int, amplitude int16, chunkFrames int) *Clip {
	c.Info.SampleRate = sampleRate
	c.Info.AudioChannels = channels
	c.Info.AudioCodec = "aac"

	start := c.audioEnd()
	total := int(duration.Seconds() * float64(sampleRate))
	for done := 0; done < total; done += chunkFrames {
		n := min(chunkFrames, total-done)
		samples := make([]int16, n*channels)
		for f := 0; f < n; f++ {
			v := amplitude
			if (done+f)%2 == 1 {
				v = -amplitude
			}
			for ch := 0; ch < channels; ch++ {
				samples[f*channels+ch] = v
			}
		}
		c.Audio = append(c.Audio, media.AudioChunk{
			Samples:    samples,
			Channels:   channels,
			SampleRate: sampleRate,
			Timestamp:  start + time.Duration(float64(done)/float64(sampleRate)*float64(time.Second)),
		})
	}
	c.extend(start + duration)
	return c
}

func (c *Clip) audioEnd() time.Duration {
	if len(c.Audio) == 0 {
		return 0
	}
	last := c.Audio[len(c.Audio)-1]
	return last.Timestamp + time.Duration(float64(last.Frames())/float64(last.SampleRate)*float64(time.Second))
}

func (c *Clip) extend(end time.Duration) {
	if end > c.Info.Duration {
		c.Info.Duration = end
	}
}

// Solid returns a template whose colour feature is a flat HSV triple
func Solid(h, s, v float64) Image {
	return Image{Feature: []float64{h, s, v, 0, 0, 0}, Luma: v}
}
