package mediatest

import (
	"context"
	"fmt"
	"math"

	"montage-media/domain/media"
)

// CropCall records one Analyzer.Crop invocation
type CropCall struct {
	SourceWidth  int
	SourceHeight int
	Rect         media.Rect
	Width        int
	Height       int
}

// Analyzer reads the summary fields of mediatest images
type Analyzer struct {
	FeatureErr error
	MotionErr  error
	EdgesErr   error
	CropErr    error

	Crops    []CropCall
	produced []*Image
}

func (a *Analyzer) ColorFeature(img media.Image) ([]float64, error) {
	if a.FeatureErr != nil {
		return nil, a.FeatureErr
	}
	m, err := asImage(img)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), m.Feature...), nil
}

func (a *Analyzer) PrepareMotion(img media.Image) (media.Image, error) {
	if a.MotionErr != nil {
		return nil, a.MotionErr
	}
	m, err := asImage(img)
	if err != nil {
		return nil, err
	}
	out := &Image{W: m.W, H: m.H, Luma: m.Luma, Prepared: true}
	a.produced = append(a.produced, out)
	return out, nil
}

func (a *Analyzer) MeanAbsDiff(x, y media.Image) (float64, error) {
	mx, err := asImage(x)
	if err != nil {
		return 0, err
	}
	my, err := asImage(y)
	if err != nil {
		return 0, err
	}
	if !mx.Prepared || !my.Prepared {
		return 0, fmt.Errorf("mediatest: MeanAbsDiff on unprepared image")
	}
	return math.Abs(mx.Luma-my.Luma) / 255, nil
}

func (a *Analyzer) EdgeBounds(img media.Image) (media.Rect, error) {
	if a.EdgesErr != nil {
		return media.Rect{}, a.EdgesErr
	}
	m, err := asImage(img)
	if err != nil {
		return media.Rect{}, err
	}
	return m.Edges, nil
}

func (a *Analyzer) Crop(img media.Image, r media.Rect, width, height int) (media.Image, error) {
	if a.CropErr != nil {
		return nil, a.CropErr
	}
	m, err := asImage(img)
	if err != nil {
		return nil, err
	}
	a.Crops = append(a.Crops, CropCall{
		SourceWidth:  m.W,
		SourceHeight: m.H,
		Rect:         r,
		Width:        width,
		Height:       height,
	})
	out := &Image{W: width, H: height, Luma: m.Luma}
	a.produced = append(a.produced, out)
	return out, nil
}

// OpenImages returns how many images produced by the analyzer were not closed
func (a *Analyzer) OpenImages() int {
	n := 0
	for _, img := range a.produced {
		if !img.Closed {
			n++
		}
	}
	return n
}

func asImage(img media.Image) (*Image, error) {
	m, ok := img.(*Image)
	if !ok {
		return nil, fmt.Errorf("mediatest: unsupported image type %T", img)
	}
	if m.Closed {
		return nil, fmt.Errorf("mediatest: image used after Close")
	}
	return m, nil
}

var _ media.Analyzer = (*Analyzer)(nil)

// WrittenImage records the geometry of a picture written to a Sink
type WrittenImage struct {
	Width  int
	Height int
}

// Sink records everything written to it
type Sink struct {
	Path    string
	Options media.SinkOptions

	Images []WrittenImage
	Audio  []media.AudioChunk
	Closed bool

	WriteErr error
	CloseErr error
}

func (s *Sink) WriteImage(img media.Image) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	if s.Closed {
		return fmt.Errorf("mediatest: write after Close")
	}
	s.Images = append(s.Images, WrittenImage{Width: img.Width(), Height: img.Height()})
	return nil
}

func (s *Sink) WriteAudio(chunk media.AudioChunk) error {
	if s.WriteErr != nil {
		return s.WriteErr
	}
	if s.Closed {
		return fmt.Errorf("mediatest: write after Close")
	}
	s.Audio = append(s.Audio, chunk)
	return nil
}

func (s *Sink) Close() error {
	s.Closed = true
	return s.CloseErr
}

var _ media.Sink = (*Sink)(nil)

// Encoder hands out recording sinks
type Encoder struct {
	CreateErr error

	// WriteErr is injected into every sink created
	WriteErr error

	Sinks []*Sink
}

func (e *Encoder) Create(ctx context.Context, path string, opts media.SinkOptions) (media.Sink, error) {
	if e.CreateErr != nil {
		return nil, e.CreateErr
	}
	s := &Sink{Path: path, Options: opts, WriteErr: e.WriteErr}
	e.Sinks = append(e.Sinks, s)
	return s, nil
}

// Last returns the most recently created sink, or nil
func (e *Encoder) Last() *Sink {
	if len(e.Sinks) == 0 {
		return nil
	}
	return e.Sinks[len(e.Sinks)-1]
}

var _ media.Encoder = (*Encoder)(nil)
