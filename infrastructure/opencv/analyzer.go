//go:build detection

package opencv

import (
	"errors"
	"fmt"
	"image"

	"montage-media/domain/media"

	"gocv.io/x/gocv"
)

// Feature downscale size
const (
	featureWidth  = 64
	featureHeight = 36
)

// Canny hysteresis thresholds for subject detection
const (
	cannyLow  = 50
	cannyHigh = 150
)

// matImage wraps a gocv.Mat holding BGR or single channel pixels
type matImage struct {
	mat    gocv.Mat
	closed bool
}

// NewImage takes ownership of mat
func NewImage(mat gocv.Mat) media.Image {
	return &matImage{mat: mat}
}

func (m *matImage) Width() int  { return m.mat.Cols() }
func (m *matImage) Height() int { return m.mat.Rows() }

func (m *matImage) ToImage() (image.Image, error) {
	if m.closed {
		return nil, errors.New("image already closed")
	}
	return m.mat.ToImage()
}

func (m *matImage) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	return m.mat.Close()
}

func asMat(img media.Image) (gocv.Mat, error) {
	m, ok := img.(*matImage)
	if !ok {
		return gocv.Mat{}, fmt.Errorf("unsupported image type %T", img)
	}
	if m.closed || m.mat.Empty() {
		return gocv.Mat{}, errors.New("image is closed or empty")
	}
	return m.mat, nil
}

// toGray returns a new single channel copy of src
func toGray(src gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if src.Channels() == 1 {
		src.CopyTo(&gray)
		return gray
	}
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	return gray
}

// Analyzer implements media.Analyzer with OpenCV
type Analyzer struct{}

// NewAnalyzer creates a new OpenCV analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// ColorFeature implements media.Analyzer
func (a *Analyzer) ColorFeature(img media.Image) ([]float64, error) {
	src, err := asMat(img)
	if err != nil {
		return nil, err
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(src, &small, image.Pt(featureWidth, featureHeight), 0, 0, gocv.InterpolationArea)

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(small, &hsv, gocv.ColorBGRToHSV)

	mean := gocv.NewMat()
	defer mean.Close()
	stddev := gocv.NewMat()
	defer stddev.Close()
	gocv.MeanStdDev(hsv, &mean, &stddev)

	feature := make([]float64, 0, 6)
	for i := 0; i < 3; i++ {
		feature = append(feature, mean.GetDoubleAt(i, 0))
	}
	for i := 0; i < 3; i++ {
		feature = append(feature, stddev.GetDoubleAt(i, 0))
	}
	return feature, nil
}

// PrepareMotion implements media.Analyzer
func (a *Analyzer) PrepareMotion(img media.Image) (media.Image, error) {
	src, err := asMat(img)
	if err != nil {
		return nil, err
	}

	gray := toGray(src)
	defer gray.Close()

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)
	return NewImage(blurred), nil
}

// MeanAbsDiff implements media.Analyzer
func (a *Analyzer) MeanAbsDiff(x, y media.Image) (float64, error) {
	ma, err := asMat(x)
	if err != nil {
		return 0, err
	}
	mb, err := asMat(y)
	if err != nil {
		return 0, err
	}
	if ma.Cols() != mb.Cols() || ma.Rows() != mb.Rows() || ma.Channels() != mb.Channels() {
		return 0, fmt.Errorf("image layouts differ: %dx%d vs %dx%d", ma.Cols(), ma.Rows(), mb.Cols(), mb.Rows())
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(ma, mb, &diff)
	return diff.Mean().Val1 / 255, nil
}

// EdgeBounds implements media.Analyzer
func (a *Analyzer) EdgeBounds(img media.Image) (media.Rect, error) {
	src, err := asMat(img)
	if err != nil {
		return media.Rect{}, err
	}

	gray := toGray(src)
	defer gray.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, cannyLow, cannyHigh)

	return boundsOf(edges.ToBytes(), edges.Cols(), edges.Rows()), nil
}

// boundsOf returns the bounding box of the non-zero bytes of a width x height mask
func boundsOf(mask []byte, width, height int) media.Rect {
	minX, minY := width, height
	maxX, maxY := -1, -1
	for y := 0; y < height; y++ {
		row := mask[y*width : (y+1)*width]
		for x, v := range row {
			if v == 0 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = max(maxY, y)
		}
	}
	if maxX < 0 {
		return media.Rect{}
	}
	return media.Rect{X: minX, Y: minY, Width: maxX - minX + 1, Height: maxY - minY + 1}
}

// Crop implements media.Analyzer
func (a *Analyzer) Crop(img media.Image, r media.Rect, width, height int) (media.Image, error) {
	src, err := asMat(img)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid crop output size %dx%d", width, height)
	}
	if r.Empty() || !r.Within(src.Cols(), src.Rows()) {
		return nil, fmt.Errorf("crop %s outside %dx%d frame", r, src.Cols(), src.Rows())
	}

	region := src.Region(r.ToRectangle())
	defer region.Close()

	dst := gocv.NewMat()
	if r.Width == width && r.Height == height {
		region.CopyTo(&dst)
	} else {
		gocv.Resize(region, &dst, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
	}
	return NewImage(dst), nil
}

// Available reports whether this build can decode and encode video
func Available() bool {
	return true
}

var _ media.Analyzer = (*Analyzer)(nil)
