package media

import (
	"fmt"
	"image"
)

// Rect is an integer pixel rectangle anchored at its top-left corner
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Empty returns true if the rectangle has no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// CenterX returns the horizontal centre of the rectangle
func (r Rect) CenterX() float64 {
	return float64(r.X) + float64(r.Width)/2
}

// CenterY returns the vertical centre of the rectangle
func (r Rect) CenterY() float64 {
	return float64(r.Y) + float64(r.Height)/2
}

// Within returns true if the rectangle lies inside a width x height frame
func (r Rect) Within(width, height int) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= width && r.Y+r.Height <= height
}

// ToRectangle converts to the standard library representation
func (r Rect) ToRectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// String returns the rectangle as WxH+X+Y
func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// FromRectangle converts a standard library rectangle
func FromRectangle(r image.Rectangle) Rect {
	r = r.Canon()
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Clamp restricts v to [lo, hi]. If hi < lo, lo wins.
func Clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
