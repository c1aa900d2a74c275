package reframe

import (
	"math"

	"montage-media/domain/media"
)

// fallbackWidthRatio is the share of the frame width the centred starting
// region covers when the first frame has no edges
const fallbackWidthRatio = 0.6

// TargetSize returns the largest frame of the given aspect that fits inside
// the source, keeping the source's limiting dimension
func TargetSize(sourceWidth, sourceHeight int, aspect float64) (int, int) {
	if float64(sourceWidth)/float64(sourceHeight) > aspect {
		return int(math.Round(float64(sourceHeight) * aspect)), sourceHeight
	}
	return sourceWidth, int(math.Round(float64(sourceWidth) / aspect))
}

// InitialROI returns the detected region, or a centred box 60% of the frame
// wide at the output aspect when nothing was detected
func InitialROI(detected media.Rect, frameWidth, frameHeight int, aspect float64) media.Rect {
	if !detected.Empty() {
		return detected
	}
	width := int(float64(frameWidth) * fallbackWidthRatio)
	height := int(float64(width) / aspect)
	return media.Rect{
		X:      max(0, frameWidth/2-width/2),
		Y:      max(0, frameHeight/2-height/2),
		Width:  min(width, frameWidth),
		Height: min(height, frameHeight),
	}
}

// Blend mixes a new detection into the previous region. smoothing is the
// weight kept from previous. An empty detection keeps previous unchanged.
func Blend(previous, detected media.Rect, smoothing float64) media.Rect {
	if detected.Empty() {
		detected = previous
	}
	mix := func(p, d int) int {
		return int(math.Round(float64(p)*smoothing + float64(d)*(1-smoothing)))
	}
	return media.Rect{
		X:      mix(previous.X, detected.X),
		Y:      mix(previous.Y, detected.Y),
		Width:  mix(previous.Width, detected.Width),
		Height: mix(previous.Height, detected.Height),
	}
}

// CropRect returns the source rectangle to extract for one output frame.
// The crop has the target aspect, is as tight around roi as that allows,
// is centred on roi and is shifted as needed to stay inside the source.
func CropRect(roi media.Rect, sourceWidth, sourceHeight, targetWidth, targetHeight int) media.Rect {
	if roi.Empty() {
		roi = media.Rect{Width: sourceWidth, Height: sourceHeight}
	}
	scale := min(
		float64(targetWidth)/float64(roi.Width),
		float64(targetHeight)/float64(roi.Height),
	)
	// never larger than the biggest target-aspect rectangle the source holds
	scale = max(scale,
		float64(targetWidth)/float64(sourceWidth),
		float64(targetHeight)/float64(sourceHeight),
	)
	cropWidth := int(math.Round(float64(targetWidth) / scale))
	cropHeight := int(math.Round(float64(targetHeight) / scale))

	x := int(math.Round(roi.CenterX() - float64(cropWidth)/2))
	y := int(math.Round(roi.CenterY() - float64(cropHeight)/2))
	x = media.Clamp(x, 0, sourceWidth-cropWidth)
	y = media.Clamp(y, 0, sourceHeight-cropHeight)

	return media.Rect{
		X:      x,
		Y:      y,
		Width:  min(cropWidth, sourceWidth-x),
		Height: min(cropHeight, sourceHeight-y),
	}
}
