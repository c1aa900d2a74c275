package analysis

import (
	"fmt"
	"time"
)

// Default tuning values
const (
	DefaultSceneThreshold      = 35.0
	DefaultMinimumSceneLength  = time.Second
	DefaultRMSThreshold        = 0.02
	DefaultMinimumSilence      = 500 * time.Millisecond
	DefaultMotionWeight        = 0.35
	DefaultAudioWeight         = 0.25
	DefaultFaceWeight          = 0.25
	DefaultKeywordWeight       = 0.15
	DefaultTargetDuration      = 60 * time.Second
	DefaultReframeSmoothing    = 0.7
	DefaultReframeAspectWidth  = 9.0
	DefaultReframeAspectHeight = 16.0
)

// SceneDetectionConfig tunes the scene segmenter
type SceneDetectionConfig struct {
	// Threshold is the scaled feature distance a frame pair must exceed to count as a cut
	Threshold float64

	// MinimumSceneLength is the shortest scene the segmenter will emit (except the last)
	MinimumSceneLength time.Duration
}

// NewSceneDetectionConfig creates a validated SceneDetectionConfig
func NewSceneDetectionConfig(threshold float64, minimumSceneLength time.Duration) (SceneDetectionConfig, error) {
	if threshold <= 0 {
		return SceneDetectionConfig{}, fmt.Errorf("%w: scene threshold must be > 0, got %v", ErrInvalidConfiguration, threshold)
	}
	if minimumSceneLength <= 0 {
		return SceneDetectionConfig{}, fmt.Errorf("%w: minimum scene length must be > 0, got %s", ErrInvalidConfiguration, minimumSceneLength)
	}
	return SceneDetectionConfig{Threshold: threshold, MinimumSceneLength: minimumSceneLength}, nil
}

// DefaultSceneDetectionConfig returns the stock scene detection settings
func DefaultSceneDetectionConfig() SceneDetectionConfig {
	return SceneDetectionConfig{Threshold: DefaultSceneThreshold, MinimumSceneLength: DefaultMinimumSceneLength}
}

// SilenceDetectionConfig tunes the silence detector
type SilenceDetectionConfig struct {
	// RMSThreshold is the window RMS (samples normalised to ±1.0) below which audio counts as silent
	RMSThreshold float64

	// MinimumSilence is the shortest silence that will be reported
	MinimumSilence time.Duration
}

// NewSilenceDetectionConfig creates a validated SilenceDetectionConfig
func NewSilenceDetectionConfig(rmsThreshold float64, minimumSilence time.Duration) (SilenceDetectionConfig, error) {
	if rmsThreshold <= 0 {
		return SilenceDetectionConfig{}, fmt.Errorf("%w: rms threshold must be > 0, got %v", ErrInvalidConfiguration, rmsThreshold)
	}
	if minimumSilence <= 0 {
		return SilenceDetectionConfig{}, fmt.Errorf("%w: minimum silence must be > 0, got %s", ErrInvalidConfiguration, minimumSilence)
	}
	return SilenceDetectionConfig{RMSThreshold: rmsThreshold, MinimumSilence: minimumSilence}, nil
}

// DefaultSilenceDetectionConfig returns the stock silence detection settings
func DefaultSilenceDetectionConfig() SilenceDetectionConfig {
	return SilenceDetectionConfig{RMSThreshold: DefaultRMSThreshold, MinimumSilence: DefaultMinimumSilence}
}

// HighlightConfig weights the signals combined by the highlight scorer
type HighlightConfig struct {
	MotionWeight  float64
	AudioWeight   float64
	FaceWeight    float64
	KeywordWeight float64

	// TargetDuration is the running time the highlight reel aims for
	TargetDuration time.Duration
}

// NewHighlightConfig creates a validated HighlightConfig
func NewHighlightConfig(motion, audio, face, keyword float64, target time.Duration) (HighlightConfig, error) {
	weights := []struct {
		name  string
		value float64
	}{
		{"motion", motion},
		{"audio", audio},
		{"face", face},
		{"keyword", keyword},
	}
	for _, w := range weights {
		if w.value < 0 {
			return HighlightConfig{}, fmt.Errorf("%w: %s weight must be >= 0, got %v", ErrInvalidConfiguration, w.name, w.value)
		}
	}
	if target <= 0 {
		return HighlightConfig{}, fmt.Errorf("%w: target duration must be > 0, got %s", ErrInvalidConfiguration, target)
	}
	return HighlightConfig{
		MotionWeight:   motion,
		AudioWeight:    audio,
		FaceWeight:     face,
		KeywordWeight:  keyword,
		TargetDuration: target,
	}, nil
}

// DefaultHighlightConfig returns the stock highlight weights
func DefaultHighlightConfig() HighlightConfig {
	return HighlightConfig{
		MotionWeight:   DefaultMotionWeight,
		AudioWeight:    DefaultAudioWeight,
		FaceWeight:     DefaultFaceWeight,
		KeywordWeight:  DefaultKeywordWeight,
		TargetDuration: DefaultTargetDuration,
	}
}

// ReframeConfig describes the output of an auto-reframe render
type ReframeConfig struct {
	AspectWidth  float64
	AspectHeight float64

	// EnableGPU is an acceleration hint handed to the encoder untouched
	EnableGPU bool

	// Smoothing is the weight kept from the previous region when blending in a new detection
	Smoothing float64
}

// NewReframeConfig creates a validated ReframeConfig with the default smoothing
func NewReframeConfig(aspectWidth, aspectHeight float64, enableGPU bool) (ReframeConfig, error) {
	return NewReframeConfigWithSmoothing(aspectWidth, aspectHeight, enableGPU, DefaultReframeSmoothing)
}

// NewReframeConfigWithSmoothing creates a validated ReframeConfig with an explicit smoothing factor
func NewReframeConfigWithSmoothing(aspectWidth, aspectHeight float64, enableGPU bool, smoothing float64) (ReframeConfig, error) {
	if aspectWidth <= 0 || aspectHeight <= 0 {
		return ReframeConfig{}, fmt.Errorf("%w: aspect ratio components must be > 0, got %v:%v", ErrInvalidConfiguration, aspectWidth, aspectHeight)
	}
	if smoothing < 0 || smoothing >= 1 {
		return ReframeConfig{}, fmt.Errorf("%w: smoothing must be in [0,1), got %v", ErrInvalidConfiguration, smoothing)
	}
	return ReframeConfig{
		AspectWidth:  aspectWidth,
		AspectHeight: aspectHeight,
		EnableGPU:    enableGPU,
		Smoothing:    smoothing,
	}, nil
}

// Vertical9x16 returns the portrait preset used for short-form platforms
func Vertical9x16(enableGPU bool) ReframeConfig {
	return ReframeConfig{AspectWidth: 9, AspectHeight: 16, EnableGPU: enableGPU, Smoothing: DefaultReframeSmoothing}
}

// Square returns the 1:1 preset
func Square(enableGPU bool) ReframeConfig {
	return ReframeConfig{AspectWidth: 1, AspectHeight: 1, EnableGPU: enableGPU, Smoothing: DefaultReframeSmoothing}
}

// Aspect returns width divided by height
func (c ReframeConfig) Aspect() float64 {
	return c.AspectWidth / c.AspectHeight
}
