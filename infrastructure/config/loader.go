package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"montage-media/domain/analysis"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "MONTAGE_"

// Config represents the complete application configuration
type Config struct {
	Analysis      AnalysisConfig      `yaml:"analysis"`
	FFmpeg        FFmpegConfig        `yaml:"ffmpeg"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
	Paths         PathsConfig         `yaml:"paths"`
	Keywords      []string            `yaml:"keywords"`
}

// AnalysisConfig groups the tuning of every analysis service
type AnalysisConfig struct {
	Scene     SceneConfig     `yaml:"scene"`
	Silence   SilenceConfig   `yaml:"silence"`
	Highlight HighlightConfig `yaml:"highlight"`
	Reframe   ReframeConfig   `yaml:"reframe"`
}

// SceneConfig contains scene segmentation settings
type SceneConfig struct {
	Threshold            float64 `yaml:"threshold"`
	MinimumSceneLengthMs int     `yaml:"minimum_scene_length_ms"`
}

// SilenceConfig contains silence detection settings
type SilenceConfig struct {
	RMSThreshold     float64 `yaml:"rms_threshold"`
	MinimumSilenceMs int     `yaml:"minimum_silence_ms"`
}

// HighlightConfig contains highlight scoring weights
type HighlightConfig struct {
	MotionWeight     float64 `yaml:"motion_weight"`
	AudioWeight      float64 `yaml:"audio_weight"`
	FaceWeight       float64 `yaml:"face_weight"`
	KeywordWeight    float64 `yaml:"keyword_weight"`
	TargetDurationMs int     `yaml:"target_duration_ms"`
}

// ReframeConfig contains auto-reframe settings
type ReframeConfig struct {
	Aspect    string  `yaml:"aspect"`
	Smoothing float64 `yaml:"smoothing"`
	EnableGPU bool    `yaml:"enable_gpu"`
}

// FFmpegConfig contains external tool locations
type FFmpegConfig struct {
	BinaryPath    string `yaml:"binary_path"`
	InspectorPath string `yaml:"inspector_path"`
	TempDir       string `yaml:"temp_dir"`
	ChunkFrames   int    `yaml:"chunk_frames"`
}

// TranscriptionConfig selects the speech-to-text strategy
type TranscriptionConfig struct {
	// Mode is "none", "sidecar" or "command"
	Mode string `yaml:"mode"`

	// Command is run as: Command Args... <wav> <srt output>
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LoggingConfig contains logger settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PathsConfig contains default output directories
type PathsConfig struct {
	OutputDirectory string `yaml:"output_directory"`
	PosterDirectory string `yaml:"poster_directory"`
}

// Transcription modes
const (
	TranscriptionNone    = "none"
	TranscriptionSidecar = "sidecar"
	TranscriptionCommand = "command"
)

// Default returns the stock configuration
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Scene: SceneConfig{
				Threshold:            analysis.DefaultSceneThreshold,
				MinimumSceneLengthMs: int(analysis.DefaultMinimumSceneLength / time.Millisecond),
			},
			Silence: SilenceConfig{
				RMSThreshold:     analysis.DefaultRMSThreshold,
				MinimumSilenceMs: int(analysis.DefaultMinimumSilence / time.Millisecond),
			},
			Highlight: HighlightConfig{
				MotionWeight:     analysis.DefaultMotionWeight,
				AudioWeight:      analysis.DefaultAudioWeight,
				FaceWeight:       analysis.DefaultFaceWeight,
				KeywordWeight:    analysis.DefaultKeywordWeight,
				TargetDurationMs: int(analysis.DefaultTargetDuration / time.Millisecond),
			},
			Reframe: ReframeConfig{
				Aspect:    "9:16",
				Smoothing: analysis.DefaultReframeSmoothing,
			},
		},
		FFmpeg: FFmpegConfig{
			BinaryPath:    "ffmpeg",
			InspectorPath: "ffprobe",
		},
		Transcription: TranscriptionConfig{
			Mode: TranscriptionSidecar,
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Paths: PathsConfig{
			OutputDirectory: "./output",
			PosterDirectory: "./output/posters",
		},
	}
}

// Load reads and parses the configuration from the specified YAML file.
// Values absent from the file keep their defaults; environment overrides
// are applied last.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but returns the defaults (with environment
// overrides) when the file does not exist
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(path)
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from MONTAGE_* variables
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"FFMPEG_PATH":        &c.FFmpeg.BinaryPath,
		"FFPROBE_PATH":       &c.FFmpeg.InspectorPath,
		"TEMP_DIR":           &c.FFmpeg.TempDir,
		"TRANSCRIPTION_MODE": &c.Transcription.Mode,
		"TRANSCRIBE_COMMAND": &c.Transcription.Command,
		"SERVER_ADDRESS":     &c.Server.Address,
		"LOG_LEVEL":          &c.Logging.Level,
		"LOG_FORMAT":         &c.Logging.Format,
		"OUTPUT_DIR":         &c.Paths.OutputDirectory,
		"REFRAME_ASPECT":     &c.Analysis.Reframe.Aspect,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"SCENE_THRESHOLD":   &c.Analysis.Scene.Threshold,
		"SILENCE_THRESHOLD": &c.Analysis.Silence.RMSThreshold,
		"REFRAME_SMOOTHING": &c.Analysis.Reframe.Smoothing,
	}
	for key, dst := range floats {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not a number", analysis.ErrInvalidConfiguration, EnvPrefix, key, v)
		}
		*dst = f
	}

	if v, ok := lookup(EnvPrefix + "ENABLE_GPU"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sENABLE_GPU=%q is not a boolean", analysis.ErrInvalidConfiguration, EnvPrefix, v)
		}
		c.Analysis.Reframe.EnableGPU = b
	}

	if v, ok := lookup(EnvPrefix + "KEYWORDS"); ok && v != "" {
		c.Keywords = SplitList(v)
	}
	return nil
}

// SplitList splits a comma-separated list, dropping blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SceneDetection converts the scene settings into a validated domain config
func (c *Config) SceneDetection() (analysis.SceneDetectionConfig, error) {
	s := c.Analysis.Scene
	return analysis.NewSceneDetectionConfig(s.Threshold, time.Duration(s.MinimumSceneLengthMs)*time.Millisecond)
}

// SilenceDetection converts the silence settings into a validated domain config
func (c *Config) SilenceDetection() (analysis.SilenceDetectionConfig, error) {
	s := c.Analysis.Silence
	return analysis.NewSilenceDetectionConfig(s.RMSThreshold, time.Duration(s.MinimumSilenceMs)*time.Millisecond)
}

// Highlight converts the highlight settings into a validated domain config
func (c *Config) Highlight() (analysis.HighlightConfig, error) {
	h := c.Analysis.Highlight
	return analysis.NewHighlightConfig(h.MotionWeight, h.AudioWeight, h.FaceWeight, h.KeywordWeight,
		time.Duration(h.TargetDurationMs)*time.Millisecond)
}

// Reframe converts the reframe settings into a validated domain config.
// aspect and gpu override the file values when non-empty / true.
func (c *Config) Reframe(aspect string, gpu bool) (analysis.ReframeConfig, error) {
	r := c.Analysis.Reframe
	if aspect == "" {
		aspect = r.Aspect
	}
	w, h, err := ParseAspect(aspect)
	if err != nil {
		return analysis.ReframeConfig{}, err
	}
	return analysis.NewReframeConfigWithSmoothing(w, h, gpu || r.EnableGPU, r.Smoothing)
}

// ParseAspect parses ratios such as "9:16", "1:1" or "4x5"
func ParseAspect(s string) (float64, float64, error) {
	s = strings.TrimSpace(s)
	sep := ":"
	if !strings.Contains(s, sep) {
		sep = "x"
	}
	ws, hs, found := strings.Cut(s, sep)
	if !found {
		return 0, 0, fmt.Errorf("%w: aspect %q must look like W:H", analysis.ErrInvalidConfiguration, s)
	}
	w, err1 := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	h, err2 := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: aspect %q must be two positive numbers", analysis.ErrInvalidConfiguration, s)
	}
	return w, h, nil
}
