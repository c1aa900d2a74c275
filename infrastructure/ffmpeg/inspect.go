package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"montage-media/domain/media"
)

// Inspector reads stream metadata with ffprobe
type Inspector struct {
	binaryPath string
	runner     CommandRunner
}

// InspectorOption is a functional option for configuring Inspector
type InspectorOption func(*Inspector)

// WithInspectorPath sets a custom ffprobe executable path
func WithInspectorPath(path string) InspectorOption {
	return func(p *Inspector) {
		p.binaryPath = path
	}
}

// WithInspectorCommandRunner sets a custom command runner (for testing)
func WithInspectorCommandRunner(runner CommandRunner) InspectorOption {
	return func(p *Inspector) {
		p.runner = runner
	}
}

// NewInspector creates a new ffprobe-based inspector
func NewInspector(opts ...InspectorOption) *Inspector {
	p := &Inspector{
		binaryPath: "ffprobe",
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Inspect returns the stream layout of the file. The first video and first
// audio stream are described.
func (p *Inspector) Inspect(ctx context.Context, path string) (media.StreamInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	out, err := p.runner.Output(ctx, p.binaryPath, args...)
	if err != nil {
		return media.StreamInfo{}, fmt.Errorf("ffprobe failed: %w", err)
	}
	return ParseStreamInfo(out)
}

// VerifyInstalled checks that ffprobe is available
func (p *Inspector) VerifyInstalled(ctx context.Context) error {
	_, err := p.runner.Output(ctx, p.binaryPath, "-version")
	if err != nil {
		return fmt.Errorf("ffprobe not found or not executable: %w", err)
	}
	return nil
}

// ParseStreamInfo converts ffprobe JSON into StreamInfo
func ParseStreamInfo(out []byte) (media.StreamInfo, error) {
	var listing streamListing
	if err := json.Unmarshal(out, &listing); err != nil {
		return media.StreamInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var info media.StreamInfo
	if dur, err := strconv.ParseFloat(listing.Format.Duration, 64); err == nil && dur > 0 {
		info.Duration = time.Duration(dur * float64(time.Second))
	}

	videoSeen, audioSeen := false, false
	for _, stream := range listing.Streams {
		switch stream.CodecType {
		case "video":
			if videoSeen || stream.Disposition.AttachedPic == 1 {
				continue
			}
			videoSeen = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			info.FrameRate = ParseFrameRate(stream.AvgFrameRate)
			if info.FrameRate == 0 {
				info.FrameRate = ParseFrameRate(stream.RFrameRate)
			}
			if info.Duration == 0 {
				if dur, err := strconv.ParseFloat(stream.Duration, 64); err == nil && dur > 0 {
					info.Duration = time.Duration(dur * float64(time.Second))
				}
			}
		case "audio":
			if audioSeen {
				continue
			}
			audioSeen = true
			info.AudioCodec = stream.CodecName
			info.AudioChannels = stream.Channels
			if rate, err := strconv.Atoi(stream.SampleRate); err == nil {
				info.SampleRate = rate
			}
		}
	}

	return info, nil
}

// ParseFrameRate parses ffprobe rates such as "30000/1001" or "25".
// Unparseable or undefined rates ("0/0") return 0.
func ParseFrameRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// streamListing matches ffprobe JSON output structure
type streamListing struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		Duration     string `json:"duration"`
		SampleRate   string `json:"sample_rate"`
		Channels     int    `json:"channels"`
		Disposition  struct {
			AttachedPic int `json:"attached_pic"`
		} `json:"disposition"`
	} `json:"streams"`
}
