package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode"

	"montage-media/domain/analysis"
)

// Clip is one event of an edit decision list
type Clip struct {
	Name      string
	MediaPath string
	StartMs   int64
	EndMs     int64
}

// ReelClips turns a highlight reel into EDL events on mediaPath
func ReelClips(mediaPath string, reel []analysis.HighlightSegment) []Clip {
	base := SanitizeName(strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath)), 120)
	clips := make([]Clip, 0, len(reel))
	for i, h := range reel {
		clips = append(clips, Clip{
			Name:      fmt.Sprintf("%s highlight %02d (%.2f)", base, i+1, h.Score),
			MediaPath: mediaPath,
			StartMs:   h.Start.Milliseconds(),
			EndMs:     h.End.Milliseconds(),
		})
	}
	return clips
}

// GenerateEDL renders clips as a non-drop-frame CMX3600 edit decision list.
// Record times butt the clips together from zero.
func GenerateEDL(clips []Clip, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	// timecodes count frames at the nominal rate, so 29.97 is written as 30 NDF
	lines := []string{fmt.Sprintf("TITLE: %s", title), "FCM: NON-DROP FRAME", ""}

	var recordOffsetMs int64
	for i, clip := range clips {
		durationMs := clip.EndMs - clip.StartMs
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "AA/V",
				msToTimecode(clip.StartMs, fps),
				msToTimecode(clip.EndMs, fps),
				msToTimecode(recordOffsetMs, fps),
				msToTimecode(recordOffsetMs+durationMs, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", clip.Name),
			fmt.Sprintf("* MEDIA PATH:  %s", clip.MediaPath),
		)
		recordOffsetMs += durationMs
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func msToTimecode(ms int64, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}

// SanitizeName replaces characters that editors choke on and caps the length
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(" -_.,()", r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}
