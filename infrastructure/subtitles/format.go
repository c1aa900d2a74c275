package subtitles

import (
	"fmt"
	"strings"
	"time"

	"montage-media/domain/analysis"
)

// FormatSRT renders lines as SubRip with CRLF line endings
func FormatSRT(lines []analysis.SubtitleLine) string {
	var sb strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&sb, "%d\r\n", line.Index)
		fmt.Fprintf(&sb, "%s --> %s\r\n", FormatTimestamp(line.Start, ','), FormatTimestamp(line.End, ','))
		sb.WriteString(line.Text)
		sb.WriteString("\r\n\r\n")
	}
	return sb.String()
}

// FormatVTT renders lines as WebVTT
func FormatVTT(lines []analysis.SubtitleLine) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for _, line := range lines {
		fmt.Fprintf(&sb, "%s --> %s\n", FormatTimestamp(line.Start, '.'), FormatTimestamp(line.End, '.'))
		sb.WriteString(line.Text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

// FormatTimestamp renders d as HH:MM:SS<sep>mmm. Negative durations render as zero.
func FormatTimestamp(d time.Duration, sep byte) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d%c%03d",
		ms/3_600_000,
		(ms%3_600_000)/60_000,
		(ms%60_000)/1000,
		sep,
		ms%1000,
	)
}
