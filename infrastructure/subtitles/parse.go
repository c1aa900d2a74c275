package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"montage-media/domain/analysis"
)

// Matches cue timing lines of both formats, e.g. "00:00:01,500 --> 00:00:03,000"
// or "01:02.250 --> 01:04.000 align:start"
var cueTiming = regexp.MustCompile(`((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})\s+-->\s+((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})`)

// Strips inline markup such as <i>, <c.colour> or <00:00:01.000>
var markup = regexp.MustCompile(`<[^>]*>`)

// ParseSRT reads SubRip cues
func ParseSRT(r io.Reader) ([]analysis.SubtitleLine, error) {
	return parseCues(r)
}

// ParseVTT reads WebVTT cues. Header, NOTE and STYLE blocks carry no timing
// line and are skipped.
func ParseVTT(r io.Reader) ([]analysis.SubtitleLine, error) {
	return parseCues(r)
}

// ParseFile reads a .srt or .vtt file
func ParseFile(path string) ([]analysis.SubtitleLine, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", analysis.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to open subtitles: %w: %w", analysis.ErrIO, err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		return ParseSRT(file)
	case ".vtt":
		return ParseVTT(file)
	default:
		return nil, fmt.Errorf("%w: unsupported subtitle format %q", analysis.ErrInvalidConfiguration, filepath.Ext(path))
	}
}

// parseCues scans for timing lines and collects the text block that follows
// each. Cues with an empty or inverted interval are dropped and the survivors
// are renumbered from 1.
func parseCues(r io.Reader) ([]analysis.SubtitleLine, error) {
	lines := []analysis.SubtitleLine{}
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		m := cueTiming.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		start, err1 := ParseTimestamp(m[1])
		end, err2 := ParseTimestamp(m[2])

		var text []string
		for scanner.Scan() {
			t := strings.TrimSpace(scanner.Text())
			if t == "" {
				break
			}
			if clean := strings.TrimSpace(markup.ReplaceAllString(t, "")); clean != "" {
				text = append(text, clean)
			}
		}

		if err1 != nil || err2 != nil || len(text) == 0 {
			continue
		}
		line, err := analysis.NewSubtitleLine(len(lines)+1, start, end, strings.Join(text, " "))
		if err != nil {
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtitles: %w: %w", analysis.ErrIO, err)
	}
	return lines, nil
}

// ParseTimestamp parses "HH:MM:SS,mmm", "HH:MM:SS.mmm" or "MM:SS.mmm"
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	clock, frac, _ := strings.Cut(s, ".")

	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}

	var total time.Duration
	units := []time.Duration{time.Second, time.Minute, time.Hour}
	for i := range parts {
		v, err := strconv.Atoi(parts[len(parts)-1-i])
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		total += time.Duration(v) * units[i]
	}

	if frac != "" {
		for len(frac) < 3 {
			frac += "0"
		}
		ms, err := strconv.Atoi(frac[:3])
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", s)
		}
		total += time.Duration(ms) * time.Millisecond
	}
	return total, nil
}

// Reader loads subtitle files by extension
type Reader struct{}

// NewReader creates a new subtitle file reader
func NewReader() *Reader {
	return &Reader{}
}

// ReadSubtitles parses the subtitle file at path
func (r *Reader) ReadSubtitles(path string) ([]analysis.SubtitleLine, error) {
	return ParseFile(path)
}

// WriteFile renders lines in the format implied by the extension of path
func WriteFile(path string, lines []analysis.SubtitleLine) error {
	var content string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		content = FormatSRT(lines)
	case ".vtt":
		content = FormatVTT(lines)
	default:
		return fmt.Errorf("%w: unsupported subtitle format %q", analysis.ErrInvalidConfiguration, filepath.Ext(path))
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write subtitles: %w: %w", analysis.ErrIO, err)
	}
	return nil
}
