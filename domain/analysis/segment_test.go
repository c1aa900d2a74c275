package analysis

import (
	"errors"
	"testing"
	"time"
)

func TestNewSceneSegment(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Duration
		end     time.Duration
		wantErr bool
	}{
		{name: "valid", start: 0, end: 2 * time.Second},
		{name: "offset", start: time.Second, end: 1500 * time.Millisecond},
		{name: "end equals start", start: time.Second, end: time.Second, wantErr: true},
		{name: "end before start", start: 2 * time.Second, end: time.Second, wantErr: true},
		{name: "negative start", start: -time.Millisecond, end: time.Second, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, err := NewSceneSegment(tt.start, tt.end)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSegment) {
					t.Errorf("NewSceneSegment(%s, %s) error = %v, want ErrInvalidSegment", tt.start, tt.end, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSceneSegment(%s, %s) unexpected error: %v", tt.start, tt.end, err)
			}
			if seg.Duration() != tt.end-tt.start {
				t.Errorf("Duration() = %s, want %s", seg.Duration(), tt.end-tt.start)
			}
		})
	}
}

func TestNewSilenceRange(t *testing.T) {
	r, err := NewSilenceRange(0, 3*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Duration() != 3*time.Second {
		t.Errorf("Duration() = %s, want 3s", r.Duration())
	}
	if _, err := NewSilenceRange(time.Second, 0); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("expected ErrInvalidSegment, got %v", err)
	}
}

func TestNewHighlightSegment(t *testing.T) {
	h, err := NewHighlightSegment(time.Second, 3*time.Second, 0.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Score != 0.8 || h.Duration() != 2*time.Second {
		t.Errorf("unexpected highlight %+v", h)
	}
	if _, err := NewHighlightSegment(-time.Second, time.Second, 0.5); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("expected ErrInvalidSegment, got %v", err)
	}
}

func TestNewSubtitleLine(t *testing.T) {
	line, err := NewSubtitleLine(1, 2*time.Second, 4*time.Second, "Great goal!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !line.Overlaps(3*time.Second, 5*time.Second) {
		t.Error("expected line to overlap [3s, 5s)")
	}
	if line.Overlaps(4*time.Second, 5*time.Second) {
		t.Error("line ending at 4s should not overlap a window starting at 4s")
	}
	if line.Overlaps(0, 2*time.Second) {
		t.Error("line starting at 2s should not overlap a window ending at 2s")
	}

	if _, err := NewSubtitleLine(0, 0, time.Second, "x"); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("expected ErrInvalidSegment for index 0, got %v", err)
	}
	if _, err := NewSubtitleLine(1, time.Second, time.Second, "x"); !errors.Is(err, ErrInvalidSegment) {
		t.Errorf("expected ErrInvalidSegment for empty interval, got %v", err)
	}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Duration
		want                       time.Duration
	}{
		{"disjoint", 0, time.Second, 2 * time.Second, 3 * time.Second, 0},
		{"touching", 0, time.Second, time.Second, 2 * time.Second, 0},
		{"contained", 0, 4 * time.Second, time.Second, 2 * time.Second, time.Second},
		{"partial", 0, 2 * time.Second, time.Second, 3 * time.Second, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlap(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.want {
				t.Errorf("Overlap() = %s, want %s", got, tt.want)
			}
		})
	}
}
