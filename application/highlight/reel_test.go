package highlight

import (
	"testing"
	"time"

	"montage-media/domain/analysis"
)

func h(startSec, endSec int, score float64) analysis.HighlightSegment {
	return analysis.HighlightSegment{
		Start: time.Duration(startSec) * time.Second,
		End:   time.Duration(endSec) * time.Second,
		Score: score,
	}
}

func TestSelectReel(t *testing.T) {
	tests := []struct {
		name   string
		in     []analysis.HighlightSegment
		target time.Duration
		want   []analysis.HighlightSegment
	}{
		{
			name:   "empty",
			target: time.Minute,
			want:   []analysis.HighlightSegment{},
		},
		{
			name:   "everything fits, chronological",
			in:     []analysis.HighlightSegment{h(10, 20, 0.9), h(0, 10, 0.5)},
			target: time.Minute,
			want:   []analysis.HighlightSegment{h(0, 10, 0.5), h(10, 20, 0.9)},
		},
		{
			name:   "skips what does not fit but keeps looking",
			in:     []analysis.HighlightSegment{h(0, 30, 0.9), h(30, 70, 0.8), h(70, 90, 0.7)},
			target: time.Minute,
			want:   []analysis.HighlightSegment{h(0, 30, 0.9), h(70, 90, 0.7)},
		},
		{
			name:   "oversized best is still taken",
			in:     []analysis.HighlightSegment{h(0, 120, 0.9), h(120, 130, 0.1)},
			target: time.Minute,
			want:   []analysis.HighlightSegment{h(0, 120, 0.9)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectReel(tt.in, tt.target)
			if len(got) != len(tt.want) {
				t.Fatalf("SelectReel() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SelectReel()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSelectReel_DoesNotReorderInput(t *testing.T) {
	in := []analysis.HighlightSegment{h(10, 20, 0.1), h(0, 10, 0.9)}
	SelectReel(in, time.Minute)
	if in[0].Start != 10*time.Second {
		t.Error("SelectReel() mutated its input")
	}
}

func TestTotalDuration(t *testing.T) {
	if got := TotalDuration([]analysis.HighlightSegment{h(0, 10, 1), h(20, 25, 1)}); got != 15*time.Second {
		t.Errorf("TotalDuration() = %s, want 15s", got)
	}
}
