package silence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"montage-media/domain/analysis"
	"montage-media/domain/media/mediatest"
)

// toneAmplitude gives an RMS of roughly 0.1, well above the default threshold
const toneAmplitude = 3277

func detect(t *testing.T, clip *mediatest.Clip) []analysis.SilenceRange {
	t.Helper()
	dec := mediatest.NewDecoder().Add("/in.wav", clip)
	svc := NewService(dec, mediatest.NewFileChecker("/in.wav"), analysis.DefaultSilenceDetectionConfig(), zerolog.Nop())
	silences, err := svc.Detect(context.Background(), "/in.wav")
	if err != nil {
		t.Fatalf("Detect() unexpected error: %v", err)
	}
	if !dec.Sessions[0].Closed {
		t.Error("session left open")
	}
	return silences
}

func TestService_Detect(t *testing.T) {
	tests := []struct {
		name  string
		build func() *mediatest.Clip
		want  []analysis.SilenceRange
	}{
		{
			name: "leading silence then tone",
			build: func() *mediatest.Clip {
				return mediatest.NewClip(320, 180, 30).
					AddAudio(3*time.Second, 48000, 2, 0, 1024).
					AddAudio(time.Second, 48000, 2, toneAmplitude, 1024)
			},
			want: []analysis.SilenceRange{{Start: 0, End: 3 * time.Second}},
		},
		{
			name: "trailing silence flushed at end",
			build: func() *mediatest.Clip {
				return mediatest.NewClip(320, 180, 30).
					AddAudio(time.Second, 48000, 1, toneAmplitude, 4800).
					AddAudio(2*time.Second, 48000, 1, 0, 4800)
			},
			want: []analysis.SilenceRange{{Start: time.Second, End: 3 * time.Second}},
		},
		{
			name: "gap shorter than minimum is ignored",
			build: func() *mediatest.Clip {
				return mediatest.NewClip(320, 180, 30).
					AddAudio(time.Second, 48000, 1, toneAmplitude, 4800).
					AddAudio(200*time.Millisecond, 48000, 1, 0, 4800).
					AddAudio(time.Second, 48000, 1, toneAmplitude, 4800)
			},
			want: []analysis.SilenceRange{},
		},
		{
			name: "constant tone",
			build: func() *mediatest.Clip {
				return mediatest.NewClip(320, 180, 30).AddAudio(2*time.Second, 44100, 2, toneAmplitude, 1152)
			},
			want: []analysis.SilenceRange{},
		},
		{
			name: "windows span small chunks",
			build: func() *mediatest.Clip {
				return mediatest.NewClip(320, 180, 30).
					AddAudio(time.Second, 48000, 2, toneAmplitude, 100).
					AddAudio(time.Second, 48000, 2, 0, 100).
					AddAudio(time.Second, 48000, 2, toneAmplitude, 100)
			},
			want: []analysis.SilenceRange{{Start: time.Second, End: 2 * time.Second}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detect(t, tt.build())
			if got == nil {
				t.Fatal("Detect() returned nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Detect() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Detect()[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestService_Detect_NoAudioStream(t *testing.T) {
	clip := mediatest.NewClip(320, 180, 30).AddVideo(time.Second, mediatest.Solid(0, 0, 0))
	got := detect(t, clip)
	if got == nil || len(got) != 0 {
		t.Errorf("Detect() = %#v, want empty non-nil slice", got)
	}
}

func TestService_Detect_UnreportedSampleRate(t *testing.T) {
	clip := mediatest.NewClip(320, 180, 30).
		AddAudio(2*time.Second, 48000, 1, 0, 4800).
		AddAudio(time.Second, 48000, 1, toneAmplitude, 4800)
	clip.Info.SampleRate = 0

	got := detect(t, clip)
	if len(got) != 1 || got[0].Start != 0 || got[0].End != 2*time.Second {
		t.Errorf("Detect() = %+v, want [0s, 2s]", got)
	}
}

func TestService_Detect_ResultsAreOrderedAndLongEnough(t *testing.T) {
	clip := mediatest.NewClip(320, 180, 30)
	for i := 0; i < 4; i++ {
		clip.AddAudio(700*time.Millisecond, 16000, 1, 0, 512)
		clip.AddAudio(300*time.Millisecond, 16000, 1, toneAmplitude, 512)
	}

	got := detect(t, clip)
	if len(got) == 0 {
		t.Fatal("expected silences to be detected")
	}
	for i, r := range got {
		if r.Duration() < analysis.DefaultMinimumSilence {
			t.Errorf("silence %d shorter than minimum: %s", i, r.Duration())
		}
		if i > 0 && r.Start < got[i-1].End {
			t.Errorf("silence %d overlaps or precedes silence %d", i, i-1)
		}
	}
}

func TestService_Detect_Errors(t *testing.T) {
	audioErr := errors.New("truncated stream")
	tests := []struct {
		name    string
		decoder func() *mediatest.Decoder
		exists  bool
		cancel  bool
		wantErr error
	}{
		{
			name:    "missing file",
			decoder: mediatest.NewDecoder,
			wantErr: analysis.ErrInputNotFound,
		},
		{
			name: "open failure",
			decoder: func() *mediatest.Decoder {
				d := mediatest.NewDecoder()
				d.OpenErr = errors.New("no demuxer")
				return d
			},
			exists:  true,
			wantErr: analysis.ErrIO,
		},
		{
			name: "read failure",
			decoder: func() *mediatest.Decoder {
				clip := mediatest.NewClip(320, 180, 30).AddAudio(time.Second, 48000, 1, 0, 4800)
				clip.AudioErr = audioErr
				clip.AudioErrAfter = 3
				return mediatest.NewDecoder().Add("/in.wav", clip)
			},
			exists:  true,
			wantErr: audioErr,
		},
		{
			name: "cancelled",
			decoder: func() *mediatest.Decoder {
				clip := mediatest.NewClip(320, 180, 30).AddAudio(time.Second, 48000, 1, 0, 4800)
				return mediatest.NewDecoder().Add("/in.wav", clip)
			},
			exists:  true,
			cancel:  true,
			wantErr: context.Canceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := mediatest.NewFileChecker()
			if tt.exists {
				checker = mediatest.NewFileChecker("/in.wav")
			}
			dec := tt.decoder()
			svc := NewService(dec, checker, analysis.DefaultSilenceDetectionConfig(), zerolog.Nop())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}

			got, err := svc.Detect(ctx, "/in.wav")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Detect() error = %v, want %v", err, tt.wantErr)
			}
			if got != nil {
				t.Errorf("Detect() returned partial results: %+v", got)
			}
		})
	}
}

func TestWindowSize(t *testing.T) {
	tests := []struct {
		rate int
		want int
	}{
		{8000, 1024},
		{16000, 1024},
		{44100, 2205},
		{48000, 2400},
	}
	for _, tt := range tests {
		if got := WindowSize(tt.rate); got != tt.want {
			t.Errorf("WindowSize(%d) = %d, want %d", tt.rate, got, tt.want)
		}
	}
}

func TestTracker_MeasuresEveryChannel(t *testing.T) {
	tests := []struct {
		name  string
		left  int16
		right int16
		want  []analysis.SilenceRange
	}{
		{
			// anti-phase channels would cancel in a mono mix
			name:  "anti-phase stereo is sound",
			left:  toneAmplitude,
			right: -toneAmplitude,
			want:  []analysis.SilenceRange{},
		},
		{
			name:  "one loud channel is sound",
			left:  toneAmplitude,
			right: 0,
			want:  []analysis.SilenceRange{},
		},
		{
			name:  "quiet stereo is silence",
			left:  100,
			right: -100,
			want:  []analysis.SilenceRange{{Start: 0, End: 2 * time.Second}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(48000, analysis.DefaultSilenceDetectionConfig())

			// Two seconds of stereo, measured in frames not samples
			frames := 96000
			samples := make([]int16, frames*2)
			for i := 0; i < frames; i++ {
				samples[2*i] = tt.left
				samples[2*i+1] = tt.right
			}
			tr.feed(samples, 2)

			got, err := tr.finish()
			if err != nil {
				t.Fatalf("finish() unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("finish() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("silence %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTracker_RejectsInvalidRange(t *testing.T) {
	tr := newTracker(48000, analysis.DefaultSilenceDetectionConfig())
	tr.silent = true
	tr.silenceStart = -time.Second
	tr.framesProcessed = 48000

	got, err := tr.finish()
	if !errors.Is(err, analysis.ErrInvalidSegment) {
		t.Fatalf("finish() error = %v, want ErrInvalidSegment", err)
	}
	if got != nil {
		t.Errorf("finish() = %+v, want nil on error", got)
	}
}
