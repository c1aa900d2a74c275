//go:build detection

package opencv

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"math"
	"path/filepath"
	"testing"
	"time"

	"montage-media/domain/media"
	"montage-media/infrastructure/ffmpeg"

	"gocv.io/x/gocv"
)

func solid(b, g, r float64, width, height int) media.Image {
	return NewImage(gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), height, width, gocv.MatTypeCV8UC3))
}

func TestAnalyzer_ColorFeature(t *testing.T) {
	img := solid(255, 0, 0, 320, 180)
	defer img.Close()

	feature, err := NewAnalyzer().ColorFeature(img)
	if err != nil {
		t.Fatalf("ColorFeature() unexpected error: %v", err)
	}
	want := []float64{120, 255, 255, 0, 0, 0}
	for i := range want {
		if math.Abs(feature[i]-want[i]) > 1 {
			t.Errorf("feature[%d] = %v, want %v", i, feature[i], want[i])
		}
	}
}

func TestAnalyzer_MeanAbsDiff(t *testing.T) {
	a := NewAnalyzer()
	black := solid(0, 0, 0, 64, 36)
	defer black.Close()
	white := solid(255, 255, 255, 64, 36)
	defer white.Close()

	pb, err := a.PrepareMotion(black)
	if err != nil {
		t.Fatalf("PrepareMotion() unexpected error: %v", err)
	}
	defer pb.Close()
	pw, err := a.PrepareMotion(white)
	if err != nil {
		t.Fatalf("PrepareMotion() unexpected error: %v", err)
	}
	defer pw.Close()

	if d, _ := a.MeanAbsDiff(pb, pb); d != 0 {
		t.Errorf("MeanAbsDiff(same) = %v, want 0", d)
	}
	if d, _ := a.MeanAbsDiff(pb, pw); math.Abs(d-1) > 0.01 {
		t.Errorf("MeanAbsDiff(black, white) = %v, want 1", d)
	}

	small := solid(0, 0, 0, 32, 18)
	defer small.Close()
	if _, err := a.MeanAbsDiff(pb, small); err == nil {
		t.Error("MeanAbsDiff() expected error for mismatched sizes")
	}
}

func TestAnalyzer_EdgeBounds(t *testing.T) {
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 400, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&mat, image.Rect(100, 50, 200, 150), color.RGBA{255, 255, 255, 0}, -1)
	img := NewImage(mat)
	defer img.Close()

	r, err := NewAnalyzer().EdgeBounds(img)
	if err != nil {
		t.Fatalf("EdgeBounds() unexpected error: %v", err)
	}
	if abs(r.X-100) > 2 || abs(r.Y-50) > 2 || abs(r.Width-100) > 3 || abs(r.Height-100) > 3 {
		t.Errorf("EdgeBounds() = %s, want about 100x100+100+50", r)
	}

	blank := solid(0, 0, 0, 100, 100)
	defer blank.Close()
	if r, _ := NewAnalyzer().EdgeBounds(blank); !r.Empty() {
		t.Errorf("EdgeBounds(blank) = %s, want empty", r)
	}
}

func TestAnalyzer_EdgeBounds_LowContrast(t *testing.T) {
	// a 70-level step peaks at 175 after the 5x5 blur: above 150, below 200
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 200, 400, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&mat, image.Rect(100, 50, 200, 150), color.RGBA{70, 70, 70, 0}, -1)
	img := NewImage(mat)
	defer img.Close()

	r, err := NewAnalyzer().EdgeBounds(img)
	if err != nil {
		t.Fatalf("EdgeBounds() unexpected error: %v", err)
	}
	if r.Empty() {
		t.Fatal("EdgeBounds() missed a faint subject")
	}
	if abs(r.X-100) > 3 || abs(r.Y-50) > 3 || abs(r.Width-100) > 4 || abs(r.Height-100) > 4 {
		t.Errorf("EdgeBounds() = %s, want about 100x100+100+50", r)
	}
}

func TestAnalyzer_Crop(t *testing.T) {
	img := solid(0, 0, 255, 1920, 1080)
	defer img.Close()

	out, err := NewAnalyzer().Crop(img, media.Rect{X: 656, Y: 0, Width: 608, Height: 1080}, 304, 540)
	if err != nil {
		t.Fatalf("Crop() unexpected error: %v", err)
	}
	defer out.Close()
	if out.Width() != 304 || out.Height() != 540 {
		t.Errorf("Crop() size = %dx%d, want 304x540", out.Width(), out.Height())
	}

	if _, err := NewAnalyzer().Crop(img, media.Rect{X: 1500, Y: 0, Width: 608, Height: 1080}, 304, 540); err == nil {
		t.Error("Crop() expected error for rect outside the frame")
	}
}

func TestBoundsOf(t *testing.T) {
	mask := make([]byte, 5*4)
	mask[1*5+2] = 255
	mask[3*5+4] = 255
	got := boundsOf(mask, 5, 4)
	if got != (media.Rect{X: 2, Y: 1, Width: 3, Height: 3}) {
		t.Errorf("boundsOf() = %+v", got)
	}
}

type fixedInspector struct {
	info media.StreamInfo
}

func (p fixedInspector) Inspect(ctx context.Context, path string) (media.StreamInfo, error) {
	return p.info, nil
}

type recordingMuxer struct {
	req ffmpeg.MuxRequest
}

func (m *recordingMuxer) Mux(ctx context.Context, req ffmpeg.MuxRequest) error {
	m.req = req
	return nil
}

func TestDecoder_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi")

	writer, err := gocv.VideoWriterFile(path, intermediateCodec, 10, 160, 90, true)
	if err != nil {
		t.Fatalf("VideoWriterFile() unexpected error: %v", err)
	}
	for i := 0; i < 20; i++ {
		frame := solid(float64(i*10), 0, 0, 160, 90)
		if err := writer.Write(frame.(*matImage).mat); err != nil {
			t.Fatalf("Write() unexpected error: %v", err)
		}
		frame.Close()
	}
	writer.Close()

	info := media.StreamInfo{Width: 160, Height: 90, FrameRate: 10, Duration: 2 * time.Second}
	session, err := NewDecoder(fixedInspector{info: info}, nil).Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	defer session.Close()

	var count int
	last := time.Duration(-1)
	for {
		frame, err := session.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next() unexpected error: %v", err)
		}
		if !frame.IsVideo() {
			t.Fatal("Next() returned audio for a file without audio")
		}
		if frame.Timestamp <= last && count > 0 {
			t.Errorf("timestamps not increasing: %s after %s", frame.Timestamp, last)
		}
		last = frame.Timestamp
		frame.Image.Close()
		count++
	}
	if count != 20 {
		t.Errorf("decoded %d frames, want 20", count)
	}
}

func TestEncoder_CreateAndClose(t *testing.T) {
	muxer := &recordingMuxer{}
	enc := NewEncoder(muxer, WithTempDir(t.TempDir()))

	sink, err := enc.Create(context.Background(), "/out/final.mp4", media.SinkOptions{
		Width: 90, Height: 160, FrameRate: 30, AudioChannels: 2, SampleRate: 48000, VideoCodec: "h264",
	})
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	img := solid(0, 255, 0, 90, 160)
	defer img.Close()
	if err := sink.WriteImage(img); err != nil {
		t.Fatalf("WriteImage() unexpected error: %v", err)
	}
	wrong := solid(0, 255, 0, 100, 160)
	defer wrong.Close()
	if err := sink.WriteImage(wrong); err == nil {
		t.Error("WriteImage() expected error for wrong size")
	}
	if err := sink.WriteAudio(media.AudioChunk{Samples: []int16{1, -1}, Channels: 2, SampleRate: 48000}); err != nil {
		t.Fatalf("WriteAudio() unexpected error: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}

	if muxer.req.OutputPath != "/out/final.mp4" || muxer.req.AudioPath == "" || muxer.req.Channels != 2 {
		t.Errorf("unexpected mux request %+v", muxer.req)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
