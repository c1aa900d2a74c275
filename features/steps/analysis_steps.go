//go:build integration

package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"montage-media/application/highlight"
	"montage-media/application/pipeline"
	"montage-media/application/reframe"
	"montage-media/application/scene"
	"montage-media/application/silence"
	"montage-media/cmd"
	"montage-media/domain/analysis"
	"montage-media/domain/media"
	"montage-media/domain/media/mediatest"
	"montage-media/infrastructure/config"
	"montage-media/infrastructure/export"
	"montage-media/infrastructure/subtitles"

	"github.com/cucumber/godog"
	"github.com/rs/zerolog"
)

func colour(name string) mediatest.Image {
	switch name {
	case "blue":
		return mediatest.Solid(120, 255, 255)
	case "red":
		return mediatest.Solid(0, 255, 255)
	default:
		return mediatest.Solid(0, 0, 128)
	}
}

// analysisContext holds test state for analysis scenarios
type analysisContext struct {
	tempDir   string
	decoder   *mediatest.Decoder
	files     *mediatest.FileChecker
	analyzer  *mediatest.Analyzer
	encoder   *mediatest.Encoder
	current   *mediatest.Clip
	cues      []analysis.SubtitleLine
	cfg       *config.Config
	output    *bytes.Buffer
	document  export.ReportDocument
	intervals []export.Interval
	err       error
}

// SharedAnalysisContext is reset before each scenario via Before hook
var SharedAnalysisContext *analysisContext

func getAnalysisContext() *analysisContext {
	return SharedAnalysisContext
}

func InitializeAnalysisScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "analysis-test-*")
		if err != nil {
			return c, err
		}
		SharedAnalysisContext = &analysisContext{
			tempDir:  tempDir,
			decoder:  mediatest.NewDecoder(),
			files:    mediatest.NewFileChecker(),
			analyzer: &mediatest.Analyzer{},
			encoder:  &mediatest.Encoder{},
			cfg:      config.Default(),
			output:   &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if t := getAnalysisContext(); t != nil && t.tempDir != "" {
			os.RemoveAll(t.tempDir)
		}
		return c, nil
	})

	// Given
	ctx.Step(`^a (\d+)x(\d+) video "([^"]*)" at (\d+) fps$`, aVideoAtFPS)
	ctx.Step(`^it shows (blue|red|grey) for (\d+) seconds?$`, itShowsColourFor)
	ctx.Step(`^it shows a subject at x=(\d+) for (\d+) milliseconds$`, itShowsSubjectFor)
	ctx.Step(`^it has (\d+) seconds? of (silence|sound)$`, itHasAudio)
	ctx.Step(`^a subtitle "([^"]*)" from "([^"]*)" to "([^"]*)"$`, aSubtitleFromTo)

	// When
	ctx.Step(`^I run scenes on "([^"]*)"$`, iRunScenesOn)
	ctx.Step(`^I run silence on "([^"]*)"$`, iRunSilenceOn)
	ctx.Step(`^I run highlights on "([^"]*)" with keyword "([^"]*)"$`, iRunHighlightsWithKeyword)
	ctx.Step(`^I reframe "([^"]*)" to "([^"]*)" at aspect "([^"]*)"$`, iReframeAtAspect)

	// Then
	ctx.Step(`^the analysis should succeed$`, theAnalysisShouldSucceed)
	ctx.Step(`^the analysis should fail with "([^"]*)"$`, theAnalysisShouldFailWith)
	ctx.Step(`^there should be (\d+) intervals?$`, thereShouldBeIntervals)
	ctx.Step(`^interval (\d+) should span (\d+)ms to (\d+)ms$`, intervalShouldSpan)
	ctx.Step(`^the top highlight should start at (\d+)ms$`, theTopHighlightShouldStartAt)
	ctx.Step(`^the reel should hold (\d+) clips?$`, theReelShouldHold)
	ctx.Step(`^the rendered video should be (\d+)x(\d+) with (\d+) frames$`, theRenderedVideoShouldBe)
	ctx.Step(`^the analysis output should contain "([^"]*)"$`, theAnalysisOutputShouldContain)
}

func aVideoAtFPS(width, height int, path string, fps int) error {
	t := getAnalysisContext()
	clip := mediatest.NewClip(width, height, float64(fps))
	t.current = clip
	t.decoder.Add(path, clip)
	t.files.Files[path] = true
	return nil
}

func itShowsColourFor(name string, seconds int) error {
	t := getAnalysisContext()
	if t.current == nil {
		return fmt.Errorf("no video declared")
	}
	t.current.AddVideo(time.Duration(seconds)*time.Second, colour(name))
	return nil
}

func itShowsSubjectFor(x, ms int) error {
	t := getAnalysisContext()
	if t.current == nil {
		return fmt.Errorf("no video declared")
	}
	subject := mediatest.Image{Luma: 128, Edges: media.Rect{X: x, Y: 200, Width: 200, Height: 600}}
	t.current.AddVideo(time.Duration(ms)*time.Millisecond, subject)
	return nil
}

func itHasAudio(seconds int, kind string) error {
	t := getAnalysisContext()
	if t.current == nil {
		return fmt.Errorf("no video declared")
	}
	var amplitude int16
	if kind == "sound" {
		amplitude = 3277
	}
	t.current.AddAudio(time.Duration(seconds)*time.Second, 48000, 2, amplitude, 1024)
	return nil
}

func aSubtitleFromTo(text, from, to string) error {
	t := getAnalysisContext()
	start, err := subtitles.ParseTimestamp(from)
	if err != nil {
		return err
	}
	end, err := subtitles.ParseTimestamp(to)
	if err != nil {
		return err
	}
	line, err := analysis.NewSubtitleLine(len(t.cues)+1, start, end, text)
	if err != nil {
		return err
	}
	t.cues = append(t.cues, line)
	return nil
}

func (t *analysisContext) sceneService() (*scene.Service, error) {
	sc, err := t.cfg.SceneDetection()
	if err != nil {
		return nil, err
	}
	return scene.NewService(t.decoder, t.analyzer, t.files, sc, zerolog.Nop()), nil
}

func (t *analysisContext) silenceService() (*silence.Service, error) {
	sc, err := t.cfg.SilenceDetection()
	if err != nil {
		return nil, err
	}
	return silence.NewService(t.decoder, t.files, sc, zerolog.Nop()), nil
}

func (t *analysisContext) pipelineService() (*pipeline.Service, error) {
	scenes, err := t.sceneService()
	if err != nil {
		return nil, err
	}
	silences, err := t.silenceService()
	if err != nil {
		return nil, err
	}
	hc, err := t.cfg.Highlight()
	if err != nil {
		return nil, err
	}
	highlights := highlight.NewService(t.decoder, t.analyzer, t.files, hc, zerolog.Nop())
	reframer := reframe.NewService(t.decoder, t.encoder, t.analyzer, t.files, t.files, zerolog.Nop())
	return pipeline.NewService(scenes, silences, highlights, reframer, zerolog.Nop(),
		pipeline.WithSubtitleReader(subtitles.NewReader())), nil
}

func iRunScenesOn(path string) error {
	t := getAnalysisContext()
	svc, err := t.sceneService()
	if err != nil {
		return err
	}
	t.err = cmd.RunScenesWithDependencies(context.Background(), svc, path, true, t.output)
	return t.decodeIntervals("scenes")
}

func iRunSilenceOn(path string) error {
	t := getAnalysisContext()
	svc, err := t.silenceService()
	if err != nil {
		return err
	}
	t.err = cmd.RunSilenceWithDependencies(context.Background(), svc, path, true, t.output)
	return t.decodeIntervals("silences")
}

// decodeIntervals reads the JSON written by a successful command
func (t *analysisContext) decodeIntervals(field string) error {
	if t.err != nil {
		return nil
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(t.output.Bytes(), &doc); err != nil {
		return fmt.Errorf("command output is not JSON: %w", err)
	}
	return json.Unmarshal(doc[field], &t.intervals)
}

func iRunHighlightsWithKeyword(path, keyword string) error {
	t := getAnalysisContext()
	svc, err := t.pipelineService()
	if err != nil {
		return err
	}

	opts := cmd.HighlightsOptions{
		Path:     path,
		Keywords: []string{keyword},
		JSON:     true,
	}
	if len(t.cues) > 0 {
		opts.SubtitlesPath = filepath.Join(t.tempDir, "cues.srt")
		if err := subtitles.WriteFile(opts.SubtitlesPath, t.cues); err != nil {
			return err
		}
	}

	t.err = cmd.RunHighlightsWithDependencies(context.Background(), svc, cmd.HighlightExporters{}, opts, t.output)
	if t.err != nil {
		return nil
	}
	if err := json.Unmarshal(t.output.Bytes(), &t.document); err != nil {
		return fmt.Errorf("command output is not JSON: %w", err)
	}
	return nil
}

func iReframeAtAspect(input, output, aspect string) error {
	t := getAnalysisContext()
	rc, err := t.cfg.Reframe(aspect, false)
	if err != nil {
		t.err = err
		return nil
	}
	svc := reframe.NewService(t.decoder, t.encoder, t.analyzer, t.files, t.files, zerolog.Nop())
	t.err = cmd.RunReframeWithDependencies(context.Background(), svc, input, output, rc, nil, t.output)
	return nil
}

func theAnalysisShouldSucceed() error {
	t := getAnalysisContext()
	if t.err != nil {
		return fmt.Errorf("expected success but got error: %v", t.err)
	}
	return nil
}

func theAnalysisShouldFailWith(expected string) error {
	t := getAnalysisContext()
	if t.err == nil {
		return fmt.Errorf("expected error containing %q but got success", expected)
	}
	if !strings.Contains(t.err.Error(), expected) {
		return fmt.Errorf("expected error containing %q but got %q", expected, t.err.Error())
	}
	return nil
}

func thereShouldBeIntervals(count int) error {
	t := getAnalysisContext()
	if len(t.intervals) != count {
		return fmt.Errorf("expected %d intervals but got %d: %+v", count, len(t.intervals), t.intervals)
	}
	return nil
}

func intervalShouldSpan(n int, startMs, endMs int64) error {
	t := getAnalysisContext()
	if n < 1 || n > len(t.intervals) {
		return fmt.Errorf("interval %d does not exist (have %d)", n, len(t.intervals))
	}
	got := t.intervals[n-1]
	if got.StartMs != startMs || got.EndMs != endMs {
		return fmt.Errorf("interval %d spans %dms to %dms, want %dms to %dms", n, got.StartMs, got.EndMs, startMs, endMs)
	}
	return nil
}

func theTopHighlightShouldStartAt(ms int64) error {
	t := getAnalysisContext()
	if len(t.document.Highlights) == 0 {
		return fmt.Errorf("no highlights were reported")
	}
	if got := t.document.Highlights[0].StartMs; got != ms {
		return fmt.Errorf("top highlight starts at %dms, want %dms", got, ms)
	}
	return nil
}

func theReelShouldHold(count int) error {
	t := getAnalysisContext()
	if len(t.document.Reel) != count {
		return fmt.Errorf("expected %d reel clips but got %d", count, len(t.document.Reel))
	}
	return nil
}

func theRenderedVideoShouldBe(width, height, frames int) error {
	t := getAnalysisContext()
	sink := t.encoder.Last()
	if sink == nil {
		return fmt.Errorf("nothing was rendered")
	}
	if sink.Options.Width != width || sink.Options.Height != height {
		return fmt.Errorf("rendered %dx%d, want %dx%d", sink.Options.Width, sink.Options.Height, width, height)
	}
	if len(sink.Images) != frames {
		return fmt.Errorf("rendered %d frames, want %d", len(sink.Images), frames)
	}
	if !sink.Closed {
		return fmt.Errorf("output was not closed")
	}
	return nil
}

func theAnalysisOutputShouldContain(expected string) error {
	t := getAnalysisContext()
	if !strings.Contains(t.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, t.output.String())
	}
	return nil
}
