//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"montage-media/cmd"
	"montage-media/domain/media/mediatest"
	"montage-media/infrastructure/ffmpeg"

	"github.com/cucumber/godog"
)

// recordingRunner captures ffmpeg invocations instead of running them
type recordingRunner struct {
	calls      []string
	missing    bool
	shouldFail bool
}

func (r *recordingRunner) Run(ctx context.Context, name string, args ...string) error {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	if r.shouldFail {
		return fmt.Errorf("exit status 1: Invalid data found when processing input")
	}
	return nil
}

func (r *recordingRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.missing {
		return nil, fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return []byte("ffmpeg version 6.1"), nil
}

func (r *recordingRunner) Stream(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("streaming is not used by clip")
}

// clipContext holds test state for clip scenarios
type clipContext struct {
	runner *recordingRunner
	files  *mediatest.FileChecker
	input  cmd.ClipInput
	output *bytes.Buffer
	err    error
}

// SharedClipContext is reset before each scenario via Before hook
var SharedClipContext *clipContext

func getClipContext() *clipContext {
	return SharedClipContext
}

func InitializeClipScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		SharedClipContext = &clipContext{
			runner: &recordingRunner{},
			files:  mediatest.NewFileChecker(),
			output: &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.Step(`^a source video "([^"]*)"$`, aSourceVideo)
	ctx.Step(`^ffmpeg is not installed$`, ffmpegIsNotInstalled)
	ctx.Step(`^ffmpeg fails to cut$`, ffmpegFailsToCut)
	ctx.Step(`^the clip output directory is "([^"]*)"$`, theClipOutputDirectoryIs)
	ctx.Step(`^I cut "([^"]*)" from "([^"]*)" to "([^"]*)"$`, iCutFromTo)
	ctx.Step(`^I cut "([^"]*)" from "([^"]*)" to "([^"]*)" into "([^"]*)"$`, iCutFromToInto)
	ctx.Step(`^the clip should be created at "([^"]*)"$`, theClipShouldBeCreatedAt)
	ctx.Step(`^ffmpeg should be called with "([^"]*)"$`, ffmpegShouldBeCalledWith)
	ctx.Step(`^ffmpeg should not be called$`, ffmpegShouldNotBeCalled)
	ctx.Step(`^the clip should fail with "([^"]*)"$`, theClipShouldFailWith)
}

func aSourceVideo(path string) error {
	getClipContext().files.Files[path] = true
	return nil
}

func ffmpegIsNotInstalled() error {
	getClipContext().runner.missing = true
	return nil
}

func ffmpegFailsToCut() error {
	getClipContext().runner.shouldFail = true
	return nil
}

func theClipOutputDirectoryIs(dir string) error {
	getClipContext().input.OutputDir = dir
	return nil
}

func iCutFromTo(source, start, end string) error {
	return iCutFromToInto(source, start, end, "")
}

func iCutFromToInto(source, start, end, output string) error {
	t := getClipContext()
	t.input.SourcePath = source
	t.input.StartTime = start
	t.input.EndTime = end
	t.input.OutputPath = output

	clipper := ffmpeg.NewClipper(ffmpeg.WithClipperCommandRunner(t.runner))
	t.err = cmd.RunClipWithDependencies(context.Background(), clipper, t.files, t.input, t.output)
	return nil
}

func theClipShouldBeCreatedAt(path string) error {
	t := getClipContext()
	if t.err != nil {
		return fmt.Errorf("expected success but got error: %v", t.err)
	}
	if !strings.Contains(t.output.String(), "Successfully created: "+path) {
		return fmt.Errorf("expected output to mention %s, got:\n%s", path, t.output.String())
	}
	for _, dir := range t.files.Dirs {
		if dir == path {
			return nil
		}
	}
	return fmt.Errorf("parent directory of %s was not prepared (got %v)", path, t.files.Dirs)
}

func ffmpegShouldBeCalledWith(fragment string) error {
	t := getClipContext()
	if len(t.runner.calls) == 0 {
		return fmt.Errorf("ffmpeg was not called")
	}
	last := t.runner.calls[len(t.runner.calls)-1]
	if !strings.Contains(last, fragment) {
		return fmt.Errorf("expected ffmpeg call to contain %q, got %q", fragment, last)
	}
	return nil
}

func ffmpegShouldNotBeCalled() error {
	t := getClipContext()
	if len(t.runner.calls) != 0 {
		return fmt.Errorf("expected no ffmpeg calls, got %v", t.runner.calls)
	}
	return nil
}

func theClipShouldFailWith(expected string) error {
	t := getClipContext()
	if t.err == nil {
		return fmt.Errorf("expected error containing %q but got success", expected)
	}
	if !strings.Contains(t.err.Error(), expected) {
		return fmt.Errorf("expected error containing %q, got %q", expected, t.err.Error())
	}
	return nil
}
