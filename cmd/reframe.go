package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"montage-media/application/pipeline"
	"montage-media/application/reframe"
	"montage-media/domain/analysis"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	reframeAspect     string
	reframeGPU        bool
	reframeNoProgress bool
)

var reframeCmd = &cobra.Command{
	Use:   "reframe <input> <output>",
	Short: "Reframe a video to a new aspect ratio",
	Long: `Render a copy of the input at a new aspect ratio. The crop window follows
the most detailed region of each frame and is smoothed between frames so
it does not jitter. Audio is carried over unchanged.

The aspect defaults to the configured value (9:16 unless changed).

Example:
  montage-media reframe match.mp4 match_vertical.mp4
  montage-media reframe match.mp4 match_square.mp4 --aspect 1:1 --gpu`,
	Args: cobra.ExactArgs(2),
	RunE: runReframe,
}

func init() {
	rootCmd.AddCommand(reframeCmd)
	reframeCmd.Flags().StringVar(&reframeAspect, "aspect", "", "Target aspect ratio, e.g. 9:16, 1:1, 4x5")
	reframeCmd.Flags().BoolVar(&reframeGPU, "gpu", false, "Ask ffmpeg for hardware-accelerated decoding during the final encode")
	reframeCmd.Flags().BoolVar(&reframeNoProgress, "no-progress", false, "Do not draw a progress bar")
}

func runReframe(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	rc, err := cfg.Reframe(reframeAspect, reframeGPU)
	if err != nil {
		return err
	}

	var opts []reframe.Option
	progress := newProgressReporter(os.Stderr)
	if !reframeNoProgress {
		opts = append(opts, reframe.WithProgress(progress.Update))
	}

	services, err := newAppServices(cfg, appLogger, opts...)
	if err != nil {
		return err
	}

	return RunReframeWithDependencies(cmd.Context(), services.reframer, args[0], args[1], rc, progress, DefaultOutput)
}

// ProgressFinisher closes out progress drawing before the summary is printed
type ProgressFinisher interface {
	Finish()
}

// RunReframeWithDependencies runs the reframe command with injected dependencies.
// progress may be nil.
func RunReframeWithDependencies(ctx context.Context, reframer pipeline.Reframer, input, output string, rc analysis.ReframeConfig, progress ProgressFinisher, out OutputWriter) error {
	fmt.Fprintf(out, "Reframing %s to %g:%g...\n", input, rc.AspectWidth, rc.AspectHeight)

	result, err := reframer.Reframe(ctx, input, output, rc)
	if progress != nil {
		progress.Finish()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Successfully created: %s (%dx%d, %d frames, %s)\n",
		result.OutputPath, result.Width, result.Height, result.FramesProcessed,
		result.ProcessedDuration.Round(time.Millisecond))
	return nil
}

// progressReporter draws a progress bar for frame-by-frame renders. The bar
// is created on the first update, once the expected total is known.
type progressReporter struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

func newProgressReporter(out io.Writer) *progressReporter {
	return &progressReporter{out: out}
}

// Update implements reframe.ProgressFunc
func (p *progressReporter) Update(done, total int) {
	if p.bar == nil {
		limit := total
		if limit <= 0 {
			limit = -1
		}
		p.bar = progressbar.NewOptions(limit,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription("Reframing"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("frames"),
			progressbar.OptionSetWidth(50),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	if total > 0 && done > p.bar.GetMax() {
		p.bar.ChangeMax(done)
	}
	_ = p.bar.Set(done)
}

// Finish completes the bar if one was drawn
func (p *progressReporter) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	fmt.Fprintln(p.out)
}
