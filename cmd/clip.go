package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"montage-media/domain/analysis"
	"montage-media/domain/media"
	"montage-media/infrastructure/filesystem"
	"montage-media/infrastructure/subtitles"

	"github.com/spf13/cobra"
)

var (
	clipStartTime string
	clipEndTime   string
	clipOutput    string
)

var clipCmd = &cobra.Command{
	Use:   "clip <media>",
	Short: "Cut one excerpt out of a video",
	Long: `Copy the span between two timestamps into a new file without re-encoding.
Timestamps are HH:MM:SS, optionally with milliseconds (HH:MM:SS.mmm).

The output defaults to <name>_<start>-<end>.<ext> in the configured output
directory.

Example:
  montage-media clip match.mp4 --start 00:12:30 --end 00:12:48.500`,
	Args: cobra.ExactArgs(1),
	RunE: runClip,
}

func init() {
	rootCmd.AddCommand(clipCmd)
	clipCmd.Flags().StringVar(&clipStartTime, "start", "", "Start timestamp in HH:MM:SS format (required)")
	clipCmd.Flags().StringVar(&clipEndTime, "end", "", "End timestamp in HH:MM:SS format (required)")
	clipCmd.Flags().StringVarP(&clipOutput, "output", "o", "", "Output file")
	clipCmd.MarkFlagRequired("start")
	clipCmd.MarkFlagRequired("end")
}

// Cutter copies one span of a file into another
type Cutter interface {
	Cut(ctx context.Context, source string, seg analysis.HighlightSegment, outputPath string) error
}

// ClipInput contains the parameters of a single cut
type ClipInput struct {
	SourcePath string
	StartTime  string
	EndTime    string
	OutputPath string
	OutputDir  string
}

func runClip(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	services, err := newAppServices(cfg, appLogger)
	if err != nil {
		return err
	}

	return RunClipWithDependencies(cmd.Context(), services.clipper, filesystem.NewChecker(), ClipInput{
		SourcePath: args[0],
		StartTime:  clipStartTime,
		EndTime:    clipEndTime,
		OutputPath: clipOutput,
		OutputDir:  cfg.Paths.OutputDirectory,
	}, DefaultOutput)
}

// ClipFiles checks the source and prepares the output location
type ClipFiles interface {
	media.FileChecker
	media.DirectoryCreator
}

// RunClipWithDependencies runs the clip command with injected dependencies (for testing)
func RunClipWithDependencies(ctx context.Context, cutter Cutter, files ClipFiles, input ClipInput, output OutputWriter) error {
	// Verify ffmpeg is available if the cutter supports it
	if verifiable, ok := cutter.(interface{ VerifyInstalled(context.Context) error }); ok {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := verifiable.VerifyInstalled(verifyCtx); err != nil {
			return fmt.Errorf("ffmpeg verification failed: %w", err)
		}
	}

	if !files.Exists(input.SourcePath) {
		return fmt.Errorf("%w: %s", analysis.ErrInputNotFound, input.SourcePath)
	}

	start, err := subtitles.ParseTimestamp(input.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start: %w", analysis.ErrInvalidSegment, err)
	}
	end, err := subtitles.ParseTimestamp(input.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end: %w", analysis.ErrInvalidSegment, err)
	}
	seg, err := analysis.NewHighlightSegment(start, end, 0)
	if err != nil {
		return err
	}

	outputPath := input.OutputPath
	if outputPath == "" {
		outputPath = defaultClipPath(input.SourcePath, input.OutputDir, seg)
	}
	if err := files.EnsureParentDir(outputPath); err != nil {
		return err
	}

	fmt.Fprintf(output, "Cutting %s from %s to %s...\n", input.SourcePath, formatTime(start), formatTime(end))
	if err := cutter.Cut(ctx, input.SourcePath, seg, outputPath); err != nil {
		return err
	}

	fmt.Fprintf(output, "Successfully created: %s\n", outputPath)
	return nil
}

func defaultClipPath(source, dir string, seg analysis.HighlightSegment) string {
	ext := filepath.Ext(source)
	base := strings.TrimSuffix(filepath.Base(source), ext)
	if ext == "" {
		ext = ".mp4"
	}
	if dir == "" {
		dir = filepath.Dir(source)
	}
	name := fmt.Sprintf("%s_%d-%d%s", base, seg.Start.Milliseconds(), seg.End.Milliseconds(), ext)
	return filepath.Join(dir, name)
}
