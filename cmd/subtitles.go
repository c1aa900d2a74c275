package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"montage-media/domain/analysis"
	"montage-media/infrastructure/subtitles"

	"github.com/spf13/cobra"
)

var subtitlesOutput string

var subtitlesCmd = &cobra.Command{
	Use:   "subtitles",
	Short: "Convert and generate subtitle files",
	Long: `Work with SRT and WebVTT subtitle files.

Examples:
  montage-media subtitles convert match.srt match.vtt
  montage-media subtitles transcribe match.mp4 --output match.srt`,
}

var subtitlesConvertCmd = &cobra.Command{
	Use:   "convert <input> <output>",
	Short: "Convert between SRT and WebVTT",
	Long: `Read a subtitle file and write it in the format implied by the output
extension (.srt or .vtt). Cues are renumbered and invalid cues dropped.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunSubtitlesConvertWithDependencies(args[0], args[1], DefaultOutput)
	},
}

var subtitlesTranscribeCmd = &cobra.Command{
	Use:   "transcribe <media>",
	Short: "Produce subtitles for a media file",
	Long: `Run the configured transcriber (sidecar lookup or external command) and
write the result. The output defaults to the media path with a .srt extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runSubtitlesTranscribe,
}

func init() {
	rootCmd.AddCommand(subtitlesCmd)
	subtitlesCmd.AddCommand(subtitlesConvertCmd)
	subtitlesCmd.AddCommand(subtitlesTranscribeCmd)
	subtitlesTranscribeCmd.Flags().StringVarP(&subtitlesOutput, "output", "o", "", "Subtitle file to write (.srt or .vtt)")
}

// RunSubtitlesConvertWithDependencies converts a subtitle file between formats
func RunSubtitlesConvertWithDependencies(input, output string, out OutputWriter) error {
	lines, err := subtitles.ParseFile(input)
	if err != nil {
		return err
	}
	if err := subtitles.WriteFile(output, lines); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d cue(s) to %s\n", len(lines), output)
	return nil
}

func runSubtitlesTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	services, err := newAppServices(cfg, appLogger)
	if err != nil {
		return err
	}
	if services.transcriber == nil {
		return fmt.Errorf("%w: transcription is disabled (transcription.mode is %q)", analysis.ErrInvalidConfiguration, cfg.Transcription.Mode)
	}

	return RunSubtitlesTranscribeWithDependencies(cmd.Context(), services.transcriber, args[0], subtitlesOutput, DefaultOutput)
}

// RunSubtitlesTranscribeWithDependencies runs the transcribe command with injected dependencies
func RunSubtitlesTranscribeWithDependencies(ctx context.Context, transcriber analysis.Transcriber, mediaPath, output string, out OutputWriter) error {
	if output == "" {
		output = strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + ".srt"
	}

	lines, err := transcriber.Transcribe(ctx, mediaPath)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Fprintf(out, "No speech found in %s\n", mediaPath)
		return nil
	}

	if err := subtitles.WriteFile(output, lines); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d cue(s) to %s\n", len(lines), output)
	return nil
}
