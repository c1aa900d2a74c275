package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"montage-media/application/highlight"
	"montage-media/application/pipeline"
	"montage-media/domain/analysis"
	"montage-media/domain/media"
	"montage-media/infrastructure/export"

	"github.com/spf13/cobra"
)

var (
	highlightsKeywords  []string
	highlightsSubtitles string
	highlightsJSON      bool
	highlightsReport    string
	highlightsEDL       string
	highlightsPosters   string
	highlightsClips     string
)

var highlightsCmd = &cobra.Command{
	Use:   "highlights <media>",
	Short: "Score scenes as highlights and pick a reel",
	Long: `Run the full analysis: detect scenes and silences, gather subtitles,
score every scene and select the best scenes that fit the configured target
duration.

Keywords default to the ones in the configuration. Subtitles are read from
--subtitles, otherwise from the configured transcriber.

Example:
  montage-media highlights match.mp4 --keyword goal --keyword penalty
  montage-media highlights match.mp4 --subtitles match.srt --report report.json --edl reel.edl
  montage-media highlights match.mp4 --posters ./posters --clips ./clips`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlights,
}

func init() {
	rootCmd.AddCommand(highlightsCmd)
	highlightsCmd.Flags().StringArrayVar(&highlightsKeywords, "keyword", nil, "Keyword to boost (can be repeated)")
	highlightsCmd.Flags().StringVar(&highlightsSubtitles, "subtitles", "", "SRT or WebVTT file to use instead of transcription")
	highlightsCmd.Flags().BoolVar(&highlightsJSON, "json", false, "Print the report as JSON")
	highlightsCmd.Flags().StringVar(&highlightsReport, "report", "", "Write the JSON report to this file")
	highlightsCmd.Flags().StringVar(&highlightsEDL, "edl", "", "Write the reel as a CMX3600 EDL to this file")
	highlightsCmd.Flags().StringVar(&highlightsPosters, "posters", "", "Save a poster frame for each reel clip in this directory")
	highlightsCmd.Flags().StringVar(&highlightsClips, "clips", "", "Cut each reel clip into its own file in this directory")
}

// HighlightsOptions are the inputs of the highlights command
type HighlightsOptions struct {
	Path          string
	Keywords      []string
	SubtitlesPath string
	JSON          bool
	ReportPath    string
	EDLPath       string
	PosterDir     string
	ClipsDir      string
}

// ReportAnalyzer runs the analysis pipeline
type ReportAnalyzer interface {
	Analyze(ctx context.Context, req pipeline.Request) (*pipeline.Report, error)
}

// PosterExporter saves still frames of highlights
type PosterExporter interface {
	Write(ctx context.Context, mediaPath string, highlights []analysis.HighlightSegment, dir string) ([]string, error)
}

// ClipCutter writes reel clips as separate files
type ClipCutter interface {
	CutReel(ctx context.Context, source string, reel []analysis.HighlightSegment, dir string) ([]string, error)
}

// StreamInspector reads the stream layout of a file
type StreamInspector interface {
	Inspect(ctx context.Context, path string) (media.StreamInfo, error)
}

// HighlightExporters are the optional outputs of the highlights command.
// A nil exporter disables the matching flag.
type HighlightExporters struct {
	Posters   PosterExporter
	Clips     ClipCutter
	Inspector StreamInspector
}

func runHighlights(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	services, err := newAppServices(cfg, appLogger)
	if err != nil {
		return err
	}

	keywords := highlightsKeywords
	if len(keywords) == 0 {
		keywords = cfg.Keywords
	}

	opts := HighlightsOptions{
		Path:          args[0],
		Keywords:      keywords,
		SubtitlesPath: highlightsSubtitles,
		JSON:          highlightsJSON,
		ReportPath:    highlightsReport,
		EDLPath:       highlightsEDL,
		PosterDir:     highlightsPosters,
		ClipsDir:      highlightsClips,
	}
	exporters := HighlightExporters{
		Posters:   services.posters,
		Clips:     services.clipper,
		Inspector: services.inspector,
	}

	return RunHighlightsWithDependencies(cmd.Context(), services.pipeline, exporters, opts, DefaultOutput)
}

// RunHighlightsWithDependencies runs the highlights command with injected dependencies
func RunHighlightsWithDependencies(ctx context.Context, analyzer ReportAnalyzer, exporters HighlightExporters, opts HighlightsOptions, out OutputWriter) error {
	report, err := analyzer.Analyze(ctx, pipeline.Request{
		Path:          opts.Path,
		Keywords:      opts.Keywords,
		SubtitlesPath: opts.SubtitlesPath,
	})
	if err != nil {
		return err
	}

	if opts.JSON {
		if err := writeJSON(out, export.NewReportDocument(report)); err != nil {
			return err
		}
	} else if err := printHighlights(out, report); err != nil {
		return err
	}

	if opts.ReportPath != "" {
		if err := export.WriteReport(opts.ReportPath, report); err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", opts.ReportPath)
	}

	if opts.EDLPath != "" {
		if err := writeEDL(ctx, exporters.Inspector, report, opts.EDLPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "EDL written to %s\n", opts.EDLPath)
	}

	if opts.PosterDir != "" {
		if exporters.Posters == nil {
			return fmt.Errorf("poster export is not available")
		}
		paths, err := exporters.Posters.Write(ctx, opts.Path, report.Reel, opts.PosterDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %d poster(s) to %s\n", len(paths), opts.PosterDir)
	}

	if opts.ClipsDir != "" {
		if exporters.Clips == nil {
			return fmt.Errorf("clip export is not available")
		}
		if err := os.MkdirAll(opts.ClipsDir, 0755); err != nil {
			return fmt.Errorf("failed to create clips directory: %w: %w", analysis.ErrIO, err)
		}
		paths, err := exporters.Clips.CutReel(ctx, opts.Path, report.Reel, opts.ClipsDir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "Created clip: %s\n", p)
		}
	}

	return nil
}

func printHighlights(out OutputWriter, report *pipeline.Report) error {
	fmt.Fprintf(out, "%s: %d scene(s), %d silence(s), %d subtitle line(s)\n",
		report.Path, len(report.Scenes), len(report.Silences), len(report.Subtitles))

	if len(report.Highlights) == 0 {
		fmt.Fprintln(out, "No highlights found.")
		return nil
	}

	inReel := make(map[analysis.HighlightSegment]bool, len(report.Reel))
	for _, h := range report.Reel {
		inReel[h] = true
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSTART\tEND\tSCORE\tREEL")
	for i, h := range report.Highlights {
		mark := ""
		if inReel[h] {
			mark = "*"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.3f\t%s\n", i+1, formatTime(h.Start), formatTime(h.End), h.Score, mark)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "Reel: %d clip(s), %.1fs\n", len(report.Reel), highlight.TotalDuration(report.Reel).Seconds())
	return nil
}

// writeEDL renders the reel at the source frame rate, falling back to the
// EDL default when the source cannot be inspected
func writeEDL(ctx context.Context, inspector StreamInspector, report *pipeline.Report, path string) error {
	var fps float64
	if inspector != nil {
		if info, err := inspector.Inspect(ctx, report.Path); err == nil {
			fps = info.FrameRate
		}
	}

	title := strings.TrimSuffix(filepath.Base(report.Path), filepath.Ext(report.Path))
	edl := export.GenerateEDL(export.ReelClips(report.Path, report.Reel), title, fps)
	if err := os.WriteFile(path, []byte(edl), 0644); err != nil {
		return fmt.Errorf("failed to write EDL: %w: %w", analysis.ErrIO, err)
	}
	return nil
}
