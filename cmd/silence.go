package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"montage-media/application/pipeline"
	"montage-media/infrastructure/export"

	"github.com/spf13/cobra"
)

var silenceJSON bool

var silenceCmd = &cobra.Command{
	Use:   "silence <media>",
	Short: "Find silent stretches of the audio track",
	Long: `Measure the loudness of the audio track in 50ms windows and print every
stretch quieter than the configured threshold that lasts at least the
configured minimum.

Example:
  montage-media silence interview.mp4`,
	Args: cobra.ExactArgs(1),
	RunE: runSilence,
}

func init() {
	rootCmd.AddCommand(silenceCmd)
	silenceCmd.Flags().BoolVar(&silenceJSON, "json", false, "Print silences as JSON")
}

func runSilence(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	services, err := newAppServices(cfg, appLogger)
	if err != nil {
		return err
	}

	return RunSilenceWithDependencies(cmd.Context(), services.silences, args[0], silenceJSON, DefaultOutput)
}

// RunSilenceWithDependencies runs the silence command with injected dependencies
func RunSilenceWithDependencies(ctx context.Context, detector pipeline.SilenceDetector, path string, asJSON bool, out OutputWriter) error {
	silences, err := detector.Detect(ctx, path)
	if err != nil {
		return err
	}

	if asJSON {
		return writeJSON(out, map[string]interface{}{"path": path, "silences": export.SilenceIntervals(silences)})
	}

	if len(silences) == 0 {
		fmt.Fprintln(out, "No silence found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTART\tEND\tDURATION")
	for i, s := range silences {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, formatTime(s.Start), formatTime(s.End), s.Duration())
	}
	return w.Flush()
}
