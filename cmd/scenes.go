package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"montage-media/application/pipeline"
	"montage-media/infrastructure/export"
	"montage-media/infrastructure/subtitles"

	"github.com/spf13/cobra"
)

var scenesJSON bool

var scenesCmd = &cobra.Command{
	Use:   "scenes <media>",
	Short: "Split a video into scenes at visual cuts",
	Long: `Detect hard cuts by comparing the color statistics of sampled frames and
print the resulting scenes. Scenes shorter than the configured minimum are
merged into their neighbours.

Example:
  montage-media scenes match.mp4
  montage-media scenes match.mp4 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runScenes,
}

func init() {
	rootCmd.AddCommand(scenesCmd)
	scenesCmd.Flags().BoolVar(&scenesJSON, "json", false, "Print scenes as JSON")
}

func runScenes(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	services, err := newAppServices(cfg, appLogger)
	if err != nil {
		return err
	}

	return RunScenesWithDependencies(cmd.Context(), services.scenes, args[0], scenesJSON, DefaultOutput)
}

// RunScenesWithDependencies runs the scenes command with injected dependencies
func RunScenesWithDependencies(ctx context.Context, detector pipeline.SceneDetector, path string, asJSON bool, out OutputWriter) error {
	scenes, err := detector.Detect(ctx, path)
	if err != nil {
		return err
	}

	intervals := export.SceneIntervals(scenes)
	if asJSON {
		return writeJSON(out, map[string]interface{}{"path": path, "scenes": intervals})
	}

	if len(scenes) == 0 {
		fmt.Fprintln(out, "No scenes detected.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTART\tEND\tDURATION")
	for i, s := range scenes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, formatTime(s.Start), formatTime(s.End), s.Duration())
	}
	return w.Flush()
}

func formatTime(d time.Duration) string {
	return subtitles.FormatTimestamp(d, '.')
}

func writeJSON(out OutputWriter, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
