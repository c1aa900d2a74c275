package cmd

import (
	"fmt"
	"os"

	"montage-media/infrastructure/config"
	"montage-media/infrastructure/logging"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	logLevel  string
	cfg       *config.Config
	cfgErr    error
	appLogger = logging.WithComponent("cli")
)

var rootCmd = &cobra.Command{
	Use:   "montage-media",
	Short: "Analyze footage and cut it into short-form clips",
	Long: `montage-media analyzes video files and prepares them for short-form
publishing:

  - Split footage into scenes at visual cuts
  - Find silent stretches of the audio track
  - Score scenes as highlights and pick a reel
  - Reframe footage to a new aspect ratio, following the action

Example:
  montage-media highlights match.mp4 --keyword goal --report report.json
  montage-media reframe match.mp4 match_vertical.mp4 --aspect 9:16`,
	SilenceUsage: true,
}

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

// DefaultOutput is where commands write their results
var DefaultOutput OutputWriter = os.Stdout

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	cfg, cfgErr = config.LoadOrDefault(cfgFile)
	if cfgErr != nil {
		cfg = nil
		logging.Init("info", logging.FormatConsole)
		appLogger = logging.WithComponent("cli")
		return
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logging.Init(level, cfg.Logging.Format)
	appLogger = logging.WithComponent("cli")
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}

// requireConfig returns the loaded configuration or the reason it is missing
func requireConfig() (*config.Config, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("configuration not loaded: %w", cfgErr)
		}
		return nil, fmt.Errorf("configuration not loaded; run 'montage-media setup' first")
	}
	return cfg, nil
}
