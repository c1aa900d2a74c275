package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"montage-media/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through setting up output directories, the
default reframe aspect, highlight keywords, transcription and logging.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	return RunSetupWithPrompter(DefaultPrompter, cfgFile, DefaultOutput)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out OutputWriter) error {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to montage-media setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	if err := promptPaths(prompter, cfg); err != nil {
		return err
	}
	if err := promptReframe(prompter, cfg); err != nil {
		return err
	}
	if err := promptKeywords(prompter, cfg); err != nil {
		return err
	}
	if err := promptTranscription(prompter, cfg); err != nil {
		return err
	}
	if err := promptLogging(prompter, cfg); err != nil {
		return err
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	output, err := prompter.Input("Where should reports, EDLs and clips go?", cfg.Paths.OutputDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if output == "" {
		return fmt.Errorf("output directory is required")
	}
	cfg.Paths.OutputDirectory = output

	posters, err := prompter.Input("Where should poster frames go?", filepath.Join(output, "posters"))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if posters == "" {
		posters = filepath.Join(output, "posters")
	}
	cfg.Paths.PosterDirectory = posters

	return nil
}

func promptReframe(prompter Prompter, cfg *config.Config) error {
	aspect, err := prompter.Input("Default reframe aspect ratio?", cfg.Analysis.Reframe.Aspect)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if aspect == "" {
		aspect = cfg.Analysis.Reframe.Aspect
	}
	if _, _, err := config.ParseAspect(aspect); err != nil {
		return err
	}
	cfg.Analysis.Reframe.Aspect = aspect

	gpu, err := prompter.Confirm("Use hardware acceleration when encoding?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Analysis.Reframe.EnableGPU = gpu

	return nil
}

func promptKeywords(prompter Prompter, cfg *config.Config) error {
	keywords, err := prompter.Input("Default highlight keywords (comma separated)?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}

	cfg.Keywords = []string{}
	for _, k := range config.SplitList(keywords) {
		cfg.Keywords = append(cfg.Keywords, strings.ToLower(k))
	}
	return nil
}

func promptTranscription(prompter Prompter, cfg *config.Config) error {
	modes := []string{config.TranscriptionSidecar, config.TranscriptionCommand, config.TranscriptionNone}
	mode, err := prompter.Select("How should subtitles be found when none are given?", modes, config.TranscriptionSidecar)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Transcription.Mode = mode

	if mode != config.TranscriptionCommand {
		return nil
	}

	command, err := prompter.Input("Speech-to-text command (called as: command args... input.wav output.srt)?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return fmt.Errorf("transcription command is required")
	}
	cfg.Transcription.Command = fields[0]
	cfg.Transcription.Args = fields[1:]

	return nil
}

func promptLogging(prompter Prompter, cfg *config.Config) error {
	level, err := prompter.Select("Log level?", []string{"debug", "info", "warn", "error"}, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Logging.Level = level
	return nil
}
