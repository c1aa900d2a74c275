//go:build integration

package steps

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"montage-media/cmd"
	"montage-media/infrastructure/config"

	"github.com/cucumber/godog"
)

type setupContext struct {
	tempDir         string
	configPath      string
	originalContent string
	prompter        *MockPrompter
	output          *bytes.Buffer
	err             error
}

var SharedSetupContext = &setupContext{}

// MockPrompter implements cmd.Prompter for testing. Answers are looked up by
// a fragment of the prompt message; unanswered prompts take their default.
type MockPrompter struct {
	answers map[string]string
	asked   []string
}

func NewMockPrompter() *MockPrompter {
	return &MockPrompter{answers: make(map[string]string)}
}

func (m *MockPrompter) answer(message string) (string, bool) {
	m.asked = append(m.asked, message)
	for fragment, answer := range m.answers {
		if strings.Contains(message, fragment) {
			return answer, true
		}
	}
	return "", false
}

func (m *MockPrompter) Input(message string, defaultValue string) (string, error) {
	if answer, ok := m.answer(message); ok {
		return answer, nil
	}
	return defaultValue, nil
}

func (m *MockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	if answer, ok := m.answer(message); ok {
		return answer == "yes", nil
	}
	return defaultValue, nil
}

func (m *MockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	answer, ok := m.answer(message)
	if !ok {
		return defaultValue, nil
	}
	for _, o := range options {
		if o == answer {
			return answer, nil
		}
	}
	return "", fmt.Errorf("%q is not one of %v", answer, options)
}

func InitializeSetupScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "setup-test-*")
		if err != nil {
			return c, err
		}
		SharedSetupContext = &setupContext{
			tempDir:    tempDir,
			configPath: filepath.Join(tempDir, "config", "config.yaml"),
			prompter:   NewMockPrompter(),
			output:     &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedSetupContext.tempDir != "" {
			os.RemoveAll(SharedSetupContext.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a config\.yaml already exists$`, aConfigYAMLAlreadyExists)
	ctx.Step(`^I answer the setup prompts with:$`, iAnswerTheSetupPromptsWith)
	ctx.Step(`^I run setup$`, iRunSetup)
	ctx.Step(`^setup should succeed$`, setupShouldSucceed)
	ctx.Step(`^setup should fail with "([^"]*)"$`, setupShouldFailWith)
	ctx.Step(`^the saved config should have output directory "([^"]*)"$`, theSavedConfigShouldHaveOutputDirectory)
	ctx.Step(`^the saved config should have aspect "([^"]*)"$`, theSavedConfigShouldHaveAspect)
	ctx.Step(`^the saved config should have keywords "([^"]*)"$`, theSavedConfigShouldHaveKeywords)
	ctx.Step(`^the saved config should transcribe with "([^"]*)"$`, theSavedConfigShouldTranscribeWith)
	ctx.Step(`^the existing config should be unchanged$`, theExistingConfigShouldBeUnchanged)
	ctx.Step(`^the setup output should contain "([^"]*)"$`, theSetupOutputShouldContain)
}

func aConfigYAMLAlreadyExists() error {
	s := SharedSetupContext
	s.originalContent = "keywords:\n  - existing\n"
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(s.configPath, []byte(s.originalContent), 0644)
}

func iAnswerTheSetupPromptsWith(table *godog.Table) error {
	s := SharedSetupContext
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) != 2 {
			return fmt.Errorf("row %d: expected prompt and answer columns", i)
		}
		s.prompter.answers[row.Cells[0].Value] = row.Cells[1].Value
	}
	return nil
}

func iRunSetup() error {
	s := SharedSetupContext
	s.err = cmd.RunSetupWithPrompter(s.prompter, s.configPath, s.output)
	return nil
}

func setupShouldSucceed() error {
	if err := SharedSetupContext.err; err != nil {
		return fmt.Errorf("expected setup to succeed, got: %w", err)
	}
	return nil
}

func setupShouldFailWith(expected string) error {
	err := SharedSetupContext.err
	if err == nil {
		return fmt.Errorf("expected an error containing %q but setup succeeded", expected)
	}
	if !strings.Contains(err.Error(), expected) {
		return fmt.Errorf("expected error containing %q, got %q", expected, err.Error())
	}
	return nil
}

func savedConfig() (*config.Config, error) {
	cfg, err := config.Load(SharedSetupContext.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved config: %w", err)
	}
	return cfg, nil
}

func theSavedConfigShouldHaveOutputDirectory(expected string) error {
	cfg, err := savedConfig()
	if err != nil {
		return err
	}
	if cfg.Paths.OutputDirectory != expected {
		return fmt.Errorf("expected output directory %q, got %q", expected, cfg.Paths.OutputDirectory)
	}
	return nil
}

func theSavedConfigShouldHaveAspect(expected string) error {
	cfg, err := savedConfig()
	if err != nil {
		return err
	}
	if cfg.Analysis.Reframe.Aspect != expected {
		return fmt.Errorf("expected aspect %q, got %q", expected, cfg.Analysis.Reframe.Aspect)
	}
	return nil
}

func theSavedConfigShouldHaveKeywords(expected string) error {
	cfg, err := savedConfig()
	if err != nil {
		return err
	}
	if got := strings.Join(cfg.Keywords, ","); got != expected {
		return fmt.Errorf("expected keywords %q, got %q", expected, got)
	}
	return nil
}

func theSavedConfigShouldTranscribeWith(expected string) error {
	cfg, err := savedConfig()
	if err != nil {
		return err
	}
	got := strings.TrimSpace(cfg.Transcription.Command + " " + strings.Join(cfg.Transcription.Args, " "))
	if cfg.Transcription.Mode != config.TranscriptionCommand || got != expected {
		return fmt.Errorf("expected command transcription %q, got mode %q command %q", expected, cfg.Transcription.Mode, got)
	}
	return nil
}

func theExistingConfigShouldBeUnchanged() error {
	s := SharedSetupContext
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return err
	}
	if string(data) != s.originalContent {
		return fmt.Errorf("config was modified:\n%s", data)
	}
	return nil
}

func theSetupOutputShouldContain(expected string) error {
	s := SharedSetupContext
	if !strings.Contains(s.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, s.output.String())
	}
	return nil
}
