package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"montage-media/domain/analysis"
	"montage-media/infrastructure/config"
)

// mockPrompter answers prompts by message, falling back to the default
type mockPrompter struct {
	inputs   map[string]string
	confirms map[string]bool
	selects  map[string]string
	cancel   string
	asked    []string
}

func (m *mockPrompter) Input(message string, defaultValue string) (string, error) {
	m.asked = append(m.asked, message)
	if message == m.cancel {
		return "", errors.New("interrupt")
	}
	if v, ok := m.inputs[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (m *mockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	m.asked = append(m.asked, message)
	if message == m.cancel {
		return false, errors.New("interrupt")
	}
	if v, ok := m.confirms[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (m *mockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	m.asked = append(m.asked, message)
	if message == m.cancel {
		return "", errors.New("interrupt")
	}
	if v, ok := m.selects[message]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func TestRunSetupWithPrompter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "config.yaml")
	prompter := &mockPrompter{
		inputs:   map[string]string{},
		confirms: map[string]bool{},
		selects:  map[string]string{},
	}
	prompter.inputs["Where should reports, EDLs and clips go?"] = "/srv/montage"
	prompter.inputs["Default reframe aspect ratio?"] = "4:5"
	prompter.inputs["Default highlight keywords (comma separated)?"] = "Goal, penalty , ,save"
	prompter.inputs["Speech-to-text command (called as: command args... input.wav output.srt)?"] = "whisper-cli --model base"
	prompter.confirms["Use hardware acceleration when encoding?"] = true
	prompter.selects["How should subtitles be found when none are given?"] = config.TranscriptionCommand
	prompter.selects["Log level?"] = "debug"

	var out bytes.Buffer
	if err := RunSetupWithPrompter(prompter, path, &out); err != nil {
		t.Fatalf("RunSetupWithPrompter() unexpected error: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("saved config cannot be loaded: %v", err)
	}
	if cfg.Paths.OutputDirectory != "/srv/montage" || cfg.Paths.PosterDirectory != filepath.Join("/srv/montage", "posters") {
		t.Errorf("paths = %+v", cfg.Paths)
	}
	if cfg.Analysis.Reframe.Aspect != "4:5" || !cfg.Analysis.Reframe.EnableGPU {
		t.Errorf("reframe = %+v", cfg.Analysis.Reframe)
	}
	if strings.Join(cfg.Keywords, ",") != "goal,penalty,save" {
		t.Errorf("keywords = %v", cfg.Keywords)
	}
	if cfg.Transcription.Mode != config.TranscriptionCommand || cfg.Transcription.Command != "whisper-cli" ||
		strings.Join(cfg.Transcription.Args, " ") != "--model base" {
		t.Errorf("transcription = %+v", cfg.Transcription)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	if cfg.Analysis.Scene.Threshold != analysis.DefaultSceneThreshold {
		t.Errorf("untouched settings should keep defaults, threshold = %v", cfg.Analysis.Scene.Threshold)
	}
	if !strings.Contains(out.String(), "Configuration saved to "+path) {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunSetupWithPrompter_Errors(t *testing.T) {
	tests := []struct {
		name     string
		prompter *mockPrompter
	}{
		{
			name:     "invalid aspect",
			prompter: &mockPrompter{inputs: map[string]string{"Default reframe aspect ratio?": "wide"}},
		},
		{
			name:     "empty output directory",
			prompter: &mockPrompter{inputs: map[string]string{"Where should reports, EDLs and clips go?": ""}},
		},
		{
			name: "command mode without command",
			prompter: &mockPrompter{selects: map[string]string{
				"How should subtitles be found when none are given?": config.TranscriptionCommand,
			}},
		},
		{
			name:     "cancelled",
			prompter: &mockPrompter{cancel: "Log level?"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := RunSetupWithPrompter(tt.prompter, path, &bytes.Buffer{}); err == nil {
				t.Fatal("expected error")
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Error("config must not be written on failure")
			}
		})
	}
}

func TestRunSetupWithPrompter_KeepExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("keywords: [goal]\n"), 0644); err != nil {
		t.Fatal(err)
	}

	prompter := &mockPrompter{}
	var out bytes.Buffer
	if err := RunSetupWithPrompter(prompter, path, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Setup cancelled.") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	if len(prompter.asked) != 1 {
		t.Errorf("asked %v, want only the overwrite question", prompter.asked)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "keywords: [goal]\n" {
		t.Errorf("existing config was modified: %q", data)
	}
}

func TestKeywordCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := config.Default()

	var out bytes.Buffer
	if err := RunKeywordsListWithDependencies(cfg, path, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No keywords configured") || !strings.Contains(out.String(), "config keywords add") {
		t.Errorf("empty list output:\n%s", out.String())
	}

	for _, k := range []string{"Goal", "penalty"} {
		if err := RunKeywordsAddWithDependencies(cfg, path, k, &out); err != nil {
			t.Fatalf("add %q: %v", k, err)
		}
	}
	if err := RunKeywordsAddWithDependencies(cfg, path, "GOAL", &out); !errors.Is(err, config.ErrDuplicateKey) {
		t.Errorf("duplicate add error = %v, want ErrDuplicateKey", err)
	}

	if err := RunKeywordsRenameWithDependencies(cfg, path, "penalty", "save", &out); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := RunKeywordsRemoveWithDependencies(cfg, path, "goal", &out); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := RunKeywordsRemoveWithDependencies(cfg, path, "goal", &out); !errors.Is(err, config.ErrKeywordNotFound) {
		t.Errorf("second remove error = %v, want ErrKeywordNotFound", err)
	}

	saved, err := config.Load(path)
	if err != nil {
		t.Fatalf("saved config cannot be loaded: %v", err)
	}
	if strings.Join(saved.Keywords, ",") != "save" {
		t.Errorf("saved keywords = %v, want [save]", saved.Keywords)
	}

	out.Reset()
	if err := RunKeywordsListWithDependencies(saved, path, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "save\n" {
		t.Errorf("list output = %q", out.String())
	}
}

func TestRunConfigShowWithDependencies(t *testing.T) {
	cfg := config.Default()
	cfg.Keywords = []string{"goal"}

	var out bytes.Buffer
	if err := RunConfigShowWithDependencies(cfg, &out); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"analysis:", "aspect:", "keywords:", "- goal"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRequireConfig(t *testing.T) {
	saved, savedErr := cfg, cfgErr
	defer func() { cfg, cfgErr = saved, savedErr }()

	cfg, cfgErr = nil, analysis.ErrInvalidConfiguration
	if _, err := requireConfig(); !errors.Is(err, analysis.ErrInvalidConfiguration) {
		t.Errorf("error = %v, want load error", err)
	}

	cfg, cfgErr = config.Default(), nil
	if got, err := requireConfig(); err != nil || got != cfg {
		t.Errorf("requireConfig() = %v, %v", got, err)
	}
}
