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

type configContext struct {
	tempDir    string
	configPath string
	cfg        *config.Config
	output     *bytes.Buffer
	env        []string
	err        error
}

// SharedConfigContext is reset before each scenario via Before hook
var SharedConfigContext = &configContext{}

func InitializeConfigScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		tempDir, err := os.MkdirTemp("", "config-test-*")
		if err != nil {
			return c, err
		}
		SharedConfigContext = &configContext{
			tempDir:    tempDir,
			configPath: filepath.Join(tempDir, "config", "config.yaml"),
			output:     &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		testCtx := SharedConfigContext
		for _, key := range testCtx.env {
			os.Unsetenv(key)
		}
		if testCtx.tempDir != "" {
			os.RemoveAll(testCtx.tempDir)
		}
		return c, nil
	})

	ctx.Step(`^a configuration file containing:$`, aConfigurationFileContaining)
	ctx.Step(`^no configuration file exists$`, noConfigurationFileExists)
	ctx.Step(`^the environment variable "([^"]*)" is "([^"]*)"$`, theEnvironmentVariableIs)
	ctx.Step(`^I load the configuration$`, iLoadTheConfiguration)
	ctx.Step(`^loading should fail with "([^"]*)"$`, loadingShouldFailWith)
	ctx.Step(`^the scene threshold should be ([0-9.]+)$`, theSceneThresholdShouldBe)
	ctx.Step(`^the reframe aspect should be "([^"]*)"$`, theReframeAspectShouldBe)
	ctx.Step(`^the output directory should be "([^"]*)"$`, theOutputDirectoryShouldBe)

	ctx.Step(`^I add the keyword "([^"]*)"$`, iAddTheKeyword)
	ctx.Step(`^I remove the keyword "([^"]*)"$`, iRemoveTheKeyword)
	ctx.Step(`^I rename the keyword "([^"]*)" to "([^"]*)"$`, iRenameTheKeyword)
	ctx.Step(`^I list the keywords$`, iListTheKeywords)
	ctx.Step(`^the keyword command should fail with "([^"]*)"$`, theKeywordCommandShouldFailWith)
	ctx.Step(`^the saved keywords should be "([^"]*)"$`, theSavedKeywordsShouldBe)
	ctx.Step(`^the config output should contain "([^"]*)"$`, theConfigOutputShouldContain)
}

func aConfigurationFileContaining(doc *godog.DocString) error {
	c := SharedConfigContext
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(c.configPath, []byte(doc.Content), 0644); err != nil {
		return err
	}
	return iLoadTheConfiguration()
}

func noConfigurationFileExists() error {
	c := SharedConfigContext
	if _, err := os.Stat(c.configPath); err == nil {
		return fmt.Errorf("expected no file at %s", c.configPath)
	}
	c.cfg = config.Default()
	return nil
}

func theEnvironmentVariableIs(key, value string) error {
	c := SharedConfigContext
	c.env = append(c.env, key)
	return os.Setenv(key, value)
}

func iLoadTheConfiguration() error {
	c := SharedConfigContext
	c.cfg, c.err = config.LoadOrDefault(c.configPath)
	return nil
}

func loadingShouldFailWith(expected string) error {
	c := SharedConfigContext
	if c.err == nil {
		return fmt.Errorf("expected an error containing %q but got none", expected)
	}
	if !strings.Contains(c.err.Error(), expected) {
		return fmt.Errorf("expected error containing %q, got %q", expected, c.err.Error())
	}
	return nil
}

func (c *configContext) loaded() (*config.Config, error) {
	if c.err != nil {
		return nil, fmt.Errorf("config failed to load: %w", c.err)
	}
	if c.cfg == nil {
		return nil, fmt.Errorf("config was not loaded")
	}
	return c.cfg, nil
}

func theSceneThresholdShouldBe(expected float64) error {
	cfg, err := SharedConfigContext.loaded()
	if err != nil {
		return err
	}
	if cfg.Analysis.Scene.Threshold != expected {
		return fmt.Errorf("expected scene threshold %v, got %v", expected, cfg.Analysis.Scene.Threshold)
	}
	return nil
}

func theReframeAspectShouldBe(expected string) error {
	cfg, err := SharedConfigContext.loaded()
	if err != nil {
		return err
	}
	if cfg.Analysis.Reframe.Aspect != expected {
		return fmt.Errorf("expected aspect %q, got %q", expected, cfg.Analysis.Reframe.Aspect)
	}
	return nil
}

func theOutputDirectoryShouldBe(expected string) error {
	cfg, err := SharedConfigContext.loaded()
	if err != nil {
		return err
	}
	if cfg.Paths.OutputDirectory != expected {
		return fmt.Errorf("expected output directory %q, got %q", expected, cfg.Paths.OutputDirectory)
	}
	return nil
}

func iAddTheKeyword(keyword string) error {
	c := SharedConfigContext
	cfg, err := c.loaded()
	if err != nil {
		return err
	}
	c.err = cmd.RunKeywordsAddWithDependencies(cfg, c.configPath, keyword, c.output)
	return nil
}

func iRemoveTheKeyword(keyword string) error {
	c := SharedConfigContext
	cfg, err := c.loaded()
	if err != nil {
		return err
	}
	c.err = cmd.RunKeywordsRemoveWithDependencies(cfg, c.configPath, keyword, c.output)
	return nil
}

func iRenameTheKeyword(from, to string) error {
	c := SharedConfigContext
	cfg, err := c.loaded()
	if err != nil {
		return err
	}
	c.err = cmd.RunKeywordsRenameWithDependencies(cfg, c.configPath, from, to, c.output)
	return nil
}

func iListTheKeywords() error {
	c := SharedConfigContext
	cfg, err := c.loaded()
	if err != nil {
		return err
	}
	c.err = cmd.RunKeywordsListWithDependencies(cfg, c.configPath, c.output)
	return nil
}

func theKeywordCommandShouldFailWith(expected string) error {
	return loadingShouldFailWith(expected)
}

func theSavedKeywordsShouldBe(expected string) error {
	c := SharedConfigContext
	if c.err != nil {
		return fmt.Errorf("unexpected error: %w", c.err)
	}
	saved, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	got := strings.Join(saved.Keywords, ",")
	if got != expected {
		return fmt.Errorf("expected keywords %q, got %q", expected, got)
	}
	return nil
}

func theConfigOutputShouldContain(expected string) error {
	c := SharedConfigContext
	if !strings.Contains(c.output.String(), expected) {
		return fmt.Errorf("expected output to contain %q, got:\n%s", expected, c.output.String())
	}
	return nil
}
