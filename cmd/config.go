package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"montage-media/infrastructure/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the configuration",
	Long: `Show the effective configuration and manage the default highlight keywords.

Examples:
  montage-media config show
  montage-media config keywords list
  montage-media config keywords add goal
  montage-media config keywords rename goal "golazo"
  montage-media config keywords remove penalty`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after defaults, the config file and MONTAGE_*
environment overrides have been applied.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		return RunConfigShowWithDependencies(cfg, DefaultOutput)
	},
}

var configKeywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Manage default highlight keywords",
}

var configKeywordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List default keywords",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		return RunKeywordsListWithDependencies(cfg, cfgFile, DefaultOutput)
	},
}

var configKeywordsAddCmd = &cobra.Command{
	Use:   "add <keyword>",
	Short: "Add a default keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		return RunKeywordsAddWithDependencies(cfg, cfgFile, args[0], DefaultOutput)
	},
}

var configKeywordsRemoveCmd = &cobra.Command{
	Use:   "remove <keyword>",
	Short: "Remove a default keyword",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		return RunKeywordsRemoveWithDependencies(cfg, cfgFile, args[0], DefaultOutput)
	},
}

var configKeywordsRenameCmd = &cobra.Command{
	Use:   "rename <keyword> <new keyword>",
	Short: "Replace a default keyword",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := requireConfig()
		if err != nil {
			return err
		}
		return RunKeywordsRenameWithDependencies(cfg, cfgFile, args[0], args[1], DefaultOutput)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configKeywordsCmd)

	configKeywordsCmd.AddCommand(configKeywordsListCmd)
	configKeywordsCmd.AddCommand(configKeywordsAddCmd)
	configKeywordsCmd.AddCommand(configKeywordsRemoveCmd)
	configKeywordsCmd.AddCommand(configKeywordsRenameCmd)
}

// RunConfigShowWithDependencies prints cfg as YAML
func RunConfigShowWithDependencies(cfg *config.Config, out OutputWriter) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// RunKeywordsListWithDependencies runs the keywords list command with injected dependencies
func RunKeywordsListWithDependencies(cfg *config.Config, configPath string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)

	keywords := mgr.ListKeywords()
	if len(keywords) == 0 {
		fmt.Fprintln(out, "No keywords configured. Add one with:")
		fmt.Fprintf(out, "  %s\n", config.SuggestAddKeywordCommand("goal"))
		return nil
	}
	for _, k := range keywords {
		fmt.Fprintln(out, k)
	}
	return nil
}

// RunKeywordsAddWithDependencies runs the keywords add command with injected dependencies
func RunKeywordsAddWithDependencies(cfg *config.Config, configPath, keyword string, out OutputWriter) error {
	if err := ensureConfigDir(configPath); err != nil {
		return err
	}
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.AddKeyword(keyword); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added keyword %q\n", keyword)
	return nil
}

// RunKeywordsRemoveWithDependencies runs the keywords remove command with injected dependencies
func RunKeywordsRemoveWithDependencies(cfg *config.Config, configPath, keyword string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.RemoveKeyword(keyword); err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed keyword %q\n", keyword)
	return nil
}

// RunKeywordsRenameWithDependencies runs the keywords rename command with injected dependencies
func RunKeywordsRenameWithDependencies(cfg *config.Config, configPath, from, to string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.RenameKeyword(from, to); err != nil {
		return err
	}
	fmt.Fprintf(out, "Renamed keyword %q to %q\n", from, to)
	return nil
}

// ensureConfigDir creates the directory of a config file that has not been written yet
func ensureConfigDir(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}
