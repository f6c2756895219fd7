package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zhengda-lu/imgtag/internal/catalog"
	"github.com/zhengda-lu/imgtag/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath := configFilePath()

		data, err := os.ReadFile(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}

		_, warnings := config.LoadAndValidate(data)

		if jsonFlag {
			if warnings == nil {
				warnings = []config.Warning{}
			}
			return printJSON(map[string]any{"path": cfgPath, "warnings": warnings})
		}

		if len(warnings) == 0 {
			fmt.Printf("Config OK (%s)\n", cfgPath)
			return nil
		}

		fmt.Printf("Found %d warning(s) in %s:\n", len(warnings), cfgPath)
		for _, w := range warnings {
			if w.Field != "" {
				fmt.Printf("  [%s] %s\n", w.Field, w.Message)
			} else {
				fmt.Printf("  %s\n", w.Message)
			}
			if w.Suggestion != "" {
				fmt.Printf("    suggestion: %s\n", w.Suggestion)
			}
		}
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration, environment overrides included",
	RunE: func(cmd *cobra.Command, args []string) error {
		if jsonFlag {
			return printJSON(appConfig)
		}
		data, err := yaml.Marshal(appConfig)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Printf("# %s\n", configFilePath())
		fmt.Printf("# catalog: %s\n", appConfig.DatabasePath())
		fmt.Print(string(data))
		return nil
	},
}

var configSetDefaultLabelCmd = &cobra.Command{
	Use:   "set-default-label LABEL",
	Short: "Persist the label added on blank input (\"\" turns it off)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := strings.TrimSpace(args[0])
		if label != "" {
			var err error
			if label, err = catalog.NormalizeLabel(label); err != nil {
				return err
			}
		}

		// Reload from disk so environment overrides are not persisted.
		cfgPath := configFilePath()
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg.Labels.Default = label
		cfg.Labels.UseDefault = label != ""
		if err := cfg.Save(cfgPath); err != nil {
			return err
		}

		if label == "" {
			fmt.Println("Default label turned off.")
		} else {
			fmt.Printf("Default label set to %q.\n", label)
		}
		return nil
	},
}

func configFilePath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultPath()
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetDefaultLabelCmd)
}
