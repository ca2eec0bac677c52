package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/qsemantic/internal/config"
)

// NewConfigCmd creates a new config command
func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		Long: `Show or change qsemantic settings stored in config.json.

Settable keys:
  ` + strings.Join(config.Keys(), "\n  "),
		RunE: runConfigShow,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current configuration",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE:  runConfigSet,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GetConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return cmd
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	cfg.APIKey = maskSecret(cfg.APIKey)
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.SetValue(key, value); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	shown := value
	if key == "api_key" {
		shown = maskSecret(value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s\n", key, shown)
	return nil
}

// maskSecret keeps the last four characters of a credential
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + s[len(s)-4:]
}
