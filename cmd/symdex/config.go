package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"symdex/internal/config"
)

var configInitOutput string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage symdex configuration",
	Long:  "Create and check symdex TOML configuration files",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration",
	Long: `Write the default configuration as TOML.

Examples:
  symdex config init                    # print to stdout
  symdex config init --output symdex.toml`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configCheckCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Validate a configuration file",
	Long:  "Strictly decode a TOML configuration file, reporting unknown keys and invalid values",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigCheck,
}

func init() {
	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "", "Write to a file instead of stdout")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if configInitOutput == "" {
		data, err := cfg.Encode()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := cfg.Save(configInitOutput); err != nil {
		return fmt.Errorf("write %s: %w", configInitOutput, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", configInitOutput)
	return nil
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	path := args[0]
	cfg, unknown, err := config.Check(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%s: unknown keys: %s", path, strings.Join(unknown, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: OK\n", path)
	return nil
}
