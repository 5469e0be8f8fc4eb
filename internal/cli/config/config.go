// Package config implements the 'eos-profile config' command family.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/eosprofile/internal/cli/helpers"
	"github.com/coral-mesh/eosprofile/internal/config"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage eos-profile configuration",
		Long: `Manage eos-profile configuration.

Configuration Priority:
  1. Command line flags (highest)
  2. EOS_PROFILE_* environment variables
  3. Configuration file
  4. Built-in defaults

Environment Variables:
  EOS_PROFILE_CONFIG  Override the configuration file path`,
		Annotations: map[string]string{
			helpers.AnnotationTolerateConfig: "true",
		},
	}

	cmd.AddCommand(newViewCmd())
	cmd.AddCommand(newPathCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newInitCmd())

	return cmd
}

// configPath returns the file the runtime consulted, or the default location
// when the command runs without the root command.
func configPath(rt *helpers.Runtime) string {
	if rt.ConfigPath != "" {
		return rt.ConfigPath
	}
	return config.NewLoader().Path()
}

// newViewCmd creates the 'config view' command.
func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show the effective configuration",
		Long: `Display the configuration after the file, environment variables and
command line flags are merged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := helpers.RuntimeFrom(cmd)

			data, err := yaml.Marshal(rt.Config)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "# Source: %s\n", configPath(rt))
			if rt.ConfigErr != nil {
				_, _ = fmt.Fprintf(out, "# Error: %v\n# Showing defaults.\n", rt.ConfigErr)
			}
			_, err = out.Write(data)
			return err
		},
	}
}

// newPathCmd creates the 'config path' command.
func newPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), configPath(helpers.RuntimeFrom(cmd)))
		},
	}
}

// newValidateCmd creates the 'config validate' command.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Long: `Load the configuration file and report any errors.

Checks that:
- The file is valid YAML
- Environment overrides parse
- Log level, color mode and diff format are known values
- The capture size limit is positive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := helpers.RuntimeFrom(cmd)
			path := configPath(rt)

			if rt.ConfigErr != nil {
				return rt.ConfigErr
			}

			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: not present, using defaults\n", path)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", path)
			return nil
		},
	}
}

// newInitCmd creates the 'config init' command.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath(helpers.RuntimeFrom(cmd))

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.NewLoaderWithPath(path).Save(config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}
