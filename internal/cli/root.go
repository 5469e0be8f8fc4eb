// Package cli implements the eos-profile command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cfgcmd "github.com/coral-mesh/eosprofile/internal/cli/config"
	"github.com/coral-mesh/eosprofile/internal/cli/convert"
	"github.com/coral-mesh/eosprofile/internal/cli/diff"
	"github.com/coral-mesh/eosprofile/internal/cli/export"
	"github.com/coral-mesh/eosprofile/internal/cli/helpers"
	"github.com/coral-mesh/eosprofile/internal/cli/show"
	"github.com/coral-mesh/eosprofile/internal/config"
	"github.com/coral-mesh/eosprofile/internal/logging"
	"github.com/coral-mesh/eosprofile/pkg/version"
)

type rootFlags struct {
	configPath string
	logLevel   string
	logPretty  bool
	color      string
}

// NewRootCmd creates the eos-profile command tree.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "eos-profile",
		Short: "Inspect profiling captures written by instrumented programs",
		Long: `Inspect profiling captures written by instrumented programs.

Programs using the profile SDK record timing samples for named probes when
started with EOS_PROFILE set. With EOS_PROFILE=capture[:FILE] the samples are
written to a capture file, which this tool reads:

  show      Print the probes and their statistics
  convert   Convert a capture to JSON
  diff      Compare probe averages across captures
  export    Load captures into a DuckDB database for SQL analysis

Configuration is read from $XDG_CONFIG_HOME/eos-profile/config.yaml, or the
file named by EOS_PROFILE_CONFIG.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupRuntime(cmd, &flags)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Configuration file (default: $XDG_CONFIG_HOME/eos-profile/config.yaml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.BoolVar(&flags.logPretty, "log-pretty", true, "Human readable log output")
	pf.StringVar(&flags.color, "color", "", "Colorize output (auto, always, never)")

	cmd.AddCommand(show.NewShowCmd())
	cmd.AddCommand(convert.NewConvertCmd())
	cmd.AddCommand(diff.NewDiffCmd())
	cmd.AddCommand(export.NewExportCmd())
	cmd.AddCommand(cfgcmd.NewConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setupRuntime loads the configuration, applies flag overrides and builds
// the logger shared by subcommands.
func setupRuntime(cmd *cobra.Command, flags *rootFlags) error {
	loader := config.NewLoader()
	if flags.configPath != "" {
		loader = config.NewLoaderWithPath(flags.configPath)
	}

	rt := &helpers.Runtime{ConfigPath: loader.Path()}

	cfg, err := loader.Load()
	if err != nil {
		if !helpers.ToleratesConfigErrors(cmd) {
			return err
		}
		rt.ConfigErr = err
		cfg = config.Default()
	}

	applyFlagOverrides(cfg, cmd.Flags(), flags)
	if err := cfg.Validate(); err != nil {
		return err
	}

	rt.Config = cfg
	rt.Logger = logging.NewWithComponent(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	}, "eos-profile")

	rt.Logger.Debug().
		Str("config", rt.ConfigPath).
		Str("command", cmd.CommandPath()).
		Msg("Configuration loaded")

	cmd.SetContext(helpers.WithRuntime(cmd.Context(), rt))
	return nil
}

// applyFlagOverrides copies the persistent flags set on the command line
// over the loaded configuration.
func applyFlagOverrides(cfg *config.Config, fs *pflag.FlagSet, flags *rootFlags) {
	if fs.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if fs.Changed("log-pretty") {
		cfg.Log.Pretty = flags.logPretty
	}
	if fs.Changed("color") {
		cfg.Output.Color = flags.color
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "eos-profile version %s\n", version.Version)
			_, _ = fmt.Fprintf(out, "Git commit: %s\n", version.GitCommit)
			_, _ = fmt.Fprintf(out, "Build date: %s\n", version.BuildDate)
			_, _ = fmt.Fprintf(out, "Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
