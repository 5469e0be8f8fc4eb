package helpers

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/eosprofile/internal/config"
	"github.com/coral-mesh/eosprofile/internal/safe"
)

// Runtime carries the loaded configuration and logger to subcommands.
type Runtime struct {
	Config *config.Config
	Logger zerolog.Logger

	// ConfigPath is the configuration file that was consulted.
	ConfigPath string
	// ConfigErr is set when the file could not be loaded and the command
	// tolerates it; Config then holds the defaults.
	ConfigErr error
}

// AnnotationTolerateConfig marks commands that run with a broken
// configuration file, such as the config commands used to repair it.
const AnnotationTolerateConfig = "eos-profile/tolerate-config"

// ToleratesConfigErrors reports whether cmd or one of its parents carries
// AnnotationTolerateConfig.
func ToleratesConfigErrors(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[AnnotationTolerateConfig] == "true" {
			return true
		}
	}
	return false
}

type runtimeKey struct{}

// WithRuntime attaches rt to ctx.
func WithRuntime(ctx context.Context, rt *Runtime) context.Context {
	return context.WithValue(ctx, runtimeKey{}, rt)
}

// RuntimeFrom returns the runtime set up by the root command, or defaults
// with a silent logger when the command runs on its own.
func RuntimeFrom(cmd *cobra.Command) *Runtime {
	if ctx := cmd.Context(); ctx != nil {
		if rt, ok := ctx.Value(runtimeKey{}).(*Runtime); ok && rt != nil {
			return rt
		}
	}
	return &Runtime{Config: config.Default(), Logger: zerolog.Nop()}
}

// Printer returns a printer bound to the command's output streams.
func (rt *Runtime) Printer(cmd *cobra.Command) *Printer {
	return NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), rt.Config.Output.Color)
}

// ReadOptions returns the file read limits for capture files.
func (rt *Runtime) ReadOptions() *safe.Options {
	return &safe.Options{
		MaxSize:       int64(rt.Config.Capture.MaxSize),
		AllowSymlinks: rt.Config.Capture.AllowSymlinks,
	}
}
