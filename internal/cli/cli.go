package cli

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/coregrid/internal/app"
	"github.com/specialistvlad/coregrid/internal/family"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Version is reported by --version.
var Version = "0.1.0"

type globalFlags struct {
	logFormat string
	logLevel  string
}

// validate normalises and checks the logging flags.
func (g *globalFlags) validate() error {
	g.logFormat = strings.ToLower(g.logFormat)
	if g.logFormat != "text" && g.logFormat != "json" {
		return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	g.logLevel = strings.ToLower(g.logLevel)
	switch g.logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	return nil
}

// NewRootCommand builds the command tree. Results go to outW, logs to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "coregrid",
		Short: "coregrid - topology and build configuration for multi-core microcontrollers",
		Long: `coregrid validates a hardware/software topology written in HCL
(application, boards, processors, cores, processes) and turns it into a
build plan: per-core processes, toolchain invocations and thread tables.

Examples:
  coregrid validate ./topology                 # Check every .hcl file in a directory
  coregrid plan ./topology --format json       # Print the build plan as JSON
  coregrid plan app.hcl --var toolchain=/opt/c # Override a declared variable
  coregrid families                            # List built-in hardware families`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			slog.Debug("CLI parameter validation started.", "command", cmd.Name())
			return g.validate()
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	root.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	root.AddCommand(
		newValidateCommand(g, outW, errW),
		newPlanCommand(g, outW, errW),
		newFamiliesCommand(g, outW, errW),
	)
	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newConfig(g *globalFlags, paths []string, vars map[string]string, format, out string) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		Paths:      paths,
		Variables:  vars,
		Format:     format,
		OutputPath: out,
		LogFormat:  g.logFormat,
		LogLevel:   g.logLevel,
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI parser finished successfully.", "config", cfg)
	return cfg, nil
}

func newValidateCommand(g *globalFlags, outW, errW io.Writer) *cobra.Command {
	var vars map[string]string
	cmd := &cobra.Command{
		Use:   "validate PATH...",
		Short: "Load a topology and check every invariant",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(g, args, vars, "", "")
			if err != nil {
				return err
			}
			_, err = app.NewApp(outW, errW, cfg).Validate(cmd.Context())
			return err
		},
	}
	cmd.Flags().StringToStringVar(&vars, "var", nil, "Set a topology variable (name=value). Repeatable.")
	return cmd
}

func newPlanCommand(g *globalFlags, outW, errW io.Writer) *cobra.Command {
	var (
		vars   map[string]string
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "plan PATH...",
		Short: "Build the per-core plan consumed by code generation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newConfig(g, args, vars, format, out)
			if err != nil {
				return err
			}
			_, err = app.NewApp(outW, errW, cfg).Plan(cmd.Context())
			return err
		},
	}
	cmd.Flags().StringToStringVar(&vars, "var", nil, "Set a topology variable (name=value). Repeatable.")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Plan output format. Options: 'yaml' or 'json'.")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the plan to a file instead of standard output.")
	return cmd
}

func newFamiliesCommand(g *globalFlags, outW, errW io.Writer) *cobra.Command {
	var vars map[string]string
	cmd := &cobra.Command{
		Use:   "families [PATH...]",
		Short: "List hardware families, including those declared by a topology",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return app.WriteFamilies(outW, family.Builtin())
			}
			cfg, err := newConfig(g, args, vars, "", "")
			if err != nil {
				return err
			}
			return app.NewApp(outW, errW, cfg).Families(cmd.Context())
		},
	}
	cmd.Flags().StringToStringVar(&vars, "var", nil, "Set a topology variable (name=value). Repeatable.")
	return cmd
}
