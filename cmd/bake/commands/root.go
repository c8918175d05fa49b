// Package commands implements the CLI commands for the bake build tool.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/bake/internal/app"
	"go.trai.ch/bake/internal/build"
	"go.trai.ch/bake/internal/core/domain"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for bake.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	SetLogFormat(format string) error
	Build(ctx context.Context, targetNames []string, opts app.RunOptions) error
	Plan(ctx context.Context, targetNames []string, opts app.RunOptions) error
	Watch(ctx context.Context, targetNames []string, opts app.RunOptions) error
	Clean(ctx context.Context, opts app.CleanOptions) error
	Targets(ctx context.Context, opts app.RunOptions) ([]app.TargetInfo, error)
}

// New creates a new CLI instance with the given app.
// Running bake without a subcommand builds the named targets.
func New(a Application) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:           "bake [targets...]",
		Short:         "An incremental build scheduler for C/C++ projects",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("log-format")
			return c.app.SetLogFormat(format)
		},
		RunE: c.runBuild,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.Join(domain.ErrInvalidUsage, err)
	})

	flags := rootCmd.PersistentFlags()
	flags.StringP("file", "f", "", "Path to the Bakefile (default: search upward for Bakefile.yaml)")
	flags.IntP("jobs", "j", 0, "Number of parallel workers, 0 builds sequentially (default: from the Bakefile)")
	flags.StringP("output", "o", "auto", "Output mode: auto, tui, linear, ci, or quiet")
	flags.String("log-format", "text", "Log format: text or json")

	rootCmd.Flags().BoolP("dry-run", "n", false, "Report what would be built without running anything")
	rootCmd.Flags().Bool("explain", false, "Explain why each target is rebuilt")

	c.rootCmd = rootCmd
	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newTargetsCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// runOptions reads the flags shared by build, plan and watch.
func runOptions(cmd *cobra.Command) (app.RunOptions, error) {
	file, _ := cmd.Flags().GetString("file")
	output, _ := cmd.Flags().GetString("output")

	opts := app.RunOptions{
		File:       file,
		Jobs:       app.JobsFromBakefile,
		OutputMode: output,
	}

	switch output {
	case "auto", "tui", "linear", "ci", "quiet":
	default:
		return opts, errors.Join(domain.ErrInvalidUsage, zerr.With(zerr.New("unknown output mode"), "output", output))
	}

	if cmd.Flags().Changed("jobs") {
		jobs, _ := cmd.Flags().GetInt("jobs")
		if jobs < 0 {
			return opts, errors.Join(domain.ErrInvalidUsage, zerr.With(domain.ErrInvalidJobs, "jobs", jobs))
		}
		opts.Jobs = jobs
	}

	if f := cmd.Flags().Lookup("dry-run"); f != nil {
		opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}
	if f := cmd.Flags().Lookup("explain"); f != nil {
		opts.Explain, _ = cmd.Flags().GetBool("explain")
	}
	return opts, nil
}

func (c *CLI) runBuild(cmd *cobra.Command, args []string) error {
	opts, err := runOptions(cmd)
	if err != nil {
		return err
	}
	return c.app.Build(cmd.Context(), args, opts)
}
