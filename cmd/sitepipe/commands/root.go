// Package commands implements the CLI commands for sitepipe.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/sitepipe/internal/app"
	"go.trai.ch/sitepipe/internal/build"
	"go.trai.ch/sitepipe/internal/core/domain"
)

// Application represents the application logic interface.
type Application interface {
	Pipeline(ctx context.Context, name string, opts app.Options) error
	Run(ctx context.Context, targets []string, opts app.Options) error
	ListTasks(w io.Writer, opts app.Options) error
}

// CLI represents the command line interface for sitepipe.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:           "sitepipe",
		Short:         "Build, serve and watch a static website",
		Long:          "Without a command sitepipe builds everything once, then serves the site with live reload and rebuilds on change.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE:          c.pipelineRunE(domain.PipelineDefault),
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

	rootCmd.PersistentFlags().StringP("config", "c", domain.ConfigFileName, "Path to the configuration file")
	rootCmd.PersistentFlags().String("mode", "", "Build mode: development or production")
	rootCmd.Flags().Bool("open", false, "Open the site in the browser once the server listens")

	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.newDevCmd())
	rootCmd.AddCommand(c.newPipelineCmd(domain.PipelineBuild, "Clean, then build everything once"))
	rootCmd.AddCommand(c.newPipelineCmd(domain.PipelineClean, "Remove the build output and lint reports"))
	rootCmd.AddCommand(c.newPipelineCmd(domain.PipelineSprites, "Remove stale sprites, then generate the icon sprites"))
	rootCmd.AddCommand(c.newPipelineCmd(domain.PipelineLint, "Lint the scripts"))
	rootCmd.AddCommand(c.newPipeCmd())
	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newTasksCmd())
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

// options reads the persistent flags. The config file is only passed on when
// given explicitly so that the loader searches parent directories otherwise.
func options(cmd *cobra.Command) app.Options {
	var opts app.Options
	if f := cmd.Flags().Lookup("config"); f != nil && f.Changed {
		opts.ConfigFile = f.Value.String()
	}
	opts.Mode, _ = cmd.Flags().GetString("mode")
	if f := cmd.Flags().Lookup("open"); f != nil {
		opts.Open, _ = cmd.Flags().GetBool("open")
	}
	return opts
}

func (c *CLI) pipelineRunE(name string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return c.app.Pipeline(cmd.Context(), name, options(cmd))
	}
}
