package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/sitepipe/internal/core/domain"
)

func (c *CLI) newDevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Build everything once, then serve with live reload and watch sources",
		Args:  cobra.NoArgs,
		RunE:  c.pipelineRunE(domain.PipelineDefault),
	}
	cmd.Flags().Bool("open", false, "Open the site in the browser once the server listens")
	return cmd
}

func (c *CLI) newPipelineCmd(name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE:  c.pipelineRunE(name),
	}
}

func (c *CLI) newPipeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline <name>",
		Short: "Run a pipeline defined in sitepipe.yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Pipeline(cmd.Context(), args[0], options(cmd))
		},
	}
}
