package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/envmanifest/pkg/render"
)

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format   string
		output   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph <env>",
		Short: "Draw the resolved dependency graph of an environment",
		Long: `Graph resolves an environment and draws which package depends on which,
shaded by the precedence tier that provided each package. With --detailed,
node labels carry versions and sources, and packages no source provides are
drawn dashed.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeEnvs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := render.ParseFormat(format)
			if err != nil {
				return err
			}
			ws, err := c.loadWorkspace(args)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), ws.cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			data, _, err := runner.Graph(cmd.Context(), ws.envs[0], f, render.Options{Detailed: detailed}, c.options(ws))
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Graph of %s", ws.envs[0].Name)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(render.FormatDOT), "output format (dot, svg)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "label nodes with versions and sources")
	return cmd
}
