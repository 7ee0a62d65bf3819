package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/envmanifest/pkg/build"
)

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var (
		dryRun  bool
		command string
	)

	cmd := &cobra.Command{
		Use:   "build [env...]",
		Short: "Build every missing distribution of the materialized recipes",
		Long: `Build walks each environment's materialized recipes in dependency order.
For every build case whose distribution is not yet in the source's index, it
runs the build command with the recipe directory as its last argument and the
case selected through CONDA_PY / CONDA_NPY. Output goes to
build.<platform>.log in the recipe directory.

The index is re-read from disk before each recipe, so a recipe sees the
distributions built for the recipes before it.`,
		ValidArgsFunction: c.completeEnvs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.loadWorkspace(args)
			if err != nil {
				return err
			}
			if command == "" {
				command = ws.cfg.Build.Command
			}
			builder, err := build.NewCommandBuilder(command, c.Logger)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(cmd.Context(), ws.cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := c.options(ws)
			for _, env := range ws.envs {
				prog := newProgress(c.Logger)
				report, err := runner.Build(cmd.Context(), env, builder, dryRun, opts)
				if err != nil {
					return err
				}
				prog.done(fmt.Sprintf("Processed %s for %s", plural(len(report.Order), "recipe"), env.Name))

				printTitle("%s", env.Name)
				for _, edge := range report.Broken {
					printWarning("ignored dependency %s to break a cycle", edge)
				}
				for _, dist := range report.Built {
					printChange(true, dist)
				}
				verb := "built"
				if dryRun {
					verb = "to build"
				}
				printStats([]string{
					fmt.Sprintf("%d %s", len(report.Built), verb),
					fmt.Sprintf("%d already built", len(report.Skipped)),
					"run " + report.RunID[:8],
				}, false)
			}
			if !dryRun {
				printNextStep("Next", "envmanifest realise")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list what would be built")
	cmd.Flags().StringVar(&command, "command", "", "build command (default from config build.command)")
	return cmd
}
