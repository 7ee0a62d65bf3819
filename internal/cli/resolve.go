package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/envmanifest/pkg/pipeline"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "resolve [env...]",
		Short: "Choose a source for every package and materialize the recipes",
		Long: `Resolve walks the build and run dependencies of each environment's packages
and assigns every package to the highest-precedence tier that provides it.
Every source of that tier providing the package contributes its recipes.

The chosen recipes are linked into <root>/recipes/env_<name>_recipes, which
replaces any previous content. Use --dry-run to only print the assignment.`,
		ValidArgsFunction: c.completeEnvs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := c.loadWorkspace(args)
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
				var res *pipeline.Result
				if dryRun {
					res, err = runner.Resolve(cmd.Context(), env, opts)
				} else {
					res, err = runner.Materialize(cmd.Context(), env, opts)
				}
				if err != nil {
					return err
				}
				prog.done(fmt.Sprintf("Resolved %s", env.Name))
				printAssignment(res)
				if !dryRun {
					printFile(opts.Layout.RecipesDir(env.Name))
				}
			}
			if !dryRun {
				printNextStep("Next", "envmanifest build")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the assignment without materializing recipes")
	return cmd
}

func printAssignment(res *pipeline.Result) {
	a := res.Assignment
	printTitle("%s", res.Env)
	for _, name := range a.Order {
		var dists []string
		for _, contrib := range a.Packages[name] {
			dists = append(dists, contrib.Source+"/"+contrib.Recipe.Dist())
		}
		printKeyValue(name, strings.Join(dists, ", "))
	}
	for _, name := range a.Missing {
		printWarning("%s: no source provides it", name)
	}
	printStats([]string{plural(len(a.Order), "package"), fmt.Sprintf("%d missing", len(a.Missing))}, false)
}
