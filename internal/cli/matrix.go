package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/envmanifest/pkg/recipe"
)

// matrixCommand creates the matrix command.
func (c *CLI) matrixCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "matrix [env...]",
		Short: "Show the build cases of each materialized recipe",
		Long: `Matrix expands the build dependencies of every materialized recipe into
the python/numpy version combinations it must be built for, against the
environment's merged index as it is on disk now. Cases the index cannot
satisfy are dropped.`,
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
			out := make(map[string]map[string][]string)
			for _, env := range ws.envs {
				recipes, err := recipe.LoadMaterialized(opts.Layout.RecipesDir(env.Name))
				if err != nil {
					return fmt.Errorf("%w (run envmanifest resolve first)", err)
				}
				res, err := runner.Matrices(cmd.Context(), env, recipes, opts)
				if err != nil {
					return err
				}

				if asJSON {
					cases := make(map[string][]string, len(res.Matrices))
					for _, rm := range res.Matrices {
						for _, cs := range rm.Matrix.Cases() {
							cases[recipe.LinkName(rm.Recipe)] = append(cases[recipe.LinkName(rm.Recipe)], cs.String())
						}
					}
					out[env.Name] = cases
					continue
				}

				printTitle("%s", env.Name)
				for _, rm := range res.Matrices {
					for _, cs := range rm.Matrix.Cases() {
						printKeyValue(recipe.LinkName(rm.Recipe), cs.String())
					}
				}
				printStats([]string{
					plural(len(res.Matrices), "recipe"),
					plural(res.Stats.Cases, "case"),
					fmt.Sprintf("%d from cache", res.CacheInfo.MatrixHits),
				}, res.CacheInfo.MatrixMisses == 0 && res.CacheInfo.MatrixHits > 0)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print cases as JSON")
	return cmd
}
