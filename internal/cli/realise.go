package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/envmanifest/pkg/manifest"
)

// realiseCommand creates the realise command.
func (c *CLI) realiseCommand() *cobra.Command {
	var (
		outfile string
		stdout  bool
	)

	cmd := &cobra.Command{
		Use:     "realise [env...]",
		Aliases: []string{"realize"},
		Short:   "Write the locked manifest and the environment index",
		Long: `Realise solves each environment's packages against its merged index and
writes the result as a manifest, one distribution per line:

  name  version  build  source

The full merged index is written to
<root>/indices/index_for_<name>/<platform>/repodata.json so the environment
can be installed from it.`,
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
				var sp *spinner
				if !stdout {
					sp = startSpinner(cmd.Context(), os.Stderr, fmt.Sprintf("Realising %s...", env.Name))
				}
				res, err := runner.Realise(cmd.Context(), env, opts)
				sp.Stop()
				if err != nil {
					return err
				}

				if stdout {
					if err := manifest.Write(cmd.OutOrStdout(), res.Lines); err != nil {
						return err
					}
					continue
				}

				path := manifest.Outfile(outfile, env.Name)
				if err := manifest.WriteFile(path, res.Lines); err != nil {
					return err
				}
				printSuccess("Realised %s", env.Name)
				printFile(path)
				printFile(opts.Layout.IndexDir(env.Name))
				printStats([]string{plural(res.Stats.Lines, "package")}, res.CacheInfo.ManifestHit)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outfile, "outfile", "o", manifest.DefaultOutfile, "manifest path; {name} is replaced by the environment name")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "write manifests to stdout instead of files")
	return cmd
}
