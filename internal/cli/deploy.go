package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/envmanifest/pkg/deploy"
	"github.com/matzehuels/envmanifest/pkg/index"
	"github.com/matzehuels/envmanifest/pkg/manifest"
	"github.com/matzehuels/envmanifest/pkg/source"
)

// deployCommand creates the deploy command.
func (c *CLI) deployCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "deploy <manifest> <prefix>",
		Short: "Plan bringing an install prefix in line with a manifest",
		Long: `Deploy checks that every distribution a manifest names has been built, then
lists the distributions to link into the prefix and the linked ones the
manifest no longer names. Linked distributions are read from
<prefix>/conda-meta.

A missing distribution means the build is out of sync with the manifest:
re-run the build of the environment.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			lines, err := manifest.ReadFile(args[0])
			if err != nil {
				return err
			}
			linked, err := deploy.Linked(args[1])
			if err != nil {
				return err
			}
			reg, err := source.LoadSources(cfg.Sources)
			if err != nil {
				return err
			}
			layout := cfg.Layout()
			loc := index.Locator{Registry: reg, DistRoot: layout.DistRoot(), Platform: layout.Platform}
			plan, err := deploy.NewPlan(lines, loc, linked)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(plan)
			}

			if plan.Empty() {
				printSuccess("%s is up to date", args[1])
				return nil
			}
			printTitle("%s", args[1])
			for _, d := range plan.Unlink {
				printChange(false, d)
			}
			for _, a := range plan.Link {
				printChange(true, a.Source+"/"+a.Dist)
			}
			printStats([]string{
				plural(len(plan.Link), "link"),
				plural(len(plan.Unlink), "unlink"),
			}, false)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the plan as JSON")
	return cmd
}
