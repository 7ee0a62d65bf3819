package cli

import (
	"slices"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a completion script for your shell. Environment names are
completed from the env specs of the current config.

  $ source <(envmanifest completion bash)
  $ envmanifest completion zsh > "${fpath[1]}/_envmanifest"
  $ envmanifest completion fish | source
  PS> envmanifest completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeEnvs completes environment names not already on the command line.
// Completion stays silent when the workspace cannot be loaded.
func (c *CLI) completeEnvs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ws, err := c.loadWorkspace(nil)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, env := range ws.envs {
		if !slices.Contains(args, env.Name) {
			names = append(names, env.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
