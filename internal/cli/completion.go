package cli

import (
	"github.com/spf13/cobra"
)

func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for forger.

To load completions:

Bash:
  $ source <(forger completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ forger completion bash > /etc/bash_completion.d/forger
  # macOS:
  $ forger completion bash > $(brew --prefix)/etc/bash_completion.d/forger

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ forger completion zsh > "${fpath[1]}/_forger"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ forger completion fish | source

  # To load completions for each session, execute once:
  $ forger completion fish > ~/.config/fish/completions/forger.fish

PowerShell:
  PS> forger completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> forger completion powershell > forger.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, root := cmd.OutOrStdout(), cmd.Root()
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

	return cmd
}
