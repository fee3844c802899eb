package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [zsh|bash|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate completion scripts for the rz command itself.

Zsh:
  # After 'eval "$(rz init)"' in ~/.zshrc:
  $ source <(rz completion zsh)
  # Or install it once into a directory on fpath:
  $ rz completion zsh > "${fpath[1]}/_rz"

Bash:
  $ source <(rz completion bash)

Fish:
  $ rz completion fish | source

PowerShell:
  PS> rz completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"zsh", "bash", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(os.Stdout, true)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return rootCmd.GenZshCompletion(os.Stdout)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
