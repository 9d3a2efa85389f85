package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/preflight-ai/cli/internal/hook"
)

var hookForce bool

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git pre-commit hook",
	Long: `Hook installs, removes, or inspects the pre-commit hook that runs
preflight review before every commit.

Examples:
  preflight hook install
  preflight hook status
  preflight hook uninstall`,
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the pre-commit hook",
	Run:   runHookInstall,
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the pre-commit hook",
	Run:   runHookUninstall,
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what occupies the pre-commit hook slot",
	Run:   runHookStatus,
}

func init() {
	hookInstallCmd.Flags().BoolVar(&hookForce, "force", false, "replace a hook preflight does not manage (original saved as pre-commit.bak)")
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.AddCommand(hookStatusCmd)
	rootCmd.AddCommand(hookCmd)
}

func mustGitDir(cmd *cobra.Command) string {
	env := mustEnv(cmd.Context())
	gitDir, err := env.git.GitDir(cmd.Context())
	if err != nil {
		fail(err)
	}
	return gitDir
}

func runHookInstall(cmd *cobra.Command, args []string) {
	gitDir := mustGitDir(cmd)
	if err := hook.Install(gitDir, hookForce); err != nil {
		if stderrors.Is(err, hook.ErrForeignHook) {
			fmt.Fprintln(os.Stderr, "A pre-commit hook preflight does not manage is already installed.")
			fmt.Fprintln(os.Stderr, "Re-run with --force to replace it; the original is saved as pre-commit.bak.")
			os.Exit(1)
		}
		fail(err)
	}
	fmt.Printf("Pre-commit hook installed at %s\n", hook.Path(gitDir))
	fmt.Println("Every commit now runs: preflight review")
}

func runHookUninstall(cmd *cobra.Command, args []string) {
	gitDir := mustGitDir(cmd)
	if err := hook.Uninstall(gitDir); err != nil {
		if stderrors.Is(err, hook.ErrForeignHook) {
			fmt.Fprintln(os.Stderr, "The installed pre-commit hook was not written by preflight; leaving it alone.")
			os.Exit(1)
		}
		fail(err)
	}
	fmt.Println("Pre-commit hook removed.")
}

func runHookStatus(cmd *cobra.Command, args []string) {
	gitDir := mustGitDir(cmd)
	state, err := hook.Check(gitDir)
	if err != nil {
		fail(err)
	}
	switch state {
	case hook.StateInstalled:
		fmt.Println("Pre-commit hook installed.")
	case hook.StateForeign:
		fmt.Println("A pre-commit hook exists but preflight does not manage it.")
		fmt.Println("Run: preflight hook install --force to replace it.")
	default:
		fmt.Println("No pre-commit hook installed.")
		fmt.Println("Run: preflight hook install")
	}
}
