package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/preflight-ai/cli/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration in this repository",
	Long: `Init writes .preflight/config.json with the default settings so
they can be reviewed and committed alongside the code.

Running init in an already initialized repository changes nothing.`,
	Run: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) {
	env := mustEnv(cmd.Context())

	path := config.ConfigPath(env.root)
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Already initialized: %s\n", path)
		return
	}

	if err := config.DefaultConfig().Save(env.root); err != nil {
		fail(err)
	}

	fmt.Printf("Created %s\n", path)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  preflight config set-key <api-key>   # store your analyzer key")
	fmt.Println("  preflight hook install               # review before every commit")
	fmt.Println("  preflight review                     # try it on staged changes")
}
