package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/preflight-ai/cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change preflight configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Show prints the configuration after merging defaults, the repository
config file, and the repository profile. The API key itself is never
printed, only where it would come from.`,
	Run: runConfigShow,
}

var configSetKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Store the analyzer API key in the user credentials file",
	Args:  cobra.ExactArgs(1),
	Run:   runConfigSetKey,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetKeyCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	env := mustEnv(cmd.Context())

	path := config.ConfigPath(env.root)
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file: %s\n", path)
	} else {
		fmt.Printf("Config file: %s (missing, defaults in effect)\n", path)
	}
	fmt.Printf("API key:     %s\n", apiKeySource(env.cfg))
	fmt.Println()

	data, err := json.MarshalIndent(env.cfg, "", "  ")
	if err != nil {
		fail(err)
	}
	fmt.Println(string(data))
}

// apiKeySource names where ResolveAPIKey would find a key, without
// revealing the key.
func apiKeySource(cfg *config.Config) string {
	if os.Getenv(cfg.Review.Analyzer.APIKeyEnv) != "" {
		return fmt.Sprintf("from environment (%s)", cfg.Review.Analyzer.APIKeyEnv)
	}
	if creds, err := config.LoadCredentials(); err == nil && creds != nil && creds.APIKey != "" {
		path, _ := config.CredentialsPath()
		return fmt.Sprintf("from credentials file (%s)", path)
	}
	return "not set (run: preflight config set-key <api-key>)"
}

func runConfigSetKey(cmd *cobra.Command, args []string) {
	creds, err := config.LoadCredentials()
	if err != nil {
		fail(err)
	}
	if creds == nil {
		creds = &config.Credentials{}
	}
	creds.APIKey = args[0]

	if err := config.SaveCredentials(creds); err != nil {
		fail(err)
	}
	path, err := config.CredentialsPath()
	if err != nil {
		fail(err)
	}
	fmt.Printf("API key saved to %s\n", path)
}
