package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/aliasgen/internal/cli"
	"github.com/cloo-solutions/aliasgen/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "aliasgen",
		Short: "aliasgen - alternative names for markdown notes",
		Long: `aliasgen asks a language model for alternative names of a note (declensions,
abbreviations, synonyms) and merges them into the note's front matter aliases.

Environment variables:
  ALIASGEN_OPENAI_API_KEY  OpenAI API key (overrides the settings file)
  ALIASGEN_WORKSPACE       Notes directory (default: current directory)
  ALIASGEN_API_URL         Use a running aliasgend instead of the local workspace
  ALIASGEN_DATABASE_URL    Postgres URL for run history`,
		Version:      version,
		SilenceUsage:  true,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "aliasgend base URL (overrides env)")
	rootCmd.PersistentFlags().String("token", "", "aliasgend bearer token (overrides env)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.GenerateCmd())
	rootCmd.AddCommand(client.SettingsCmd())
	rootCmd.AddCommand(client.HistoryCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
