package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/aliasgen/internal/cli"
	"github.com/cloo-solutions/aliasgen/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aliasgend",
		Short: "aliasgen daemon",
		Long:  "aliasgen daemon serving alias generation over HTTP",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
