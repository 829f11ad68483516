package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/hrassist/internal/cli"
	"github.com/cloo-solutions/hrassist/internal/cli/admin"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	admin.Version = version

	rootCmd := &cobra.Command{
		Use:     "hrassistd",
		Short:   "HR assistant daemon and local tools",
		Long:    "hrassistd serves the HR assistant API and can ingest the corpus, answer questions and open tickets without a server",
		Version: version,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.IngestCmd())
	rootCmd.AddCommand(admin.AskCmd())
	rootCmd.AddCommand(admin.TicketCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
