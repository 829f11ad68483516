package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/hrassist/internal/cli"
	"github.com/cloo-solutions/hrassist/internal/cli/client"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "hrassist",
		Short: "Ask the HR assistant from your terminal",
		Long: `hrassist talks to a running hrassistd server.

Environment variables:
  HRASSIST_API_URL        API base URL (default: http://localhost:8080)
  HRASSIST_USER_ID        Employee id sent with each request
  HRASSIST_ADMIN_API_KEY  Admin key for listing tickets`,
		Version: version,
	}

	rootCmd.PersistentFlags().Bool("output", false, "Output as JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides env and config)")
	rootCmd.PersistentFlags().String("user", "", "Employee id (overrides env and config)")
	rootCmd.PersistentFlags().String("admin-key", "", "Admin API key (overrides env and config)")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(client.AskCmd())
	rootCmd.AddCommand(client.TicketCmd())
	rootCmd.AddCommand(client.TicketsCmd())
	rootCmd.AddCommand(client.HealthCmd())
	rootCmd.AddCommand(client.LoginCmd())
	rootCmd.AddCommand(client.LogoutCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
