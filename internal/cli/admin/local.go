package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cloo-solutions/hrassist/internal/config"
	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/cloo-solutions/hrassist/internal/service"
	"github.com/spf13/cobra"
)

// IngestCmd loads the corpus and builds the index without starting a server.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Load the corpus and build the index",
		Long:  "Load the HR corpus, embed it and persist the index so the server starts warm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force-rebuild")
			return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
				report, err := rt.Assistant.Ingest(ctx, force)
				if err != nil {
					return fmt.Errorf("ingest failed: %w", err)
				}
				return printResult(cmd, report, func(w io.Writer) {
					fmt.Fprintf(w, "Corpus:     %s\n", report.CorpusPath)
					fmt.Fprintf(w, "Rows:       %d\n", report.Rows)
					fmt.Fprintf(w, "Indexed:    %d\n", report.Indexed)
					fmt.Fprintf(w, "Skipped:    %d empty, %d contaminated\n", report.SkippedEmpty, report.SkippedContaminated)
					fmt.Fprintf(w, "Source:     %s\n", report.Source)
					fmt.Fprintf(w, "Vector:     %t\n", report.VectorReady)
					if report.Warning != "" {
						fmt.Fprintf(w, "Warning:    %s\n", report.Warning)
					}
				})
			})
		},
	}

	cmd.Flags().Bool("force-rebuild", false, "Ignore any persisted index and embed the corpus again")
	cmd.Flags().Bool("output", false, "Output as JSON")
	return cmd
}

// AskCmd answers one question in-process.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question against the local corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			topK, _ := cmd.Flags().GetInt("top-k")
			question := strings.Join(args, " ")

			return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
				if _, err := rt.Assistant.Ingest(ctx, false); err != nil {
					return fmt.Errorf("failed to load corpus: %w", err)
				}
				answer := rt.Assistant.Resolve(ctx, service.ResolveInput{
					Question: question,
					UserID:   userID,
					TopK:     topK,
				})
				return printResult(cmd, answer, func(w io.Writer) {
					PrintAnswer(w, answer)
				})
			})
		},
	}

	cmd.Flags().String("user", "", "Employee id to attribute the question to")
	cmd.Flags().Int("top-k", 0, "Number of entries to retrieve (default HRASSIST_TOP_K)")
	cmd.Flags().Bool("output", false, "Output as JSON")
	return cmd
}

// TicketCmd opens an escalation ticket in the configured store.
func TicketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket <issue>",
		Short: "Create an HR escalation ticket",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, _ := cmd.Flags().GetString("user")
			issue := strings.Join(args, " ")

			return withRuntime(cmd, func(ctx context.Context, rt *Runtime) error {
				ticket, err := rt.Assistant.CreateTicket(ctx, service.TicketInput{
					Issue:  issue,
					UserID: userID,
				})
				if err != nil {
					return err
				}
				return printResult(cmd, ticket, func(w io.Writer) {
					PrintTicket(w, ticket)
				})
			})
		},
	}

	cmd.Flags().String("user", "anonymous", "Employee id opening the ticket")
	cmd.Flags().Bool("output", false, "Output as JSON")
	return cmd
}

func withRuntime(cmd *cobra.Command, fn func(ctx context.Context, rt *Runtime) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rt, err := NewRuntime(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	return fn(ctx, rt)
}

func printResult(cmd *cobra.Command, v interface{}, human func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("output"); asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human(w)
	return nil
}

// PrintAnswer renders an answer for a terminal.
func PrintAnswer(w io.Writer, answer domain.ResolvedAnswer) {
	fmt.Fprintln(w, answer.Text)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s (%.2f) via %s\n", answer.ConfidenceLabel, answer.ConfidenceScore, answer.RetrievalMethod)
	if answer.ShowEscalation {
		fmt.Fprintln(w, "Not what you needed? Create a ticket with: hrassistd ticket \"<your issue>\"")
	}
	if len(answer.Suggestions) > 0 {
		fmt.Fprintln(w, "\nYou might also ask:")
		for _, s := range answer.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}

// PrintTicket renders a ticket for a terminal.
func PrintTicket(w io.Writer, ticket *domain.Ticket) {
	fmt.Fprintf(w, "Ticket ID: %s\n", ticket.TicketID)
	fmt.Fprintf(w, "Status:    %s\n", ticket.Status)
	fmt.Fprintf(w, "User:      %s\n", ticket.UserID)
	fmt.Fprintf(w, "Created:   %s\n", ticket.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Issue:     %s\n", ticket.Issue)
}
