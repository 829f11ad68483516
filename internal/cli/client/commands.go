package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/spf13/cobra"
)

// AskCmd sends a question to /api/chat.
func AskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the HR assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			topK, _ := cmd.Flags().GetInt("top-k")
			return runAsk(cmd.OutOrStdout(), api, strings.Join(args, " "), topK, outputJSON(cmd))
		},
	}

	cmd.Flags().Int("top-k", 0, "Number of corpus entries to retrieve (server default when 0)")
	return cmd
}

func runAsk(w io.Writer, api *APIClient, question string, topK int, asJSON bool) error {
	body := map[string]interface{}{"question": question}
	if topK > 0 {
		body["top_k"] = topK
	}

	resp, err := api.Post("/api/chat", body)
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	var answer domain.ResolvedAnswer
	if err := decodeData(resp, &answer); err != nil {
		return err
	}

	if asJSON {
		return writeJSON(w, answer)
	}

	fmt.Fprintln(w, answer.Text)
	fmt.Fprintf(w, "\n%s (%.2f)\n", answer.ConfidenceLabel, answer.ConfidenceScore)
	if answer.ShowEscalation {
		fmt.Fprintln(w, "Need a person? Run: hrassist ticket \"<your issue>\"")
	}
	if len(answer.Suggestions) > 0 {
		fmt.Fprintln(w, "\nYou might also ask:")
		for _, s := range answer.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	return nil
}

// TicketCmd opens an escalation ticket through /api/ticket.
func TicketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ticket <issue>",
		Short: "Escalate an issue to the HR team",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runTicket(cmd.OutOrStdout(), api, strings.Join(args, " "), outputJSON(cmd))
		},
	}
}

type ticketResponse struct {
	Ticket  *domain.Ticket `json:"ticket"`
	Message string         `json:"message"`
}

func runTicket(w io.Writer, api *APIClient, issue string, asJSON bool) error {
	resp, err := api.Post("/api/ticket", map[string]string{"issue": issue})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Unavailable() {
			return fmt.Errorf("ticket not saved, quote request %s to HR: %s", apiErr.RequestID, apiErr.Message)
		}
		return fmt.Errorf("ticket creation failed: %w", err)
	}

	var created ticketResponse
	if err := decodeData(resp, &created); err != nil {
		return err
	}

	if asJSON {
		return writeJSON(w, created)
	}
	fmt.Fprintln(w, created.Message)
	return nil
}

// TicketsCmd lists tickets. The server must have an admin key configured.
func TicketsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tickets",
		Short: "List escalation tickets (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runTickets(cmd.OutOrStdout(), api, outputJSON(cmd))
		},
	}
}

func runTickets(w io.Writer, api *APIClient, asJSON bool) error {
	resp, err := api.Get("/api/tickets")
	if err != nil {
		return fmt.Errorf("failed to list tickets: %w", err)
	}

	var list struct {
		Tickets []domain.Ticket `json:"tickets"`
		Count   int             `json:"count"`
	}
	if err := decodeData(resp, &list); err != nil {
		return err
	}

	if asJSON {
		return writeJSON(w, list)
	}
	if list.Count == 0 {
		fmt.Fprintln(w, "No tickets.")
		return nil
	}
	for _, t := range list.Tickets {
		fmt.Fprintf(w, "%s  %-10s  %-12s  %s\n", t.TicketID, t.Status, t.UserID, t.Issue)
	}
	return nil
}

// HealthCmd reports server and index status.
func HealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server and knowledge base status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runHealth(cmd.OutOrStdout(), api, outputJSON(cmd))
		},
	}
}

func runHealth(w io.Writer, api *APIClient, asJSON bool) error {
	resp, err := api.Get("/api/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	var health map[string]interface{}
	if err := decodeData(resp, &health); err != nil {
		return err
	}

	if asJSON {
		return writeJSON(w, health)
	}
	fmt.Fprintf(w, "Status:  %v\n", health["status"])
	fmt.Fprintf(w, "Version: %v\n", health["version"])
	fmt.Fprintf(w, "Entries: %v\n", health["entries"])
	fmt.Fprintf(w, "Vector:  %v\n", health["vector_ready"])
	return nil
}

// LoginCmd validates an employee id against the server and saves it, with
// the API URL, to the global config.
func LoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <employee-id>",
		Short: "Validate and remember your employee id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			return runLogin(cmd.OutOrStdout(), api, args[0])
		},
	}
}

func runLogin(w io.Writer, api *APIClient, userID string) error {
	resp, err := api.Post("/api/validate-user", map[string]string{"user_id": userID})
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var result struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	if err := decodeData(resp, &result); err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("%s", result.Message)
	}

	config, err := LoadGlobalConfig()
	if err != nil {
		return err
	}
	if config == nil {
		config = &GlobalConfig{}
	}
	config.APIURL = api.baseURL
	config.UserID = strings.ToUpper(strings.TrimSpace(userID))
	if err := SaveGlobalConfig(config); err != nil {
		return err
	}

	fmt.Fprintln(w, result.Message)
	return nil
}

// LogoutCmd removes the saved global config.
func LogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved employee id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := DeleteGlobalConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func outputJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("output")
	return v
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
