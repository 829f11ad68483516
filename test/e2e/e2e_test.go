//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/cloo-solutions/hrassist/internal/storage"
	"github.com/cloo-solutions/hrassist/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var adminHeaders = map[string]string{"X-Admin-Key": adminKey}

type ticketEnvelope struct {
	Ticket  domain.Ticket `json:"ticket"`
	Message string        `json:"message"`
}

func TestE2E_ChatOverKeywordIndex(t *testing.T) {
	env := SetupE2EEnv(t)

	var health map[string]interface{}
	env.Get("/api/health", nil).Decode(t, &health)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, float64(4), health["entries"])

	resp := env.Post("/api/chat", map[string]string{"question": "How many vacation days do I get?"}, map[string]string{"X-User-ID": "EMP001234"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var answer domain.ResolvedAnswer
	resp.Decode(t, &answer)
	assert.Contains(t, answer.Text, "21 days of earned leave")
	assert.Equal(t, domain.MethodKeywordClean, answer.RetrievalMethod)
	assert.Equal(t, domain.TopicLeave, answer.Topic)
	assert.NotEmpty(t, answer.Suggestions)

	resp = env.Post("/api/chat", map[string]string{"question": "   "}, nil)
	resp.Decode(t, &answer)
	assert.Equal(t, domain.MethodErrorFallback, answer.RetrievalMethod)
	assert.True(t, answer.ShowEscalation)
}

func TestE2E_TicketsInPostgres(t *testing.T) {
	ctx := context.Background()
	pgC, pgEnv := postgresEnv(ctx, t)
	env := SetupE2EEnv(t, pgEnv...)

	resp := env.Post("/api/ticket", map[string]interface{}{
		"issue":            "My relocation reimbursement is pending",
		"retrieval_method": "error_fallback",
		"confidence_score": 0.8,
	}, map[string]string{"X-User-ID": "EMP005678"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created ticketEnvelope
	resp.Decode(t, &created)
	assert.True(t, strings.HasPrefix(created.Ticket.TicketID, "HR-"))

	pool, err := pgxpool.New(ctx, pgC.ConnectionString())
	require.NoError(t, err)
	defer pool.Close()

	var issue, userID string
	err = pool.QueryRow(ctx, "SELECT issue, user_id FROM tickets WHERE ticket_id = $1", created.Ticket.TicketID).Scan(&issue, &userID)
	require.NoError(t, err)
	assert.Equal(t, "My relocation reimbursement is pending", issue)
	assert.Equal(t, "EMP005678", userID)

	resp = env.Get("/api/tickets/"+created.Ticket.TicketID, adminHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestE2E_TicketsInS3(t *testing.T) {
	ctx := context.Background()
	s3C, s3Env := rustfsEnv(ctx, t, "hrassist-e2e")
	env := SetupE2EEnv(t, s3Env...)

	for _, issue := range []string{"Payslip missing", "Laptop reimbursement"} {
		resp := env.Post("/api/ticket", map[string]string{"issue": issue}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSSecretKey,
		Bucket:          "hrassist-e2e",
		UsePathStyle:    true,
	})
	require.NoError(t, err)

	data, err := client.GetObject(ctx, "tickets.json")
	require.NoError(t, err)

	var stored []domain.Ticket
	require.NoError(t, json.Unmarshal(data, &stored))
	require.Len(t, stored, 2)
	assert.Equal(t, "anonymous", stored[0].UserID)
	assert.Equal(t, domain.TicketStatusOpen, stored[1].Status)
}

func TestE2E_AdminRoutes(t *testing.T) {
	env := SetupE2EEnv(t)

	resp := env.Get("/api/tickets", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.Post("/api/ingest", map[string]bool{"force_rebuild": true}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.Post("/api/ingest", map[string]bool{"force_rebuild": true}, adminHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ingest struct {
		Report struct {
			Indexed int `json:"indexed"`
		} `json:"report"`
	}
	resp.Decode(t, &ingest)
	assert.Equal(t, 4, ingest.Report.Indexed)

	for i := 0; i < 3; i++ {
		env.Post("/api/ticket", map[string]string{"issue": "paging check"}, nil)
	}
	resp = env.Get("/api/tickets?limit=2", adminHeaders)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Count   int    `json:"count"`
		Cursor  string `json:"cursor"`
		HasMore bool   `json:"has_more"`
	}
	resp.Decode(t, &page)
	assert.Equal(t, 2, page.Count)
	assert.True(t, page.HasMore)
	assert.NotEmpty(t, page.Cursor)
}

func TestE2E_CLIWorkflow(t *testing.T) {
	env := SetupE2EEnv(t)

	out, err := env.RunHRAssist(nil, "login", "EMP001234")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Welcome")

	out, err = env.RunHRAssist(nil, "ask", "when", "is", "salary", "credited")
	require.NoError(t, err, out)
	assert.Contains(t, out, "last working day")

	out, err = env.RunHRAssist(nil, "ticket", "Salary not credited this month")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Ticket ID: HR-")

	out, err = env.RunHRAssist([]string{"HRASSIST_ADMIN_API_KEY=" + adminKey}, "tickets")
	require.NoError(t, err, out)
	assert.Contains(t, out, "EMP001234")

	out, err = env.RunHRAssist(nil, "health", "--output")
	require.NoError(t, err, out)
	assert.Contains(t, out, `"status": "healthy"`)
}

func TestE2E_CorpusWatcherRebuildsIndex(t *testing.T) {
	env := SetupE2EEnv(t, "HRASSIST_WATCH_CORPUS=true")

	updated := sampleCorpus + "Is there a work from home policy?,Employees may work from home up to two days a week with manager approval.,general\n"
	require.NoError(t, os.WriteFile(env.CorpusPath, []byte(updated), 0o644))

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		var health map[string]interface{}
		env.Get("/api/health", nil).Decode(t, &health)
		if health["entries"] == float64(5) {
			var answer domain.ResolvedAnswer
			env.Post("/api/chat", map[string]string{"question": "work from home policy"}, nil).Decode(t, &answer)
			assert.Contains(t, answer.Text, "two days a week")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatal("index was not rebuilt after the corpus changed")
}
