package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloo-solutions/hrassist/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleTickets() []domain.Ticket {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return []domain.Ticket{
		*domain.NewTicket("HR-20260301093000-000001-AAAAAAAAAAAA", "Payslip missing", "EMP001234", domain.MethodErrorFallback, 0.8, created),
		*domain.NewTicket("HR-20260301093001-000002-BBBBBBBBBBBB", "Relocation budget", "anonymous", domain.MethodVectorClean, 0.95, created.Add(time.Second)),
	}
}

func TestFileTicketStore_MissingFileIsEmpty(t *testing.T) {
	store := NewFileTicketStore(filepath.Join(t.TempDir(), "tickets.json"))

	tickets, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, tickets)
	assert.Empty(t, tickets)
}

func TestFileTicketStore_BlankFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	tickets, err := NewFileTicketStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestFileTicketStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tickets.json")
	store := NewFileTicketStore(path)
	ctx := context.Background()

	want := sampleTickets()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, want[0].TicketID, got[0].TicketID)
	assert.Equal(t, want[1].Issue, got[1].Issue)
	assert.True(t, want[0].CreatedAt.Equal(got[0].CreatedAt))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestFileTicketStore_WritesTicketFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.json")
	require.NoError(t, NewFileTicketStore(path).Save(context.Background(), sampleTickets()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, field := range []string{`"ticket_id"`, `"issue"`, `"user_id"`, `"status": "Open"`, `"created_at"`, `"retrieval_method"`, `"confidence_score"`} {
		assert.Contains(t, string(data), field)
	}
}

func TestFileTicketStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickets.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileTicketStore(path).Load(context.Background())
	assert.Error(t, err)
}

type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStore) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func TestS3TicketStore_MissingObjectIsEmpty(t *testing.T) {
	objects := new(MockObjectStore)
	objects.On("GetObject", mock.Anything, "tickets.json").Return(nil, ErrObjectNotFound)

	tickets, err := NewS3TicketStore(objects, "").Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets)
	objects.AssertExpectations(t)
}

func TestS3TicketStore_RoundTrip(t *testing.T) {
	objects := new(MockObjectStore)
	var stored []byte
	objects.On("PutObject", mock.Anything, "hr/tickets.json", mock.Anything, "application/json").
		Run(func(args mock.Arguments) { stored = args.Get(2).([]byte) }).
		Return(nil)

	store := NewS3TicketStore(objects, "hr/tickets.json")
	require.NoError(t, store.Save(context.Background(), sampleTickets()))

	objects.On("GetObject", mock.Anything, "hr/tickets.json").Return(stored, nil)
	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Relocation budget", got[1].Issue)
	objects.AssertExpectations(t)
}

func TestS3TicketStore_GetError(t *testing.T) {
	objects := new(MockObjectStore)
	boom := errors.New("connection refused")
	objects.On("GetObject", mock.Anything, "tickets.json").Return(nil, boom)

	_, err := NewS3TicketStore(objects, "tickets.json").Load(context.Background())
	assert.ErrorIs(t, err, boom)
}
