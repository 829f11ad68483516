// Package storage holds the whole-collection ticket stores.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloo-solutions/hrassist/internal/domain"
)

// FileTicketStore keeps the ticket collection as a JSON array on disk.
// Writes go to a temp file that is renamed over the original.
type FileTicketStore struct {
	path string
}

func NewFileTicketStore(path string) *FileTicketStore {
	return &FileTicketStore{path: path}
}

// Path returns the backing file
func (s *FileTicketStore) Path() string {
	return s.path
}

// Load reads the collection. A missing or blank file is an empty collection.
func (s *FileTicketStore) Load(ctx context.Context) ([]domain.Ticket, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.Ticket{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tickets: %w", err)
	}
	return decodeTickets(data)
}

// Save writes the whole collection.
func (s *FileTicketStore) Save(ctx context.Context, tickets []domain.Ticket) error {
	data, err := encodeTickets(tickets)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create tickets dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tickets-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write tickets: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync tickets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close tickets: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace tickets: %w", err)
	}
	return nil
}

// ObjectStore is the subset of S3Client used by S3TicketStore.
type ObjectStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// S3TicketStore keeps the ticket collection as one JSON object in a bucket.
type S3TicketStore struct {
	objects ObjectStore
	key     string
}

func NewS3TicketStore(objects ObjectStore, key string) *S3TicketStore {
	if key == "" {
		key = "tickets.json"
	}
	return &S3TicketStore{objects: objects, key: key}
}

// Load reads the collection. A missing object is an empty collection.
func (s *S3TicketStore) Load(ctx context.Context) ([]domain.Ticket, error) {
	data, err := s.objects.GetObject(ctx, s.key)
	if errors.Is(err, ErrObjectNotFound) {
		return []domain.Ticket{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeTickets(data)
}

// Save writes the whole collection.
func (s *S3TicketStore) Save(ctx context.Context, tickets []domain.Ticket) error {
	data, err := encodeTickets(tickets)
	if err != nil {
		return err
	}
	return s.objects.PutObject(ctx, s.key, data, "application/json")
}

func decodeTickets(data []byte) ([]domain.Ticket, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Ticket{}, nil
	}

	var tickets []domain.Ticket
	if err := json.Unmarshal(data, &tickets); err != nil {
		return nil, fmt.Errorf("failed to decode tickets: %w", err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

func encodeTickets(tickets []domain.Ticket) ([]byte, error) {
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	data, err := json.MarshalIndent(tickets, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tickets: %w", err)
	}
	return append(data, '\n'), nil
}
