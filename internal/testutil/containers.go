// Package testutil starts the containers the integration and e2e suites run
// against: pgvector for tickets and the persisted index, RustFS for S3
// ticket storage.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cloo-solutions/hrassist/internal/database"
)

const (
	PostgresImage = "pgvector/pgvector:0.8.1-pg18"
	RustFSImage   = "rustfs/rustfs:latest"

	// RustFS root credentials, also used as the S3 access key pair.
	RustFSAccessKey = "rustfsadmin"
	RustFSSecretKey = "rustfsadmin"

	pgCredential = "hrassist"
)

// ticketTables are cleared between tests that share a database.
var ticketTables = []string{"index_vectors", "index_meta", "tickets"}

// startContainer runs req and returns the container with the host and mapped
// port for port. The test fails on any error.
func startContainer(ctx context.Context, t *testing.T, req testcontainers.ContainerRequest, port string) (testcontainers.Container, string, string) {
	t.Helper()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start %s: %v", req.Image, err)
	}
	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host of %s: %v", req.Image, err)
	}
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatalf("failed to map port %s of %s: %v", port, req.Image, err)
	}
	return c, host, mapped.Port()
}

// PostgresContainer is a running pgvector database.
type PostgresContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

func NewPostgresContainer(ctx context.Context, t *testing.T) *PostgresContainer {
	c, host, port := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     pgCredential,
			"POSTGRES_PASSWORD": pgCredential,
			"POSTGRES_DB":       pgCredential,
		},
		// The entrypoint restarts postgres once after init.
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		).WithStartupTimeout(time.Minute),
	}, "5432")
	return &PostgresContainer{Container: c, Host: host, Port: port}
}

// ConnectionString is the value for HRASSIST_DATABASE_URL.
func (pc *PostgresContainer) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		pgCredential, pgCredential, pc.Host, pc.Port, pgCredential)
}

func (pc *PostgresContainer) Terminate(ctx context.Context) error {
	return testcontainers.TerminateContainer(pc.Container)
}

// RustFSContainer is a running S3-compatible object store.
type RustFSContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

func NewRustFSContainer(ctx context.Context, t *testing.T) *RustFSContainer {
	c, host, port := startContainer(ctx, t, testcontainers.ContainerRequest{
		Image:        RustFSImage,
		ExposedPorts: []string{"9000/tcp"},
		Env: map[string]string{
			"RUSTFS_ACCESS_KEY": RustFSAccessKey,
			"RUSTFS_SECRET_KEY": RustFSSecretKey,
		},
		WaitingFor: wait.ForListeningPort("9000/tcp").WithStartupTimeout(30 * time.Second),
	}, "9000")
	return &RustFSContainer{Container: c, Host: host, Port: port}
}

// Endpoint is the value for HRASSIST_S3_ENDPOINT.
func (rc *RustFSContainer) Endpoint() string {
	return fmt.Sprintf("http://%s:%s", rc.Host, rc.Port)
}

func (rc *RustFSContainer) Terminate(ctx context.Context) error {
	return testcontainers.TerminateContainer(rc.Container)
}

// NewTestPool migrates the database with migrate, the same function the
// daemon runs at startup, and then opens a pool. Postgres can refuse
// connections for a moment after the wait strategy passes, so opening is
// retried.
func NewTestPool(ctx context.Context, t *testing.T, pc *PostgresContainer, migrate func(databaseURL string) error) *pgxpool.Pool {
	t.Helper()

	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		if err = migrate(pc.ConnectionString()); err == nil {
			break
		}
		time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: pc.ConnectionString(), MaxConns: 4})
	if err != nil {
		t.Fatalf("failed to open test pool: %v", err)
	}
	return pool
}

// TruncateAll empties the ticket and index tables.
func TruncateAll(ctx context.Context, pool *pgxpool.Pool) error {
	for _, table := range ticketTables {
		if _, err := pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE"); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
