package testutil

import (
	"context"
	"fmt"
	"net/url"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	postgresImage    = "postgres:15-alpine"
	postgresUser     = "postgres"
	postgresPassword = "password"
	postgresDB       = "vault_test"
)

// PostgresContainer is a disposable PostgreSQL instance.
type PostgresContainer struct {
	container tc.Container
	// DSN connects as the superuser to the test database.
	DSN string
	// AdminDSN connects as the superuser to the maintenance database.
	AdminDSN string
}

// StartPostgres launches a PostgreSQL container and waits until it accepts connections.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     postgresUser,
				"POSTGRES_PASSWORD": postgresPassword,
				"POSTGRES_DB":       postgresDB,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &PostgresContainer{
		container: container,
		DSN:       postgresDSN(host, port.Port(), postgresDB),
		AdminDSN:  postgresDSN(host, port.Port(), "postgres"),
	}, nil
}

// Terminate stops and removes the container.
func (p *PostgresContainer) Terminate(ctx context.Context) error {
	return p.container.Terminate(ctx)
}

func postgresDSN(host, port, db string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(postgresUser, postgresPassword),
		Host:     host + ":" + port,
		Path:     "/" + db,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
