// Package harness manages the database fixture shared by the integration
// suites: connect and migrate, wipe between cases, roll back on teardown.
package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/vaultqa/database"
	"github.com/dtroode/vaultqa/internal/cli"
	"github.com/dtroode/vaultqa/internal/dbmanager"
	"github.com/dtroode/vaultqa/internal/dbutil"
	"github.com/dtroode/vaultqa/internal/logger"
	"github.com/dtroode/vaultqa/internal/model"
	"github.com/dtroode/vaultqa/internal/repository/postgres"
	"github.com/dtroode/vaultqa/internal/vaultcrypto"
)

// Harness owns every connection a suite uses.
type Harness struct {
	Conn    *postgres.Connection
	Manager *dbmanager.Manager
	DB      *dbutil.SafeQuery
	// ReadDB runs every statement in a read-only transaction.
	ReadDB  *dbutil.SafeQuery
	Users   *postgres.UserRepository
	Records *postgres.RecordRepository
	Schema  *postgres.SchemaInspector

	logger *logger.Logger
}

// New connects to dsn through both pgxpool and database/sql and applies the
// schema migrations.
func New(ctx context.Context, dsn string, log *logger.Logger) (*Harness, error) {
	conn, err := postgres.NewConection(ctx, dsn)
	if err != nil {
		return nil, err
	}

	mgr, err := dbmanager.Open(ctx, "pgx", dsn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &Harness{
		Conn:    conn,
		Manager: mgr,
		DB:      dbutil.New(mgr, log),
		ReadDB:  dbutil.New(mgr.ReadOnly(), log),
		Users:   postgres.NewUserRepository(conn),
		Records: postgres.NewRecordRepository(conn),
		Schema:  postgres.NewSchemaInspector(conn),
		logger:  log,
	}, nil
}

// Reset deletes all records and then all users.
func (h *Harness) Reset(ctx context.Context) error {
	if _, err := h.Records.DeleteAll(ctx); err != nil {
		return err
	}
	if _, err := h.Users.DeleteAll(ctx); err != nil {
		return err
	}
	h.logger.Debug("fixture reset")
	return nil
}

// Close rolls the schema back and releases both connections.
func (h *Harness) Close(ctx context.Context) error {
	var errs []error
	if err := database.Reset(ctx, h.Manager.DB()); err != nil {
		errs = append(errs, err)
	}
	if err := h.Manager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close manager: %w", err))
	}
	if err := h.Conn.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SeedUser inserts a user and returns it.
func (h *Harness) SeedUser(ctx context.Context, username, email string) (model.User, error) {
	return h.Users.Create(ctx, username, email)
}

// Backend exposes the fixture to vault-cli commands. Close is a no-op so the
// fixture outlives each command.
func (h *Harness) Backend(c *vaultcrypto.Cipher, storage model.Storage) *cli.Backend {
	return &cli.Backend{
		Users:     h.Users,
		Records:   h.Records,
		Query:     h.DB,
		ReadQuery: h.ReadDB,
		Cipher:    c,
		Storage:   storage,
		Close:     func() error { return nil },
	}
}
