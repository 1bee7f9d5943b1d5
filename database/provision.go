package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ProvisionParams names the role and database the vault schema lives in.
type ProvisionParams struct {
	Role     string
	Password string
	Database string
}

// ProvisionResult reports which objects were created by Provision.
type ProvisionResult struct {
	RoleCreated     bool
	DatabaseCreated bool
}

// Provision creates the login role and the database owned by it through an
// administrative connection. Objects that already exist are left untouched.
func Provision(ctx context.Context, admin *sql.DB, params ProvisionParams) (ProvisionResult, error) {
	var res ProvisionResult
	if params.Role == "" || params.Database == "" {
		return res, errors.New("role and database names are required")
	}

	role := pq.QuoteIdentifier(params.Role)

	createRole := fmt.Sprintf("CREATE ROLE %s WITH LOGIN PASSWORD %s", role, pq.QuoteLiteral(params.Password))
	created, err := createIgnoringDuplicate(ctx, admin, createRole, pgerrcode.DuplicateObject)
	if err != nil {
		return res, fmt.Errorf("failed to create role: %w", err)
	}
	res.RoleCreated = created

	createDB := fmt.Sprintf("CREATE DATABASE %s OWNER %s", pq.QuoteIdentifier(params.Database), role)
	created, err = createIgnoringDuplicate(ctx, admin, createDB, pgerrcode.DuplicateDatabase)
	if err != nil {
		return res, fmt.Errorf("failed to create database: %w", err)
	}
	res.DatabaseCreated = created

	return res, nil
}

// EnableExtensions enables the extensions the suite relies on (pgcrypto digest).
func EnableExtensions(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS pgcrypto"); err != nil {
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}
	return nil
}

func createIgnoringDuplicate(ctx context.Context, db *sql.DB, stmt, duplicateCode string) (bool, error) {
	_, err := db.ExecContext(ctx, stmt)
	if err == nil {
		return true, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == duplicateCode {
		return false, nil
	}
	return false, err
}
