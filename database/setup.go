package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Setup provisions the role and database through adminDSN, then enables
// extensions and applies migrations through appDSN.
func Setup(ctx context.Context, adminDSN, appDSN string, params ProvisionParams) (ProvisionResult, error) {
	admin, err := sql.Open("pgx", adminDSN)
	if err != nil {
		return ProvisionResult{}, fmt.Errorf("failed to open admin connection: %w", err)
	}
	defer admin.Close()

	res, err := Provision(ctx, admin, params)
	if err != nil {
		return res, err
	}

	db, err := sql.Open("pgx", appDSN)
	if err != nil {
		return res, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := EnableExtensions(ctx, db); err != nil {
		return res, err
	}
	if err := MigrateDB(ctx, db); err != nil {
		return res, err
	}

	return res, nil
}
