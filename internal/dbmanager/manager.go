// Package dbmanager runs single statements inside their own transaction and
// returns their result sets as position-indexed rows.
package dbmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dtroode/vaultqa/internal/model"
)

var _ model.Executor = (*Manager)(nil)

// Manager executes statements against a database/sql handle.
type Manager struct {
	db *sql.DB
}

// Open connects to dsn with the given database/sql driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*Manager, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewManager(db), nil
}

// NewManager wraps an existing handle.
func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// DB exposes the underlying handle.
func (m *Manager) DB() *sql.DB {
	return m.db
}

// Execute runs query in a transaction of its own. Statements that produce no
// columns return nil Rows; SELECTs without matches return empty Rows. The
// transaction is committed on success and rolled back on any failure.
func (m *Manager) Execute(ctx context.Context, query string, params ...any) (model.Rows, error) {
	return m.execute(ctx, nil, query, params)
}

// ReadOnly returns an executor that runs every statement in a read-only
// transaction, so the database rejects anything that writes.
func (m *Manager) ReadOnly() model.Executor {
	return readOnly{m: m}
}

type readOnly struct {
	m *Manager
}

func (r readOnly) Execute(ctx context.Context, query string, params ...any) (model.Rows, error) {
	return r.m.execute(ctx, &sql.TxOptions{ReadOnly: true}, query, params)
}

func (m *Manager) execute(ctx context.Context, opts *sql.TxOptions, query string, params []any) (result model.Rows, err error) {
	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("failed to rollback: %w", rbErr))
			}
		}
	}()

	result, err = collect(ctx, tx, query, params)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	return result, nil
}

// Ping verifies the connection is alive.
func (m *Manager) Ping(ctx context.Context) error {
	if m.db == nil {
		return errors.New("database handle is nil")
	}
	return m.db.PingContext(ctx)
}

// Close closes the underlying handle.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}
