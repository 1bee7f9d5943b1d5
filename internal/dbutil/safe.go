// Package dbutil provides a crash-safe face over a raw statement executor.
//
// Callers pick the accessor that matches what an empty result means to them:
// FetchOneOrFail and FetchValueOrFail treat absence as an error,
// FetchAllOrEmpty treats it as a valid outcome, and ExecuteOrReportFailure
// reduces a write to a boolean.
package dbutil

import (
	"context"
	"fmt"

	"github.com/dtroode/vaultqa/internal/logger"
	"github.com/dtroode/vaultqa/internal/model"
)

// SafeQuery wraps a model.Executor with null-safe, error-normalized accessors.
type SafeQuery struct {
	db     model.Executor
	logger *logger.Logger
}

// New creates a SafeQuery over db.
func New(db model.Executor, logger *logger.Logger) *SafeQuery {
	return &SafeQuery{
		db:     db,
		logger: logger,
	}
}

type fetchOptions struct {
	errorMessage string
}

// FetchOption customizes a single-row fetch.
type FetchOption func(*fetchOptions)

// WithErrorMessage replaces the default diagnostic used when no row is returned.
func WithErrorMessage(msg string) FetchOption {
	return func(o *fetchOptions) {
		o.errorMessage = msg
	}
}

// FetchOneOrFail returns the first row of the result set. An empty or absent
// result set yields a *model.NotFoundError.
func (s *SafeQuery) FetchOneOrFail(ctx context.Context, query string, params []any, opts ...FetchOption) (model.Row, error) {
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}

	rows, err := s.db.Execute(ctx, query, params...)
	if err != nil {
		s.logger.Error("failed to execute query", "query", query, "error", err)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	if len(rows) == 0 {
		msg := o.errorMessage
		if msg == "" {
			msg = fmt.Sprintf("no rows returned for query: %s", query)
		}
		s.logger.Error(msg, "query", query)
		return nil, &model.NotFoundError{Query: query, Message: msg}
	}

	s.logger.Debug("fetched one row", "row", rows[0])
	return rows[0], nil
}

// FetchValueOrFail returns column of the first row. A column outside the row
// width yields a *model.IndexError.
func (s *SafeQuery) FetchValueOrFail(ctx context.Context, query string, params []any, column int, opts ...FetchOption) (any, error) {
	row, err := s.FetchOneOrFail(ctx, query, params, opts...)
	if err != nil {
		return nil, err
	}

	value, err := row.Value(column)
	if err != nil {
		s.logger.Error("column index out of range", "query", query, "column", column, "width", len(row))
		return nil, err
	}

	s.logger.Debug("fetched value from column", "column", column, "value", value)
	return value, nil
}

// FetchAllOrEmpty returns every row of the result set. An absent result set is
// returned as an empty, non-nil slice; only executor failures are errors.
func (s *SafeQuery) FetchAllOrEmpty(ctx context.Context, query string, params []any) (model.Rows, error) {
	rows, err := s.db.Execute(ctx, query, params...)
	if err != nil {
		s.logger.Error("failed to execute query", "query", query, "error", err)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	if rows == nil {
		rows = model.Rows{}
	}

	s.logger.Debug("fetched all rows", "count", len(rows))
	return rows, nil
}

// ExecuteOrReportFailure runs a mutating statement and reports whether it
// succeeded. Failures are logged and never returned.
func (s *SafeQuery) ExecuteOrReportFailure(ctx context.Context, query string, params []any) bool {
	ok, _ := s.ExecuteWithKind(ctx, query, params)
	return ok
}

// ExecuteWithKind behaves like ExecuteOrReportFailure and also reports the
// classified kind of the failure, or model.FailureNone on success.
func (s *SafeQuery) ExecuteWithKind(ctx context.Context, query string, params []any) (ok bool, kind model.FailureKind) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("error executing query", "query", query, "error", fmt.Sprint(r), "kind", model.FailureUnknown)
			ok, kind = false, model.FailureUnknown
		}
	}()

	if _, err := s.db.Execute(ctx, query, params...); err != nil {
		kind = Classify(err)
		s.logger.Error("error executing query", "query", query, "error", err.Error(), "kind", kind)
		return false, kind
	}

	s.logger.Info("successfully executed query", "query", query)
	return true, model.FailureNone
}
