package model

import "context"

// Row is a fixed-width, position-indexed result entry.
type Row []any

// Rows is an ordered result set. A nil Rows means the statement produced no
// result set at all, while an empty non-nil Rows is a result set without rows.
type Rows []Row

// Value returns the value at column i or an *IndexError when the row is narrower.
func (r Row) Value(i int) (any, error) {
	if i < 0 || i >= len(r) {
		return nil, &IndexError{Column: i, Width: len(r)}
	}
	return r[i], nil
}

// Executor runs a single statement and returns its result set.
//
// Implementations commit the statement on success and roll it back on failure.
type Executor interface {
	Execute(ctx context.Context, query string, params ...any) (Rows, error)
}
