package dbutil

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/vaultqa/internal/model"
)

// Classify maps a driver error to a model.FailureKind.
func Classify(err error) model.FailureKind {
	if err == nil {
		return model.FailureNone
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return model.FailureUniqueViolation
		case pgerrcode.ForeignKeyViolation:
			return model.FailureForeignKeyViolation
		case pgerrcode.NotNullViolation:
			return model.FailureNotNullViolation
		}
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return model.FailureConnection
		}
		return model.FailureUnknown
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connectErr),
		errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded):
		return model.FailureConnection
	}

	return model.FailureUnknown
}
