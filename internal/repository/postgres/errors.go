package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/vaultqa/internal/model"
)

// mapError translates driver errors into the model error taxonomy. Errors it
// does not recognize are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.ForeignKeyViolation:
			return errors.Join(model.ErrUserNotFound, err)
		case pgerrcode.UniqueViolation:
			return errors.Join(model.ErrAlreadyExists, err)
		}
	}
	return err
}
