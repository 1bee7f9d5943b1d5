package dbmanager

import (
	"context"
	"database/sql"

	"github.com/dtroode/vaultqa/internal/model"
)

func collect(ctx context.Context, tx *sql.Tx, q string, params []any) (model.Rows, error) {
	rows, err := tx.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result model.Rows
	if len(cols) > 0 {
		result = model.Rows{}
	}

	for rows.Next() {
		if len(cols) == 0 {
			continue
		}
		row := make(model.Row, len(cols))
		dest := make([]any, len(cols))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		for i, v := range row {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			}
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	return result, nil
}
