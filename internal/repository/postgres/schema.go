package postgres

import (
	"context"
	"fmt"
)

// Column describes a table column as reported by information_schema.
type Column struct {
	Name       string
	DataType   string
	IsNullable bool
}

// SchemaInspector reads table metadata from the catalog.
type SchemaInspector struct {
	db *Connection
}

func NewSchemaInspector(db *Connection) *SchemaInspector {
	return &SchemaInspector{
		db: db,
	}
}

// Columns returns the columns of table in ordinal order.
func (s *SchemaInspector) Columns(ctx context.Context, table string) ([]Column, error) {
	const query = `SELECT column_name, data_type, is_nullable = 'YES'
				   FROM information_schema.columns
				   WHERE table_schema = current_schema() AND table_name = $1
				   ORDER BY ordinal_position`

	rows, err := s.db.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType, &c.IsNullable); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	return cols, nil
}

// Indexes returns the index names defined on table.
func (s *SchemaInspector) Indexes(ctx context.Context, table string) ([]string, error) {
	const query = `SELECT indexname FROM pg_indexes
				   WHERE schemaname = current_schema() AND tablename = $1
				   ORDER BY indexname`

	rows, err := s.db.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read indexes: %w", err)
	}

	return names, nil
}
