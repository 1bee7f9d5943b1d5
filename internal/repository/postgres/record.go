package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/vaultqa/internal/model"
)

var _ model.RecordStore = (*RecordRepository)(nil)

const recordColumns = `record_id, user_id, title, encrypted_data, record_type, created_at, updated_at`

type RecordRepository struct {
	db *Connection
}

func NewRecordRepository(db *Connection) *RecordRepository {
	return &RecordRepository{
		db: db,
	}
}

func scanRecord(row pgx.Row) (model.VaultRecord, error) {
	var (
		record     model.VaultRecord
		recordType *string
	)
	err := row.Scan(
		&record.ID, &record.UserID, &record.Title, &record.EncryptedData,
		&recordType, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return model.VaultRecord{}, err
	}
	if recordType != nil {
		record.RecordType = model.RecordType(*recordType).Ptr()
	}
	return record, nil
}

func nullableType(t *model.RecordType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

// Create inserts a record. An unknown user yields model.ErrUserNotFound.
func (r *RecordRepository) Create(ctx context.Context, params model.CreateRecordParams) (model.VaultRecord, error) {
	query := `INSERT INTO vault_records (user_id, title, encrypted_data, record_type)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + recordColumns

	record, err := scanRecord(r.db.QueryRow(ctx, query,
		params.UserID, params.Title, params.EncryptedData, nullableType(params.RecordType),
	))
	if err != nil {
		return model.VaultRecord{}, fmt.Errorf("failed to create record: %w", mapError(err))
	}

	return record, nil
}

func (r *RecordRepository) GetByTitle(ctx context.Context, title string) (model.VaultRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM vault_records WHERE title = $1 ORDER BY record_id LIMIT 1`

	record, err := scanRecord(r.db.QueryRow(ctx, query, title))
	if err != nil {
		return model.VaultRecord{}, fmt.Errorf("failed to get record by title: %w", mapError(err))
	}

	return record, nil
}

func (r *RecordRepository) ListByUser(ctx context.Context, userID int64) ([]model.VaultRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM vault_records WHERE user_id = $1 ORDER BY record_id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []model.VaultRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	return records, nil
}

// UpdateData replaces the payload of every record with title and refreshes updated_at.
func (r *RecordRepository) UpdateData(ctx context.Context, title, encryptedData string) error {
	const query = `UPDATE vault_records SET encrypted_data = $1, updated_at = CURRENT_TIMESTAMP WHERE title = $2`
	cmd, err := r.db.Exec(ctx, query, encryptedData, title)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *RecordRepository) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM vault_records WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *RecordRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vault_records WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func (r *RecordRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vault_records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func (r *RecordRepository) DeleteAll(ctx context.Context) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM vault_records`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	return cmd.RowsAffected(), nil
}

// ChecksumByUser returns the pgcrypto SHA-256 hex digest of each of the
// user's payloads in record_id order. Titles may repeat, so every record
// gets its own entry.
func (r *RecordRepository) ChecksumByUser(ctx context.Context, userID int64) ([]model.RecordChecksum, error) {
	const query = `SELECT record_id, title, encode(digest(encrypted_data, 'sha256'), 'hex')
				   FROM vault_records WHERE user_id = $1 ORDER BY record_id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum records: %w", err)
	}
	defer rows.Close()

	sums := []model.RecordChecksum{}
	for rows.Next() {
		var c model.RecordChecksum
		if err := rows.Scan(&c.RecordID, &c.Title, &c.Sum); err != nil {
			return nil, fmt.Errorf("failed to scan checksum: %w", err)
		}
		sums = append(sums, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to checksum records: %w", err)
	}

	return sums, nil
}
