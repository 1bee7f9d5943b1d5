package model

import (
	"context"
	"time"
)

// RecordStore defines persistence operations for vault records.
type RecordStore interface {
	Create(ctx context.Context, params CreateRecordParams) (VaultRecord, error)
	GetByTitle(ctx context.Context, title string) (VaultRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]VaultRecord, error)
	UpdateData(ctx context.Context, title, encryptedData string) error
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// VaultRecord represents a row of vault_records.
type VaultRecord struct {
	ID            int64
	UserID        int64
	Title         string
	EncryptedData string
	RecordType    *RecordType
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TypeOrEmpty returns the record type or an empty string when it is unset.
func (r VaultRecord) TypeOrEmpty() string {
	if r.RecordType == nil {
		return ""
	}
	return string(*r.RecordType)
}

// RecordType tags the kind of secret stored in a record.
type RecordType string

const (
	// RecordTypePassword is a stored password.
	RecordTypePassword RecordType = "password"
	// RecordTypeLogin is a login entry.
	RecordTypeLogin RecordType = "login"
	// RecordTypeNote is a free-form note.
	RecordTypeNote RecordType = "note"
)

// Ptr returns a pointer to t, handy for optional record types.
func (t RecordType) Ptr() *RecordType {
	return &t
}

// RecordChecksum is the database-side SHA-256 digest of one record's payload.
type RecordChecksum struct {
	RecordID int64
	Title    string
	Sum      string
}

// CreateRecordParams contains parameters to create a record.
type CreateRecordParams struct {
	UserID        int64
	Title         string
	EncryptedData string
	RecordType    *RecordType
}
