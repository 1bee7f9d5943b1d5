package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dtroode/vaultqa/internal/logger"
	"github.com/dtroode/vaultqa/internal/model"
	"github.com/dtroode/vaultqa/internal/vaultcrypto"
)

// Cipher seals and opens secret payloads.
type Cipher interface {
	Encrypt(plaintext string) (vaultcrypto.Sealed, error)
	Decrypt(ciphertextHex, nonceHex string) (string, error)
}

// Vault implements the JSON request flows a client would drive against the
// vault backend.
type Vault struct {
	userStore   model.UserStore
	recordStore model.RecordStore
	cipher      Cipher
	logger      *logger.Logger
}

func NewVault(
	userStore model.UserStore,
	recordStore model.RecordStore,
	cipher Cipher,
	logger *logger.Logger,
) *Vault {
	return &Vault{
		userStore:   userStore,
		recordStore: recordStore,
		cipher:      cipher,
		logger:      logger,
	}
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type UserResponse struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type CreateRecordRequest struct {
	UserID        int64   `json:"user_id"`
	Title         string  `json:"title"`
	EncryptedData string  `json:"encrypted_data"`
	RecordType    *string `json:"record_type,omitempty"`
}

type RecordResponse struct {
	Title         string  `json:"title"`
	EncryptedData string  `json:"encrypted_data"`
	RecordType    *string `json:"record_type"`
}

type StoreSecretRequest struct {
	UserID     int64
	Title      string
	Plaintext  string
	RecordType model.RecordType
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateUser decodes a user payload, persists it and answers with the stored row.
func (s *Vault) CreateUser(ctx context.Context, payload []byte) ([]byte, error) {
	var req CreateUserRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidPayload, err)
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("%w: username and email are required", model.ErrInvalidPayload)
	}
	s.logger.Debug("parsed user payload", "username", req.Username)

	if _, err := s.userStore.Create(ctx, req.Username, req.Email); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user, err := s.userStore.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	s.logger.Info("user created", "user_id", user.ID)
	return json.Marshal(UserResponse{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// CreateRecord decodes a record payload and persists it. A user_id without a
// matching user yields model.ErrUserNotFound.
func (s *Vault) CreateRecord(ctx context.Context, payload []byte) ([]byte, error) {
	var req CreateRecordRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidPayload, err)
	}
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrInvalidPayload)
	}

	params := model.CreateRecordParams{
		UserID:        req.UserID,
		Title:         req.Title,
		EncryptedData: req.EncryptedData,
	}
	if req.RecordType != nil {
		params.RecordType = model.RecordType(*req.RecordType).Ptr()
	}

	record, err := s.recordStore.Create(ctx, params)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			s.logger.Error("record rejected", "user_id", req.UserID, "error", err)
		}
		return nil, fmt.Errorf("failed to create record: %w", err)
	}

	return json.Marshal(toRecordResponse(record))
}

// ListRecords answers with every record of userID as a JSON array.
func (s *Vault) ListRecords(ctx context.Context, userID int64) ([]byte, error) {
	records, err := s.recordStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	resp := make([]RecordResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, toRecordResponse(r))
	}

	s.logger.Debug("listed records", "user_id", userID, "count", len(resp))
	return json.Marshal(resp)
}

// StoreSecret encrypts the plaintext and stores it as "<nonce>:<ciphertext>".
func (s *Vault) StoreSecret(ctx context.Context, req StoreSecretRequest) (model.VaultRecord, error) {
	sealed, err := s.cipher.Encrypt(req.Plaintext)
	if err != nil {
		return model.VaultRecord{}, fmt.Errorf("failed to encrypt secret: %w", err)
	}

	params := model.CreateRecordParams{
		UserID:        req.UserID,
		Title:         req.Title,
		EncryptedData: vaultcrypto.JoinPayload(sealed.NonceHex, sealed.CiphertextHex),
	}
	if req.RecordType != "" {
		params.RecordType = req.RecordType.Ptr()
	}

	record, err := s.recordStore.Create(ctx, params)
	if err != nil {
		return model.VaultRecord{}, fmt.Errorf("failed to save secret: %w", err)
	}

	return record, nil
}

// RevealSecret reads the record titled title and decrypts its payload.
func (s *Vault) RevealSecret(ctx context.Context, title string) (string, error) {
	record, err := s.recordStore.GetByTitle(ctx, title)
	if err != nil {
		return "", fmt.Errorf("failed to get record by title: %w", err)
	}

	nonceHex, ciphertextHex, err := vaultcrypto.SplitPayload(record.EncryptedData)
	if err != nil {
		return "", fmt.Errorf("failed to parse stored secret: %w", err)
	}

	plaintext, err := s.cipher.Decrypt(ciphertextHex, nonceHex)
	if err != nil {
		s.logger.Error("failed to decrypt secret", "title", title, "error", err)
		return "", fmt.Errorf("failed to decrypt secret: %w", err)
	}

	return plaintext, nil
}

// ErrorResponse renders err as {"error": "..."}.
func ErrorResponse(err error) []byte {
	b, mErr := json.Marshal(errorResponse{Error: err.Error()})
	if mErr != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return b
}

func toRecordResponse(r model.VaultRecord) RecordResponse {
	resp := RecordResponse{
		Title:         r.Title,
		EncryptedData: r.EncryptedData,
	}
	if r.RecordType != nil {
		t := string(*r.RecordType)
		resp.RecordType = &t
	}
	return resp
}
