package model

import (
	"context"
	"time"
)

// UserStore defines persistence operations for vault users.
type UserStore interface {
	Create(ctx context.Context, username, email string) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context) ([]User, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// User represents a row of vault_users.
type User struct {
	ID        int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
