package postgres

import (
	"context"
	"fmt"

	"github.com/dtroode/vaultqa/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	db *Connection
}

func NewUserRepository(db *Connection) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, username, email string) (model.User, error) {
	query := `INSERT INTO vault_users (username, email)
			  VALUES ($1, $2)
			  RETURNING user_id, username, email, created_at`

	var user model.User
	err := r.db.QueryRow(ctx, query, username, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", mapError(err))
	}

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (model.User, error) {
	var user model.User
	query := `SELECT user_id, username, email, created_at FROM vault_users WHERE user_id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by id: %w", mapError(err))
	}

	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	query := `SELECT user_id, username, email, created_at FROM vault_users WHERE username = $1`

	err := r.db.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by username: %w", mapError(err))
	}

	return user, nil
}

// List returns every user ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT user_id, username, email, created_at FROM vault_users ORDER BY username`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vault_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// Delete removes a user; the user's records go with it.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM vault_users WHERE user_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) DeleteAll(ctx context.Context) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM vault_users`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}
	return cmd.RowsAffected(), nil
}
