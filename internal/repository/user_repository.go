package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/schemahub/schemahub/internal/model"
)

// userRepository implements UserRepository over the users table.
type userRepository struct {
	db DB
}

// NewUserRepository creates a new user directory repository.
func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new directory entry.
func (r *userRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, display_name, email, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		user.ID, user.DisplayName, user.Email, user.CreatedAt,
	).Scan(&user.CreatedAt)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	err := r.db.QueryRow(ctx, `
		SELECT id, display_name, email, created_at
		FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.DisplayName, &user.Email, &user.CreatedAt)
	if err != nil {
		if nf := notFound(err, "user", id); nf != nil {
			return model.User{}, nf
		}
		return model.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List retrieves all users.
func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, display_name, email, created_at
		FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.DisplayName, &user.Email, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user rows: %w", err)
	}
	return users, nil
}
