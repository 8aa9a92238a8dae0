package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/munje/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	id, timestamp := idAndTimestamp()
	query := `
		INSERT INTO users (id, handle, email, telegram_chat_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := DB.ExecContext(ctx, query,
		id, user.Handle, user.Email, user.TelegramChatID, timestamp, timestamp)
	if err != nil {
		return fmt.Errorf("failed to create user: %v", err)
	}

	user.ID = id
	user.CreatedAt = timestamp
	user.UpdatedAt = timestamp
	return nil
}

// FindByID returns the user with the given id, or nil if there is none
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := DB.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return &user, nil
}

// FindByHandle returns the user with the given handle, or nil
func (r *UserRepository) FindByHandle(ctx context.Context, handle string) (*models.User, error) {
	var user models.User
	err := DB.GetContext(ctx, &user, "SELECT * FROM users WHERE handle = $1", handle)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return &user, nil
}

// All returns every user
func (r *UserRepository) All(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := DB.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %v", err)
	}
	return users, nil
}

// WithTelegram returns the users who linked a Telegram chat for reminders
func (r *UserRepository) WithTelegram(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := DB.SelectContext(ctx, &users,
		"SELECT * FROM users WHERE telegram_chat_id IS NOT NULL ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list notification users: %v", err)
	}
	return users, nil
}
