package models

// User represents a registered user
type User struct {
	ID             string `json:"id" db:"id"`
	Handle         string `json:"handle" db:"handle"`
	Email          string `json:"email" db:"email"`
	TelegramChatID *int64 `json:"telegram_chat_id,omitempty" db:"telegram_chat_id"` // Set when the user linked a Telegram chat for reminders
	CreatedAt      string `json:"created_at" db:"created_at"`
	UpdatedAt      string `json:"updated_at" db:"updated_at"`
}
