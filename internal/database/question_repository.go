package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/munje/pkg/models"
)

// QuestionRepository handles database operations for questions
type QuestionRepository struct{}

// NewQuestionRepository creates a new repository instance
func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{}
}

// CreateQuestion carries the fields needed to create a question
type CreateQuestion struct {
	AuthorID string  `json:"author_id"`
	Title    string  `json:"title"`
	Text     string  `json:"text"`
	Link     *string `json:"link,omitempty"`
	LinkLogo *string `json:"link_logo,omitempty"`
}

// Create inserts a new question. A link question with no text of its own
// gets the standard challenge prompt.
func (r *QuestionRepository) Create(ctx context.Context, create CreateQuestion) (*models.Question, error) {
	id, timestamp := idAndTimestamp()

	text := create.Text
	if text == "" && create.Link != nil {
		text = fmt.Sprintf(
			"Complete the challenge at [this link](%s). When you're done, come back to this question and indicate whether you solved the problem.",
			*create.Link)
	}

	query := `
		INSERT INTO questions (id, author_id, title, text, link, link_logo, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := DB.ExecContext(ctx, query,
		id, create.AuthorID, create.Title, text, create.Link, create.LinkLogo, timestamp, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %v", err)
	}

	return &models.Question{
		ID:        id,
		AuthorID:  create.AuthorID,
		Title:     create.Title,
		Text:      text,
		Link:      create.Link,
		LinkLogo:  create.LinkLogo,
		CreatedAt: timestamp,
		UpdatedAt: timestamp,
	}, nil
}

// FindByID returns the question with the given id, or nil if there is none
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	var question models.Question
	err := DB.GetContext(ctx, &question, "SELECT * FROM questions WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %v", err)
	}
	return &question, nil
}

// All returns every question, newest first
func (r *QuestionRepository) All(ctx context.Context) ([]models.Question, error) {
	var questions []models.Question
	err := DB.SelectContext(ctx, &questions, "SELECT * FROM questions ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %v", err)
	}
	return questions, nil
}
