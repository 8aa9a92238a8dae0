package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/munje/pkg/models"
)

// QueueRepository handles database operations for queues and their
// question membership
type QueueRepository struct{}

// NewQueueRepository creates a new repository instance
func NewQueueRepository() *QueueRepository {
	return &QueueRepository{}
}

// CreateResult reports whether FindOrCreate created a new queue
type CreateResult struct {
	Queue   *models.Queue
	Created bool
}

// FindOrCreate returns the queue for the (user, starting question) pair,
// creating it if needed. Creation also seeds the queue's candidate set
// with the starting question, so a queue always has at least one choice.
// A concurrent create for the same pair loses the uniqueness race and
// falls back to reading the winner's row.
func (r *QueueRepository) FindOrCreate(ctx context.Context, userID, startingQuestionID string) (*CreateResult, error) {
	queue, err := r.findByPair(ctx, userID, startingQuestionID)
	if err != nil {
		return nil, err
	}
	if queue != nil {
		return &CreateResult{Queue: queue, Created: false}, nil
	}

	queue, err = r.create(ctx, userID, startingQuestionID)
	if err != nil && isConflict(err) {
		queue, err = r.findByPair(ctx, userID, startingQuestionID)
		if err == nil && queue == nil {
			err = fmt.Errorf("failed to find queue after create conflict")
		}
		if err != nil {
			return nil, err
		}
		return &CreateResult{Queue: queue, Created: false}, nil
	}
	if err != nil {
		return nil, err
	}
	return &CreateResult{Queue: queue, Created: true}, nil
}

func (r *QueueRepository) findByPair(ctx context.Context, userID, startingQuestionID string) (*models.Queue, error) {
	var queue models.Queue
	err := DB.GetContext(ctx, &queue,
		"SELECT * FROM queues WHERE user_id = $1 AND starting_question_id = $2",
		userID, startingQuestionID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue: %v", err)
	}
	return &queue, nil
}

func (r *QueueRepository) create(ctx context.Context, userID, startingQuestionID string) (*models.Queue, error) {
	id, timestamp := idAndTimestamp()

	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO queues (id, user_id, starting_question_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
	`, id, userID, startingQuestionID, timestamp, timestamp)
	if err != nil {
		return nil, err
	}

	membershipID, _ := idAndTimestamp()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO queue_questions (id, queue_id, question_id, created_at)
			VALUES ($1, $2, $3, $4)
	`, membershipID, id, startingQuestionID, timestamp)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.Queue{
		ID:                 id,
		UserID:             userID,
		StartingQuestionID: startingQuestionID,
		CreatedAt:          timestamp,
		UpdatedAt:          timestamp,
	}, nil
}

// FindByID returns the queue with the given id, or nil if there is none
func (r *QueueRepository) FindByID(ctx context.Context, id string) (*models.Queue, error) {
	var queue models.Queue
	err := DB.GetContext(ctx, &queue, "SELECT * FROM queues WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue: %v", err)
	}
	return &queue, nil
}

// AllForUser returns every queue belonging to a user
func (r *QueueRepository) AllForUser(ctx context.Context, userID string) ([]models.Queue, error) {
	var queues []models.Queue
	err := DB.SelectContext(ctx, &queues,
		"SELECT * FROM queues WHERE user_id = $1 ORDER BY created_at", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queues: %v", err)
	}
	return queues, nil
}

// AddQuestion links a question into the queue's candidate set. Adding a
// question that is already in the queue is a no-op.
func (r *QueueRepository) AddQuestion(ctx context.Context, queueID, questionID string) error {
	id, timestamp := idAndTimestamp()
	_, err := DB.ExecContext(ctx, `
		INSERT INTO queue_questions (id, queue_id, question_id, created_at)
			VALUES ($1, $2, $3, $4)
		ON CONFLICT (queue_id, question_id) DO NOTHING
	`, id, queueID, questionID, timestamp)
	if err != nil {
		return fmt.Errorf("failed to add question to queue: %v", err)
	}
	return nil
}

// HasQuestion reports whether the question is in the queue's candidate set
func (r *QueueRepository) HasQuestion(ctx context.Context, queueID, questionID string) (bool, error) {
	var count int
	err := DB.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM queue_questions WHERE queue_id = $1 AND question_id = $2",
		queueID, questionID)
	if err != nil {
		return false, fmt.Errorf("failed to check queue membership: %v", err)
	}
	return count > 0, nil
}

// Questions returns the queue's candidate questions in the order they were
// added
func (r *QueueRepository) Questions(ctx context.Context, queueID string) ([]models.Question, error) {
	var questions []models.Question
	err := DB.SelectContext(ctx, &questions, `
		SELECT q.* FROM questions q
		JOIN queue_questions qq ON qq.question_id = q.id
		WHERE qq.queue_id = $1
		ORDER BY qq.created_at
	`, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue questions: %v", err)
	}
	return questions, nil
}
