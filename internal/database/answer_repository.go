package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/munje/internal/chooser"
	"github.com/example/munje/pkg/models"
)

// AnswerRepository handles database operations for the answer log and the
// last_answers scheduling pointers
type AnswerRepository struct{}

// NewAnswerRepository creates a new repository instance
func NewAnswerRepository() *AnswerRepository {
	return &AnswerRepository{}
}

// RecordAnswer appends a terminal answer for the (user, queue, question)
// triple and moves its last_answers pointer, in one transaction. The
// streak extends by one on a correct answer and resets to zero otherwise;
// the stage is always 2^streak. A conflicting concurrent write is retried
// once with a fresh read.
func (r *AnswerRepository) RecordAnswer(ctx context.Context, userID, queueID, questionID, state string, clock chooser.Clock) (*models.Answer, error) {
	answer, err := withConflictRetry(func() (*models.Answer, error) {
		return r.recordAnswer(ctx, userID, queueID, questionID, state, clock)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record answer: %v", err)
	}
	return answer, nil
}

func (r *AnswerRepository) recordAnswer(ctx context.Context, userID, queueID, questionID, state string, clock chooser.Clock) (*models.Answer, error) {
	tx, err := DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	answeredAt := formatTime(clock.Now())
	answerID, timestamp := idAndTimestamp()

	// Advance the pointer in a single statement: the streak is computed
	// from the row's current value under the row lock the UPDATE takes,
	// never from an earlier unlocked read, so concurrent attempts at the
	// same triple serialize instead of both extending a stale streak.
	result, err := tx.ExecContext(ctx, `
		UPDATE last_answers SET
			state = $1,
			answered_at = $2,
			consecutive_correct = CASE WHEN $1 = 'correct' THEN consecutive_correct + 1 ELSE 0 END,
			updated_at = $3
		WHERE user_id = $4 AND queue_id = $5 AND question_id = $6
	`, state, answeredAt, timestamp, userID, queueID, questionID)
	if err != nil {
		return nil, err
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if updated == 0 {
		// First attempt at the triple. A concurrent first attempt that
		// commits between our UPDATE and this INSERT surfaces as a
		// uniqueness violation, which the caller retries with a fresh
		// read; the plain INSERT must not paper over it with a conflict
		// clause.
		consecutiveCorrect := 0
		if state == models.AnswerStateCorrect {
			consecutiveCorrect = 1
		}
		stage := chooser.StageFrom(consecutiveCorrect)

		if err := r.appendAnswer(ctx, tx, answerID, userID, queueID, questionID, state, answeredAt, consecutiveCorrect, stage, timestamp); err != nil {
			return nil, err
		}
		lastAnswerID, _ := idAndTimestamp()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO last_answers
				(id, user_id, queue_id, question_id, answer_id, state, answered_at,
				 consecutive_correct, stage, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, lastAnswerID, userID, queueID, questionID, answerID, state, answeredAt,
			consecutiveCorrect, stage, timestamp, timestamp)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return &models.Answer{
			ID:                 answerID,
			UserID:             userID,
			QueueID:            queueID,
			QuestionID:         questionID,
			State:              state,
			AnsweredAt:         answeredAt,
			ConsecutiveCorrect: consecutiveCorrect,
			Stage:              stage,
			CreatedAt:          timestamp,
		}, nil
	}

	// Read the advanced streak back under the lock we still hold, derive
	// the stage, and finish the pointer with the new log entry's id.
	var pointer struct {
		ID                 string `db:"id"`
		ConsecutiveCorrect int    `db:"consecutive_correct"`
	}
	err = tx.GetContext(ctx, &pointer, `
		SELECT id, consecutive_correct FROM last_answers
		WHERE user_id = $1 AND queue_id = $2 AND question_id = $3
	`, userID, queueID, questionID)
	if err != nil {
		return nil, err
	}
	stage := chooser.StageFrom(pointer.ConsecutiveCorrect)

	if err := r.appendAnswer(ctx, tx, answerID, userID, queueID, questionID, state, answeredAt, pointer.ConsecutiveCorrect, stage, timestamp); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE last_answers SET answer_id = $1, stage = $2 WHERE id = $3
	`, answerID, stage, pointer.ID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.Answer{
		ID:                 answerID,
		UserID:             userID,
		QueueID:            queueID,
		QuestionID:         questionID,
		State:              state,
		AnsweredAt:         answeredAt,
		ConsecutiveCorrect: pointer.ConsecutiveCorrect,
		Stage:              stage,
		CreatedAt:          timestamp,
	}, nil
}

func (r *AnswerRepository) appendAnswer(ctx context.Context, tx *sqlx.Tx, answerID, userID, queueID, questionID, state, answeredAt string, consecutiveCorrect, stage int, timestamp string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO answers
			(id, user_id, queue_id, question_id, state, answered_at, consecutive_correct, stage, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, answerID, userID, queueID, questionID, state, answeredAt, consecutiveCorrect, stage, timestamp)
	return err
}

// candidateRow mirrors the left-join columns before timestamp parsing
type candidateRow struct {
	QuestionID         string  `db:"question_id"`
	State              *string `db:"answer_state"`
	AnsweredAt         *string `db:"answer_answered_at"`
	ConsecutiveCorrect *int    `db:"answer_consecutive_correct"`
}

// Candidates returns one row per question in the queue's candidate set,
// left-joined against the user's last_answers. Questions the user never
// attempted come back with nil answer fields.
func (r *AnswerRepository) Candidates(ctx context.Context, userID, queueID string) ([]chooser.ChoiceRow, error) {
	var rows []candidateRow
	err := DB.SelectContext(ctx, &rows, `
		SELECT qq.question_id AS question_id,
		       la.state AS answer_state,
		       la.answered_at AS answer_answered_at,
		       la.consecutive_correct AS answer_consecutive_correct
		FROM queue_questions qq
		LEFT JOIN last_answers la
			ON la.question_id = qq.question_id
			AND la.queue_id = qq.queue_id
			AND la.user_id = $1
		WHERE qq.queue_id = $2
		ORDER BY qq.created_at
	`, userID, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidates: %v", err)
	}

	choiceRows := make([]chooser.ChoiceRow, 0, len(rows))
	for _, row := range rows {
		choiceRow := chooser.ChoiceRow{
			QuestionID:               row.QuestionID,
			AnswerState:              row.State,
			AnswerConsecutiveCorrect: row.ConsecutiveCorrect,
		}
		if row.AnsweredAt != nil {
			answeredAt := parseTime(*row.AnsweredAt)
			choiceRow.AnswerAnsweredAt = &answeredAt
		}
		choiceRows = append(choiceRows, choiceRow)
	}
	return choiceRows, nil
}

// AnswersForQueue returns the full answer log for a user's queue, newest
// first
func (r *AnswerRepository) AnswersForQueue(ctx context.Context, userID, queueID string) ([]models.Answer, error) {
	var answers []models.Answer
	err := DB.SelectContext(ctx, &answers, `
		SELECT * FROM answers
		WHERE user_id = $1 AND queue_id = $2
		ORDER BY created_at DESC
	`, userID, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %v", err)
	}
	return answers, nil
}

// LastAnswersForQueue returns the current scheduling pointers for a user's
// queue
func (r *AnswerRepository) LastAnswersForQueue(ctx context.Context, userID, queueID string) ([]models.LastAnswer, error) {
	var lastAnswers []models.LastAnswer
	err := DB.SelectContext(ctx, &lastAnswers, `
		SELECT * FROM last_answers
		WHERE user_id = $1 AND queue_id = $2
		ORDER BY updated_at DESC
	`, userID, queueID)
	if err != nil {
		return nil, fmt.Errorf("failed to list last answers: %v", err)
	}
	return lastAnswers, nil
}
