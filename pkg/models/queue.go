package models

// Queue anchors a user's study session to a starting question.
// Identity is the (user_id, starting_question_id) pair: creating a queue
// for a pair that already exists returns the existing record.
type Queue struct {
	ID                 string `json:"id" db:"id"`
	UserID             string `json:"user_id" db:"user_id"`
	StartingQuestionID string `json:"starting_question_id" db:"starting_question_id"`
	CreatedAt          string `json:"created_at" db:"created_at"`
	UpdatedAt          string `json:"updated_at" db:"updated_at"`
}

// QueueQuestion links a question into a queue's candidate set
type QueueQuestion struct {
	ID         string `json:"id" db:"id"`
	QueueID    string `json:"queue_id" db:"queue_id"`
	QuestionID string `json:"question_id" db:"question_id"`
	CreatedAt  string `json:"created_at" db:"created_at"`
}
