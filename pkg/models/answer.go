package models

// Stored answer states. "unsure" records a question the user gave up on.
const (
	AnswerStateCorrect   = "correct"
	AnswerStateIncorrect = "incorrect"
	AnswerStateUnsure    = "unsure"
)

// Answer is one recorded attempt at a question. Rows are append-only:
// once written with a terminal state they are never mutated again, so the
// answers table doubles as an audit log of the user's study history.
type Answer struct {
	ID                 string `json:"id" db:"id"`
	UserID             string `json:"user_id" db:"user_id"`
	QueueID            string `json:"queue_id" db:"queue_id"`
	QuestionID         string `json:"question_id" db:"question_id"`
	State              string `json:"state" db:"state"`
	AnsweredAt         string `json:"answered_at" db:"answered_at"`
	ConsecutiveCorrect int    `json:"consecutive_correct" db:"consecutive_correct"`
	Stage              int    `json:"stage" db:"stage"`
	CreatedAt          string `json:"created_at" db:"created_at"`
}

// LastAnswer is the materialized scheduling pointer: exactly one row per
// (user_id, queue_id, question_id) triple, updated in place on every
// attempt. It is the only record the scheduler reads, so a decision is
// O(candidate questions) rather than O(full answer history).
type LastAnswer struct {
	ID                 string `json:"id" db:"id"`
	UserID             string `json:"user_id" db:"user_id"`
	QueueID            string `json:"queue_id" db:"queue_id"`
	QuestionID         string `json:"question_id" db:"question_id"`
	AnswerID           string `json:"answer_id" db:"answer_id"`
	State              string `json:"state" db:"state"`
	AnsweredAt         string `json:"answered_at" db:"answered_at"`
	ConsecutiveCorrect int    `json:"consecutive_correct" db:"consecutive_correct"`
	Stage              int    `json:"stage" db:"stage"`
	CreatedAt          string `json:"created_at" db:"created_at"`
	UpdatedAt          string `json:"updated_at" db:"updated_at"`
}
