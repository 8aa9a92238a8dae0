package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/example/munje/pkg/models"
)

func TestIsConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{
			"sqlite uniqueness race",
			errors.New("UNIQUE constraint failed: last_answers.user_id, last_answers.queue_id, last_answers.question_id"),
			true,
		},
		{
			"postgres uniqueness race",
			errors.New(`pq: duplicate key value violates unique constraint "last_answers_user_id_queue_id_question_id_key"`),
			true,
		},
		{
			"postgres serialization failure",
			errors.New("pq: could not serialize access due to concurrent update"),
			true,
		},
		{"sqlite write lock", errors.New("database is locked"), true},
		{
			"wrapped uniqueness race",
			fmt.Errorf("failed to record answer: %v", errors.New("UNIQUE constraint failed: last_answers.user_id")),
			true,
		},
		{"unrelated failure", errors.New("dial tcp 127.0.0.1:5432: connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConflict(tt.err); got != tt.want {
				t.Errorf("isConflict(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithConflictRetrySucceedsOnSecondAttempt(t *testing.T) {
	want := &models.Answer{ID: "retried"}
	calls := 0
	answer, err := withConflictRetry(func() (*models.Answer, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("UNIQUE constraint failed: last_answers.user_id")
		}
		return want, nil
	})
	if err != nil {
		t.Fatalf("withConflictRetry: %v", err)
	}
	if calls != 2 {
		t.Errorf("op ran %d times, want 2", calls)
	}
	if answer != want {
		t.Errorf("answer = %+v, want the second attempt's result", answer)
	}
}

func TestWithConflictRetryGivesUpAfterOneRetry(t *testing.T) {
	conflict := errors.New("pq: could not serialize access due to concurrent update")
	calls := 0
	_, err := withConflictRetry(func() (*models.Answer, error) {
		calls++
		return nil, conflict
	})
	if err != conflict {
		t.Errorf("err = %v, want the conflict to surface", err)
	}
	if calls != 2 {
		t.Errorf("op ran %d times, want exactly 2", calls)
	}
}

func TestWithConflictRetryDoesNotRetryOtherErrors(t *testing.T) {
	broken := errors.New("no such table: last_answers")
	calls := 0
	_, err := withConflictRetry(func() (*models.Answer, error) {
		calls++
		return nil, broken
	})
	if err != broken {
		t.Errorf("err = %v, want %v", err, broken)
	}
	if calls != 1 {
		t.Errorf("op ran %d times, want 1", calls)
	}
}
