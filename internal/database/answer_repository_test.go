package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/munje/internal/chooser"
	"github.com/example/munje/pkg/models"
)

func setupDB(t *testing.T) {
	t.Helper()
	t.Setenv("DB_TYPE", "sqlite")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "test.db"))
	if err := Connect(); err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { Close() })
}

type fixture struct {
	user     *models.User
	queue    *models.Queue
	question *models.Question
}

func seed(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Handle: "fixture", Email: "fixture@example.com"}
	if err := NewUserRepository().Create(ctx, user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	question, err := NewQuestionRepository().Create(ctx, CreateQuestion{
		AuthorID: user.ID,
		Title:    "Longest Substring",
		Text:     "Find the longest substring without repeating characters.",
	})
	if err != nil {
		t.Fatalf("failed to create question: %v", err)
	}
	result, err := NewQueueRepository().FindOrCreate(ctx, user.ID, question.ID)
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	return fixture{user: user, queue: result.Queue, question: question}
}

func TestCandidatesLeftJoin(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	f := seed(t)
	answers := NewAnswerRepository()

	rows, err := answers.Candidates(ctx, f.user.ID, f.queue.ID)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d candidates, want 1", len(rows))
	}
	if rows[0].QuestionID != f.question.ID {
		t.Errorf("candidate question = %s, want %s", rows[0].QuestionID, f.question.ID)
	}
	if rows[0].AnswerState != nil || rows[0].AnswerAnsweredAt != nil || rows[0].AnswerConsecutiveCorrect != nil {
		t.Errorf("never-attempted candidate should have nil answer fields, got %+v", rows[0])
	}

	clock := chooser.NewClock(chooser.Minutes)
	if _, err := answers.RecordAnswer(ctx, f.user.ID, f.queue.ID, f.question.ID, models.AnswerStateCorrect, clock); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	rows, err = answers.Candidates(ctx, f.user.ID, f.queue.ID)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d candidates after answering, want 1", len(rows))
	}
	row := rows[0]
	if row.AnswerState == nil || *row.AnswerState != models.AnswerStateCorrect {
		t.Errorf("candidate state = %v, want correct", row.AnswerState)
	}
	if row.AnswerConsecutiveCorrect == nil || *row.AnswerConsecutiveCorrect != 1 {
		t.Errorf("candidate streak = %v, want 1", row.AnswerConsecutiveCorrect)
	}
	if row.AnswerAnsweredAt == nil || !row.AnswerAnsweredAt.Equal(clock.Now().Truncate(time.Second)) {
		t.Errorf("candidate answered at = %v, want %v", row.AnswerAnsweredAt, clock.Now())
	}

	// Candidates are scoped to the user: another user sees the question as
	// unseen.
	other := &models.User{Handle: "other", Email: "other@example.com"}
	if err := NewUserRepository().Create(ctx, other); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	rows, err = answers.Candidates(ctx, other.ID, f.queue.ID)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(rows) != 1 || rows[0].AnswerState != nil {
		t.Errorf("other user's candidates should be unseen, got %+v", rows)
	}
}

func TestRecordAnswerMovesPointer(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	f := seed(t)
	answers := NewAnswerRepository()
	clock := chooser.NewClock(chooser.Minutes)

	first, err := answers.RecordAnswer(ctx, f.user.ID, f.queue.ID, f.question.ID, models.AnswerStateCorrect, clock)
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	second, err := answers.RecordAnswer(ctx, f.user.ID, f.queue.ID, f.question.ID, models.AnswerStateCorrect, clock)
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if second.ConsecutiveCorrect != 2 || second.Stage != 4 {
		t.Errorf("second answer = streak %d stage %d, want 2 and 4", second.ConsecutiveCorrect, second.Stage)
	}

	pointers, err := answers.LastAnswersForQueue(ctx, f.user.ID, f.queue.ID)
	if err != nil {
		t.Fatalf("LastAnswersForQueue: %v", err)
	}
	if len(pointers) != 1 {
		t.Fatalf("got %d pointers, want 1", len(pointers))
	}
	pointer := pointers[0]
	if pointer.AnswerID != second.ID {
		t.Errorf("pointer references answer %s, want the latest %s", pointer.AnswerID, second.ID)
	}
	if pointer.ConsecutiveCorrect != 2 || pointer.Stage != 4 {
		t.Errorf("pointer = streak %d stage %d, want 2 and 4", pointer.ConsecutiveCorrect, pointer.Stage)
	}

	log, err := answers.AnswersForQueue(ctx, f.user.ID, f.queue.ID)
	if err != nil {
		t.Fatalf("AnswersForQueue: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("answer log has %d rows, want 2", len(log))
	}
	for _, answer := range log {
		if answer.Stage != chooser.StageFrom(answer.ConsecutiveCorrect) {
			t.Errorf("answer %s: stage %d does not match streak %d", answer.ID, answer.Stage, answer.ConsecutiveCorrect)
		}
	}
	if first.ID == second.ID {
		t.Error("log rows should be distinct appends")
	}
}

// Two first attempts racing on the same triple must not both write a
// fresh pointer: the loser's insert has to fail loudly so the retry
// re-reads the winner's committed streak instead of overwriting it.
func TestFirstAttemptRaceLoserRetriesOffWinnersRow(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	f := seed(t)
	answers := NewAnswerRepository()
	clock := chooser.NewClock(chooser.Minutes)

	winner, err := answers.RecordAnswer(ctx, f.user.ID, f.queue.ID, f.question.ID, models.AnswerStateCorrect, clock)
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if winner.ConsecutiveCorrect != 1 {
		t.Fatalf("winner streak = %d, want 1", winner.ConsecutiveCorrect)
	}

	// Replay the statement a losing first attempt issues after the winner
	// commits. It must surface as a retryable conflict, never silently
	// merge into the winner's row.
	_, err = DB.ExecContext(ctx, `
		INSERT INTO last_answers
			(id, user_id, queue_id, question_id, answer_id, state, answered_at,
			 consecutive_correct, stage, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, "loser-pointer", f.user.ID, f.queue.ID, f.question.ID, winner.ID,
		models.AnswerStateCorrect, winner.AnsweredAt, 1, 2, winner.CreatedAt, winner.CreatedAt)
	if err == nil {
		t.Fatal("duplicate pointer insert should fail")
	}
	if !isConflict(err) {
		t.Fatalf("duplicate pointer insert error %v should be retryable", err)
	}

	// The retry reads the committed row and extends its streak rather than
	// starting over at 1.
	retried, err := answers.RecordAnswer(ctx, f.user.ID, f.queue.ID, f.question.ID, models.AnswerStateCorrect, clock)
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if retried.ConsecutiveCorrect != 2 || retried.Stage != 4 {
		t.Errorf("retried answer = streak %d stage %d, want 2 and 4", retried.ConsecutiveCorrect, retried.Stage)
	}

	pointers, err := answers.LastAnswersForQueue(ctx, f.user.ID, f.queue.ID)
	if err != nil {
		t.Fatalf("LastAnswersForQueue: %v", err)
	}
	if len(pointers) != 1 {
		t.Fatalf("got %d pointers, want 1", len(pointers))
	}
	if pointers[0].ConsecutiveCorrect != 2 {
		t.Errorf("pointer streak = %d, want 2", pointers[0].ConsecutiveCorrect)
	}
}

func TestQueueCreateSeedsMembership(t *testing.T) {
	setupDB(t)
	ctx := context.Background()
	f := seed(t)

	questions, err := NewQueueRepository().Questions(ctx, f.queue.ID)
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != f.question.ID {
		t.Fatalf("queue should start with its anchor question, got %+v", questions)
	}

	has, err := NewQueueRepository().HasQuestion(ctx, f.queue.ID, f.question.ID)
	if err != nil {
		t.Fatalf("HasQuestion: %v", err)
	}
	if !has {
		t.Error("anchor question should be in the candidate set")
	}
}
