// Package queue ties users, queues and questions to the chooser: it
// fetches the candidate set, asks the configured strategy for a decision,
// and records the effect of each attempt.
package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/munje/internal/chooser"
	"github.com/example/munje/internal/database"
	"github.com/example/munje/pkg/models"
)

var (
	// ErrQueueNotFound reports an unknown queue id, or a queue that does
	// not belong to the requesting user.
	ErrQueueNotFound = errors.New("queue: queue not found")
	// ErrQuestionNotFound reports a question that does not exist or is not
	// in the queue's candidate set.
	ErrQuestionNotFound = errors.New("queue: question not found")
	// ErrUnknownOutcome reports an outcome that is not one of the three
	// recognized terminal states.
	ErrUnknownOutcome = errors.New("queue: unknown outcome")
)

// Outcome is a recognized terminal answer state.
type Outcome string

const (
	OutcomeCorrect   Outcome = models.AnswerStateCorrect
	OutcomeIncorrect Outcome = models.AnswerStateIncorrect
	OutcomeTooHard   Outcome = models.AnswerStateUnsure
)

// OutcomeFrom maps a submitted outcome value to its stored state. The
// accepted values are the ones the answer form submits; anything else is
// rejected before it reaches storage.
func OutcomeFrom(value string) (Outcome, error) {
	switch value {
	case "Correct":
		return OutcomeCorrect, nil
	case "Incorrect":
		return OutcomeIncorrect, nil
	case "Too hard":
		return OutcomeTooHard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOutcome, value)
	}
}

// StrategyName selects the queue's ordering policy.
type StrategyName string

const (
	StrategySpacedRepetition StrategyName = "spaced_repetition"
	StrategyRandom           StrategyName = "random"
)

// Service sequences "fetch next question" and "record answer" operations
// for a user's queues.
type Service struct {
	queues    *database.QueueRepository
	questions *database.QuestionRepository
	answers   *database.AnswerRepository
	unit      chooser.TimeUnit
	strategy  StrategyName
}

// NewService creates a service running on the given time unit and
// strategy. An unrecognized strategy name falls back to spaced repetition.
func NewService(unit chooser.TimeUnit, strategy StrategyName) *Service {
	if strategy != StrategyRandom {
		strategy = StrategySpacedRepetition
	}
	return &Service{
		queues:    database.NewQueueRepository(),
		questions: database.NewQuestionRepository(),
		answers:   database.NewAnswerRepository(),
		unit:      unit,
		strategy:  strategy,
	}
}

// Unit returns the service's time unit.
func (s *Service) Unit() chooser.TimeUnit {
	return s.unit
}

// FindOrCreate returns the user's queue anchored at the question, creating
// it on first use.
func (s *Service) FindOrCreate(ctx context.Context, userID, questionID string) (*models.Queue, bool, error) {
	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, false, err
	}
	if question == nil {
		return nil, false, ErrQuestionNotFound
	}

	result, err := s.queues.FindOrCreate(ctx, userID, questionID)
	if err != nil {
		return nil, false, err
	}
	return result.Queue, result.Created, nil
}

// Upcoming is the answer to "what should I study next": either a question
// that is available now, or no question plus the instant one unlocks.
type Upcoming struct {
	Question     *models.Question
	AvailableAt  time.Time
	Availability string
}

// NextQuestion picks the next question for the user's queue under the
// configured strategy.
func (s *Service) NextQuestion(ctx context.Context, userID, queueID string) (*Upcoming, error) {
	queue, err := s.lookupQueue(ctx, userID, queueID)
	if err != nil {
		return nil, err
	}

	rows, err := s.answers.Candidates(ctx, userID, queue.ID)
	if err != nil {
		return nil, err
	}

	clock := chooser.NewClock(s.unit)
	choice, availableAt, err := chooser.NextQuestion(s.buildStrategy(rows, clock))
	if err != nil {
		return nil, err
	}

	if choice == nil {
		return &Upcoming{
			AvailableAt:  availableAt,
			Availability: availability(availableAt.Sub(clock.Now())),
		}, nil
	}

	question, err := s.questions.FindByID(ctx, choice.QuestionID)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, fmt.Errorf("chosen question %s no longer exists", choice.QuestionID)
	}
	return &Upcoming{
		Question:     question,
		AvailableAt:  availableAt,
		Availability: "available now",
	}, nil
}

// AnswerQuestion records a terminal attempt at a question in the queue.
// On failure nothing is advanced: the prior streak and stage stand.
func (s *Service) AnswerQuestion(ctx context.Context, userID, queueID, questionID string, outcome Outcome) (*models.Answer, error) {
	switch outcome {
	case OutcomeCorrect, OutcomeIncorrect, OutcomeTooHard:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutcome, outcome)
	}

	queue, err := s.lookupQueue(ctx, userID, queueID)
	if err != nil {
		return nil, err
	}
	inQueue, err := s.queues.HasQuestion(ctx, queue.ID, questionID)
	if err != nil {
		return nil, err
	}
	if !inQueue {
		return nil, ErrQuestionNotFound
	}

	clock := chooser.NewClock(s.unit)
	return s.answers.RecordAnswer(ctx, userID, queue.ID, questionID, string(outcome), clock)
}

// AddQuestion grows the queue's candidate set.
func (s *Service) AddQuestion(ctx context.Context, userID, queueID, questionID string) error {
	queue, err := s.lookupQueue(ctx, userID, queueID)
	if err != nil {
		return err
	}
	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return err
	}
	if question == nil {
		return ErrQuestionNotFound
	}
	return s.queues.AddQuestion(ctx, queue.ID, questionID)
}

// Answers returns the queue's append-only attempt history, newest first.
func (s *Service) Answers(ctx context.Context, userID, queueID string) ([]models.Answer, error) {
	queue, err := s.lookupQueue(ctx, userID, queueID)
	if err != nil {
		return nil, err
	}
	return s.answers.AnswersForQueue(ctx, userID, queue.ID)
}

func (s *Service) lookupQueue(ctx context.Context, userID, queueID string) (*models.Queue, error) {
	queue, err := s.queues.FindByID(ctx, queueID)
	if err != nil {
		return nil, err
	}
	if queue == nil || queue.UserID != userID {
		return nil, ErrQueueNotFound
	}
	return queue, nil
}

func (s *Service) buildStrategy(rows []chooser.ChoiceRow, clock chooser.Clock) chooser.Strategy {
	if s.strategy == StrategyRandom {
		return chooser.NewRandom(rows, clock)
	}
	return chooser.NewSpacedRepetition(rows, clock)
}

// availability renders an unlock delay as user-facing text.
func availability(wait time.Duration) string {
	if wait <= 0 {
		return "available now"
	}
	switch {
	case wait < time.Hour:
		minutes := int((wait + time.Minute - 1) / time.Minute)
		return fmt.Sprintf("available in %s", plural(minutes, "minute"))
	case wait < 24*time.Hour:
		hours := int((wait + time.Hour - 1) / time.Hour)
		return fmt.Sprintf("available in %s", plural(hours, "hour"))
	default:
		days := int((wait + 24*time.Hour - 1) / (24 * time.Hour))
		return fmt.Sprintf("available in %s", plural(days, "day"))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
