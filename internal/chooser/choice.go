package chooser

import "time"

// State is the last recorded outcome for a question, derived from the
// stored state string.
type State string

const (
	StateUnseen    State = "unseen"
	StateCorrect   State = "correct"
	StateIncorrect State = "incorrect"
	StateUnknown   State = "unknown"
)

// StateFrom maps a stored state string to a State. An absent or
// unrecognized value maps to StateUnknown, never to a guess, so historical
// bad data degrades gracefully in ordering instead of crashing.
func StateFrom(state *string) State {
	if state == nil {
		return StateUnknown
	}
	switch *state {
	case "unseen":
		return StateUnseen
	case "correct":
		return StateCorrect
	case "incorrect":
		return StateIncorrect
	default:
		return StateUnknown
	}
}

// Streaks longer than this saturate rather than widening the stage
// further. 2^30 units is already far beyond any plausible review horizon,
// and saturating keeps the shift from wrapping negative.
const maxStageExponent = 30

// StageFrom computes the stage for a streak: 2^consecutiveCorrect, with
// the exponent clamped to [0, 30].
func StageFrom(consecutiveCorrect int) int {
	if consecutiveCorrect < 0 {
		consecutiveCorrect = 0
	}
	if consecutiveCorrect > maxStageExponent {
		consecutiveCorrect = maxStageExponent
	}
	return 1 << uint(consecutiveCorrect)
}

// Choice is an ephemeral per-question scheduling snapshot used during one
// decision. It is never persisted.
type Choice struct {
	QuestionID         string
	State              State
	Stage              int
	ConsecutiveCorrect int
	AnsweredAt         time.Time
}

// NewChoice builds a choice, deriving the stage from the streak.
func NewChoice(questionID string, answeredAt time.Time, consecutiveCorrect int, state State) Choice {
	return Choice{
		QuestionID:         questionID,
		State:              state,
		Stage:              StageFrom(consecutiveCorrect),
		ConsecutiveCorrect: consecutiveCorrect,
		AnsweredAt:         answeredAt,
	}
}

// ChoiceRow is one row of the left join between a queue's questions and
// last_answers. The answer fields are pointers because a question the user
// has never attempted has no matching row.
type ChoiceRow struct {
	QuestionID               string
	AnswerState              *string
	AnswerAnsweredAt         *time.Time
	AnswerConsecutiveCorrect *int
}

// ToChoice converts a joined row into a choice. A never-attempted question
// becomes an unseen choice with a zero AnsweredAt; availability and
// ordering branch on the state rather than on a synthetic timestamp.
func (r ChoiceRow) ToChoice() Choice {
	if r.AnswerAnsweredAt == nil {
		return NewChoice(r.QuestionID, time.Time{}, 0, StateUnseen)
	}
	consecutiveCorrect := 0
	if r.AnswerConsecutiveCorrect != nil {
		consecutiveCorrect = *r.AnswerConsecutiveCorrect
	}
	return NewChoice(r.QuestionID, *r.AnswerAnsweredAt, consecutiveCorrect, StateFrom(r.AnswerState))
}
