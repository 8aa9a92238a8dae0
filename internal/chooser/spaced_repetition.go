package chooser

import (
	"sort"
	"time"
)

// SpacedRepetition is the production strategy: a question becomes
// available again stage time-units after it was last answered, and weaker
// material is prioritized over material with longer streaks.
type SpacedRepetition struct {
	choices []Choice
	clock   Clock
}

// NewSpacedRepetition builds the strategy from joined candidate rows.
func NewSpacedRepetition(rows []ChoiceRow, clock Clock) *SpacedRepetition {
	choices := make([]Choice, 0, len(rows))
	for _, row := range rows {
		choices = append(choices, row.ToChoice())
	}
	return SpacedRepetitionFromChoices(choices, clock)
}

// SpacedRepetitionFromChoices builds the strategy from ready-made choices.
func SpacedRepetitionFromChoices(choices []Choice, clock Clock) *SpacedRepetition {
	return &SpacedRepetition{choices: choices, clock: clock}
}

// AvailableAt returns when the choice becomes presentable: the instant it
// was last answered plus stage time-units. An unseen question is
// presentable immediately.
func (s *SpacedRepetition) AvailableAt(choice Choice) time.Time {
	if choice.State == StateUnseen {
		return s.clock.Threshold()
	}
	return choice.AnsweredAt.Add(time.Duration(choice.Stage) * s.clock.Unit().Duration())
}

func (s *SpacedRepetition) available(choice Choice) bool {
	return !s.AvailableAt(choice).After(s.clock.Threshold())
}

// ToVec orders all candidates by priority: ascending streak length, so
// weaker and newer material comes first, then descending overdueness, so
// among equal streaks the longest-waiting question wins. An unseen choice
// has a zero AnsweredAt and therefore maximal overdueness.
func (s *SpacedRepetition) ToVec() []Choice {
	choices := make([]Choice, len(s.choices))
	copy(choices, s.choices)

	// The last_answers table holds one row per question, but defend
	// against duplicates anyway: keep the most recently answered row.
	sort.SliceStable(choices, func(i, j int) bool {
		if choices[i].QuestionID != choices[j].QuestionID {
			return choices[i].QuestionID < choices[j].QuestionID
		}
		return choices[i].AnsweredAt.After(choices[j].AnsweredAt)
	})
	deduped := choices[:0]
	for _, c := range choices {
		if len(deduped) == 0 || deduped[len(deduped)-1].QuestionID != c.QuestionID {
			deduped = append(deduped, c)
		}
	}
	choices = deduped

	sort.SliceStable(choices, func(i, j int) bool {
		if choices[i].ConsecutiveCorrect != choices[j].ConsecutiveCorrect {
			return choices[i].ConsecutiveCorrect < choices[j].ConsecutiveCorrect
		}
		return choices[i].AnsweredAt.Before(choices[j].AnsweredAt)
	})
	return choices
}

// FilterChoices keeps the candidates that are presentable now.
func (s *SpacedRepetition) FilterChoices(choices []Choice) []Choice {
	filtered := make([]Choice, 0, len(choices))
	for _, c := range choices {
		if s.available(c) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
