package chooser

import (
	"math/rand"
	"time"
)

// Random is the baseline strategy: every choice is always available and
// the ordering is a fresh uniform permutation on every call.
type Random struct {
	choices []Choice
	clock   Clock
	rnd     *rand.Rand
}

// NewRandom builds the strategy from joined candidate rows.
func NewRandom(rows []ChoiceRow, clock Clock) *Random {
	choices := make([]Choice, 0, len(rows))
	for _, row := range rows {
		choices = append(choices, row.ToChoice())
	}
	return RandomFromChoices(choices, clock)
}

// RandomFromChoices builds the strategy from ready-made choices.
func RandomFromChoices(choices []Choice, clock Clock) *Random {
	return &Random{
		choices: choices,
		clock:   clock,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ToVec returns a full-length permutation of the candidates: every choice
// appears exactly once, in uniformly random order.
func (r *Random) ToVec() []Choice {
	choices := make([]Choice, len(r.choices))
	copy(choices, r.choices)
	r.rnd.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	return choices
}

// FilterChoices treats every choice as available.
func (r *Random) FilterChoices(choices []Choice) []Choice {
	return choices
}

// AvailableAt treats every choice as available now.
func (r *Random) AvailableAt(choice Choice) time.Time {
	return r.clock.Threshold()
}
