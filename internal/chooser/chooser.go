// Package chooser decides which question in a queue to present next.
//
// Questions are produced according to the following rules:
//
//  1. If a question has been asked in the past and is ready to show to the
//     user, the question is shown.
//  2. If a question has never been asked and there are no ready questions
//     that have been attempted before, the new question is shown for the
//     first time.
//  3. A question is ready to show once its stage number of time units has
//     passed since it was last attempted.
//  4. Answering incorrectly resets the streak, which drops the stage back
//     to 1. Answering correctly extends the streak, which doubles the
//     stage.
package chooser

import (
	"errors"
	"log"
	"time"
)

// ErrNoChoices reports a scheduling call over an empty candidate set.
// A queue always contains at least its starting question, so this is a
// data-integrity fault, not an empty-queue condition.
var ErrNoChoices = errors.New("chooser: expected one or more choices")

// TimeUnit is the granularity of repetition intervals. Production queues
// run on days; tests run on minutes to keep fixtures fast.
type TimeUnit int

const (
	Days TimeUnit = iota
	Minutes
)

// Duration returns the length of one unit.
func (u TimeUnit) Duration() time.Duration {
	if u == Minutes {
		return time.Minute
	}
	return 24 * time.Hour
}

// Clock is the source of "now" for one scheduling decision. The instant is
// captured at construction so a single decision stays internally
// consistent even if wall-clock time advances while it is computed.
type Clock struct {
	now  time.Time
	unit TimeUnit
}

// NewClock captures the current instant.
func NewClock(unit TimeUnit) Clock {
	return Clock{now: time.Now().UTC(), unit: unit}
}

// NewClockAt builds a clock fixed at the given instant, for tests.
func NewClockAt(now time.Time, unit TimeUnit) Clock {
	return Clock{now: now.UTC(), unit: unit}
}

// Now returns the captured instant.
func (c Clock) Now() time.Time {
	return c.now
}

// Threshold is the instant availability is compared against.
func (c Clock) Threshold() time.Time {
	return c.now
}

// Unit returns the clock's time unit.
func (c Clock) Unit() TimeUnit {
	return c.unit
}

// Ticks returns now shifted by n units. Used by callers and tests to build
// timelines; the ordering and availability logic never calls it.
func (c Clock) Ticks(n int) time.Time {
	return c.now.Add(time.Duration(n) * c.unit.Duration())
}

// Strategy turns a set of choices into an ordering and an availability
// filter. All three operations are pure functions of the choice list.
type Strategy interface {
	// ToVec returns every candidate in priority order, available or not.
	ToVec() []Choice

	// FilterChoices returns the subset that is currently presentable.
	FilterChoices(choices []Choice) []Choice

	// AvailableAt reports when a choice becomes presentable.
	AvailableAt(choice Choice) time.Time
}

// NextQuestion picks the best available choice under the strategy, or
// reports when the best unavailable one unlocks.
func NextQuestion(s Strategy) (*Choice, time.Time, error) {
	total := s.ToVec()
	available := s.FilterChoices(total)
	log.Printf("Choosing from %d total and %d available choices", len(total), len(available))

	if len(available) > 0 {
		choice := available[0]
		return &choice, s.AvailableAt(choice), nil
	}
	if len(total) > 0 {
		// Nothing ready yet; report when the highest-priority choice
		// unlocks so the caller can say "check back at T".
		return nil, s.AvailableAt(total[0]), nil
	}
	return nil, time.Time{}, ErrNoChoices
}
