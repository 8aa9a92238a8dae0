package database

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/munje/pkg/models"
)

// Timestamps are stored as RFC 3339 strings, which also sort correctly as
// text.
const timeLayout = time.RFC3339

// idAndTimestamp returns a fresh row id and the current timestamp in the
// stored format.
func idAndTimestamp() (string, string) {
	return uuid.New().String(), time.Now().UTC().Format(timeLayout)
}

// formatTime renders an instant in the stored timestamp format.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads a stored timestamp. Unparsable values come back zero,
// which scheduling treats as maximally overdue.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// isConflict reports whether an error is worth one retry with a fresh
// read: a uniqueness race, a serialization failure, or sqlite's write
// lock.
func isConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "database is locked")
}

// withConflictRetry runs op, retrying it once when the failure looks
// like a concurrent-write conflict. The second attempt starts over with
// a fresh read, so the loser of a race sees the winner's committed row.
func withConflictRetry(op func() (*models.Answer, error)) (*models.Answer, error) {
	answer, err := op()
	if err != nil && isConflict(err) {
		answer, err = op()
	}
	return answer, err
}
