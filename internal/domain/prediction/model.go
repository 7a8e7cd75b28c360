package prediction

import (
	"errors"
	"strings"
	"time"
)

// ErrNotEditable reports that the stored prediction left an editable status
// between read and write, usually because lock-at-kickoff won the race.
var ErrNotEditable = errors.New("prediction is not editable")

const (
	StatusEditable  = "EDITABLE"
	StatusSubmitted = "SUBMITTED"
	StatusLocked    = "LOCKED"
	StatusProcessed = "PROCESSED"
)

// Prediction is one user's scoreline call for one fixture. A user holds at
// most one prediction per fixture.
type Prediction struct {
	ID          string
	UserID      string
	FixtureID   string
	Season      int
	HomeGoals   int
	AwayGoals   int
	Status      string
	Points      *int
	SubmittedAt *time.Time
	LockedAt    *time.Time
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusEditable
	}
	return status
}

// IsEditableStatus reports whether the prediction can still be changed or
// reset by its owner.
func IsEditableStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusEditable, StatusSubmitted:
		return true
	default:
		return false
	}
}
