package syncstatus

import "time"

const (
	TypeSchedule   = "SCHEDULE"
	TypeLive       = "LIVE"
	TypeSeason     = "SEASON"
	TypeSettlement = "SETTLEMENT"

	StatusRunning   = "RUNNING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Entry is one append-only record of a sync or settlement run.
type Entry struct {
	ID            string
	SyncType      string
	Status        string
	LeagueID      string
	FixturesSeen  int
	FixturesSaved int
	ItemsFailed   int
	Detail        string
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    *time.Time
}
