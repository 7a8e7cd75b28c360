package fixture

import (
	"strings"
	"time"
)

const (
	StatusNotStarted = "NOT_STARTED"
	StatusFirstHalf  = "FIRST_HALF"
	StatusHalftime   = "HALFTIME"
	StatusSecondHalf = "SECOND_HALF"
	StatusExtraTime  = "EXTRA_TIME"
	StatusPenalties  = "PENALTIES"
	StatusFinished   = "FINISHED"
	StatusSuspended  = "SUSPENDED"
	StatusPostponed  = "POSTPONED"
	StatusCancelled  = "CANCELLED"
	StatusAbandoned  = "ABANDONED"
)

// Fixture represents one scheduled match tracked for predictions.
type Fixture struct {
	ID                string
	ProviderFixtureID int64
	LeagueID          string
	Season            int
	Round             string
	HomeTeam          string
	AwayTeam          string
	HomeGoals         *int
	AwayGoals         *int
	Status            string
	KickoffAt         time.Time
	Venue             string
	FinishedAt        *time.Time
	LastSyncedAt      time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusNotStarted
	}
	return status
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFirstHalf, StatusHalftime, StatusSecondHalf, StatusExtraTime, StatusPenalties, "LIVE", "IN_PLAY":
		return true
	default:
		return false
	}
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed, StatusAbandoned:
		return true
	default:
		return false
	}
}

// HasKickedOff reports whether the match has left the pre-kickoff state.
// Cancelled-like fixtures never kick off from the prediction point of view.
func HasKickedOff(status string) bool {
	normalized := NormalizeStatus(status)
	if normalized == StatusNotStarted || IsCancelledLikeStatus(normalized) {
		return false
	}
	return true
}

// statusByShortCode is the single canonical mapping from provider short codes
// to internal statuses. Provider long labels are the fallback.
var statusByShortCode = map[string]string{
	"TBD":  StatusNotStarted,
	"NS":   StatusNotStarted,
	"1H":   StatusFirstHalf,
	"LIVE": StatusFirstHalf,
	"HT":   StatusHalftime,
	"2H":   StatusSecondHalf,
	"ET":   StatusExtraTime,
	"BT":   StatusExtraTime,
	"P":    StatusPenalties,
	"FT":   StatusFinished,
	"AET":  StatusFinished,
	"PEN":  StatusFinished,
	"SUSP": StatusSuspended,
	"INT":  StatusSuspended,
	"PST":  StatusPostponed,
	"CANC": StatusCancelled,
	"ABD":  StatusAbandoned,
	"AWD":  StatusFinished,
	"WO":   StatusFinished,
}

var statusByLongLabel = map[string]string{
	"NOT STARTED":  StatusNotStarted,
	"FIRST HALF":   StatusFirstHalf,
	"HALFTIME":     StatusHalftime,
	"HALF TIME":    StatusHalftime,
	"SECOND HALF":  StatusSecondHalf,
	"EXTRA TIME":   StatusExtraTime,
	"PENALTY":      StatusPenalties,
	"MATCH FINISH": StatusFinished,
	"FINISHED":     StatusFinished,
	"POSTPONED":    StatusPostponed,
	"CANCELLED":    StatusCancelled,
	"ABANDONED":    StatusAbandoned,
	"SUSPENDED":    StatusSuspended,
}

// MapProviderStatus resolves the provider's short code first and falls back to
// a prefix match on the long label. Unknown statuses come back normalized so
// sync can store what it saw instead of dropping the fixture.
func MapProviderStatus(shortCode, longLabel string) string {
	if mapped, ok := statusByShortCode[strings.ToUpper(strings.TrimSpace(shortCode))]; ok {
		return mapped
	}

	label := strings.ToUpper(strings.TrimSpace(longLabel))
	if mapped, ok := statusByLongLabel[label]; ok {
		return mapped
	}
	for prefix, mapped := range statusByLongLabel {
		if strings.HasPrefix(label, prefix) {
			return mapped
		}
	}

	return NormalizeStatus(shortCode)
}
