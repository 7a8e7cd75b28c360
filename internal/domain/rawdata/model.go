package rawdata

import "time"

// Payload is one provider response kept for audit. The hash deduplicates
// repeated identical responses.
type Payload struct {
	Source      string
	Endpoint    string
	LeagueID    string
	PayloadJSON string
	PayloadHash string
	FetchedAt   time.Time
}
