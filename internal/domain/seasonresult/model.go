package seasonresult

import "time"

// Result accumulates one user's settled points for one season.
type Result struct {
	ID        string
	UserID    string
	Season    int
	Points    int
	CreatedAt time.Time
	UpdatedAt time.Time
}
