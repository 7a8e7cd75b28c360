package league

import "fmt"

// League is one competition tracked for predictions. The catalogue is small
// and seeded from configuration.
type League struct {
	ID               string
	Name             string
	ProviderLeagueID int64
	Season           int
	IsDefault        bool
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.ProviderLeagueID <= 0 {
		return fmt.Errorf("league provider id is required")
	}
	if l.Season <= 0 {
		return fmt.Errorf("league season is required")
	}

	return nil
}
