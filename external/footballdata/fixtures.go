package footballdata

import (
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/anto2887/prediction-league/internal/usecase"
)

type fixturesEnvelope struct {
	Get      string         `json:"get"`
	Errors   providerErrors `json:"errors"`
	Results  int            `json:"results"`
	Paging   pagingInfo     `json:"paging"`
	Response []fixtureItem  `json:"response"`
}

type pagingInfo struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// providerErrors tolerates both shapes the provider uses: an empty array when
// there is nothing to report and an object of field -> message otherwise.
type providerErrors struct {
	fields map[string]string
}

func (e *providerErrors) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" || trimmed == "[]" || trimmed == "{}" {
		e.fields = nil
		return nil
	}

	var asMap map[string]string
	if err := sonic.Unmarshal(data, &asMap); err == nil {
		e.fields = asMap
		return nil
	}

	var asList []string
	if err := sonic.Unmarshal(data, &asList); err == nil {
		if len(asList) > 0 {
			e.fields = map[string]string{"error": strings.Join(asList, "; ")}
		}
		return nil
	}

	e.fields = map[string]string{"error": trimmed}
	return nil
}

func (e providerErrors) join() string {
	if len(e.fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(e.fields))
	for key := range e.fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+e.fields[key])
	}
	return strings.Join(parts, " ")
}

type fixtureItem struct {
	Fixture struct {
		ID     int64  `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Long    string `json:"long"`
			Short   string `json:"short"`
			Elapsed *int   `json:"elapsed"`
		} `json:"status"`
		Venue struct {
			Name string `json:"name"`
			City string `json:"city"`
		} `json:"venue"`
	} `json:"fixture"`
	League struct {
		ID     int64  `json:"id"`
		Season int    `json:"season"`
		Round  string `json:"round"`
	} `json:"league"`
	Teams struct {
		Home struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

func mapFixtureItem(item fixtureItem) usecase.ExternalFixture {
	return usecase.ExternalFixture{
		ProviderFixtureID: item.Fixture.ID,
		ProviderLeagueID:  item.League.ID,
		Season:            item.League.Season,
		Round:             strings.TrimSpace(item.League.Round),
		HomeTeam:          strings.TrimSpace(item.Teams.Home.Name),
		AwayTeam:          strings.TrimSpace(item.Teams.Away.Name),
		HomeGoals:         item.Goals.Home,
		AwayGoals:         item.Goals.Away,
		StatusShort:       strings.TrimSpace(item.Fixture.Status.Short),
		StatusLong:        strings.TrimSpace(item.Fixture.Status.Long),
		KickoffAt:         parseProviderTime(item.Fixture.Date),
		Venue:             strings.TrimSpace(item.Fixture.Venue.Name),
	}
}

func parseProviderTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05-07:00",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}
