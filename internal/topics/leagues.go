package topics

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

// leagueColumns is the fixed schema of the leagues table
var leagueColumns = []string{"id", "name", "type", "logo"}

// LeaguesModule lists the leagues of one country.
// Its sub-filter options are the country names.
type LeaguesModule struct{}

// NewLeaguesModule creates the leagues topic
func NewLeaguesModule() *LeaguesModule {
	return &LeaguesModule{}
}

func (m *LeaguesModule) GetTopic() models.Topic {
	return models.TopicLeagues
}

func (m *LeaguesModule) GetDisplayName() string {
	return models.TopicLeagues.Label()
}

func (m *LeaguesModule) OptionsEndpoint() string {
	return "/countries"
}

// ParseOptions returns the distinct country names in upstream order
func (m *LeaguesModule) ParseOptions(records []json.RawMessage) ([]models.SubFilterOption, error) {
	options := []models.SubFilterOption{}
	seen := make(map[string]bool)

	for i, raw := range records {
		obj, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("country record %d: %w", i, err)
		}
		name := extractString(obj, "name")
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		options = append(options, models.SubFilterOption{Label: name, Value: name})
	}
	return options, nil
}

func (m *LeaguesModule) Endpoint(subFilter string) (string, error) {
	country := strings.TrimSpace(subFilter)
	if country == "" {
		return "", fmt.Errorf("leagues: %w", ErrSubFilterRequired)
	}
	return "/leagues?" + url.Values{"country": {country}}.Encode(), nil
}

// ParseTable projects item.league into the id, name, type, logo columns
func (m *LeaguesModule) ParseTable(records []json.RawMessage) (*models.Table, error) {
	table := models.NewTable(leagueColumns...)
	for i, raw := range records {
		obj, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("league record %d: %w", i, err)
		}
		table.AppendRow(pick(extractMap(obj, "league"), leagueColumns))
	}
	return table, nil
}
