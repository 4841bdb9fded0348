package topics

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

// teamColumns is the fixed schema of the teams table
var teamColumns = []string{"id", "name", "country", "logo"}

// TeamsModule lists the teams of one league in a configured season.
// Its sub-filter options are (league id, league name) pairs.
type TeamsModule struct {
	season int
}

// NewTeamsModule creates the teams topic for a season
func NewTeamsModule(season int) *TeamsModule {
	return &TeamsModule{season: season}
}

func (m *TeamsModule) GetTopic() models.Topic {
	return models.TopicTeams
}

func (m *TeamsModule) GetDisplayName() string {
	return models.TopicTeams.Label()
}

func (m *TeamsModule) OptionsEndpoint() string {
	return "/leagues"
}

// ParseOptions returns the distinct (id, name) league pairs in upstream order
func (m *TeamsModule) ParseOptions(records []json.RawMessage) ([]models.SubFilterOption, error) {
	options := []models.SubFilterOption{}
	seen := make(map[models.SubFilterOption]bool)

	for i, raw := range records {
		obj, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("league record %d: %w", i, err)
		}
		league := extractMap(obj, "league")
		opt := models.SubFilterOption{
			Label: extractString(league, "name"),
			Value: extractString(league, "id"),
		}
		if opt.Value == "" || seen[opt] {
			continue
		}
		seen[opt] = true
		options = append(options, opt)
	}
	return options, nil
}

// Endpoint requires a numeric league id
func (m *TeamsModule) Endpoint(subFilter string) (string, error) {
	league := strings.TrimSpace(subFilter)
	if league == "" {
		return "", fmt.Errorf("teams: %w", ErrSubFilterRequired)
	}
	if _, err := strconv.ParseInt(league, 10, 64); err != nil {
		return "", fmt.Errorf("teams: %w: league id %q", ErrInvalidSubFilter, subFilter)
	}

	q := url.Values{}
	q.Set("league", league)
	q.Set("season", strconv.Itoa(m.season))
	return "/teams?" + q.Encode(), nil
}

// ParseTable projects item.team into the id, name, country, logo columns
func (m *TeamsModule) ParseTable(records []json.RawMessage) (*models.Table, error) {
	table := models.NewTable(teamColumns...)
	for i, raw := range records {
		obj, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("team record %d: %w", i, err)
		}
		table.AppendRow(pick(extractMap(obj, "team"), teamColumns))
	}
	return table, nil
}
