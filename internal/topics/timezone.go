package topics

import (
	"encoding/json"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

// TimezoneModule lists the timezones the API accepts
type TimezoneModule struct{}

// NewTimezoneModule creates the timezone topic
func NewTimezoneModule() *TimezoneModule {
	return &TimezoneModule{}
}

func (m *TimezoneModule) GetTopic() models.Topic {
	return models.TopicTimezone
}

func (m *TimezoneModule) GetDisplayName() string {
	return models.TopicTimezone.Label()
}

func (m *TimezoneModule) OptionsEndpoint() string {
	return ""
}

func (m *TimezoneModule) ParseOptions(records []json.RawMessage) ([]models.SubFilterOption, error) {
	return []models.SubFilterOption{}, nil
}

func (m *TimezoneModule) Endpoint(subFilter string) (string, error) {
	return "/timezone", nil
}

// ParseTable builds a single "timezone" column with one row per returned string
func (m *TimezoneModule) ParseTable(records []json.RawMessage) (*models.Table, error) {
	table := models.NewTable("timezone")
	for i, raw := range records {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("timezone record %d: %w", i, err)
		}
		table.AppendRow(map[string]interface{}{"timezone": v})
	}
	return table, nil
}
