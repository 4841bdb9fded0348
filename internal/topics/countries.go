package topics

import (
	"encoding/json"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

// CountriesModule lists every country with its fields verbatim
type CountriesModule struct{}

// NewCountriesModule creates the countries topic
func NewCountriesModule() *CountriesModule {
	return &CountriesModule{}
}

func (m *CountriesModule) GetTopic() models.Topic {
	return models.TopicCountries
}

func (m *CountriesModule) GetDisplayName() string {
	return models.TopicCountries.Label()
}

func (m *CountriesModule) OptionsEndpoint() string {
	return ""
}

func (m *CountriesModule) ParseOptions(records []json.RawMessage) ([]models.SubFilterOption, error) {
	return []models.SubFilterOption{}, nil
}

func (m *CountriesModule) Endpoint(subFilter string) (string, error) {
	return "/countries", nil
}

// ParseTable uses every member of the country records as a column.
// Columns appear in the order first seen across the records.
func (m *CountriesModule) ParseTable(records []json.RawMessage) (*models.Table, error) {
	var columns []string
	seen := make(map[string]bool)
	objects := make([]map[string]interface{}, 0, len(records))

	for i, raw := range records {
		keys, err := objectKeys(raw)
		if err != nil {
			return nil, fmt.Errorf("country record %d: %w", i, err)
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}

		obj, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("country record %d: %w", i, err)
		}
		objects = append(objects, obj)
	}

	table := models.NewTable(columns...)
	for _, obj := range objects {
		table.AppendRow(obj)
	}
	return table, nil
}
