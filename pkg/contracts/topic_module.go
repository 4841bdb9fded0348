package contracts

import (
	"encoding/json"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

// TopicModule is the pluggable interface behind each dashboard topic.
// Modules never perform I/O; they map selections to upstream paths and
// project upstream records into dropdown options and tables.
type TopicModule interface {
	// Identification
	GetTopic() models.Topic
	GetDisplayName() string

	// OptionsEndpoint is the upstream path feeding the sub-filter dropdown.
	// Empty when the topic has no second-level filter.
	OptionsEndpoint() string
	ParseOptions(records []json.RawMessage) ([]models.SubFilterOption, error)

	// Endpoint is the upstream path for a table load with the given sub-filter
	Endpoint(subFilter string) (string, error)
	ParseTable(records []json.RawMessage) (*models.Table, error)
}
