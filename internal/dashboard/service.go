// Package dashboard ties topic modules, the upstream client and the export
// renderer together behind the three dashboard operations.
package dashboard

import (
	"context"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/export"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/providers/apifootball"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/topics"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

// Fetcher is the upstream data source
type Fetcher interface {
	Fetch(ctx context.Context, endpoint string) (*apifootball.Envelope, error)
	URL(endpoint string) string
}

// TopicInfo describes one entry of the topic dropdown
type TopicInfo struct {
	Topic             models.Topic `json:"topic"`
	Label             string       `json:"label"`
	RequiresSubFilter bool         `json:"requires_sub_filter"`
}

// Result is a loaded table together with the URL that produced it
type Result struct {
	Table   *models.Table `json:"table"`
	APICall string        `json:"api_call"`
}

// Service implements the dashboard operations for one upstream
type Service struct {
	registry *topics.Registry
	fetcher  Fetcher
}

// NewService creates a dashboard service
func NewService(registry *topics.Registry, fetcher Fetcher) *Service {
	return &Service{
		registry: registry,
		fetcher:  fetcher,
	}
}

// Topics returns the selectable topics in dropdown order
func (s *Service) Topics() []TopicInfo {
	modules := s.registry.Modules()
	out := make([]TopicInfo, 0, len(modules))
	for _, m := range modules {
		out = append(out, TopicInfo{
			Topic:             m.GetTopic(),
			Label:             m.GetDisplayName(),
			RequiresSubFilter: m.GetTopic().RequiresSubFilter(),
		})
	}
	return out
}

// GetSubOptions returns the second-level dropdown entries for a topic.
// Topics without a sub-filter return an empty list without calling upstream.
func (s *Service) GetSubOptions(ctx context.Context, topic models.Topic) ([]models.SubFilterOption, error) {
	module, err := s.registry.GetModule(topic)
	if err != nil {
		return nil, err
	}

	endpoint := module.OptionsEndpoint()
	if endpoint == "" {
		return []models.SubFilterOption{}, nil
	}

	env, err := s.fetcher.Fetch(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetching %s options: %w", topic, err)
	}

	options, err := module.ParseOptions(env.Response)
	if err != nil {
		return nil, fmt.Errorf("parsing %s options: %w", topic, err)
	}
	return options, nil
}

// LoadTable fetches and projects the table for a selection
func (s *Service) LoadTable(ctx context.Context, topic models.Topic, subFilter string) (*Result, error) {
	module, err := s.registry.GetModule(topic)
	if err != nil {
		return nil, err
	}

	endpoint, err := module.Endpoint(subFilter)
	if err != nil {
		return nil, err
	}

	env, err := s.fetcher.Fetch(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", topic, err)
	}

	table, err := module.ParseTable(env.Response)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", topic, err)
	}

	return &Result{
		Table:   table,
		APICall: s.fetcher.URL(endpoint),
	}, nil
}

// ExportAs renders a table snapshot. An empty table yields export.ErrEmptyTable.
func (s *Service) ExportAs(format export.Format, table *models.Table) (*export.Artifact, error) {
	return export.Render(format, table)
}
