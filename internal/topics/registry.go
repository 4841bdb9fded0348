package topics

import (
	"fmt"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

// Registry manages the available topic modules
type Registry struct {
	modules map[models.Topic]contracts.TopicModule
	order   []models.Topic
}

// New creates a registry with every dashboard topic.
// season is the competition year used by the teams topic.
func New(season int) *Registry {
	r := &Registry{
		modules: make(map[models.Topic]contracts.TopicModule),
	}

	r.Register(NewTimezoneModule())
	r.Register(NewCountriesModule())
	r.Register(NewLeaguesModule())
	r.Register(NewTeamsModule(season))

	return r
}

// Register adds a topic module to the registry
func (r *Registry) Register(module contracts.TopicModule) {
	if _, exists := r.modules[module.GetTopic()]; !exists {
		r.order = append(r.order, module.GetTopic())
	}
	r.modules[module.GetTopic()] = module
}

// GetModule retrieves a topic module
func (r *Registry) GetModule(topic models.Topic) (contracts.TopicModule, error) {
	module, ok := r.modules[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownTopic, topic)
	}
	return module, nil
}

// Modules returns the registered modules in registration order
func (r *Registry) Modules() []contracts.TopicModule {
	out := make([]contracts.TopicModule, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.modules[t])
	}
	return out
}
