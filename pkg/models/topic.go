package models

import (
	"errors"
	"fmt"
	"strings"
)

// Topic is the top-level category the user browses.
type Topic string

const (
	TopicTimezone  Topic = "timezone"
	TopicCountries Topic = "countries"
	TopicLeagues   Topic = "leagues"
	TopicTeams     Topic = "teams"
)

// ErrUnknownTopic is returned for any topic outside the fixed set.
var ErrUnknownTopic = errors.New("unknown topic")

// AllTopics returns the topics in dropdown order.
func AllTopics() []Topic {
	return []Topic{TopicTimezone, TopicCountries, TopicLeagues, TopicTeams}
}

// ParseTopic validates a topic string
func ParseTopic(s string) (Topic, error) {
	t := Topic(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllTopics() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTopic, s)
}

// Label is the display name shown in the topic dropdown.
func (t Topic) Label() string {
	switch t {
	case TopicTimezone:
		return "Timezone"
	case TopicCountries:
		return "Countries"
	case TopicLeagues:
		return "Leagues"
	case TopicTeams:
		return "Teams"
	default:
		return string(t)
	}
}

// RequiresSubFilter reports whether the topic has a second-level selector
func (t Topic) RequiresSubFilter() bool {
	return t == TopicLeagues || t == TopicTeams
}

// SubFilterOption is one entry of the dependent dropdown.
// Value carries league ids in decimal form for the teams topic.
type SubFilterOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Selection is the pair of dropdown values for a session
type Selection struct {
	Topic     Topic  `json:"topic,omitempty"`
	SubFilter string `json:"sub_filter,omitempty"`
}

// IsEmpty reports whether no topic has been chosen yet.
func (s Selection) IsEmpty() bool {
	return s.Topic == ""
}
