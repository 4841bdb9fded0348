package models

import "time"

// Activity types published for each user interaction
const (
	ActivityTableLoaded   = "table_loaded"
	ActivityLoadFailed    = "load_failed"
	ActivityLinkCopied    = "link_copied"
	ActivityTableExported = "table_exported"
)

// Activity describes one interaction for downstream analytics
type Activity struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id"`
	Topic      Topic     `json:"topic,omitempty"`
	SubFilter  string    `json:"sub_filter,omitempty"`
	APICall    string    `json:"api_call,omitempty"`
	Format     string    `json:"format,omitempty"`
	Rows       int       `json:"rows"`
	OccurredAt time.Time `json:"occurred_at"`
}
