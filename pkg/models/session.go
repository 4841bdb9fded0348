package models

// SessionState is the snapshot of one dashboard session sent to the UI
type SessionState struct {
	SessionID   string            `json:"session_id"`
	Selection   Selection         `json:"selection"`
	SubOptions  []SubFilterOption `json:"sub_options"`
	Table       *Table            `json:"table"`
	APICall     string            `json:"api_call"`
	SelectedRow *int              `json:"selected_row"`
	Version     int64             `json:"version"`
}
