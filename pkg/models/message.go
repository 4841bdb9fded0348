package models

import (
	"encoding/json"
	"time"
)

// Message types for WebSocket communication
const (
	// client -> server
	MessageTypeTopicChanged     = "topic_changed"
	MessageTypeSubFilterChanged = "sub_filter_changed"
	MessageTypeCopyRequested    = "copy_requested"
	MessageTypeExportRequested  = "export_requested"
	MessageTypeCellEdited       = "cell_edited"
	MessageTypeRowSelected      = "row_selected"

	// server -> client
	MessageTypeState     = "state"
	MessageTypeClipboard = "clipboard"
	MessageTypeDownload  = "download"
	MessageTypeError     = "error"

	// both directions
	MessageTypeHeartbeat = "heartbeat"
)

// ClientMessage represents a message from client to server.
// The same envelope is accepted by the HTTP events endpoint.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ClipboardPayload asks the browser to place Text on the clipboard
type ClipboardPayload struct {
	Text string `json:"text"`
}

// DownloadPayload carries an export artifact; Data is base64 encoded on the wire.
type DownloadPayload struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	ClientID          string    `json:"client_id"`
	SessionID         string    `json:"session_id"`
	ConnectedAt       time.Time `json:"connected_at"`
	MessagesSent      int64     `json:"messages_sent"`
	MessagesReceived  int64     `json:"messages_received"`
	LastMessageAt     time.Time `json:"last_message_at"`
	BufferSize        int       `json:"buffer_size"`
	BufferUtilization float64   `json:"buffer_utilization"` // Percentage
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON body of every non-2xx HTTP response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
