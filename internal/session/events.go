package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/export"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/table"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

var (
	// ErrUnknownEvent is returned for a message type that is not an event
	ErrUnknownEvent = errors.New("unknown event")
	// ErrInvalidPayload is returned when an event payload cannot be decoded
	ErrInvalidPayload = errors.New("invalid event payload")
)

// Event is one UI interaction consumed by Session.Handle
type Event interface {
	Type() string
}

// TopicChanged selects a new topic, resetting everything below it
type TopicChanged struct {
	Topic models.Topic
}

// SubFilterChanged selects a second-level option for the current topic
type SubFilterChanged struct {
	Value string
}

// CopyRequested asks for the current API call URL
type CopyRequested struct{}

// ExportRequested asks for the current table as a file
type ExportRequested struct {
	Format export.Format
}

// CellEdited overwrites one cell of the current table
type CellEdited struct {
	Row    int
	Column string
	Value  interface{}
}

// RowSelected selects one row, or clears the selection when Row is nil
type RowSelected struct {
	Row *int
}

func (TopicChanged) Type() string     { return models.MessageTypeTopicChanged }
func (SubFilterChanged) Type() string { return models.MessageTypeSubFilterChanged }
func (CopyRequested) Type() string    { return models.MessageTypeCopyRequested }
func (ExportRequested) Type() string  { return models.MessageTypeExportRequested }
func (CellEdited) Type() string       { return models.MessageTypeCellEdited }
func (RowSelected) Type() string      { return models.MessageTypeRowSelected }

// DecodeEvent converts a client message into a typed event
func DecodeEvent(msg models.ClientMessage) (Event, error) {
	switch msg.Type {
	case models.MessageTypeTopicChanged:
		var p struct {
			Topic string `json:"topic"`
		}
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		topic, err := models.ParseTopic(p.Topic)
		if err != nil {
			return nil, err
		}
		return TopicChanged{Topic: topic}, nil

	case models.MessageTypeSubFilterChanged:
		var p struct {
			Value json.RawMessage `json:"value"`
		}
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		value, err := optionValue(p.Value)
		if err != nil {
			return nil, err
		}
		return SubFilterChanged{Value: value}, nil

	case models.MessageTypeCopyRequested:
		return CopyRequested{}, nil

	case models.MessageTypeExportRequested:
		var p struct {
			Format string `json:"format"`
		}
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		format, err := export.ParseFormat(p.Format)
		if err != nil {
			return nil, err
		}
		return ExportRequested{Format: format}, nil

	case models.MessageTypeCellEdited:
		var p struct {
			Row    *int        `json:"row"`
			Column string      `json:"column"`
			Value  interface{} `json:"value"`
		}
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		if p.Row == nil || p.Column == "" {
			return nil, fmt.Errorf("%w: row and column are required", ErrInvalidPayload)
		}
		return CellEdited{Row: *p.Row, Column: p.Column, Value: p.Value}, nil

	case models.MessageTypeRowSelected:
		var p struct {
			Row *int `json:"row"`
		}
		if err := decodePayload(msg.Payload, &p); err != nil {
			return nil, err
		}
		return RowSelected{Row: p.Row}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Type)
	}
}

// decodePayload decodes numbers as json.Number so edited cells keep their exact text
func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// optionValue accepts a dropdown value sent as a string or an integer
func optionValue(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s, nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("%w: value must be a string or number", ErrInvalidPayload)
	}
	return n.String(), nil
}

// IsInvalidEvent reports whether err was caused by the event itself rather than the server
func IsInvalidEvent(err error) bool {
	return errors.Is(err, ErrUnknownEvent) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, models.ErrUnknownTopic) ||
		errors.Is(err, export.ErrUnknownFormat) ||
		errors.Is(err, table.ErrRowOutOfRange) ||
		errors.Is(err, table.ErrUnknownColumn)
}
