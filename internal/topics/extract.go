package topics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/pkg/models"
)

var (
	// ErrSubFilterRequired is returned when a topic needs a sub-filter and none was given
	ErrSubFilterRequired = errors.New("sub-filter required")
	// ErrInvalidSubFilter is returned when a sub-filter has the wrong shape for its topic
	ErrInvalidSubFilter = errors.New("invalid sub-filter")
)

// decodeValue decodes a JSON value keeping numbers as json.Number
func decodeValue(raw json.RawMessage) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeObject decodes a JSON object keeping numbers as json.Number
func decodeObject(raw json.RawMessage) (map[string]interface{}, error) {
	v, err := decodeValue(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	return obj, nil
}

// objectKeys returns the member names of a JSON object in document order
func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}

	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return keys, nil
}

// extractMap safely extracts a nested object
func extractMap(data map[string]interface{}, key string) map[string]interface{} {
	if val, ok := data[key].(map[string]interface{}); ok {
		return val
	}
	return map[string]interface{}{}
}

// extractString safely extracts a value rendered as text
func extractString(data map[string]interface{}, key string) string {
	return models.CellString(data[key])
}

// pick copies the named fields of obj into a row, in order
func pick(obj map[string]interface{}, fields []string) map[string]interface{} {
	row := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		row[f] = obj[f]
	}
	return row
}
