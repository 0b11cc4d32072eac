package tools

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Records converts a slice of provider structs into free-form records using
// their JSON representation.
func Records(v any) ([]map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal records")
	}
	out := []map[string]any{}
	if string(b) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrap(err, "unmarshal records")
	}
	return out, nil
}

// Record converts a single provider struct into a free-form record.
func Record(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal record")
	}
	out := map[string]any{}
	if string(b) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, errors.Wrap(err, "unmarshal record")
	}
	return out, nil
}

// ErrorRecord is the soft-failure result handed back to the model.
func ErrorRecord(format string, args ...any) map[string]any {
	return map[string]any{"error": fmt.Sprintf(format, args...)}
}
