package serde

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/itinerant/pkg/turns"
)

// NormalizeTurn applies serde defaults (best-effort) without mutating order.
func NormalizeTurn(t *turns.Turn) {
	if t == nil {
		return
	}
	for i := range t.Blocks {
		b := &t.Blocks[i]
		// Ensure payload is non-nil for stability
		if b.Payload == nil {
			b.Payload = map[string]any{}
		}
		if b.Kind == turns.BlockKindLLMText && strings.TrimSpace(b.Role) == "" {
			b.Role = turns.RoleAssistant
		}
	}
}

// ToYAML marshals a Turn to YAML.
func ToYAML(t *turns.Turn) ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	snapshot := t.Clone()
	NormalizeTurn(snapshot)
	return yaml.Marshal(snapshot)
}

// FromYAML unmarshals a Turn from YAML.
func FromYAML(b []byte) (*turns.Turn, error) {
	var t turns.Turn
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, errors.Wrap(err, "decode turn yaml")
	}
	NormalizeTurn(&t)
	return &t, nil
}

// RunToYAML marshals a Run (all of its messages) to YAML.
func RunToYAML(r *turns.Run) ([]byte, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	for i := range r.Messages {
		NormalizeTurn(&r.Messages[i])
	}
	return yaml.Marshal(r)
}

// RunFromYAML unmarshals a Run from YAML.
func RunFromYAML(b []byte) (*turns.Run, error) {
	var r turns.Run
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrap(err, "decode run yaml")
	}
	for i := range r.Messages {
		NormalizeTurn(&r.Messages[i])
	}
	return &r, nil
}

// SaveRunYAML writes a Run to a YAML file.
func SaveRunYAML(path string, r *turns.Run) error {
	data, err := RunToYAML(r)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}

// LoadRunYAML reads a Run from a YAML file.
func LoadRunYAML(path string) (*turns.Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return RunFromYAML(b)
}
