package trace

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatYAML:
		return Format(s), nil
	default:
		return "", errors.Errorf("unknown trace format %q (expected json or yaml)", s)
	}
}

// Encode writes spans to w. A nil slice is written as an empty list.
func Encode(w io.Writer, spans []Span, f Format) error {
	if spans == nil {
		spans = []Span{}
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(spans), "encode trace json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(spans); err != nil {
			return errors.Wrap(err, "encode trace yaml")
		}
		return errors.Wrap(enc.Close(), "encode trace yaml")
	default:
		return errors.Errorf("unknown trace format %q", f)
	}
}

// Decode reads spans from r and checks that every part carries exactly one tag.
func Decode(r io.Reader, f Format) ([]Span, error) {
	var spans []Span
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&spans); err != nil {
			return nil, errors.Wrap(err, "decode trace json")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&spans); err != nil && err != io.EOF {
			return nil, errors.Wrap(err, "decode trace yaml")
		}
	default:
		return nil, errors.Errorf("unknown trace format %q", f)
	}
	for i, s := range spans {
		if s.SpanID != i {
			return nil, errors.Errorf("span %d has span_id %d", i, s.SpanID)
		}
		for j, p := range s.Messages {
			if p.Kind() == "" {
				return nil, errors.Wrapf(ErrUnknownPart, "span %d, part %d", i, j)
			}
		}
	}
	if spans == nil {
		spans = []Span{}
	}
	return spans, nil
}
