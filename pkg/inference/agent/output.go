package agent

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"

	"github.com/go-go-golems/itinerant/pkg/inference/tools"
)

// OutputTool is a tool the model calls to hand back its final, structured
// answer. Output tools are advertised like regular tools but never executed.
type OutputTool struct {
	Name        string
	Description string
	Type        reflect.Type

	schema *gojsonschema.Schema
}

// NewOutputTool declares an output tool whose arguments decode into T.
func NewOutputTool[T any](name, description string) OutputTool {
	return OutputTool{
		Name:        name,
		Description: description,
		Type:        reflect.TypeOf((*T)(nil)).Elem(),
	}
}

func (o *OutputTool) definition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        o.Name,
		Description: o.Description,
		Parameters:  tools.SchemaFor(o.Type),
		Tags:        []string{"output"},
	}
}

func (o *OutputTool) compile() error {
	raw, err := json.Marshal(tools.SchemaFor(o.Type))
	if err != nil {
		return errors.Wrapf(err, "marshal schema of output %s", o.Name)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return errors.Wrapf(err, "decode schema of output %s", o.Name)
	}
	// gojsonschema only understands drafts up to 7; the reflected keywords are compatible
	delete(doc, "$schema")
	delete(doc, "$id")

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.Wrapf(err, "compile schema of output %s", o.Name)
	}
	o.schema = schema
	return nil
}

// Validate checks args against the reflected schema of the output type.
func (o *OutputTool) Validate(args map[string]any) error {
	if o.schema == nil {
		if err := o.compile(); err != nil {
			return err
		}
	}
	// null means "not provided" for optional fields
	clean := make(map[string]any, len(args))
	for k, v := range args {
		if v != nil {
			clean[k] = v
		}
	}
	res, err := o.schema.Validate(gojsonschema.NewGoLoader(clean))
	if err != nil {
		return errors.Wrap(err, "validate output")
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.Errorf("invalid %s arguments: %s", o.Name, strings.Join(msgs, "; "))
}

// Output is the structured answer the model returned through an output tool.
type Output struct {
	Name string          `json:"name" yaml:"name"`
	Args json.RawMessage `json:"args" yaml:"args"`
	// ValidationError is set when the arguments did not match the schema even
	// after the allowed retries.
	ValidationError string `json:"validation_error,omitempty" yaml:"validation_error,omitempty"`
}

func (o *Output) Valid() bool {
	return o != nil && o.ValidationError == ""
}

// Decode unmarshals the output arguments into v.
func (o *Output) Decode(v any) error {
	if o == nil {
		return errors.New("no output")
	}
	if err := json.Unmarshal(o.Args, v); err != nil {
		return errors.Wrapf(err, "decode %s output", o.Name)
	}
	return nil
}
