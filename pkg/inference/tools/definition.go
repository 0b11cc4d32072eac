package tools

import (
	"context"
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrInvalidInput marks errors caused by arguments the caller (usually the
// model) supplied. Tool functions wrap it so the executor can report the
// failure back to the model instead of aborting the run.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputf returns an error wrapping ErrInvalidInput.
func InvalidInputf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidInput, format, args...)
}

// ToolDefinition represents a tool that can be called by AI models
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
	Function    ToolFunc           `json:"-"`
	Tags        []string           `json:"tags,omitempty"`
}

// ToolFunc wraps the reflected Go function backing a tool.
type ToolFunc struct {
	Fn         interface{}
	call       func(context.Context, []byte) (interface{}, error)
	inputType  reflect.Type
	outputType reflect.Type
}

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// NewToolFromFunc creates a ToolDefinition from a Go function.
//
// Supported signatures are func(In) Out, func(In) (Out, error),
// func(context.Context, In) (Out, error) and func(context.Context) (Out, error).
func NewToolFromFunc(name, description string, fn interface{}) (*ToolDefinition, error) {
	funcType := reflect.TypeOf(fn)
	if funcType == nil || funcType.Kind() != reflect.Func {
		return nil, errors.Errorf("tool %s: provided value is not a function", name)
	}

	if funcType.NumOut() == 0 || funcType.NumOut() > 2 {
		return nil, errors.Errorf("tool %s: function must return (result) or (result, error)", name)
	}
	if funcType.NumOut() == 2 && !funcType.Out(1).Implements(errorType) {
		return nil, errors.Errorf("tool %s: second return value must be an error", name)
	}

	inType, takesCtx, err := inputTypeOf(funcType)
	if err != nil {
		return nil, errors.Wrapf(err, "tool %s", name)
	}

	schema := SchemaFor(inType)

	return &ToolDefinition{
		Name:        name,
		Description: description,
		Parameters:  schema,
		Function: ToolFunc{
			Fn:         fn,
			call:       newCaller(reflect.ValueOf(fn), inType, takesCtx),
			inputType:  inType,
			outputType: funcType.Out(0),
		},
	}, nil
}

func inputTypeOf(funcType reflect.Type) (reflect.Type, bool, error) {
	switch funcType.NumIn() {
	case 0:
		return nil, false, nil
	case 1:
		if funcType.In(0) == contextType {
			return nil, true, nil
		}
		return funcType.In(0), false, nil
	case 2:
		if funcType.In(0) != contextType {
			return nil, false, errors.New("two-arg tool function must be (context.Context, Input)")
		}
		return funcType.In(1), true, nil
	default:
		return nil, false, errors.Errorf("unsupported tool function signature: numIn=%d", funcType.NumIn())
	}
}

// SchemaFor reflects the JSON schema of a Go type with definitions inlined.
// A nil type yields an empty object schema.
func SchemaFor(t reflect.Type) *jsonschema.Schema {
	if t == nil {
		return &jsonschema.Schema{Type: "object"}
	}
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := reflector.ReflectFromType(t)
	// OpenAI requires an object at the root
	if schema.Type == "" && schema.Ref == "" {
		schema.Type = "object"
	}
	return schema
}

func newCaller(fnValue reflect.Value, inType reflect.Type, takesCtx bool) func(context.Context, []byte) (interface{}, error) {
	return func(ctx context.Context, args []byte) (interface{}, error) {
		in := make([]reflect.Value, 0, 2)
		if takesCtx {
			if ctx == nil {
				ctx = context.Background()
			}
			in = append(in, reflect.ValueOf(ctx))
		}
		if inType != nil {
			input := reflect.New(inType)
			if len(args) > 0 {
				if err := json.Unmarshal(args, input.Interface()); err != nil {
					log.Debug().Err(err).Str("input_type", inType.String()).Str("args", string(args)).
						Msg("tools: failed to unmarshal arguments")
					return nil, errors.Wrapf(ErrInvalidInput, "failed to unmarshal arguments: %v", err)
				}
			}
			in = append(in, input.Elem())
		}
		return extractResults(fnValue.Call(in))
	}
}

// Execute calls the tool function with a background context.
func (tf *ToolFunc) Execute(args []byte) (interface{}, error) {
	return tf.ExecuteWithContext(context.Background(), args)
}

// ExecuteWithContext calls the tool function, passing ctx when the function accepts one.
func (tf *ToolFunc) ExecuteWithContext(ctx context.Context, args []byte) (interface{}, error) {
	if tf.call == nil {
		return nil, errors.New("tool function not properly initialized")
	}
	return tf.call(ctx, args)
}

func extractResults(results []reflect.Value) (interface{}, error) {
	switch len(results) {
	case 1:
		return results[0].Interface(), nil
	case 2:
		result := results[0].Interface()
		if results[1].IsNil() {
			return result, nil
		}
		return result, results[1].Interface().(error)
	default:
		return nil, errors.Errorf("unexpected number of return values: %d", len(results))
	}
}

// ToolCall represents a request to execute a tool
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult represents the result of a tool execution
type ToolResult struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Result   interface{}   `json:"result"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}
