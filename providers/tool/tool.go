package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/leofalp/chatstream/core/partialjson"
	"github.com/leofalp/chatstream/internal/jsonschema"
	"github.com/leofalp/chatstream/providers/ai"
	"github.com/leofalp/chatstream/providers/observability"
)

// Tool binds a name and description to a typed handler. The input schema is
// derived from I; the output is returned to the model as JSON.
type Tool[I, O any] struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Function    func(ctx context.Context, input I) (O, error)

	validator *jsonschema.Validator
}

// GenericTool is the type-erased view of a [Tool] stored in a [Catalog].
type GenericTool interface {
	ToolInfo() ai.ToolDescription

	// Call validates the JSON input, runs the tool and returns its JSON output.
	Call(ctx context.Context, inputJSON string) (string, error)
}

type toolOptions struct {
	description string
}

// Option configures a tool built by [NewTool].
type Option func(*toolOptions)

// WithDescription sets the description advertised to the model.
func WithDescription(description string) Option {
	return func(o *toolOptions) {
		o.description = description
	}
}

// NewTool builds a tool whose input schema is generated from I. It fails when
// I has no JSON schema representation.
//
//	weather, err := tool.NewTool("get_weather", lookupWeather,
//	    tool.WithDescription("Current weather for a city."),
//	)
func NewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), opts ...Option) (*Tool[I, O], error) {
	options := &toolOptions{}
	for _, opt := range opts {
		opt(options)
	}

	schema, err := jsonschema.Generate[I]()
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}
	v, err := schema.Compile()
	if err != nil {
		return nil, fmt.Errorf("tool %s: %w", name, err)
	}

	return &Tool[I, O]{
		Name:        name,
		Description: options.description,
		Parameters:  schema,
		Function:    function,
		validator:   v,
	}, nil
}

// MustNewTool is like [NewTool] but panics on error.
func MustNewTool[I, O any](name string, function func(ctx context.Context, input I) (O, error), opts ...Option) *Tool[I, O] {
	t, err := NewTool(name, function, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// ToolInfo returns the description sent with each request.
func (t *Tool[I, O]) ToolInfo() ai.ToolDescription {
	desc := ai.ToolDescription{
		Name:        t.Name,
		Description: t.Description,
	}
	if t.Parameters != nil {
		if raw, err := t.Parameters.JSON(); err == nil {
			desc.Parameters = raw
		}
	}
	return desc
}

// Call runs the tool on a JSON input. Truncated or slightly malformed input is
// repaired before validation. Schema violations are returned as
// *[ValidationError]; handler errors are returned unchanged.
func (t *Tool[I, O]) Call(ctx context.Context, inputJSON string) (string, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.AddEvent(observability.EventToolExecutionStart,
			observability.String(observability.AttrToolName, t.Name),
			observability.String(observability.AttrToolInput, observability.TruncateStringDefault(inputJSON)),
		)
		defer span.AddEvent(observability.EventToolExecutionEnd)
	}

	input, err := t.decode(inputJSON)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		return "", err
	}

	start := time.Now()
	output, err := t.Function(ctx, input)
	duration := time.Since(start)
	if err != nil {
		if span != nil {
			span.RecordError(err)
			span.SetAttributes(observability.Duration(observability.AttrToolDuration, duration))
		}
		return "", err
	}

	outputBytes, err := json.Marshal(output)
	if err != nil {
		if span != nil {
			span.RecordError(err)
		}
		return "", fmt.Errorf("tool %s: marshal output: %w", t.Name, err)
	}

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrToolOutput, observability.TruncateStringDefault(string(outputBytes))),
			observability.Duration(observability.AttrToolDuration, duration),
		)
	}
	return string(outputBytes), nil
}

func (t *Tool[I, O]) decode(inputJSON string) (I, error) {
	var input I

	raw := []byte(inputJSON)
	if !partialjson.Complete(inputJSON) {
		if recovered := partialjson.Parse(inputJSON); recovered != nil {
			if repaired, err := json.Marshal(recovered); err == nil {
				raw = repaired
			}
		}
	}

	if t.validator != nil {
		if _, err := t.validator.Validate(raw); err != nil {
			return input, &ValidationError{Tool: t.Name, Err: err}
		}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return input, &ValidationError{Tool: t.Name, Err: err}
	}
	return input, nil
}
