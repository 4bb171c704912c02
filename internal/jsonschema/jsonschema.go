package jsonschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrUnsupportedType is returned when a Go type has no JSON representation
// (channels, functions, complex numbers).
var ErrUnsupportedType = errors.New("jsonschema: unsupported type")

// Schema is the subset of JSON Schema produced by [Generate].
type Schema struct {
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Format      string   `json:"format,omitempty"`
	Required    []string `json:"required,omitempty"`

	Properties           map[string]*Schema `json:"properties,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`

	Default any   `json:"default,omitempty"`
	Enum    []any `json:"enum,omitempty"`

	Ref  string             `json:"$ref,omitempty"`
	Defs map[string]*Schema `json:"$defs,omitempty"`
}

var timeType = reflect.TypeFor[time.Time]()

// Generate derives the schema of T.
func Generate[T any]() (*Schema, error) {
	return GenerateFor(reflect.TypeFor[T]())
}

// GenerateFor derives the schema of t.
func GenerateFor(t reflect.Type) (*Schema, error) {
	g := &generator{
		active: make(map[reflect.Type]*activeStruct),
		defs:   make(map[string]*Schema),
	}
	schema, err := g.schemaFor(t, true)
	if err != nil {
		return nil, err
	}
	if len(g.defs) > 0 {
		schema.Defs = g.defs
	}
	return schema, nil
}

// MustGenerate is like [Generate] but panics on error. Intended for package
// level tool declarations whose input types are fixed at compile time.
func MustGenerate[T any]() *Schema {
	schema, err := Generate[T]()
	if err != nil {
		panic(err)
	}
	return schema
}

type activeStruct struct {
	ref        string
	referenced bool
}

type generator struct {
	active map[reflect.Type]*activeStruct
	defs   map[string]*Schema
}

func (g *generator) schemaFor(t reflect.Type, root bool) (*Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}, nil
	case reflect.Bool:
		return &Schema{Type: "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}, nil
	case reflect.Interface:
		return &Schema{}, nil
	case reflect.Slice, reflect.Array:
		// encoding/json writes byte slices as base64 strings
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: "string"}, nil
		}
		items, err := g.schemaFor(t.Elem(), false)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items}, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: map key %s", ErrUnsupportedType, t.Key())
		}
		values, err := g.schemaFor(t.Elem(), false)
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "object", AdditionalProperties: values}, nil
	case reflect.Struct:
		if t == timeType {
			return &Schema{Type: "string", Format: "date-time"}, nil
		}
		return g.structSchema(t, root)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
}

// structSchema inlines t unless it refers back to itself, in which case the
// body moves to $defs (or stays at the root, addressed as "#").
func (g *generator) structSchema(t reflect.Type, root bool) (*Schema, error) {
	if a, ok := g.active[t]; ok {
		a.referenced = true
		return &Schema{Ref: a.ref}, nil
	}

	defName := strings.ToLower(t.Name())
	a := &activeStruct{ref: "#/$defs/" + defName}
	if root {
		a.ref = "#"
	}
	if t.Name() != "" {
		g.active[t] = a
		defer delete(g.active, t)
	}

	schema := &Schema{Type: "object", Properties: map[string]*Schema{}}
	if err := g.addFields(schema, t); err != nil {
		return nil, err
	}

	if a.referenced && !root {
		g.defs[defName] = schema
		return &Schema{Ref: a.ref}, nil
	}
	return schema, nil
}

func (g *generator) addFields(schema *Schema, t reflect.Type) error {
	for i := range t.NumField() {
		field := t.Field(i)
		name, omitEmpty, skip := jsonName(field)
		if skip {
			continue
		}

		// untagged embedded structs are flattened by encoding/json
		if field.Anonymous && name == "" {
			embedded := field.Type
			if embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				if err := g.addFields(schema, embedded); err != nil {
					return err
				}
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}

		fieldSchema, err := g.schemaFor(field.Type, false)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}

		requiredByTag := false
		if fieldSchema.Ref == "" {
			requiredByTag, err = applyTag(field.Type, field.Tag.Get("jsonschema"), fieldSchema)
			if err != nil {
				return fmt.Errorf("field %s: %w", field.Name, err)
			}
		}

		schema.Properties[name] = fieldSchema
		if (field.Type.Kind() != reflect.Pointer && !omitEmpty) || requiredByTag {
			schema.Required = append(schema.Required, name)
		}
	}
	return nil
}

func jsonName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	for opt := range strings.SplitSeq(opts, ",") {
		if opt == "omitempty" || opt == "omitzero" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

// applyTag reads a `jsonschema:"description=...,enum=a,enum=b,default=x,required"`
// tag. Descriptions cannot contain commas.
func applyTag(fieldType reflect.Type, tag string, schema *Schema) (bool, error) {
	if tag == "" {
		return false, nil
	}
	for fieldType.Kind() == reflect.Pointer {
		fieldType = fieldType.Elem()
	}

	required := false
	for item := range strings.SplitSeq(tag, ",") {
		key, value, hasValue := strings.Cut(item, "=")
		switch {
		case !hasValue && key == "required":
			required = true
		case key == "description":
			schema.Description = value
		case key == "format":
			schema.Format = value
		case key == "enum":
			v, err := tagValue(fieldType, value)
			if err != nil {
				return false, fmt.Errorf("enum: %w", err)
			}
			schema.Enum = append(schema.Enum, v)
		case key == "default":
			v, err := tagValue(fieldType, value)
			if err != nil {
				return false, fmt.Errorf("default: %w", err)
			}
			schema.Default = v
		}
	}
	return required, nil
}

func tagValue(t reflect.Type, value string) (any, error) {
	switch t.Kind() {
	case reflect.String:
		return value, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.ParseInt(value, 10, 64)
	case reflect.Float32, reflect.Float64:
		return strconv.ParseFloat(value, 64)
	case reflect.Bool:
		return strconv.ParseBool(value)
	default:
		return nil, fmt.Errorf("%w: tag value for %s", ErrUnsupportedType, t)
	}
}

// JSON returns the compact encoding of the schema.
func (s *Schema) JSON() (json.RawMessage, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return b, nil
}

// String returns the JSON encoding, or the marshal error text.
func (s *Schema) String() string {
	b, err := s.JSON()
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

// Compile prepares the schema for validation.
func (s *Schema) Compile() (*Validator, error) {
	raw, err := s.JSON()
	if err != nil {
		return nil, err
	}
	return Compile(raw)
}

// Validator checks JSON documents against a compiled draft 2020-12 schema.
type Validator struct {
	compiled *validator.Schema
}

// Compile compiles a raw JSON schema document.
func Compile(raw json.RawMessage) (*Validator, error) {
	c := validator.NewCompiler()
	c.Draft = validator.Draft2020
	if err := c.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("jsonschema: add resource: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("jsonschema: compile: %w", err)
	}
	return &Validator{compiled: compiled}, nil
}

// Validate decodes input and validates it. Empty input is treated as an empty
// object. The decoded value is returned so callers avoid a second parse.
// Schema violations are returned as *validator.ValidationError.
func (v *Validator) Validate(input []byte) (any, error) {
	var decoded any = map[string]any{}
	if len(bytes.TrimSpace(input)) > 0 {
		if err := json.Unmarshal(input, &decoded); err != nil {
			return nil, err
		}
	}
	if err := v.compiled.Validate(decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}
