package jsonschema

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	validator "github.com/santhosh-tekuri/jsonschema/v5"
)

type weatherInput struct {
	City    string   `json:"city" jsonschema:"description=City name"`
	Unit    string   `json:"unit,omitempty" jsonschema:"enum=celsius,enum=fahrenheit,default=celsius"`
	Days    int      `json:"days,omitempty" jsonschema:"required,enum=1,enum=3,enum=7"`
	Verbose *bool    `json:"verbose"`
	Tags    []string `json:"tags,omitempty"`
	secret  string
	Skipped string `json:"-"`
}

type treeNode struct {
	Name     string      `json:"name"`
	Children []*treeNode `json:"children,omitempty"`
}

type forest struct {
	Root  treeNode  `json:"root"`
	Since time.Time `json:"since"`
}

type baseFields struct {
	ID string `json:"id"`
}

type withEmbedded struct {
	baseFields
	Label string `json:"label"`
}

// ========== Generation ==========

func TestGenerate_Primitives(t *testing.T) {
	tests := []struct {
		name     string
		typ      reflect.Type
		expected string
	}{
		{"string", reflect.TypeFor[string](), "string"},
		{"int", reflect.TypeFor[int64](), "integer"},
		{"uint", reflect.TypeFor[uint8](), "integer"},
		{"float", reflect.TypeFor[float32](), "number"},
		{"bool", reflect.TypeFor[bool](), "boolean"},
		{"pointer", reflect.TypeFor[*string](), "string"},
		{"bytes", reflect.TypeFor[[]byte](), "string"},
		{"slice", reflect.TypeFor[[]int](), "array"},
		{"map", reflect.TypeFor[map[string]int](), "object"},
		{"any", reflect.TypeFor[any](), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := GenerateFor(tt.typ)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if schema.Type != tt.expected {
				t.Errorf("expected type %q, got %q", tt.expected, schema.Type)
			}
		})
	}
}

func TestGenerate_StructFieldsAndTags(t *testing.T) {
	schema, err := Generate[weatherInput]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.Type != "object" {
		t.Fatalf("expected object, got %q", schema.Type)
	}

	for _, name := range []string{"city", "unit", "days", "verbose", "tags"} {
		if _, ok := schema.Properties[name]; !ok {
			t.Errorf("expected property %q", name)
		}
	}
	if _, ok := schema.Properties["secret"]; ok {
		t.Error("unexported field should not be a property")
	}
	if _, ok := schema.Properties["Skipped"]; ok {
		t.Error(`json:"-" field should not be a property`)
	}

	// city: plain value; days: tag overrides omitempty. verbose is a pointer.
	expectedRequired := []string{"city", "days"}
	if !reflect.DeepEqual(schema.Required, expectedRequired) {
		t.Errorf("expected required %v, got %v", expectedRequired, schema.Required)
	}

	if got := schema.Properties["city"].Description; got != "City name" {
		t.Errorf("expected description 'City name', got %q", got)
	}
	unit := schema.Properties["unit"]
	if !reflect.DeepEqual(unit.Enum, []any{"celsius", "fahrenheit"}) {
		t.Errorf("unexpected unit enum: %v", unit.Enum)
	}
	if unit.Default != "celsius" {
		t.Errorf("expected default celsius, got %v", unit.Default)
	}
	if !reflect.DeepEqual(schema.Properties["days"].Enum, []any{int64(1), int64(3), int64(7)}) {
		t.Errorf("unexpected days enum: %v", schema.Properties["days"].Enum)
	}
	if items := schema.Properties["tags"].Items; items == nil || items.Type != "string" {
		t.Errorf("expected string items, got %+v", items)
	}
}

func TestGenerate_EnumOnUnsupportedKind(t *testing.T) {
	type bad struct {
		Values []int `json:"values" jsonschema:"enum=1"`
	}
	_, err := Generate[bad]()
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestGenerate_InvalidEnumValue(t *testing.T) {
	type bad struct {
		Count int `json:"count" jsonschema:"enum=many"`
	}
	if _, err := Generate[bad](); err == nil {
		t.Fatal("expected error for non-integer enum value")
	}
}

func TestGenerate_UnsupportedType(t *testing.T) {
	type bad struct {
		Callback func() `json:"callback"`
	}
	_, err := Generate[bad]()
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if !strings.Contains(err.Error(), "Callback") {
		t.Errorf("expected field name in error, got %v", err)
	}
}

func TestGenerate_RootRecursion(t *testing.T) {
	schema, err := Generate[treeNode]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	children := schema.Properties["children"]
	if children.Items == nil || children.Items.Ref != "#" {
		t.Fatalf("expected children items to reference the root, got %+v", children.Items)
	}
	if schema.Defs != nil {
		t.Errorf("expected no $defs, got %v", schema.Defs)
	}
}

func TestGenerate_NestedRecursion(t *testing.T) {
	schema, err := Generate[forest]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := schema.Properties["root"].Ref; got != "#/$defs/treenode" {
		t.Fatalf("expected root to reference $defs, got %q", got)
	}
	def, ok := schema.Defs["treenode"]
	if !ok {
		t.Fatal("expected treenode definition")
	}
	if def.Properties["children"].Items.Ref != "#/$defs/treenode" {
		t.Errorf("expected self reference inside definition, got %+v", def.Properties["children"].Items)
	}
	since := schema.Properties["since"]
	if since.Type != "string" || since.Format != "date-time" {
		t.Errorf("expected date-time string, got %+v", since)
	}
}

func TestGenerate_EmbeddedStructFlattened(t *testing.T) {
	schema, err := Generate[withEmbedded]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := schema.Properties["id"]; !ok {
		t.Error("expected embedded field id to be flattened")
	}
	if _, ok := schema.Properties["baseFields"]; ok {
		t.Error("embedded struct should not appear as a property")
	}
	if !reflect.DeepEqual(schema.Required, []string{"id", "label"}) {
		t.Errorf("unexpected required: %v", schema.Required)
	}
}

func TestSchema_JSON(t *testing.T) {
	schema := MustGenerate[struct {
		Q string `json:"q"`
	}]()
	expected := `{"type":"object","required":["q"],"properties":{"q":{"type":"string"}}}`
	if got := schema.String(); got != expected {
		t.Errorf("expected %s, got %s", expected, got)
	}
}

// ========== Validation ==========

func TestValidator(t *testing.T) {
	v, err := MustGenerate[weatherInput]().Compile()
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", `{"city":"Rome","days":3,"unit":"celsius"}`, false},
		{"optional pointer omitted", `{"city":"Rome","days":1}`, false},
		{"missing required", `{"days":1}`, true},
		{"enum violation", `{"city":"Rome","days":2}`, true},
		{"wrong type", `{"city":42,"days":1}`, true},
		{"empty input is empty object", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate([]byte(tt.input))
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidator_ReturnsDecodedValue(t *testing.T) {
	v, err := Compile([]byte(`{"type":"object"}`))
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	decoded, err := v.Validate(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m, ok := decoded.(map[string]any); !ok || len(m) != 0 {
		t.Errorf("expected empty object, got %#v", decoded)
	}
}

func TestValidator_ErrorType(t *testing.T) {
	v, err := Compile([]byte(`{"type":"object","required":["a"]}`))
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	_, err = v.Validate([]byte(`{}`))
	var ve *validator.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

func TestValidator_MalformedJSON(t *testing.T) {
	v, err := Compile([]byte(`{}`))
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if _, err := v.Validate([]byte(`{"a":`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestValidator_RecursiveSchema(t *testing.T) {
	v, err := MustGenerate[forest]().Compile()
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	valid := `{"root":{"name":"a","children":[{"name":"b"}]},"since":"2024-01-01T00:00:00Z"}`
	if _, err := v.Validate([]byte(valid)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	invalid := `{"root":{"name":"a","children":[{}]},"since":"x"}`
	if _, err := v.Validate([]byte(invalid)); err == nil {
		t.Fatal("expected error for child missing name")
	}
}
