package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leofalp/chatstream/providers/observability"
)

type greetInput struct {
	Name  string `json:"name" jsonschema:"description=Who to greet"`
	Times int    `json:"times,omitempty"`
}

type greetOutput struct {
	Greeting string `json:"greeting"`
}

func greet(_ context.Context, in greetInput) (greetOutput, error) {
	times := max(in.Times, 1)
	return greetOutput{Greeting: strings.TrimSpace(strings.Repeat("hello "+in.Name+" ", times))}, nil
}

type eventSpan struct {
	events []string
	errs   []error
}

func (s *eventSpan) End()                                               {}
func (s *eventSpan) SetAttributes(...observability.Attribute)           {}
func (s *eventSpan) SetStatus(observability.StatusCode, string)         {}
func (s *eventSpan) RecordError(err error)                              { s.errs = append(s.errs, err) }
func (s *eventSpan) AddEvent(name string, _ ...observability.Attribute) { s.events = append(s.events, name) }

// ========== NewTool ==========

func TestNewTool_Info(t *testing.T) {
	g, err := NewTool("greet", greet, WithDescription("Greets someone"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info := g.ToolInfo()
	if info.Name != "greet" {
		t.Errorf("expected name greet, got %q", info.Name)
	}
	if info.Description != "Greets someone" {
		t.Errorf("expected description, got %q", info.Description)
	}
	if !strings.Contains(string(info.Parameters), `"required":["name"]`) {
		t.Errorf("expected name to be required, got %s", info.Parameters)
	}
}

func TestNewTool_UnsupportedInput(t *testing.T) {
	type bad struct {
		Fn func() `json:"fn"`
	}
	_, err := NewTool("bad", func(context.Context, bad) (string, error) { return "", nil })
	if err == nil {
		t.Fatal("expected schema generation error")
	}
	if !strings.Contains(err.Error(), "tool bad") {
		t.Errorf("expected tool name in error, got %v", err)
	}
}

// ========== Call ==========

func TestCall_Success(t *testing.T) {
	g := MustNewTool("greet", greet)

	out, err := g.Call(context.Background(), `{"name":"ada"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"greeting":"hello ada"}` {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestCall_RepairsTruncatedInput(t *testing.T) {
	g := MustNewTool("greet", greet)

	out, err := g.Call(context.Background(), `{"name":"ada`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"greeting":"hello ada"}` {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestCall_ValidationError(t *testing.T) {
	g := MustNewTool("greet", greet)

	tests := []struct {
		name  string
		input string
	}{
		{"missing required", `{"times":2}`},
		{"wrong type", `{"name":5}`},
		{"empty input", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Call(context.Background(), tt.input)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			if ve.Tool != "greet" {
				t.Errorf("expected tool greet, got %q", ve.Tool)
			}
		})
	}
}

func TestCall_HandlerError(t *testing.T) {
	boom := errors.New("boom")
	g := MustNewTool("fail", func(context.Context, greetInput) (greetOutput, error) {
		return greetOutput{}, boom
	})

	_, err := g.Call(context.Background(), `{"name":"x"}`)
	if !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		t.Error("handler error should not be a ValidationError")
	}
}

func TestCall_SpanEvents(t *testing.T) {
	span := &eventSpan{}
	ctx := observability.ContextWithSpan(context.Background(), span)

	if _, err := MustNewTool("greet", greet).Call(ctx, `{"name":"ada"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []string{observability.EventToolExecutionStart, observability.EventToolExecutionEnd}
	if len(span.events) != 2 || span.events[0] != expected[0] || span.events[1] != expected[1] {
		t.Errorf("expected events %v, got %v", expected, span.events)
	}
	if len(span.errs) != 0 {
		t.Errorf("expected no recorded errors, got %v", span.errs)
	}
}
