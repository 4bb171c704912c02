package overview

import (
	"errors"
	"testing"
	"time"

	"github.com/leofalp/chatstream/core/cost"
	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/providers/ai"
)

func TestIncludeUsage(t *testing.T) {
	var o Overview
	o.IncludeUsage(&ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15})
	o.IncludeUsage(nil)
	o.IncludeUsage(&ai.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})

	want := ai.Usage{PromptTokens: 11, CompletionTokens: 7, TotalTokens: 18}
	if o.Usage != want {
		t.Errorf("expected %+v, got %+v", want, o.Usage)
	}
}

func TestAddTurn(t *testing.T) {
	var o Overview
	o.AddTurn(stream.Result{
		FinishReason: "tool_calls",
		ToolCalls: []ai.ToolCall{
			{ID: "a", Function: ai.ToolCallFunction{Name: "calculator"}},
			{ID: "b", Function: ai.ToolCallFunction{Name: "calculator"}},
		},
	}, &ai.Usage{TotalTokens: 4}, 2*time.Second)
	o.AddTurn(stream.Result{Content: "done", FinishReason: "stop"}, nil, time.Second)
	o.AddTurn(stream.Result{}, nil, 0)

	if o.Turns != 3 {
		t.Errorf("expected 3 turns, got %d", o.Turns)
	}
	if o.Streaming != 3*time.Second {
		t.Errorf("expected 3s streaming, got %s", o.Streaming)
	}
	if o.ToolCalls["calculator"] != 2 {
		t.Errorf("expected 2 calculator calls, got %d", o.ToolCalls["calculator"])
	}
	if o.FinishReasons["stop"] != 1 || o.FinishReasons["tool_calls"] != 1 || len(o.FinishReasons) != 2 {
		t.Errorf("unexpected finish reasons %v", o.FinishReasons)
	}
	if o.Usage.TotalTokens != 4 {
		t.Errorf("expected 4 tokens, got %d", o.Usage.TotalTokens)
	}
}

func TestAddToolExecution(t *testing.T) {
	var o Overview
	o.AddToolExecution("calculator", nil)
	o.AddToolExecution("calculator", errors.New("boom"))

	if o.ToolRuns["calculator"] != 2 {
		t.Errorf("expected 2 runs, got %d", o.ToolRuns["calculator"])
	}
	if o.ToolErrors != 1 {
		t.Errorf("expected 1 error, got %d", o.ToolErrors)
	}
}

func TestCost(t *testing.T) {
	o := Overview{Usage: ai.Usage{PromptTokens: 2_000_000, CompletionTokens: 1_000_000}}
	s := o.Cost(cost.ModelCost{InputCostPerMillion: 1, OutputCostPerMillion: 3})
	if s.TotalCost != 5 {
		t.Errorf("expected 5, got %f", s.TotalCost)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	var o Overview
	o.AddToolExecution("calculator", nil)

	clone := o.Clone()
	clone.ToolRuns["calculator"] = 99
	clone.AddToolExecution("search", nil)

	if o.ToolRuns["calculator"] != 1 {
		t.Errorf("expected original to keep 1 run, got %d", o.ToolRuns["calculator"])
	}
	if _, ok := o.ToolRuns["search"]; ok {
		t.Error("expected original not to see clone additions")
	}
}
