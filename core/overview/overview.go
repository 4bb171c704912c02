package overview

import (
	"maps"
	"time"

	"github.com/leofalp/chatstream/core/cost"
	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/providers/ai"
)

// Overview aggregates the completed turns of a conversation.
type Overview struct {
	Turns         int            `json:"turns"`
	Usage         ai.Usage       `json:"usage"`
	FinishReasons map[string]int `json:"finish_reasons,omitempty"`
	ToolCalls     map[string]int `json:"tool_calls,omitempty"` // Requested by the model, by name
	ToolRuns      map[string]int `json:"tool_runs,omitempty"`  // Executed on the client, by name
	ToolErrors    int            `json:"tool_errors,omitempty"`
	Streaming     time.Duration  `json:"streaming"` // Summed turn durations
}

// IncludeUsage adds usage to the totals. Nil is ignored.
func (o *Overview) IncludeUsage(usage *ai.Usage) {
	if usage == nil {
		return
	}
	o.Usage.PromptTokens += usage.PromptTokens
	o.Usage.CompletionTokens += usage.CompletionTokens
	o.Usage.TotalTokens += usage.TotalTokens
}

// AddTurn records one finalized turn that took elapsed.
func (o *Overview) AddTurn(result stream.Result, usage *ai.Usage, elapsed time.Duration) {
	o.Turns++
	o.Streaming += elapsed
	o.IncludeUsage(usage)

	if result.FinishReason != "" {
		if o.FinishReasons == nil {
			o.FinishReasons = make(map[string]int)
		}
		o.FinishReasons[result.FinishReason]++
	}
	if len(result.ToolCalls) > 0 && o.ToolCalls == nil {
		o.ToolCalls = make(map[string]int)
	}
	for _, call := range result.ToolCalls {
		o.ToolCalls[call.Function.Name]++
	}
}

// AddToolExecution records one client tool run.
func (o *Overview) AddToolExecution(name string, err error) {
	if o.ToolRuns == nil {
		o.ToolRuns = make(map[string]int)
	}
	o.ToolRuns[name]++
	if err != nil {
		o.ToolErrors++
	}
}

// Cost prices the accumulated usage.
func (o *Overview) Cost(pricing cost.ModelCost) cost.Summary {
	return pricing.Price(o.Usage)
}

// Clone returns a copy whose maps can be mutated independently.
func (o *Overview) Clone() Overview {
	out := *o
	out.FinishReasons = maps.Clone(o.FinishReasons)
	out.ToolCalls = maps.Clone(o.ToolCalls)
	out.ToolRuns = maps.Clone(o.ToolRuns)
	return out
}
