package stream

import "github.com/leofalp/chatstream/providers/ai"

// ToolCallStatus is the lifecycle state of a streamed tool call.
type ToolCallStatus string

const (
	// ToolCallAwaitingInput: the call is known but no argument bytes arrived yet.
	ToolCallAwaitingInput ToolCallStatus = "awaiting-input"
	// ToolCallInputStreaming: argument fragments are arriving.
	ToolCallInputStreaming ToolCallStatus = "input-streaming"
	// ToolCallInputComplete: the arguments are final.
	ToolCallInputComplete ToolCallStatus = "input-complete"
	// ToolCallApprovalRequested: the call waits for user approval.
	ToolCallApprovalRequested ToolCallStatus = "approval-requested"
	// ToolCallApprovalResponded: the user answered the approval request.
	ToolCallApprovalResponded ToolCallStatus = "approval-responded"
)

// Final reports whether the arguments of a call in this state can no longer change.
func (s ToolCallStatus) Final() bool {
	switch s {
	case ToolCallInputComplete, ToolCallApprovalRequested, ToolCallApprovalResponded:
		return true
	}
	return false
}

// ToolResultStatus is the state of a tool result.
type ToolResultStatus string

const (
	ToolResultStreaming ToolResultStatus = "streaming"
	ToolResultComplete  ToolResultStatus = "complete"
	ToolResultError     ToolResultStatus = "error"
)

// ToolCallState is the processor's view of one tool call in the current turn.
type ToolCallState struct {
	Index      int
	ID         string
	Name       string
	Arguments  string // Raw accumulated JSON fragments
	Status     ToolCallStatus
	Parsed     any // Best-effort preview of Arguments
	ApprovalID string
}

// Complete reports whether the call has left the streaming states.
func (s *ToolCallState) Complete() bool {
	return s.Status.Final()
}

// ToolCall returns the call in canonical wire shape.
func (s *ToolCallState) ToolCall() ai.ToolCall {
	return ai.ToolCall{
		ID:   s.ID,
		Type: ai.ToolCallTypeFunction,
		Function: ai.ToolCallFunction{
			Name:      s.Name,
			Arguments: s.Arguments,
		},
	}
}

// maxToolCallIndex bounds the slot slice; deltas above it are dropped.
const maxToolCallIndex = 1 << 10

// tracker stores tool calls in a slice indexed by toolCallIndex. Indices are
// small and dense, so direct addressing replaces a map; order keeps first
// appearance for deterministic completion and result ordering.
type tracker struct {
	slots []*ToolCallState
	order []int
}

func validIndex(index int) bool {
	return index >= 0 && index <= maxToolCallIndex
}

func (t *tracker) get(index int) *ToolCallState {
	if index < 0 || index >= len(t.slots) {
		return nil
	}
	return t.slots[index]
}

func (t *tracker) add(state *ToolCallState) {
	for len(t.slots) <= state.Index {
		t.slots = append(t.slots, nil)
	}
	t.slots[state.Index] = state
	t.order = append(t.order, state.Index)
}

func (t *tracker) byID(id string) *ToolCallState {
	if id == "" {
		return nil
	}
	for _, index := range t.order {
		if state := t.slots[index]; state.ID == id {
			return state
		}
	}
	return nil
}

// pending returns the calls still streaming, in first-appearance order,
// skipping the call at except (use -1 to skip nothing).
func (t *tracker) pending(except int) []*ToolCallState {
	var out []*ToolCallState
	for _, index := range t.order {
		if index == except {
			continue
		}
		if state := t.slots[index]; !state.Complete() {
			out = append(out, state)
		}
	}
	return out
}

func (t *tracker) all() []*ToolCallState {
	out := make([]*ToolCallState, 0, len(t.order))
	for _, index := range t.order {
		out = append(out, t.slots[index])
	}
	return out
}

func (t *tracker) len() int {
	return len(t.order)
}

// toolCalls returns every tracked call in wire shape, or nil when there is none.
func (t *tracker) toolCalls() []ai.ToolCall {
	if len(t.order) == 0 {
		return nil
	}
	out := make([]ai.ToolCall, 0, len(t.order))
	for _, index := range t.order {
		out = append(out, t.slots[index].ToolCall())
	}
	return out
}

func (t *tracker) reset() {
	t.slots = t.slots[:0]
	t.order = t.order[:0]
}
