package stream

import (
	"encoding/json"
	"strings"

	"github.com/leofalp/chatstream/providers/ai"
)

// AG-UI event types understood by AGUIParser.
const (
	aguiRunStarted         ChunkType = "RUN_STARTED"
	aguiRunFinished        ChunkType = "RUN_FINISHED"
	aguiRunError           ChunkType = "RUN_ERROR"
	aguiTextMessageStart   ChunkType = "TEXT_MESSAGE_START"
	aguiTextMessageContent ChunkType = "TEXT_MESSAGE_CONTENT"
	aguiTextMessageEnd     ChunkType = "TEXT_MESSAGE_END"
	aguiToolCallStart      ChunkType = "TOOL_CALL_START"
	aguiToolCallArgs       ChunkType = "TOOL_CALL_ARGS"
	aguiToolCallEnd        ChunkType = "TOOL_CALL_END"
	aguiStepStarted        ChunkType = "STEP_STARTED"
	aguiStepFinished       ChunkType = "STEP_FINISHED"
	aguiStateSnapshot      ChunkType = "STATE_SNAPSHOT"
	aguiStateDelta         ChunkType = "STATE_DELTA"
	aguiCustom             ChunkType = "CUSTOM"
)

// Names of the CUSTOM events translated by AGUIParser.
const (
	customApprovalRequested  = "approval-requested"
	customToolInputAvailable = "tool-input-available"
)

// AGUIParser translates AG-UI events into canonical chunks and hands every
// other chunk to DefaultParser:
//
//   - RUN_FINISHED becomes done, keeping the finish reason and usage.
//   - RUN_ERROR becomes error.
//   - TEXT_MESSAGE_CONTENT becomes text. The delta is used when set. A full
//     content is reduced to the part not seen yet; content that does not
//     continue the text after a tool call starts a new segment.
//   - TOOL_CALL_START and TOOL_CALL_ARGS become keyed tool-call deltas. Calls
//     get indices in order of appearance; args for an unknown id are dropped.
//   - TOOL_CALL_END becomes tool-call-end.
//   - STEP_FINISHED becomes thinking.
//   - CUSTOM approval-requested and tool-input-available become the chunks
//     of the same name.
//
// Lifecycle and state events carry nothing the processor tracks and are
// dropped. The parser keeps per-stream state; the processor resets it at
// the start of every turn, so one parser must not be shared by concurrent
// streams.
type AGUIParser struct {
	fallback DefaultParser

	ids            map[string]int
	text           string
	toolsSinceText bool
}

// NewAGUIParser returns an AGUIParser ready for its first stream.
func NewAGUIParser() *AGUIParser {
	return &AGUIParser{ids: map[string]int{}}
}

// Reset forgets the tool call ids and text of the previous stream.
func (p *AGUIParser) Reset() {
	clear(p.ids)
	p.text = ""
	p.toolsSinceText = false
}

// Parse implements StreamParser.
func (p *AGUIParser) Parse(raw Chunk) (Chunk, bool) {
	switch raw.Type {
	case aguiRunStarted, aguiTextMessageStart, aguiTextMessageEnd,
		aguiStepStarted, aguiStateSnapshot, aguiStateDelta:
		return Chunk{}, false

	case aguiRunFinished:
		return Chunk{Type: ChunkDone, FinishReason: raw.FinishReason, Usage: raw.Usage, Model: raw.Model}, true

	case aguiRunError:
		chunkErr := raw.Error
		if chunkErr == nil {
			chunkErr = &ChunkError{Message: raw.Content}
		}
		return Chunk{Type: ChunkError, Error: chunkErr, Model: raw.Model}, true

	case aguiTextMessageContent:
		fragment := p.textFragment(raw)
		if fragment == "" {
			return Chunk{}, false
		}
		return Chunk{Type: ChunkText, Content: fragment, Model: raw.Model}, true

	case aguiToolCallStart:
		if raw.ToolCallID == "" {
			return Chunk{}, false
		}
		if _, seen := p.ids[raw.ToolCallID]; seen {
			return Chunk{}, false
		}
		if p.ids == nil {
			p.ids = map[string]int{}
		}
		index := len(p.ids)
		p.ids[raw.ToolCallID] = index
		p.toolsSinceText = true
		return Chunk{
			Type:          ChunkToolCallDelta,
			ToolCallIndex: index,
			ToolCallID:    raw.ToolCallID,
			ToolCall: &ai.ToolCall{
				ID:       raw.ToolCallID,
				Type:     ai.ToolCallTypeFunction,
				Function: ai.ToolCallFunction{Name: raw.ToolName},
			},
			Model: raw.Model,
		}, true

	case aguiToolCallArgs:
		index, ok := p.ids[raw.ToolCallID]
		if !ok {
			return Chunk{}, false
		}
		return Chunk{
			Type:          ChunkToolCallDelta,
			ToolCallIndex: index,
			ToolCallID:    raw.ToolCallID,
			ToolCall:      &ai.ToolCall{Function: ai.ToolCallFunction{Arguments: raw.Delta}},
			Model:         raw.Model,
		}, true

	case aguiToolCallEnd:
		if raw.ToolCallID == "" {
			return Chunk{}, false
		}
		return Chunk{
			Type:       ChunkToolCallEnd,
			ToolCallID: raw.ToolCallID,
			ToolName:   raw.ToolName,
			Input:      raw.Input,
			Result:     raw.Result,
			Model:      raw.Model,
		}, true

	case aguiStepFinished:
		if raw.Delta == "" && raw.Content == "" {
			return Chunk{}, false
		}
		return Chunk{Type: ChunkThinking, Delta: raw.Delta, Content: raw.Content, Model: raw.Model}, true

	case aguiCustom:
		return p.custom(raw)

	default:
		return p.fallback.Parse(raw)
	}
}

// textFragment returns the text a TEXT_MESSAGE_CONTENT event appends.
func (p *AGUIParser) textFragment(raw Chunk) string {
	if p.toolsSinceText && p.text != "" && raw.Content != "" && newSegment(raw.Content, p.text) {
		p.text = ""
		p.toolsSinceText = false
	}

	switch {
	case raw.Delta != "":
		p.text += raw.Delta
		return raw.Delta
	case raw.Content == "":
		return ""
	case strings.HasPrefix(raw.Content, p.text):
		fragment := raw.Content[len(p.text):]
		p.text = raw.Content
		return fragment
	case strings.HasPrefix(p.text, raw.Content):
		return ""
	default:
		p.text += raw.Content
		return raw.Content
	}
}

func newSegment(content, previous string) bool {
	if len(content) < len(previous) {
		return true
	}
	return !strings.HasPrefix(content, previous) && !strings.HasPrefix(previous, content)
}

func (p *AGUIParser) custom(raw Chunk) (Chunk, bool) {
	var chunkType ChunkType
	switch raw.Name {
	case customApprovalRequested:
		chunkType = ChunkApprovalRequested
	case customToolInputAvailable:
		chunkType = ChunkToolInputAvailable
	default:
		return Chunk{}, false
	}

	var value struct {
		ToolCallID string          `json:"toolCallId"`
		ToolName   string          `json:"toolName"`
		Input      json.RawMessage `json:"input"`
		Approval   *Approval       `json:"approval"`
	}
	if err := json.Unmarshal(raw.Value, &value); err != nil || value.ToolCallID == "" {
		return Chunk{}, false
	}
	return Chunk{
		Type:       chunkType,
		ToolCallID: value.ToolCallID,
		ToolName:   value.ToolName,
		Input:      value.Input,
		Approval:   value.Approval,
		Model:      raw.Model,
	}, true
}
