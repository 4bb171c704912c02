package stream

// StreamParser translates raw chunks, possibly in a legacy shape, into
// canonical chunks. It returns false for chunks that should be dropped.
type StreamParser interface {
	Parse(raw Chunk) (Chunk, bool)
}

// ParserFunc adapts a function to StreamParser.
type ParserFunc func(raw Chunk) (Chunk, bool)

// Parse calls f.
func (f ParserFunc) Parse(raw Chunk) (Chunk, bool) {
	return f(raw)
}

// PassthroughParser forwards every chunk unchanged.
type PassthroughParser struct{}

// Parse returns raw unchanged.
func (PassthroughParser) Parse(raw Chunk) (Chunk, bool) {
	return raw, true
}

// DefaultParser passes canonical chunks through and translates the legacy
// shapes:
//
//   - {type:"content", content} becomes a text chunk; empty content is dropped.
//   - {type:"tool_call", index, toolCall} becomes a tool-call-delta, taking
//     the index from "index" when present, else from "toolCallIndex".
//   - {type:"tool_result"} becomes a tool-result chunk.
//
// Any other type is forwarded so that the processor can ignore it.
type DefaultParser struct{}

// Parse implements StreamParser.
func (DefaultParser) Parse(raw Chunk) (Chunk, bool) {
	switch raw.Type {
	case legacyContent:
		if raw.Content == "" && raw.Delta == "" {
			return Chunk{}, false
		}
		return Chunk{Type: ChunkText, Content: raw.Content, Delta: raw.Delta, Model: raw.Model}, true

	case legacyToolCall, ChunkToolCallDelta:
		if raw.ToolCall == nil {
			return Chunk{}, false
		}
		index := raw.ToolCallIndex
		if raw.Index != nil {
			index = *raw.Index
		}
		return Chunk{
			Type:          ChunkToolCallDelta,
			ToolCallIndex: index,
			ToolCall:      raw.ToolCall,
			ToolCallID:    raw.ToolCallID,
			Model:         raw.Model,
		}, true

	case legacyToolResult:
		translated := raw
		translated.Type = ChunkToolResult
		return translated, true

	default:
		return raw, true
	}
}
