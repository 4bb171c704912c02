package observability

// Attribute keys, span names, event names and metric names used across
// chatstream.

// --- Stream attributes ---

const (
	AttrStreamChunkType    = "stream.chunk.type"
	AttrStreamChunkCount   = "stream.chunk.count"
	AttrStreamContentSize  = "stream.content.size"
	AttrStreamToolCalls    = "stream.tool_calls"
	AttrStreamFinishReason = "stream.finish_reason"
	AttrStreamStrategy     = "stream.strategy"
	AttrStreamRecordingID  = "stream.recording.id"
)

// --- Connection attributes ---

const (
	AttrConnectionKind    = "connection.kind" // sse, http-stream, stream, provider
	AttrConnectionAttempt = "connection.attempt"
	AttrLLMProvider       = "llm.provider"
	AttrLLMModel          = "llm.model"
)

// --- HTTP attributes ---

const (
	AttrHTTPMethod          = "http.method"
	AttrHTTPStatusCode      = "http.status_code"
	AttrHTTPURL             = "http.url"
	AttrHTTPRequestBodySize = "http.request.body.size"
)

// --- Chat attributes ---

const (
	AttrChatID            = "chat.id"
	AttrChatMessageID     = "chat.message.id"
	AttrChatMessagesCount = "chat.messages_count"
	AttrChatToolRound     = "chat.tool_round"
)

// --- Tool attributes ---

const (
	AttrToolName     = "tool.name"
	AttrToolCallID   = "tool.call.id"
	AttrToolInput    = "tool.input"
	AttrToolOutput   = "tool.output"
	AttrToolDuration = "tool.duration"
)

// --- Memory attributes ---

const (
	AttrMemoryMessageRole   = "memory.message.role"
	AttrMemoryTotalMessages = "memory.total_messages"
)

// --- General attributes ---

const (
	AttrError    = "error"
	AttrDuration = "duration"
	AttrStatus   = "status"
)

// --- Span names ---

const (
	SpanChatTurn      = "chat.turn"
	SpanConnection    = "connection.connect"
	SpanStreamProcess = "stream.process"
	SpanToolExecution = "tool.execution"
)

// --- Event names ---

const (
	EventHTTPStreamStart    = "http.stream.start"
	EventHTTPStreamOpened   = "http.stream.opened"
	EventStreamChunk        = "stream.chunk"
	EventStreamFinalized    = "stream.finalized"
	EventToolExecutionStart = "tool.execution.start"
	EventToolExecutionEnd   = "tool.execution.end"
	EventMemoryAppend       = "memory.append"
	EventMemoryClear        = "memory.clear"
	EventMemoryTruncate     = "memory.truncate"
)

// --- Metric names ---

const (
	MetricStreamChunks      = "stream.chunks"
	MetricStreamDuration    = "stream.duration"
	MetricConnectionRetries = "connection.retries"
	MetricToolExecutions    = "tool.executions"
	MetricToolDuration      = "tool.duration"
)
