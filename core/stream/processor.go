package stream

import (
	"context"
	"encoding/json"
	"iter"
	"runtime"
	"strings"
	"time"

	"github.com/leofalp/chatstream/core/partialjson"
	"github.com/leofalp/chatstream/providers/ai"
	"github.com/leofalp/chatstream/providers/observability"
)

// JSONParser previews incomplete tool call arguments.
type JSONParser interface {
	Parse(text string) any
}

// Result is the terminal state of one assistant turn.
type Result struct {
	Content      string        `json:"content"`
	Thinking     string        `json:"thinking,omitempty"`
	ToolCalls    []ai.ToolCall `json:"toolCalls,omitempty"` // nil when the turn has no tool calls
	FinishReason string        `json:"finishReason,omitempty"`
}

// State is a snapshot of the processor internals.
type State struct {
	Content      string
	Thinking     string
	ToolCalls    []ToolCallState
	FinishReason string
	Done         bool
	Finalized    bool
}

// Option configures a Processor.
type Option func(*Processor)

// WithChunkStrategy sets the text emission strategy. Defaults to ImmediateStrategy.
func WithChunkStrategy(strategy ChunkStrategy) Option {
	return func(p *Processor) {
		if strategy != nil {
			p.strategy = strategy
		}
	}
}

// WithParser sets the parser applied by Process to every raw chunk.
// Defaults to a fresh AGUIParser.
func WithParser(parser StreamParser) Option {
	return func(p *Processor) {
		if parser != nil {
			p.parser = parser
		}
	}
}

// WithHandlers sets the callbacks notified by the processor.
func WithHandlers(handlers Handlers) Option {
	return func(p *Processor) {
		p.handlers = handlers
	}
}

// WithJSONParser sets the tool argument preview parser. Defaults to partialjson.Default.
func WithJSONParser(parser JSONParser) Option {
	return func(p *Processor) {
		if parser != nil {
			p.jsonParser = parser
		}
	}
}

// WithObserver enables logs, spans and metrics in Process.
func WithObserver(observer observability.Provider) Option {
	return func(p *Processor) {
		p.observer = observer
	}
}

// WithRecording captures every processed chunk into a Recording, tagged with
// the given model and provider names (both may be empty).
func WithRecording(model, provider string) Option {
	return func(p *Processor) {
		p.recordingEnabled = true
		p.recordingModel = model
		p.recordingProvider = provider
	}
}

// WithNow replaces time.Now for recording timestamps.
func WithNow(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

// Processor is the state machine for one assistant turn at a time. It is not
// safe for concurrent use; use one processor per conversation.
type Processor struct {
	strategy   ChunkStrategy
	parser     StreamParser
	handlers   Handlers
	jsonParser JSONParser
	observer   observability.Provider
	now        func() time.Time

	recordingEnabled  bool
	recordingModel    string
	recordingProvider string
	recording         *Recording

	content      strings.Builder
	pending      int // text chunks appended since the last text update
	thinking     string
	tools        tracker
	lastIndex    int
	finishReason string
	done         bool
	finalized    bool
	result       Result
	events       []Event
}

// New creates a Processor ready for its first turn.
func New(opts ...Option) *Processor {
	p := &Processor{
		strategy:   NewImmediateStrategy(),
		parser:     NewAGUIParser(),
		jsonParser: partialjson.Default,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Reset()
	return p
}

// Reset clears all turn state, including the strategy counters and the
// recording. Process calls it automatically; callers driving ProcessChunk
// directly must call it before each new turn.
func (p *Processor) Reset() {
	p.content.Reset()
	p.pending = 0
	p.thinking = ""
	p.tools.reset()
	p.lastIndex = -1
	p.finishReason = ""
	p.done = false
	p.finalized = false
	p.result = Result{}
	p.events = nil
	p.strategy.Reset()
	if r, ok := p.parser.(interface{ Reset() }); ok {
		r.Reset()
	}

	p.recording = nil
	if p.recordingEnabled {
		p.recording = newRecording(p.now(), p.recordingModel, p.recordingProvider)
	}
}

// ProcessChunk applies one normalized chunk. Unknown chunk types and
// malformed tool call deltas are ignored. After FinalizeStream it returns
// ErrFinalized and leaves the state untouched.
func (p *Processor) ProcessChunk(chunk Chunk) error {
	if p.finalized {
		return ErrFinalized
	}

	switch chunk.Type {
	case ChunkText:
		p.record(chunk)
		p.handleText(chunk)
	case ChunkToolCallDelta:
		p.record(chunk)
		p.handleToolCallDelta(chunk)
	case ChunkThinking:
		p.record(chunk)
		p.handleThinking(chunk)
	case ChunkToolResult:
		p.record(chunk)
		p.handleToolResult(chunk)
	case ChunkApprovalRequested:
		p.record(chunk)
		p.handleApprovalRequested(chunk)
	case ChunkToolInputAvailable:
		p.record(chunk)
		p.handleToolInputAvailable(chunk)
	case ChunkToolCallEnd:
		p.record(chunk)
		p.handleToolCallEnd(chunk)
	case ChunkDone:
		p.record(chunk)
		p.handleDone(chunk)
	case ChunkError:
		p.record(chunk)
		p.handleError(chunk)
	}

	return nil
}

// FinalizeStream completes every outstanding tool call, flushes text held
// back by the chunk strategy and emits stream-end. The processor is frozen
// afterwards; calling FinalizeStream again returns the same result without
// emitting anything.
func (p *Processor) FinalizeStream() Result {
	if p.finalized {
		return p.result
	}

	p.completeAll()
	p.flushText()

	p.result = p.Snapshot()
	p.finalized = true

	p.emit(Event{Type: EventStreamEnd, Content: p.result.Content, ToolCalls: p.result.ToolCalls})
	if p.handlers.OnStreamEnd != nil {
		p.handlers.OnStreamEnd(p.result.Content, p.result.ToolCalls)
	}

	if p.recording != nil {
		result := p.result
		p.recording.Result = &result
	}

	return p.result
}

// Process resets the processor, feeds every chunk of source through the
// parser and ProcessChunk in arrival order, and finalizes the turn.
//
// The scheduler is yielded to between chunks. When source yields an error,
// or ctx is cancelled, Process stops and returns the partial Snapshot with
// the error; the turn is left un-finalized so the caller can choose to
// FinalizeStream it or discard it.
func (p *Processor) Process(ctx context.Context, source iter.Seq2[Chunk, error]) (Result, error) {
	p.Reset()

	observer := observability.OrNop(p.observer)
	ctx, span := observer.StartSpan(ctx, observability.SpanStreamProcess)
	defer span.End()
	start := time.Now()
	chunks := 0

	for raw, err := range source {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "source failed")
			return p.Snapshot(), err
		}
		if err := ctx.Err(); err != nil {
			span.SetStatus(observability.StatusError, "cancelled")
			return p.Snapshot(), err
		}

		chunk, ok := p.parser.Parse(raw)
		if !ok {
			continue
		}

		chunks++
		observer.Trace(ctx, "stream chunk", observability.String(observability.AttrStreamChunkType, string(chunk.Type)))
		_ = p.ProcessChunk(chunk)

		runtime.Gosched()
	}

	if err := ctx.Err(); err != nil {
		span.SetStatus(observability.StatusError, "cancelled")
		return p.Snapshot(), err
	}

	result := p.FinalizeStream()

	attrs := []observability.Attribute{
		observability.Int(observability.AttrStreamChunkCount, chunks),
		observability.Int(observability.AttrStreamContentSize, len(result.Content)),
		observability.Int(observability.AttrStreamToolCalls, len(result.ToolCalls)),
		observability.String(observability.AttrStreamFinishReason, result.FinishReason),
	}
	span.SetAttributes(attrs...)
	span.SetStatus(observability.StatusOK, "")
	span.AddEvent(observability.EventStreamFinalized)
	observer.Counter(observability.MetricStreamChunks).Add(ctx, int64(chunks))
	observer.Histogram(observability.MetricStreamDuration).Record(ctx, time.Since(start).Seconds())
	observer.Debug(ctx, "stream finalized", attrs...)

	return result, nil
}

// Snapshot returns the current state as a Result without finalizing.
func (p *Processor) Snapshot() Result {
	return Result{
		Content:      p.content.String(),
		Thinking:     p.thinking,
		ToolCalls:    p.tools.toolCalls(),
		FinishReason: p.finishReason,
	}
}

// Content returns the accumulated text, including text not yet reported.
func (p *Processor) Content() string {
	return p.content.String()
}

// Thinking returns the accumulated thinking text.
func (p *Processor) Thinking() string {
	return p.thinking
}

// ToolCalls returns copies of the tracked tool calls in first-appearance order.
func (p *Processor) ToolCalls() []ToolCallState {
	states := p.tools.all()
	out := make([]ToolCallState, len(states))
	for i, state := range states {
		out[i] = *state
	}
	return out
}

// Events returns a copy of the event log of the current turn.
func (p *Processor) Events() []Event {
	return append([]Event(nil), p.events...)
}

// Finalized reports whether FinalizeStream ran since the last Reset.
func (p *Processor) Finalized() bool {
	return p.finalized
}

// Recording returns the recording of the current turn, or nil when
// recording is disabled.
func (p *Processor) Recording() *Recording {
	return p.recording
}

// State returns a snapshot of the processor internals.
func (p *Processor) State() State {
	return State{
		Content:      p.content.String(),
		Thinking:     p.thinking,
		ToolCalls:    p.ToolCalls(),
		FinishReason: p.finishReason,
		Done:         p.done,
		Finalized:    p.finalized,
	}
}

// ---- chunk handlers ----

func (p *Processor) handleText(chunk Chunk) {
	p.completeAll()

	fragment := chunk.textFragment()
	if fragment == "" {
		return
	}
	p.content.WriteString(fragment)
	p.pending++

	if p.strategy.ShouldEmit(fragment, p.content.String()) {
		p.flushText()
	}
}

func (p *Processor) handleToolCallDelta(chunk Chunk) {
	delta := chunk.ToolCall
	index := chunk.ToolCallIndex
	if delta == nil || !validIndex(index) {
		return
	}

	// A new index means every other call has finished streaming, unless
	// calls are keyed and end explicitly.
	if chunk.ToolCallID == "" && index != p.lastIndex && p.lastIndex != -1 {
		p.completeExcept(index)
	}
	p.lastIndex = index

	args := delta.Function.Arguments
	state := p.tools.get(index)

	if state == nil {
		status := ToolCallAwaitingInput
		if args != "" {
			status = ToolCallInputStreaming
		}
		state = &ToolCallState{
			Index:     index,
			ID:        delta.ID,
			Name:      delta.Function.Name,
			Arguments: args,
			Status:    status,
		}
		if args != "" {
			state.Parsed = p.jsonParser.Parse(args)
		}
		p.tools.add(state)

		p.emit(Event{Type: EventToolCallStart, Index: index, ID: state.ID, Name: state.Name})
		if p.handlers.OnToolCallStart != nil {
			p.handlers.OnToolCallStart(index, state.ID, state.Name)
		}
		p.notifyState(state, state.Arguments)
		if args != "" {
			p.notifyDelta(index, args)
		}
		return
	}

	state.Arguments += args
	if state.Status == ToolCallAwaitingInput && args != "" {
		state.Status = ToolCallInputStreaming
	}
	state.Parsed = p.jsonParser.Parse(state.Arguments)

	p.notifyState(state, state.Arguments)
	if args != "" {
		p.notifyDelta(index, args)
	}
}

// handleThinking appends deltas. Full content replaces the text when it
// extends it, is ignored when the text already starts with it, and is
// appended otherwise.
func (p *Processor) handleThinking(chunk Chunk) {
	switch {
	case chunk.Delta != "":
		p.thinking += chunk.Delta
	case chunk.Content != "":
		switch {
		case strings.HasPrefix(chunk.Content, p.thinking):
			p.thinking = chunk.Content
		case strings.HasPrefix(p.thinking, chunk.Content):
			// already included
		default:
			p.thinking += chunk.Content
		}
	}

	p.emit(Event{Type: EventThinkingUpdate, Content: p.thinking})
	if p.handlers.OnThinkingUpdate != nil {
		p.handlers.OnThinkingUpdate(p.thinking)
	}
}

func (p *Processor) handleToolResult(chunk Chunk) {
	if state := p.tools.byID(chunk.ToolCallID); state != nil && !state.Complete() {
		p.completeOne(state)
	}

	status, message := ToolResultComplete, ""
	if chunk.Error != nil {
		status, message = ToolResultError, chunk.Error.Message
	}

	p.emit(Event{Type: EventToolResult, ID: chunk.ToolCallID, Content: chunk.Content, Result: status, Error: chunk.Error})
	if p.handlers.OnToolResultStateChange != nil {
		p.handlers.OnToolResultStateChange(chunk.ToolCallID, chunk.Content, status, message)
	}
}

func (p *Processor) handleApprovalRequested(chunk Chunk) {
	input := decodeInput(chunk.Input)
	approvalID := ""
	if chunk.Approval != nil {
		approvalID = chunk.Approval.ID
	}

	if state := p.tools.byID(chunk.ToolCallID); state != nil {
		if !state.Complete() {
			p.completeOne(state)
		}
		state.Status = ToolCallApprovalRequested
		state.Parsed = input
		state.ApprovalID = approvalID
		p.notifyState(state, string(chunk.Input))
	}

	p.emit(Event{Type: EventApproval, ID: chunk.ToolCallID, Name: chunk.ToolName, Parsed: input, ApprovalID: approvalID})
	if p.handlers.OnApprovalRequested != nil {
		p.handlers.OnApprovalRequested(chunk.ToolCallID, chunk.ToolName, input, approvalID)
	}
}

func (p *Processor) handleToolInputAvailable(chunk Chunk) {
	input := decodeInput(chunk.Input)

	if state := p.tools.byID(chunk.ToolCallID); state != nil {
		if !state.Complete() {
			p.completeOne(state)
		}
		state.Parsed = input
		p.notifyState(state, string(chunk.Input))
	}

	p.emit(Event{Type: EventToolInput, ID: chunk.ToolCallID, Name: chunk.ToolName, Parsed: input})
	if p.handlers.OnToolInputAvailable != nil {
		p.handlers.OnToolInputAvailable(chunk.ToolCallID, chunk.ToolName, input)
	}
}

// handleToolCallEnd completes one call by id. A result is reported as a
// tool result, otherwise final input is reported as tool input available.
func (p *Processor) handleToolCallEnd(chunk Chunk) {
	state := p.tools.byID(chunk.ToolCallID)
	if state != nil && !state.Complete() {
		p.completeOne(state)
	}

	name := chunk.ToolName
	if name == "" && state != nil {
		name = state.Name
	}

	switch {
	case len(chunk.Result) > 0:
		if state != nil && len(chunk.Input) > 0 {
			state.Parsed = decodeInput(chunk.Input)
		}
		p.handleToolResult(Chunk{Type: ChunkToolResult, ToolCallID: chunk.ToolCallID, Content: resultText(chunk.Result)})
	case len(chunk.Input) > 0:
		p.handleToolInputAvailable(Chunk{Type: ChunkToolInputAvailable, ToolCallID: chunk.ToolCallID, ToolName: name, Input: chunk.Input})
	}
}

func (p *Processor) handleDone(chunk Chunk) {
	p.completeAll()
	p.done = true
	p.finishReason = chunk.FinishReason
	if p.finishReason == "" {
		p.finishReason = "stop"
	}
}

func (p *Processor) handleError(chunk Chunk) {
	chunkErr := chunk.Error
	if chunkErr == nil {
		chunkErr = &ChunkError{Message: chunk.Content}
	}

	p.emit(Event{Type: EventError, Error: chunkErr})
	if p.handlers.OnError != nil {
		p.handlers.OnError(chunkErr)
	}
}

// ---- tool call completion ----

func (p *Processor) completeExcept(index int) {
	for _, state := range p.tools.pending(index) {
		p.completeOne(state)
	}
}

func (p *Processor) completeAll() {
	for _, state := range p.tools.pending(-1) {
		p.completeOne(state)
	}
}

func (p *Processor) completeOne(state *ToolCallState) {
	state.Status = ToolCallInputComplete
	state.Parsed = p.jsonParser.Parse(state.Arguments)

	p.notifyState(state, state.Arguments)

	p.emit(Event{Type: EventToolCallComplete, Index: state.Index, ID: state.ID, Name: state.Name, Arguments: state.Arguments})
	if p.handlers.OnToolCallComplete != nil {
		p.handlers.OnToolCallComplete(state.Index, state.ID, state.Name, state.Arguments)
	}
}

// ---- notifications ----

func (p *Processor) flushText() {
	if p.pending == 0 {
		return
	}
	p.pending = 0

	content := p.content.String()
	p.emit(Event{Type: EventTextUpdate, Content: content})
	if p.handlers.OnTextUpdate != nil {
		p.handlers.OnTextUpdate(content)
	}
}

func (p *Processor) notifyState(state *ToolCallState, arguments string) {
	p.emit(Event{
		Type:      EventToolCallState,
		Index:     state.Index,
		ID:        state.ID,
		Name:      state.Name,
		Arguments: arguments,
		Status:    state.Status,
		Parsed:    state.Parsed,
	})
	if p.handlers.OnToolCallStateChange != nil {
		p.handlers.OnToolCallStateChange(state.Index, state.ID, state.Name, state.Status, arguments, state.Parsed)
	}
}

func (p *Processor) notifyDelta(index int, arguments string) {
	p.emit(Event{Type: EventToolCallDelta, Index: index, Arguments: arguments})
	if p.handlers.OnToolCallDelta != nil {
		p.handlers.OnToolCallDelta(index, arguments)
	}
}

func (p *Processor) emit(event Event) {
	p.events = append(p.events, event)
}

func (p *Processor) record(chunk Chunk) {
	if p.recording != nil {
		p.recording.append(chunk, p.now())
	}
}

func decodeInput(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil
	}
	return value
}

// resultText returns a JSON string result unquoted and any other JSON value
// as is.
func resultText(raw json.RawMessage) string {
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	return string(raw)
}
