package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/leofalp/chatstream/core/connection"
	"github.com/leofalp/chatstream/core/message"
	"github.com/leofalp/chatstream/core/overview"
	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/internal/utils"
	"github.com/leofalp/chatstream/providers/ai"
	"github.com/leofalp/chatstream/providers/observability"
)

// Client drives one conversation. It is safe for concurrent use; turns are
// serialized and run on the calling goroutine.
type Client struct {
	id      string
	adapter connection.Adapter
	opts    options

	// storeMu orders store writes against Clear.
	storeMu sync.Mutex

	mu        sync.Mutex
	messages  []message.UIMessage
	loading   bool
	err       error
	cancel    context.CancelCauseFunc
	recording *stream.Recording
	overview  overview.Overview
}

// New creates a client streaming through adapter.
func New(adapter connection.Adapter, opts ...Option) *Client {
	o := options{maxToolRounds: DefaultMaxToolRounds}
	for _, opt := range opts {
		opt(&o)
	}

	id := o.id
	if id == "" {
		id = ulid.Make().String()
	}

	messages := make([]message.UIMessage, 0, len(o.initial))
	for _, m := range o.initial {
		messages = append(messages, m.Clone())
	}

	return &Client{
		id:       id,
		adapter:  adapter,
		opts:     o,
		messages: messages,
	}
}

// ID returns the chat id.
func (c *Client) ID() string {
	return c.id
}

// Messages returns a copy of the history.
func (c *Client) Messages() []message.UIMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneAll(c.messages)
}

// IsLoading reports whether a turn is streaming.
func (c *Client) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error of the last failed turn, cleared by the next send.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// LastRecording returns the recording of the most recent turn, or nil when
// recording is disabled.
func (c *Client) LastRecording() *stream.Recording {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording
}

// Overview returns the usage and tool statistics of the turns completed
// since the client was created or last cleared.
func (c *Client) Overview() overview.Overview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overview.Clone()
}

// SetMessages replaces the history. The store is not touched.
func (c *Client) SetMessages(messages []message.UIMessage) {
	c.mu.Lock()
	c.messages = cloneAll(messages)
	snapshot := cloneAll(c.messages)
	c.mu.Unlock()
	c.notifyMessages(snapshot)
}

// Restore replaces the history with the contents of the store.
func (c *Client) Restore(ctx context.Context) error {
	if c.opts.store == nil {
		return nil
	}
	messages, err := c.opts.store.AllMessages(ctx)
	if err != nil {
		return fmt.Errorf("chat: restore: %w", err)
	}
	c.SetMessages(messages)
	return nil
}

// SendMessage appends a user message with the trimmed text and streams the
// reply. Empty text, or a call while a turn is streaming, is ignored.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" || c.IsLoading() {
		return nil
	}
	err := c.Append(ctx, message.NewUserMessage(text))
	if errors.Is(err, ErrBusy) {
		return nil
	}
	return err
}

// Append adds msg to the history and streams the reply. It returns ErrBusy
// while another turn is streaming.
func (c *Client) Append(ctx context.Context, msg message.UIMessage) error {
	if msg.ID == "" {
		msg.ID = message.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	turnCtx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer c.end()

	c.addMessage(msg)
	c.writeStore(turnCtx, msg.ID, "append", func(ctx context.Context) error {
		return c.opts.store.AppendMessage(ctx, msg.Clone())
	})
	return c.run(turnCtx)
}

// Reload drops everything after the last user message and streams a new
// reply to it.
func (c *Client) Reload(ctx context.Context) error {
	turnCtx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer c.end()

	c.mu.Lock()
	last := -1
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == message.RoleUser {
			last = i
			break
		}
	}
	if last < 0 {
		c.mu.Unlock()
		return ErrNoUserMessage
	}
	c.messages = c.messages[:last+1:last+1]
	snapshot := cloneAll(c.messages)
	c.mu.Unlock()
	c.notifyMessages(snapshot)

	if c.opts.store != nil {
		if err := c.opts.store.TruncateMessages(turnCtx, last+1); err != nil {
			c.observer().Warn(turnCtx, "chat store truncate failed", observability.Error(err))
		}
	}
	return c.run(turnCtx)
}

// Stop cancels the streaming turn, if any. The partial reply is finalized
// and kept.
func (c *Client) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel(errStopped)
	}
}

// Clear stops the streaming turn and empties the history and the store. A
// stopped turn that unwinds afterwards does not write its partial reply back.
func (c *Client) Clear(ctx context.Context) error {
	c.Stop()

	c.storeMu.Lock()
	c.mu.Lock()
	c.messages = nil
	c.overview = overview.Overview{}
	hadErr := c.err != nil
	c.err = nil
	c.mu.Unlock()

	var storeErr error
	if c.opts.store != nil {
		storeErr = c.opts.store.ClearMessages(ctx)
	}
	c.storeMu.Unlock()

	c.notifyMessages(nil)
	if hadErr && c.opts.onErrorChange != nil {
		c.opts.onErrorChange(nil)
	}
	if storeErr != nil {
		return fmt.Errorf("chat: clear store: %w", storeErr)
	}
	return nil
}

// AddToolResult records the output of a tool call executed outside the
// client. A non-nil toolErr is recorded as an error result. Once the last
// assistant message has no tool call left without a result, the
// conversation is resubmitted.
func (c *Client) AddToolResult(ctx context.Context, toolCallID string, output any, toolErr error) error {
	content, errMessage := utils.JSONString(output), ""
	if toolErr != nil {
		content, errMessage, output = toolErr.Error(), toolErr.Error(), nil
	}

	c.mu.Lock()
	idx := c.indexOf(func(m *message.UIMessage) bool {
		return m.SetToolResult(toolCallID, output, content, errMessage)
	})
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrToolCallNotFound, toolCallID)
	}
	ready := idx == len(c.messages)-1 && len(c.messages[idx].PendingToolCalls()) == 0 && !c.loading
	updated := c.messages[idx].Clone()
	snapshot := cloneAll(c.messages)
	c.mu.Unlock()

	c.notifyMessages(snapshot)
	c.persist(ctx, updated)

	if !ready {
		return nil
	}
	return c.resume(ctx)
}

// RespondToApproval records the user's decision on a tool call approval.
// Once the last assistant message has no approval left open, the
// conversation is resubmitted.
func (c *Client) RespondToApproval(ctx context.Context, approvalID string, approved bool) error {
	c.mu.Lock()
	idx := c.indexOf(func(m *message.UIMessage) bool {
		return m.RespondApproval(approvalID, approved)
	})
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: approval %s", ErrToolCallNotFound, approvalID)
	}
	ready := idx == len(c.messages)-1 && !awaitingApproval(c.messages[idx]) && !c.loading
	updated := c.messages[idx].Clone()
	snapshot := cloneAll(c.messages)
	c.mu.Unlock()

	c.notifyMessages(snapshot)
	c.persist(ctx, updated)

	if !ready {
		return nil
	}
	return c.resume(ctx)
}

func (c *Client) resume(ctx context.Context) error {
	turnCtx, err := c.begin(ctx)
	if err != nil {
		return err
	}
	defer c.end()
	return c.run(turnCtx)
}

func (c *Client) begin(ctx context.Context) (context.Context, error) {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	turnCtx, cancel := context.WithCancelCause(ctx)
	c.loading = true
	c.cancel = cancel
	hadErr := c.err != nil
	c.err = nil
	c.mu.Unlock()

	if c.opts.onLoadingChange != nil {
		c.opts.onLoadingChange(true)
	}
	if hadErr && c.opts.onErrorChange != nil {
		c.opts.onErrorChange(nil)
	}
	return turnCtx, nil
}

func (c *Client) end() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel(nil)
		c.cancel = nil
	}
	c.loading = false
	c.mu.Unlock()

	if c.opts.onLoadingChange != nil {
		c.opts.onLoadingChange(false)
	}
}

// run streams turns until no registered client tool is left to execute or
// the round limit is reached.
func (c *Client) run(ctx context.Context) error {
	for round := 0; ; round++ {
		final, err := c.turn(ctx, round)
		if err != nil {
			return c.fail(ctx, err)
		}
		if final == nil || round >= c.opts.maxToolRounds {
			return nil
		}
		resubmit, err := c.executeTools(ctx, *final, round+1)
		if err != nil {
			return c.fail(ctx, err)
		}
		if !resubmit {
			return nil
		}
	}
}

// turn streams one assistant message. It returns nil without error when the
// turn was stopped.
func (c *Client) turn(ctx context.Context, round int) (*message.UIMessage, error) {
	observer := c.observer()
	ctx, span := observer.StartSpan(ctx, observability.SpanChatTurn,
		observability.String(observability.AttrChatID, c.id),
		observability.Int(observability.AttrChatToolRound, round),
	)
	defer span.End()

	history := c.Messages()
	request := connection.Request{
		Model:    c.opts.model,
		Messages: message.ToModelMessagesAll(history),
		Data:     c.opts.body,
	}
	if c.opts.tools != nil {
		request.Tools = c.opts.tools.Descriptions()
	}
	span.SetAttributes(observability.Int(observability.AttrChatMessagesCount, len(history)))

	source, err := c.adapter.Connect(ctx, request)
	if err != nil {
		if stopped(ctx) {
			span.SetStatus(observability.StatusOK, "stopped")
			return nil, nil
		}
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "connect failed")
		return nil, err
	}
	if c.opts.onResponse != nil {
		c.opts.onResponse()
	}

	builder := message.NewBuilder(message.WithOnUpdate(c.replaceMessage))
	c.addMessage(builder.Message())

	var usage *ai.Usage
	start := time.Now()
	processor := stream.New(c.processorOptions(builder)...)
	result, err := processor.Process(ctx, c.observeChunks(source, &usage))
	if c.opts.recording {
		c.mu.Lock()
		c.recording = processor.Recording()
		c.mu.Unlock()
	}

	if err != nil {
		if !stopped(ctx) {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "stream failed")
			c.persist(context.WithoutCancel(ctx), builder.Message())
			return nil, err
		}
		processor.FinalizeStream()
		c.persist(context.WithoutCancel(ctx), builder.Message())
		span.SetStatus(observability.StatusOK, "stopped")
		observer.Debug(ctx, "chat turn stopped", observability.String(observability.AttrChatID, c.id))
		return nil, nil
	}

	c.mu.Lock()
	c.overview.AddTurn(result, usage, time.Since(start))
	c.mu.Unlock()

	final := builder.Message()
	c.persist(ctx, final)
	span.SetAttributes(observability.String(observability.AttrChatMessageID, final.ID))
	span.SetStatus(observability.StatusOK, "")
	observer.Info(ctx, "chat turn completed",
		observability.String(observability.AttrChatID, c.id),
		observability.String(observability.AttrChatMessageID, final.ID),
		observability.Int(observability.AttrChatToolRound, round),
	)
	if c.opts.onFinish != nil {
		c.opts.onFinish(final)
	}
	return &final, nil
}

// executeTools runs the pending calls of assistant that name registered
// tools. It reports whether every tool call now has a result, which is when
// the conversation can be resubmitted.
func (c *Client) executeTools(ctx context.Context, assistant message.UIMessage, round int) (bool, error) {
	if c.opts.tools == nil {
		return false, nil
	}

	var calls []message.Part
	for _, call := range assistant.PendingToolCalls() {
		if c.opts.tools.Has(call.Name) {
			calls = append(calls, call)
		}
	}
	if len(calls) == 0 {
		return false, nil
	}

	observer := c.observer()
	for _, call := range calls {
		toolCtx, span := observer.StartSpan(ctx, observability.SpanToolExecution,
			observability.String(observability.AttrToolName, call.Name),
			observability.String(observability.AttrToolCallID, call.ID),
			observability.Int(observability.AttrChatToolRound, round),
		)
		start := time.Now()
		output, err := c.opts.tools.Execute(toolCtx, call.Name, call.Arguments)
		duration := time.Since(start)

		observer.Counter(observability.MetricToolExecutions).Add(ctx, 1, observability.String(observability.AttrToolName, call.Name))
		observer.Histogram(observability.MetricToolDuration).Record(ctx, duration.Seconds(), observability.String(observability.AttrToolName, call.Name))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "tool failed")
		} else {
			span.SetStatus(observability.StatusOK, "")
		}
		span.End()

		if stopped(ctx) {
			return false, nil
		}
		c.mu.Lock()
		c.overview.AddToolExecution(call.Name, err)
		c.mu.Unlock()
		if err != nil {
			observer.Warn(ctx, "client tool failed",
				observability.String(observability.AttrToolName, call.Name),
				observability.Error(err),
			)
		}
		c.recordToolResult(ctx, assistant.ID, call.ID, output, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == assistant.ID {
			return len(c.messages[i].PendingToolCalls()) == 0, nil
		}
	}
	return false, nil
}

func (c *Client) recordToolResult(ctx context.Context, messageID, toolCallID, output string, err error) {
	var (
		decoded    any
		content    = output
		errMessage string
	)
	if err != nil {
		content, errMessage = err.Error(), err.Error()
	} else if json.Unmarshal([]byte(output), &decoded) != nil {
		decoded = output
	}

	c.mu.Lock()
	idx := c.indexOf(func(m *message.UIMessage) bool {
		return m.ID == messageID && m.SetToolResult(toolCallID, decoded, content, errMessage)
	})
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	updated := c.messages[idx].Clone()
	snapshot := cloneAll(c.messages)
	c.mu.Unlock()

	c.notifyMessages(snapshot)
	c.persist(ctx, updated)
}

func (c *Client) processorOptions(builder *message.Builder) []stream.Option {
	opts := []stream.Option{
		stream.WithHandlers(builder.Handlers()),
		stream.WithChunkStrategy(c.opts.strategy),
		stream.WithParser(c.opts.parser),
		stream.WithObserver(c.opts.observer),
	}
	if c.opts.recording {
		opts = append(opts, stream.WithRecording(c.opts.recordingModel, c.opts.recordingProvider))
	}
	return opts
}

// observeChunks notifies onChunk and keeps the last usage report in usage.
func (c *Client) observeChunks(source iter.Seq2[stream.Chunk, error], usage **ai.Usage) iter.Seq2[stream.Chunk, error] {
	return func(yield func(stream.Chunk, error) bool) {
		for chunk, err := range source {
			if err == nil {
				if chunk.Usage != nil {
					*usage = chunk.Usage
				}
				if c.opts.onChunk != nil {
					c.opts.onChunk(chunk)
				}
			}
			if !yield(chunk, err) {
				return
			}
		}
	}
}

func (c *Client) fail(ctx context.Context, err error) error {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()

	c.observer().Error(ctx, "chat turn failed",
		observability.String(observability.AttrChatID, c.id),
		observability.Error(err),
	)
	if c.opts.onErrorChange != nil {
		c.opts.onErrorChange(err)
	}
	if c.opts.onError != nil {
		c.opts.onError(err)
	}
	return err
}

func (c *Client) addMessage(m message.UIMessage) {
	c.mu.Lock()
	c.messages = append(c.messages, m.Clone())
	snapshot := cloneAll(c.messages)
	c.mu.Unlock()
	c.notifyMessages(snapshot)
}

// replaceMessage swaps in the newer copy of a message already in the
// history. Messages removed by Clear are not re-added.
func (c *Client) replaceMessage(m message.UIMessage) {
	c.mu.Lock()
	idx := c.indexOf(func(existing *message.UIMessage) bool { return existing.ID == m.ID })
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	c.messages[idx] = m
	snapshot := cloneAll(c.messages)
	c.mu.Unlock()
	c.notifyMessages(snapshot)
}

// indexOf returns the index of the newest message matching fn. The caller
// holds c.mu.
func (c *Client) indexOf(fn func(*message.UIMessage) bool) int {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if fn(&c.messages[i]) {
			return i
		}
	}
	return -1
}

// persist upserts m into the store.
func (c *Client) persist(ctx context.Context, m message.UIMessage) {
	c.writeStore(ctx, m.ID, "upsert", func(ctx context.Context) error {
		return c.opts.store.UpsertMessage(ctx, m)
	})
}

// writeStore runs write while the message id is still part of the history,
// so a turn unwinding after Clear leaves the store empty.
func (c *Client) writeStore(ctx context.Context, id, op string, write func(context.Context) error) {
	if c.opts.store == nil {
		return
	}
	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	c.mu.Lock()
	present := c.indexOf(func(existing *message.UIMessage) bool { return existing.ID == id }) >= 0
	c.mu.Unlock()
	if !present {
		return
	}
	if err := write(ctx); err != nil {
		c.observer().Warn(ctx, "chat store "+op+" failed",
			observability.String(observability.AttrChatMessageID, id),
			observability.Error(err),
		)
	}
}

func (c *Client) notifyMessages(snapshot []message.UIMessage) {
	if c.opts.onMessagesChange != nil {
		c.opts.onMessagesChange(snapshot)
	}
}

func (c *Client) observer() observability.Provider {
	return observability.OrNop(c.opts.observer)
}

func stopped(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), errStopped)
}

func awaitingApproval(m message.UIMessage) bool {
	for _, part := range m.Parts {
		if part.Type == message.PartToolCall && part.ToolCallStatus() == stream.ToolCallApprovalRequested {
			return true
		}
	}
	return false
}

func cloneAll(messages []message.UIMessage) []message.UIMessage {
	if messages == nil {
		return nil
	}
	out := make([]message.UIMessage, len(messages))
	for i, m := range messages {
		out[i] = m.Clone()
	}
	return out
}
