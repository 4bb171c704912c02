package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"sync"
	"testing"

	"github.com/leofalp/chatstream/core/connection"
	"github.com/leofalp/chatstream/core/message"
	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/providers/ai"
	"github.com/leofalp/chatstream/providers/memory/inmemory"
	"github.com/leofalp/chatstream/providers/tool"
	"github.com/leofalp/chatstream/providers/tool/calculator"
)

// ========== Test helpers ==========

// script is one scripted assistant turn: chunks, then an optional error.
type script struct {
	chunks []stream.Chunk
	err    error
}

// scriptedAdapter replays one script per Connect call and records requests.
type scriptedAdapter struct {
	mu         sync.Mutex
	scripts    []script
	requests   []connection.Request
	connectErr error
}

func (a *scriptedAdapter) Connect(ctx context.Context, request connection.Request) (iter.Seq2[stream.Chunk, error], error) {
	a.mu.Lock()
	a.requests = append(a.requests, request)
	n := len(a.requests) - 1
	connectErr := a.connectErr
	a.mu.Unlock()

	if connectErr != nil {
		return nil, connectErr
	}
	var s script
	if n < len(a.scripts) {
		s = a.scripts[n]
	}
	return connection.NewStream(func(context.Context, connection.Request) iter.Seq2[stream.Chunk, error] {
		return func(yield func(stream.Chunk, error) bool) {
			for _, chunk := range s.chunks {
				if !yield(chunk, nil) {
					return
				}
			}
			if s.err != nil {
				yield(stream.Chunk{}, s.err)
			}
		}
	}).Connect(ctx, request)
}

func (a *scriptedAdapter) requestCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *scriptedAdapter) request(i int) connection.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[i]
}

func textTurn(parts ...string) script {
	var chunks []stream.Chunk
	for _, p := range parts {
		chunks = append(chunks, stream.Text(p))
	}
	return script{chunks: append(chunks, stream.Done("stop"))}
}

func toolTurn(id, name, arguments string) script {
	return script{chunks: []stream.Chunk{
		stream.ToolCallDelta(0, id, name, arguments),
		stream.Done("tool_calls"),
	}}
}

// ========== SendMessage ==========

func TestSendMessage_StreamsAssistantReply(t *testing.T) {
	adapter := &scriptedAdapter{scripts: []script{textTurn("Hello", " world")}}

	var loading []bool
	finished, responses, changes := 0, 0, 0
	c := New(adapter,
		WithOnLoadingChange(func(v bool) { loading = append(loading, v) }),
		WithOnFinish(func(message.UIMessage) { finished++ }),
		WithOnResponse(func() { responses++ }),
		WithOnMessagesChange(func([]message.UIMessage) { changes++ }),
	)

	if err := c.SendMessage(context.Background(), "  hi there  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != message.RoleUser || msgs[0].Text() != "hi there" {
		t.Errorf("expected trimmed user message, got %q (%s)", msgs[0].Text(), msgs[0].Role)
	}
	if msgs[1].Role != message.RoleAssistant || msgs[1].Text() != "Hello world" {
		t.Errorf("expected assistant reply 'Hello world', got %q", msgs[1].Text())
	}

	if len(loading) != 2 || !loading[0] || loading[1] {
		t.Errorf("expected loading [true false], got %v", loading)
	}
	if finished != 1 || responses != 1 {
		t.Errorf("expected 1 finish and 1 response, got %d and %d", finished, responses)
	}
	if changes < 3 {
		t.Errorf("expected at least 3 message changes, got %d", changes)
	}
	if c.IsLoading() {
		t.Error("expected loading to be false after the turn")
	}
}

func TestSendMessage_IgnoresEmptyText(t *testing.T) {
	adapter := &scriptedAdapter{}
	c := New(adapter)

	for _, text := range []string{"", "   ", "\n\t"} {
		if err := c.SendMessage(context.Background(), text); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if adapter.requestCount() != 0 {
		t.Errorf("expected no requests, got %d", adapter.requestCount())
	}
	if len(c.Messages()) != 0 {
		t.Errorf("expected empty history, got %d messages", len(c.Messages()))
	}
}

func TestSendMessage_RequestShape(t *testing.T) {
	adapter := &scriptedAdapter{scripts: []script{textTurn("one"), textTurn("two")}}
	c := New(adapter,
		WithModel("lorem-1"),
		WithBody(map[string]any{"temperature": 0.2}),
		WithTools(tool.NewCatalog(calculator.New())),
	)

	ctx := context.Background()
	if err := c.SendMessage(ctx, "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.SendMessage(ctx, "second"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := adapter.request(1)
	if req.Model != "lorem-1" {
		t.Errorf("expected model lorem-1, got %q", req.Model)
	}
	if req.Data["temperature"] != 0.2 {
		t.Errorf("expected body to be forwarded, got %v", req.Data)
	}
	if len(req.Tools) != 1 || req.Tools[0].Name != calculator.Name {
		t.Errorf("expected calculator tool description, got %+v", req.Tools)
	}

	expected := []ai.Message{
		{Role: ai.RoleUser, Content: "first"},
		{Role: ai.RoleAssistant, Content: "one"},
		{Role: ai.RoleUser, Content: "second"},
	}
	if len(req.Messages) != len(expected) {
		t.Fatalf("expected %d model messages, got %d", len(expected), len(req.Messages))
	}
	for i, m := range expected {
		if req.Messages[i].Role != m.Role || req.Messages[i].Content != m.Content {
			t.Errorf("message %d: expected %s %q, got %s %q", i, m.Role, m.Content, req.Messages[i].Role, req.Messages[i].Content)
		}
	}
}

func TestSendMessage_WhileLoadingIsIgnored(t *testing.T) {
	adapter := &scriptedAdapter{scripts: []script{textTurn("a", "b")}}

	var c *Client
	var appendErr, sendErr error
	once := sync.Once{}
	c = New(adapter, WithOnChunk(func(stream.Chunk) {
		once.Do(func() {
			appendErr = c.Append(context.Background(), message.NewUserMessage("nested"))
			sendErr = c.SendMessage(context.Background(), "nested")
		})
	}))

	if err := c.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !errors.Is(appendErr, ErrBusy) {
		t.Errorf("expected ErrBusy from Append, got %v", appendErr)
	}
	if sendErr != nil {
		t.Errorf("expected SendMessage to be ignored, got %v", sendErr)
	}
	if adapter.requestCount() != 1 {
		t.Errorf("expected 1 request, got %d", adapter.requestCount())
	}
}

// ========== Errors and Stop ==========

func TestSendMessage_StreamErrorKeepsPartialMessage(t *testing.T) {
	boom := errors.New("connection reset")
	adapter := &scriptedAdapter{scripts: []script{{chunks: []stream.Chunk{stream.Text("par")}, err: boom}}}

	var reported []error
	c := New(adapter, WithOnError(func(err error) { reported = append(reported, err) }))

	err := c.SendMessage(context.Background(), "hi")
	if !errors.Is(err, boom) {
		t.Fatalf("expected stream error, got %v", err)
	}
	if !errors.Is(c.Err(), boom) {
		t.Errorf("expected Err() to hold the stream error, got %v", c.Err())
	}
	if len(reported) != 1 {
		t.Errorf("expected 1 OnError call, got %d", len(reported))
	}

	msgs := c.Messages()
	if len(msgs) != 2 || msgs[1].Text() != "par" {
		t.Errorf("expected partial assistant message 'par', got %+v", msgs)
	}
}

func TestSendMessage_ConnectError(t *testing.T) {
	adapter := &scriptedAdapter{
		scripts:    []script{textTurn("ok")},
		connectErr: &connection.HTTPError{StatusCode: 500, Body: "down"},
	}
	var errChanges []error
	c := New(adapter, WithOnErrorChange(func(err error) { errChanges = append(errChanges, err) }))

	err := c.SendMessage(context.Background(), "hi")
	var httpErr *connection.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 500 {
		t.Fatalf("expected HTTPError 500, got %v", err)
	}
	if len(c.Messages()) != 1 {
		t.Errorf("expected only the user message, got %d", len(c.Messages()))
	}

	adapter.mu.Lock()
	adapter.connectErr = nil
	adapter.scripts = []script{{}, textTurn("ok")}
	adapter.mu.Unlock()

	if err := c.SendMessage(context.Background(), "again"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Err() != nil {
		t.Errorf("expected error to be cleared, got %v", c.Err())
	}
	if len(errChanges) != 2 || errChanges[0] == nil || errChanges[1] != nil {
		t.Errorf("expected error changes [err nil], got %v", errChanges)
	}
}

func TestStop_FinalizesPartialTurn(t *testing.T) {
	adapter := &scriptedAdapter{scripts: []script{textTurn("partial", " never", " seen")}}

	var c *Client
	finished := 0
	c = New(adapter,
		WithOnChunk(func(chunk stream.Chunk) {
			if chunk.Content == "partial" {
				c.Stop()
			}
		}),
		WithOnFinish(func(message.UIMessage) { finished++ }),
	)

	if err := c.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("expected no error after Stop, got %v", err)
	}
	if c.Err() != nil {
		t.Errorf("expected no recorded error, got %v", c.Err())
	}
	if finished != 0 {
		t.Errorf("expected no OnFinish for a stopped turn, got %d", finished)
	}
	msgs := c.Messages()
	if len(msgs) != 2 || msgs[1].Text() != "partial" {
		t.Errorf("expected partial reply to be kept, got %+v", msgs)
	}
	if c.IsLoading() {
		t.Error("expected loading to be false")
	}
}

func TestStop_WithoutTurnIsNoop(t *testing.T) {
	c := New(&scriptedAdapter{})
	c.Stop()
	if c.IsLoading() {
		t.Error("expected client to stay idle")
	}
}

// ========== Reload, Clear, Store ==========

func TestReload_ReplacesLastReply(t *testing.T) {
	adapter := &scriptedAdapter{scripts: []script{textTurn("first"), textTurn("second")}}
	c := New(adapter)
	ctx := context.Background()

	if err := c.SendMessage(ctx, "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Reload(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages after reload, got %d", len(msgs))
	}
	if msgs[1].Text() != "second" {
		t.Errorf("expected reloaded reply 'second', got %q", msgs[1].Text())
	}
	if got := len(adapter.request(1).Messages); got != 1 {
		t.Errorf("expected reload request to carry only the user message, got %d", got)
	}
}

func TestReload_NoUserMessage(t *testing.T) {
	c := New(&scriptedAdapter{})
	if err := c.Reload(context.Background()); !errors.Is(err, ErrNoUserMessage) {
		t.Fatalf("expected ErrNoUserMessage, got %v", err)
	}
	if c.IsLoading() {
		t.Error("expected loading to be released")
	}
}

func TestStore_MirrorsHistory(t *testing.T) {
	store := inmemory.New()
	adapter := &scriptedAdapter{scripts: []script{textTurn("Hello", " world")}}
	c := New(adapter, WithStore(store))
	ctx := context.Background()

	if err := c.SendMessage(ctx, "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := store.AllMessages(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 2 || stored[1].Text() != "Hello world" {
		t.Fatalf("expected stored reply 'Hello world', got %+v", stored)
	}

	restored := New(adapter, WithStore(store))
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(restored.Messages()) != 2 {
		t.Errorf("expected 2 restored messages, got %d", len(restored.Messages()))
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Messages()) != 0 {
		t.Errorf("expected empty history after clear, got %d", len(c.Messages()))
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("expected empty store after clear, got %d", n)
	}
}

// blockingAdapter streams one text chunk, then blocks until the turn is
// cancelled.
type blockingAdapter struct {
	streaming chan struct{}
}

func (a *blockingAdapter) Connect(ctx context.Context, _ connection.Request) (iter.Seq2[stream.Chunk, error], error) {
	return func(yield func(stream.Chunk, error) bool) {
		if !yield(stream.Text("partial"), nil) {
			return
		}
		close(a.streaming)
		<-ctx.Done()
		yield(stream.Chunk{}, context.Cause(ctx))
	}, nil
}

func TestClear_DuringStreamLeavesStoreEmpty(t *testing.T) {
	store := inmemory.New()
	adapter := &blockingAdapter{streaming: make(chan struct{})}
	c := New(adapter, WithStore(store))
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.SendMessage(ctx, "hi") }()

	<-adapter.streaming
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("expected stopped turn to return nil, got %v", err)
	}

	stored, err := store.AllMessages(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("expected empty store after clear, got %+v", stored)
	}
	if len(c.Messages()) != 0 {
		t.Errorf("expected empty history after clear, got %d", len(c.Messages()))
	}

	restored := New(adapter, WithStore(store))
	if err := restored.Restore(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(restored.Messages()) != 0 {
		t.Errorf("expected nothing to restore, got %d", len(restored.Messages()))
	}
}

func TestInitialMessagesAndSetMessages(t *testing.T) {
	seed := message.NewUserMessage("seeded")
	c := New(&scriptedAdapter{}, WithInitialMessages(seed), WithID("chat-1"))

	if c.ID() != "chat-1" {
		t.Errorf("expected id chat-1, got %q", c.ID())
	}
	if msgs := c.Messages(); len(msgs) != 1 || msgs[0].Text() != "seeded" {
		t.Fatalf("expected seeded history, got %+v", msgs)
	}

	c.SetMessages(nil)
	if len(c.Messages()) != 0 {
		t.Errorf("expected empty history, got %d", len(c.Messages()))
	}
}

func TestNew_GeneratesULID(t *testing.T) {
	c := New(&scriptedAdapter{})
	if len(c.ID()) != 26 {
		t.Errorf("expected a 26 character ULID, got %q", c.ID())
	}
}

// ========== Client tools ==========

func TestClientTools_ExecuteAndResubmit(t *testing.T) {
	adapter := &scriptedAdapter{scripts: []script{
		toolTurn("call_1", calculator.Name, `{"a":2,"b":3,"op":"add"}`),
		textTurn("The answer is 5"),
	}}
	c := New(adapter, WithTools(tool.NewCatalog(calculator.New())))

	if err := c.SendMessage(context.Background(), "2+3?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adapter.requestCount() != 2 {
		t.Fatalf("expected 2 requests, got %d", adapter.requestCount())
	}

	msgs := c.Messages()
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	result := msgs[1].ToolResult("call_1")
	if result == nil {
		t.Fatal("expected tool-result part on the tool calling message")
	}
	if result.Content != `{"result":5}` || result.ToolResultStatus() != stream.ToolResultComplete {
		t.Errorf("unexpected tool result: %+v", result)
	}
	if call := msgs[1].ToolCall("call_1"); call == nil || call.Output == nil {
		t.Errorf("expected tool call output to be set, got %+v", call)
	}
	if msgs[2].Text() != "The answer is 5" {
		t.Errorf("expected final answer, got %q", msgs[2].Text())
	}

	second := adapter.request(1).Messages
	last := second[len(second)-1]
	if last.Role != ai.RoleTool || last.ToolCallID != "call_1" || last.Content != `{"result":5}` {
		t.Errorf("expected tool message in resubmission, got %+v", last)
	}
}

func TestOverview_CountsTurnsAndTools(t *testing.T) {
	done := stream.Done("tool_calls")
	done.Usage = &ai.Usage{PromptTokens: 4, CompletionTokens: 3, TotalTokens: 7}
	adapter := &scriptedAdapter{scripts: []script{
		{chunks: []stream.Chunk{stream.ToolCallDelta(0, "call_1", calculator.Name, `{"a":2,"b":3,"op":"add"}`), done}},
		textTurn("5"),
	}}
	c := New(adapter, WithTools(tool.NewCatalog(calculator.New())))

	if err := c.SendMessage(context.Background(), "2+3?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o := c.Overview()
	if o.Turns != 2 {
		t.Errorf("expected 2 turns, got %d", o.Turns)
	}
	if o.Usage.TotalTokens != 7 {
		t.Errorf("expected 7 tokens, got %d", o.Usage.TotalTokens)
	}
	if o.ToolCalls[calculator.Name] != 1 || o.ToolRuns[calculator.Name] != 1 {
		t.Errorf("expected one call and one run, got %v / %v", o.ToolCalls, o.ToolRuns)
	}
	if o.FinishReasons["tool_calls"] != 1 || o.FinishReasons["stop"] != 1 {
		t.Errorf("unexpected finish reasons %v", o.FinishReasons)
	}

	if err := c.Clear(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Overview().Turns != 0 {
		t.Error("expected Clear to reset the overview")
	}
}

func TestClientTools_ErrorIsRecorded(t *testing.T) {
	adapter := &scriptedAdapter{scripts: []script{
		toolTurn("call_1", calculator.Name, `{"a":1,"b":0,"op":"div"}`),
		textTurn("cannot divide"),
	}}
	c := New(adapter, WithTools(tool.NewCatalog(calculator.New())))

	if err := c.SendMessage(context.Background(), "1/0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := c.Messages()[1].ToolResult("call_1")
	if result == nil || result.ToolResultStatus() != stream.ToolResultError {
		t.Fatalf("expected error tool result, got %+v", result)
	}
	if result.Error != calculator.ErrDivisionByZero.Error() {
		t.Errorf("expected division error, got %q", result.Error)
	}
	if adapter.requestCount() != 2 {
		t.Errorf("expected the error to be resubmitted, got %d requests", adapter.requestCount())
	}
}

func TestClientTools_MaxRounds(t *testing.T) {
	var requests int
	adapter := connection.NewStream(func(context.Context, connection.Request) iter.Seq2[stream.Chunk, error] {
		requests++
		id := fmt.Sprintf("call_%d", requests)
		return func(yield func(stream.Chunk, error) bool) {
			if yield(stream.ToolCallDelta(0, id, calculator.Name, `{"a":1,"b":1,"op":"add"}`), nil) {
				yield(stream.Done("tool_calls"), nil)
			}
		}
	})
	c := New(adapter, WithTools(tool.NewCatalog(calculator.New())), WithMaxToolRounds(2))

	if err := c.SendMessage(context.Background(), "loop"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests != 3 {
		t.Errorf("expected 3 requests (initial + 2 rounds), got %d", requests)
	}
	msgs := c.Messages()
	if pending := msgs[len(msgs)-1].PendingToolCalls(); len(pending) != 1 {
		t.Errorf("expected the last tool call to stay pending, got %d", len(pending))
	}
}

func TestAddToolResult_ResumesConversation(t *testing.T) {
	adapter := &scriptedAdapter{scripts: []script{
		toolTurn("call_x", "lookup", `{"q":"go"}`),
		textTurn("found it"),
	}}
	c := New(adapter, WithTools(tool.NewCatalog(calculator.New())))
	ctx := context.Background()

	if err := c.SendMessage(ctx, "search"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adapter.requestCount() != 1 {
		t.Fatalf("expected unregistered tool to pause the conversation, got %d requests", adapter.requestCount())
	}

	if err := c.AddToolResult(ctx, "call_x", map[string]any{"ok": true}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adapter.requestCount() != 2 {
		t.Fatalf("expected resubmission, got %d requests", adapter.requestCount())
	}
	second := adapter.request(1).Messages
	last := second[len(second)-1]
	if last.Role != ai.RoleTool || last.Content != `{"ok":true}` {
		t.Errorf("expected tool message with output, got %+v", last)
	}
	if msgs := c.Messages(); msgs[len(msgs)-1].Text() != "found it" {
		t.Errorf("expected final reply, got %q", msgs[len(msgs)-1].Text())
	}
}

func TestAddToolResult_UnknownCall(t *testing.T) {
	c := New(&scriptedAdapter{})
	err := c.AddToolResult(context.Background(), "nope", "x", nil)
	if !errors.Is(err, ErrToolCallNotFound) {
		t.Fatalf("expected ErrToolCallNotFound, got %v", err)
	}
}

func TestRespondToApproval_ResumesConversation(t *testing.T) {
	approval := stream.Chunk{
		Type:       stream.ChunkApprovalRequested,
		ToolCallID: "call_1",
		ToolName:   "delete_file",
		Input:      json.RawMessage(`{"path":"/tmp/x"}`),
		Approval:   &stream.Approval{ID: "appr_1"},
	}
	adapter := &scriptedAdapter{scripts: []script{
		{chunks: []stream.Chunk{
			stream.ToolCallDelta(0, "call_1", "delete_file", `{"path":"/tmp/x"}`),
			approval,
			stream.Done("tool_calls"),
		}},
		textTurn("deleted"),
	}}
	c := New(adapter)
	ctx := context.Background()

	if err := c.SendMessage(ctx, "clean up"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := c.Messages()[1].ToolCall("call_1")
	if call == nil || call.ToolCallStatus() != stream.ToolCallApprovalRequested {
		t.Fatalf("expected approval-requested tool call, got %+v", call)
	}

	if err := c.RespondToApproval(ctx, "missing", true); !errors.Is(err, ErrToolCallNotFound) {
		t.Errorf("expected ErrToolCallNotFound, got %v", err)
	}
	if err := c.RespondToApproval(ctx, "appr_1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if adapter.requestCount() != 2 {
		t.Fatalf("expected resubmission after approval, got %d requests", adapter.requestCount())
	}

	resubmitted := adapter.request(1).Messages[1]
	if len(resubmitted.ToolCalls) != 1 || resubmitted.ToolCalls[0].ID != "call_1" {
		t.Errorf("expected approved tool call to be resubmitted, got %+v", resubmitted)
	}
	approved := c.Messages()[1].ToolCall("call_1")
	if approved.Approval == nil || approved.Approval.Approved == nil || !*approved.Approval.Approved {
		t.Errorf("expected approval to be recorded, got %+v", approved.Approval)
	}
}

// ========== Recording ==========

func TestWithRecording_CapturesTurn(t *testing.T) {
	adapter := &scriptedAdapter{scripts: []script{textTurn("a", "b")}}
	c := New(adapter, WithRecording("lorem-1", "lorem"))

	if c.LastRecording() != nil {
		t.Fatal("expected no recording before the first turn")
	}
	if err := c.SendMessage(context.Background(), "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := c.LastRecording()
	if rec == nil {
		t.Fatal("expected a recording")
	}
	if len(rec.Chunks) != 3 {
		t.Errorf("expected 3 recorded chunks, got %d", len(rec.Chunks))
	}
	if rec.Model != "lorem-1" || rec.Provider != "lorem" {
		t.Errorf("unexpected recording tags: %s/%s", rec.Model, rec.Provider)
	}
}
