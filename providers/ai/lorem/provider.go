// Package lorem is an in-process [ai.StreamProvider] that streams lorem ipsum
// text. It needs no network or API key and backs the CLI demo and the tests.
//
// The model name selects the behavior: models must start with "lorem";
// "slow" and "fast" change the pace; "think" streams a reasoning block
// first. When the last user message names one of the advertised tools, the
// turn is a call to that tool with arguments generated from its schema, and
// a following tool result is acknowledged in the next turn.
package lorem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	loremgen "github.com/bozaro/golorem"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/leofalp/chatstream/providers/ai"
)

// ErrUnsupportedModel is returned for model names not starting with "lorem".
var ErrUnsupportedModel = errors.New("lorem: unsupported model")

const (
	defaultModel     = "lorem-1"
	defaultDelay     = 40 * time.Millisecond
	defaultSentences = 3
	toolCallAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Provider generates lorem ipsum turns.
type Provider struct {
	generator *loremgen.Lorem
	delay     time.Duration
	sentences int
}

// Option configures a Provider.
type Option func(*Provider)

// WithDelay sets the base pause between words. Zero streams without pauses.
func WithDelay(d time.Duration) Option {
	return func(p *Provider) {
		p.delay = max(d, 0)
	}
}

// WithSentences sets how many sentences a text turn contains.
func WithSentences(n int) Option {
	return func(p *Provider) {
		if n > 0 {
			p.sentences = n
		}
	}
}

// New returns a lorem provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		generator: loremgen.New(),
		delay:     defaultDelay,
		sentences: defaultSentences,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements ai.StreamProvider.
func (p *Provider) Name() string {
	return "lorem"
}

// StreamMessage implements ai.StreamProvider.
func (p *Provider) StreamMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	model := request.Model
	if model == "" {
		model = defaultModel
	}
	if !strings.HasPrefix(model, "lorem") {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, model)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	delay := p.delay
	switch {
	case strings.Contains(model, "slow"):
		delay *= 5
	case strings.Contains(model, "fast"):
		delay /= 4
	}

	t := &turn{
		ctx:    ctx,
		delay:  delay,
		prompt: promptTokens(request.Messages),
	}
	return ai.NewChatStream(func(yield func(ai.StreamEvent, error) bool) {
		t.yield = yield
		if strings.Contains(model, "think") {
			if !t.words(ai.StreamEventReasoning, p.generator.Sentence(8, 16)) {
				return
			}
		}

		last := lastMessage(request.Messages)
		switch {
		case last.Role == ai.RoleTool:
			if !t.words(ai.StreamEventContent, "The tool returned "+last.Content+". "+p.generator.Sentence(5, 10)) {
				return
			}
			t.finish("stop")
		case last.Role == ai.RoleUser && namedTool(last.Content, request.Tools) != nil:
			if !t.toolCall(namedTool(last.Content, request.Tools), p.arguments) {
				return
			}
			t.finish("tool_calls")
		default:
			if !t.words(ai.StreamEventContent, p.text()) {
				return
			}
			t.finish("stop")
		}
	}), nil
}

func (p *Provider) text() string {
	sentences := make([]string, p.sentences)
	for i := range sentences {
		sentences[i] = p.generator.Sentence(5, 12)
	}
	return strings.Join(sentences, " ")
}

// arguments fills the required properties of a tool's JSON schema: the first
// enum value when there is one, a small number, a lorem word or true.
func (p *Provider) arguments(schema json.RawMessage) string {
	var parsed struct {
		Required   []string `json:"required"`
		Properties map[string]struct {
			Type string `json:"type"`
			Enum []any  `json:"enum"`
		} `json:"properties"`
	}
	if len(schema) == 0 || json.Unmarshal(schema, &parsed) != nil {
		return "{}"
	}

	args := make(map[string]any, len(parsed.Required))
	for i, name := range parsed.Required {
		prop := parsed.Properties[name]
		switch {
		case len(prop.Enum) > 0:
			args[name] = prop.Enum[0]
		case prop.Type == "integer" || prop.Type == "number":
			args[name] = i + 2
		case prop.Type == "boolean":
			args[name] = true
		case prop.Type == "string":
			args[name] = strings.Trim(strings.Fields(p.generator.Sentence(1, 3))[0], ".,")
		}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

// turn emits the events of one response and tracks token usage.
type turn struct {
	ctx    context.Context
	yield  func(ai.StreamEvent, error) bool
	delay  time.Duration
	prompt int
	output int
}

func (t *turn) emit(event ai.StreamEvent) bool {
	if err := t.ctx.Err(); err != nil {
		t.yield(ai.StreamEvent{}, err)
		return false
	}
	return t.yield(event, nil)
}

func (t *turn) pause() bool {
	if t.delay <= 0 {
		return true
	}
	timer := time.NewTimer(t.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-t.ctx.Done():
		t.yield(ai.StreamEvent{}, t.ctx.Err())
		return false
	}
}

// words streams text one word at a time, keeping the separators.
func (t *turn) words(kind ai.StreamEventType, text string) bool {
	for word := range splitWords(text) {
		event := ai.StreamEvent{Type: kind}
		if kind == ai.StreamEventReasoning {
			event.Reasoning = word
		} else {
			event.Content = word
		}
		if !t.pause() || !t.emit(event) {
			return false
		}
		t.output++
	}
	return true
}

func (t *turn) toolCall(tool *ai.ToolDescription, arguments func(json.RawMessage) string) bool {
	args := arguments(tool.Parameters)
	id := "call_" + gonanoid.MustGenerate(toolCallAlphabet, 12)

	for i, fragment := range splitArguments(args, 3) {
		delta := &ai.ToolCallDelta{Index: 0, Arguments: fragment}
		if i == 0 {
			delta.ID, delta.Name = id, tool.Name
		}
		if !t.pause() || !t.emit(ai.StreamEvent{Type: ai.StreamEventToolCall, ToolCall: delta}) {
			return false
		}
	}
	t.output += len(args) / 4
	return true
}

func (t *turn) finish(reason string) {
	usage := &ai.Usage{PromptTokens: t.prompt, CompletionTokens: t.output, TotalTokens: t.prompt + t.output}
	if !t.emit(ai.StreamEvent{Type: ai.StreamEventUsage, Usage: usage}) {
		return
	}
	t.emit(ai.StreamEvent{Type: ai.StreamEventDone, FinishReason: reason})
}

// splitWords yields each word together with the whitespace that follows it.
func splitWords(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := 0
		for i := 0; i < len(text); i++ {
			if text[i] != ' ' && text[i] != '\n' {
				continue
			}
			for i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\n') {
				i++
			}
			if !yield(text[start : i+1]) {
				return
			}
			start = i + 1
		}
		if start < len(text) {
			yield(text[start:])
		}
	}
}

// splitArguments cuts s into at most n fragments of similar size.
func splitArguments(s string, n int) []string {
	if len(s) <= n {
		return []string{s}
	}
	size := (len(s) + n - 1) / n
	var out []string
	for len(s) > size {
		out = append(out, s[:size])
		s = s[size:]
	}
	return append(out, s)
}

func lastMessage(messages []ai.Message) ai.Message {
	if len(messages) == 0 {
		return ai.Message{}
	}
	return messages[len(messages)-1]
}

func namedTool(text string, tools []ai.ToolDescription) *ai.ToolDescription {
	lower := strings.ToLower(text)
	for i := range tools {
		if strings.Contains(lower, strings.ToLower(tools[i].Name)) {
			return &tools[i]
		}
	}
	return nil
}

func promptTokens(messages []ai.Message) int {
	words := 0
	for _, m := range messages {
		words += len(strings.Fields(m.Content))
	}
	return words
}
