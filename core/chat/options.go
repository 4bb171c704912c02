package chat

import (
	"github.com/leofalp/chatstream/core/message"
	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/providers/memory"
	"github.com/leofalp/chatstream/providers/observability"
	"github.com/leofalp/chatstream/providers/tool"
)

// DefaultMaxToolRounds bounds client tool executions per send.
const DefaultMaxToolRounds = 5

// Option configures a Client.
type Option func(*options)

type options struct {
	id            string
	model         string
	initial       []message.UIMessage
	body          map[string]any
	strategy      stream.ChunkStrategy
	parser        stream.StreamParser
	store         memory.Provider
	tools         *tool.Catalog
	maxToolRounds int
	observer      observability.Provider

	recordingModel    string
	recordingProvider string
	recording         bool

	onResponse       func()
	onChunk          func(stream.Chunk)
	onFinish         func(message.UIMessage)
	onError          func(error)
	onErrorChange    func(error)
	onMessagesChange func([]message.UIMessage)
	onLoadingChange  func(bool)
}

// WithID sets the chat id. Defaults to a new ULID.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithModel sets the model name sent with every request.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithInitialMessages seeds the history.
func WithInitialMessages(messages ...message.UIMessage) Option {
	return func(o *options) {
		o.initial = append(o.initial, messages...)
	}
}

// WithBody sets extra fields forwarded verbatim in every request.
func WithBody(body map[string]any) Option {
	return func(o *options) {
		o.body = body
	}
}

// WithChunkStrategy sets the text emission strategy of every turn.
func WithChunkStrategy(strategy stream.ChunkStrategy) Option {
	return func(o *options) {
		o.strategy = strategy
	}
}

// WithParser sets the stream parser of every turn.
func WithParser(parser stream.StreamParser) Option {
	return func(o *options) {
		o.parser = parser
	}
}

// WithStore mirrors the history into a memory provider.
func WithStore(store memory.Provider) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithTools registers client tools executed after each turn.
func WithTools(catalog *tool.Catalog) Option {
	return func(o *options) {
		o.tools = catalog
	}
}

// WithMaxToolRounds bounds automatic tool execution rounds per send. Zero
// disables automatic execution.
func WithMaxToolRounds(n int) Option {
	return func(o *options) {
		o.maxToolRounds = max(n, 0)
	}
}

// WithObserver enables tracing, metrics and logging.
func WithObserver(observer observability.Provider) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithRecording captures every turn as a chunk recording, see
// Client.LastRecording.
func WithRecording(model, provider string) Option {
	return func(o *options) {
		o.recording = true
		o.recordingModel = model
		o.recordingProvider = provider
	}
}

// WithOnResponse is called once the connection of a turn is established.
func WithOnResponse(fn func()) Option {
	return func(o *options) {
		o.onResponse = fn
	}
}

// WithOnChunk is called with every raw chunk before it is processed.
func WithOnChunk(fn func(stream.Chunk)) Option {
	return func(o *options) {
		o.onChunk = fn
	}
}

// WithOnFinish is called with each completed assistant message.
func WithOnFinish(fn func(message.UIMessage)) Option {
	return func(o *options) {
		o.onFinish = fn
	}
}

// WithOnError is called when a turn fails.
func WithOnError(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithOnErrorChange is called whenever the current error is set or cleared.
func WithOnErrorChange(fn func(error)) Option {
	return func(o *options) {
		o.onErrorChange = fn
	}
}

// WithOnMessagesChange is called with a copy of the history after every change.
func WithOnMessagesChange(fn func([]message.UIMessage)) Option {
	return func(o *options) {
		o.onMessagesChange = fn
	}
}

// WithOnLoadingChange is called when a turn starts or ends.
func WithOnLoadingChange(fn func(bool)) Option {
	return func(o *options) {
		o.onLoadingChange = fn
	}
}
