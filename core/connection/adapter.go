package connection

import (
	"context"
	"iter"
	"net/http"

	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/internal/utils"
	"github.com/leofalp/chatstream/providers/ai"
	"github.com/leofalp/chatstream/providers/observability"
)

// Request is the body of one turn sent to a backend.
type Request struct {
	Model    string               `json:"model,omitempty"`
	Messages []ai.Message         `json:"messages"`
	Tools    []ai.ToolDescription `json:"tools,omitempty"`
	Data     map[string]any       `json:"data,omitempty"` // Extra fields configured on the chat client
}

// Adapter opens an assistant turn. Connect returns once the connection is
// established; transport failures after that point are yielded by the
// sequence. Cancelling ctx stops the sequence promptly with ctx.Err().
//
// The returned sequence must be ranged over (breaking early is fine) so that
// the underlying connection is released.
type Adapter interface {
	Connect(ctx context.Context, request Request) (iter.Seq2[stream.Chunk, error], error)
}

// ConnectFunc adapts a function to Adapter.
type ConnectFunc func(ctx context.Context, request Request) (iter.Seq2[stream.Chunk, error], error)

// Connect calls f.
func (f ConnectFunc) Connect(ctx context.Context, request Request) (iter.Seq2[stream.Chunk, error], error) {
	return f(ctx, request)
}

// Middleware wraps a ConnectFunc.
type Middleware func(next ConnectFunc) ConnectFunc

// Chain wraps adapter with middlewares. The first middleware is the
// outermost, i.e. the first to see a request.
func Chain(adapter Adapter, middlewares ...Middleware) Adapter {
	chain := ConnectFunc(adapter.Connect)
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] != nil {
			chain = middlewares[i](chain)
		}
	}
	return chain
}

// HTTPError is returned by the HTTP adapters for a non-2xx response.
type HTTPError = utils.HTTPError

// Option configures the HTTP adapters.
type Option func(*options)

type options struct {
	client   *http.Client
	apiKey   string
	headers  []utils.HeaderOption
	observer observability.Provider
}

// WithHTTPClient sets the client used for requests. Defaults to http.DefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithHeader adds a request header. It may override the defaults.
func WithHeader(key, value string) Option {
	return func(o *options) {
		o.headers = append(o.headers, utils.HeaderOption{Key: key, Value: value})
	}
}

// WithObserver enables connection spans and logs.
func WithObserver(observer observability.Provider) Option {
	return func(o *options) {
		o.observer = observer
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.observer = observability.OrNop(o.observer)
	return o
}

// NewStream returns an Adapter over an in-process chunk source. Cancelling
// ctx ends the sequence with ctx.Err() even if source keeps producing.
func NewStream(source func(ctx context.Context, request Request) iter.Seq2[stream.Chunk, error]) Adapter {
	return ConnectFunc(func(ctx context.Context, request Request) (iter.Seq2[stream.Chunk, error], error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return withContext(ctx, source(ctx, request)), nil
	})
}

// withContext stops seq as soon as ctx is done, yielding ctx.Err() once.
func withContext(ctx context.Context, seq iter.Seq2[stream.Chunk, error]) iter.Seq2[stream.Chunk, error] {
	return func(yield func(stream.Chunk, error) bool) {
		for chunk, err := range seq {
			if ctxErr := ctx.Err(); ctxErr != nil {
				yield(stream.Chunk{}, ctxErr)
				return
			}
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}
