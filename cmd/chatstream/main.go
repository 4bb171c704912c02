// Command chatstream drives the stream processing engine from a terminal:
// it chats with a model, replays recorded turns and inspects recordings.
package main

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/chatstream/core/connection"
	"github.com/leofalp/chatstream/core/connection/middleware"
	"github.com/leofalp/chatstream/internal/config"
	"github.com/leofalp/chatstream/providers/ai/lorem"
	"github.com/leofalp/chatstream/providers/observability"
	"github.com/leofalp/chatstream/providers/observability/slogobs"
)

// version is the CLI build version.
const version = "0.1.0"

// globalFlags mirror the configuration fields. A flag only overrides the
// configuration when it was set on the command line.
type globalFlags struct {
	configFile string
	envFile    string
	endpoint   string
	transport  string
	apiKey     string
	model      string
	strategy   string
	timeout    time.Duration
	retries    int
	logLevel   string
	logFormat  string
	render     string
}

// app carries the state shared by every command.
type app struct {
	flags  globalFlags
	stdout io.Writer
	stderr io.Writer
	lookup func(string) (string, bool)
	lorem  []lorem.Option
}

func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr, lookup: os.LookupEnv}
	if err := a.command().Execute(); err != nil {
		os.Exit(1)
	}
}

// command builds the root command and its subcommands.
func (a *app) command() *cobra.Command {
	root := &cobra.Command{
		Use:          "chatstream",
		Short:        "Stream, replay and inspect AI chat turns",
		Version:      version,
		SilenceUsage: true,
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.flags.configFile, "config", "", "configuration file (default chatstream.yaml)")
	flags.StringVar(&a.flags.envFile, "env-file", "", "dotenv file (default .env)")
	flags.StringVar(&a.flags.endpoint, "endpoint", "", "chat endpoint URL for the sse and http transports")
	flags.StringVar(&a.flags.transport, "transport", "", "transport: sse, http or lorem")
	flags.StringVar(&a.flags.apiKey, "api-key", "", "bearer token sent to the endpoint")
	flags.StringVar(&a.flags.model, "model", "", "model name")
	flags.StringVar(&a.flags.strategy, "strategy", "", "chunk strategy, e.g. punctuation or word+batch")
	flags.DurationVar(&a.flags.timeout, "timeout", 0, "per turn timeout")
	flags.IntVar(&a.flags.retries, "retries", 0, "connection retries, 0 disables")
	flags.StringVar(&a.flags.logLevel, "log-level", "", "trace, debug, info, warn or error")
	flags.StringVar(&a.flags.logFormat, "log-format", "", "compact, pretty or json")
	flags.StringVar(&a.flags.render, "render", renderAuto, "output rendering: auto, markdown or plain")

	root.AddCommand(a.demoCommand())
	root.AddCommand(a.replayCommand())
	root.AddCommand(a.inspectCommand())
	return root
}

// configure loads the configuration with the flags set on cmd applied last.
func (a *app) configure(cmd *cobra.Command) (*config.Config, error) {
	set := cmd.Flags()
	override := func(cfg *config.Config) {
		if set.Changed("endpoint") {
			cfg.Endpoint = a.flags.endpoint
		}
		if set.Changed("transport") {
			cfg.Transport = config.Transport(a.flags.transport)
		}
		if set.Changed("api-key") {
			cfg.APIKey = a.flags.apiKey
		}
		if set.Changed("model") {
			cfg.Model = a.flags.model
		}
		if set.Changed("strategy") {
			cfg.Strategy.Name = a.flags.strategy
		}
		if set.Changed("timeout") {
			cfg.Timeout = a.flags.timeout
		}
		if set.Changed("retries") {
			cfg.Retries = a.flags.retries
		}
		if set.Changed("log-level") {
			cfg.Log.Level = a.flags.logLevel
		}
		if set.Changed("log-format") {
			cfg.Log.Format = a.flags.logFormat
		}
	}

	return config.Load(
		config.WithFile(a.flags.configFile),
		config.WithEnvFile(a.flags.envFile),
		config.WithLookup(a.lookup),
		config.WithOverride(override),
	)
}

func (a *app) observer(cfg *config.Config) *slogobs.Observer {
	return slogobs.New(
		slogobs.WithFormat(slogobs.ParseFormat(cfg.Log.Format)),
		slogobs.WithLevel(slogobs.ParseLevel(cfg.Log.Level)),
		slogobs.WithOutput(a.stderr),
		slogobs.WithAttributes(
			observability.String(observability.AttrLLMProvider, string(cfg.Transport)),
			observability.String(observability.AttrLLMModel, cfg.Model),
		),
	)
}

// adapter builds the configured transport wrapped with logging, timeout
// and retry middleware, outermost first.
func (a *app) adapter(cfg *config.Config, observer *slogobs.Observer) connection.Adapter {
	opts := []connection.Option{connection.WithObserver(observer)}
	if cfg.APIKey != "" {
		opts = append(opts, connection.WithAPIKey(cfg.APIKey))
	}

	var base connection.Adapter
	switch cfg.Transport {
	case config.TransportSSE:
		base = connection.NewServerSentEvents(cfg.Endpoint, opts...)
	case config.TransportHTTP:
		base = connection.NewHTTPStream(cfg.Endpoint, opts...)
	default:
		base = connection.NewProviderAdapter(lorem.New(a.lorem...), cfg.Model, opts...)
	}

	middlewares := []connection.Middleware{
		middleware.NewLoggingMiddleware(observer.Logger(), middleware.LogLevelStandard),
	}
	if cfg.Timeout > 0 {
		middlewares = append(middlewares, middleware.NewTimeoutMiddleware(cfg.Timeout))
	}
	if retry, ok := cfg.RetryConfig(); ok {
		retry.Observer = observer
		middlewares = append(middlewares, middleware.NewRetryMiddleware(retry))
	}
	return connection.Chain(base, middlewares...)
}
