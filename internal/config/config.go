package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/leofalp/chatstream/core/connection/middleware"
	"github.com/leofalp/chatstream/core/cost"
	"github.com/leofalp/chatstream/core/stream"
)

const (
	DefaultFile    = "chatstream.yaml"
	DefaultEnvFile = ".env"
	DefaultModel   = "lorem-1"
	EnvPrefix      = "CHATSTREAM_"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Transport selects how the CLI reaches a model.
type Transport string

const (
	TransportSSE   Transport = "sse"
	TransportHTTP  Transport = "http"
	TransportLorem Transport = "lorem"
)

// Config is the resolved CLI configuration.
type Config struct {
	Endpoint      string                `yaml:"endpoint"`
	Transport     Transport             `yaml:"transport"`
	APIKey        string                `yaml:"api_key"`
	Model         string                `yaml:"model"`
	Strategy      stream.StrategyConfig `yaml:"strategy"`
	Timeout       time.Duration         `yaml:"timeout"`
	Retries       int                   `yaml:"retries"`
	MaxToolRounds int                   `yaml:"max_tool_rounds"`
	Recordings    string                `yaml:"recordings"`
	Pricing       cost.ModelCost        `yaml:"pricing"`
	Log           Log                   `yaml:"log"`
}

// Log holds the slogobs level and format names.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing else is set: the
// offline lorem transport with immediate emission.
func Default() *Config {
	return &Config{
		Transport:     TransportLorem,
		Model:         DefaultModel,
		Strategy:      stream.StrategyConfig{Name: "immediate"},
		Timeout:       2 * time.Minute,
		Retries:       2,
		MaxToolRounds: 5,
		Recordings:    "recordings/**/*.json",
		Log:           Log{Level: "info", Format: "compact"},
	}
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	file            string
	fileRequired    bool
	envFile         string
	envFileRequired bool
	lookup          func(string) (string, bool)
	overrides       []func(*Config)
}

// WithFile reads path instead of chatstream.yaml. The file must exist.
func WithFile(path string) Option {
	return func(l *loader) {
		if path != "" {
			l.file = path
			l.fileRequired = true
		}
	}
}

// WithEnvFile reads path instead of .env. The file must exist.
func WithEnvFile(path string) Option {
	return func(l *loader) {
		if path != "" {
			l.envFile = path
			l.envFileRequired = true
		}
	}
}

// WithLookup replaces os.LookupEnv.
func WithLookup(lookup func(string) (string, bool)) Option {
	return func(l *loader) {
		l.lookup = lookup
	}
}

// WithOverride runs fn after every source has been applied and before
// validation. The CLI uses it for flags.
func WithOverride(fn func(*Config)) Option {
	return func(l *loader) {
		l.overrides = append(l.overrides, fn)
	}
}

// Load resolves the configuration and validates it.
func Load(opts ...Option) (*Config, error) {
	l := &loader{
		file:    DefaultFile,
		envFile: DefaultEnvFile,
		lookup:  os.LookupEnv,
	}
	for _, opt := range opts {
		opt(l)
	}

	cfg := Default()
	if err := l.readFile(cfg); err != nil {
		return nil, err
	}

	dotenv, err := l.readEnvFile()
	if err != nil {
		return nil, err
	}
	lookup := func(key string) (string, bool) {
		if value, ok := l.lookup(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}
	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}
	for _, override := range l.overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *loader) readFile(cfg *Config) error {
	b, err := os.ReadFile(l.file)
	if errors.Is(err, fs.ErrNotExist) && !l.fileRequired {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", l.file, err)
	}
	return nil
}

func (l *loader) readEnvFile() (map[string]string, error) {
	values, err := godotenv.Read(l.envFile)
	if errors.Is(err, fs.ErrNotExist) && !l.envFileRequired {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return values, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	text := map[string]*string{
		"ENDPOINT":   &cfg.Endpoint,
		"TRANSPORT":  (*string)(&cfg.Transport),
		"API_KEY":    &cfg.APIKey,
		"MODEL":      &cfg.Model,
		"STRATEGY":   &cfg.Strategy.Name,
		"RECORDINGS": &cfg.Recordings,
		"LOG_LEVEL":  &cfg.Log.Level,
		"LOG_FORMAT": &cfg.Log.Format,
	}
	for key, target := range text {
		if value, ok := lookup(EnvPrefix + key); ok {
			*target = value
		}
	}

	ints := map[string]*int{
		"RETRIES":             &cfg.Retries,
		"MAX_TOOL_ROUNDS":     &cfg.MaxToolRounds,
		"STRATEGY_BATCH_SIZE": &cfg.Strategy.BatchSize,
	}
	for key, target := range ints {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*target = n
	}

	durations := map[string]*time.Duration{
		"TIMEOUT":           &cfg.Timeout,
		"STRATEGY_INTERVAL": &cfg.Strategy.Interval,
	}
	for key, target := range durations {
		value, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*target = d
	}
	return nil
}

// Validate reports the first inconsistent field. Transport names are
// normalized to lower case.
func (c *Config) Validate() error {
	c.Transport = Transport(strings.ToLower(strings.TrimSpace(string(c.Transport))))
	switch c.Transport {
	case TransportSSE, TransportHTTP:
		if strings.TrimSpace(c.Endpoint) == "" {
			return fmt.Errorf("%w: endpoint is required for transport %q", ErrInvalid, c.Transport)
		}
	case TransportLorem:
		// ok
	default:
		return fmt.Errorf("%w: transport %q (want sse|http|lorem)", ErrInvalid, c.Transport)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: negative timeout %s", ErrInvalid, c.Timeout)
	}
	if c.Retries < 0 {
		return fmt.Errorf("%w: negative retries %d", ErrInvalid, c.Retries)
	}
	if c.MaxToolRounds < 0 {
		return fmt.Errorf("%w: negative max_tool_rounds %d", ErrInvalid, c.MaxToolRounds)
	}
	if c.Pricing.InputCostPerMillion < 0 || c.Pricing.OutputCostPerMillion < 0 {
		return fmt.Errorf("%w: negative pricing", ErrInvalid)
	}
	if _, err := stream.ParseStrategy(c.Strategy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ChunkStrategy builds the configured strategy.
func (c *Config) ChunkStrategy() (stream.ChunkStrategy, error) {
	return stream.ParseStrategy(c.Strategy)
}

// RetryConfig maps Retries onto the retry middleware. The bool is false when
// retries are disabled.
func (c *Config) RetryConfig() (middleware.RetryConfig, bool) {
	return middleware.RetryConfig{MaxRetries: c.Retries}, c.Retries > 0
}
