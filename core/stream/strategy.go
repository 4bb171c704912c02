package stream

import (
	"fmt"
	"strings"
	"time"
)

// ChunkStrategy decides when accumulated text is reported to OnTextUpdate.
// ShouldEmit receives the fragment just appended and the full text so far.
// Reset is called at the start of every stream. Implementations must not
// block; the processor always flushes pending text at finalization.
type ChunkStrategy interface {
	ShouldEmit(chunk, accumulated string) bool
	Reset()
}

// ImmediateStrategy emits on every chunk.
type ImmediateStrategy struct{}

// NewImmediateStrategy returns the default strategy.
func NewImmediateStrategy() *ImmediateStrategy {
	return &ImmediateStrategy{}
}

// ShouldEmit always reports true.
func (*ImmediateStrategy) ShouldEmit(string, string) bool { return true }

// Reset is a no-op.
func (*ImmediateStrategy) Reset() {}

// punctuation lists the characters that end a sentence or clause.
const punctuation = ".,!?;:\n"

// PunctuationStrategy emits when the chunk contains sentence or clause
// punctuation: . , ! ? ; : or a newline.
type PunctuationStrategy struct{}

// NewPunctuationStrategy returns a PunctuationStrategy.
func NewPunctuationStrategy() *PunctuationStrategy {
	return &PunctuationStrategy{}
}

// ShouldEmit reports whether chunk contains punctuation.
func (*PunctuationStrategy) ShouldEmit(chunk, _ string) bool {
	return strings.ContainsAny(chunk, punctuation)
}

// Reset is a no-op.
func (*PunctuationStrategy) Reset() {}

// WordBoundaryStrategy emits when the chunk ends with whitespace, meaning
// the last word in the accumulated text is complete.
type WordBoundaryStrategy struct{}

// NewWordBoundaryStrategy returns a WordBoundaryStrategy.
func NewWordBoundaryStrategy() *WordBoundaryStrategy {
	return &WordBoundaryStrategy{}
}

// ShouldEmit reports whether chunk ends with a space, tab or line break.
func (*WordBoundaryStrategy) ShouldEmit(chunk, _ string) bool {
	if chunk == "" {
		return false
	}
	switch chunk[len(chunk)-1] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// Reset is a no-op.
func (*WordBoundaryStrategy) Reset() {}

// BatchStrategy emits on every n-th chunk.
type BatchStrategy struct {
	size  int
	count int
}

// NewBatchStrategy returns a strategy emitting every size chunks. A size
// below 1 is treated as 1.
func NewBatchStrategy(size int) *BatchStrategy {
	if size < 1 {
		size = 1
	}
	return &BatchStrategy{size: size}
}

// ShouldEmit counts the chunk and reports true on every size-th one.
func (s *BatchStrategy) ShouldEmit(string, string) bool {
	s.count++
	if s.count >= s.size {
		s.count = 0
		return true
	}
	return false
}

// Reset restarts the count.
func (s *BatchStrategy) Reset() {
	s.count = 0
}

// DebounceStrategy emits when at least interval has passed since the last
// emission. The first chunk of a stream always emits.
type DebounceStrategy struct {
	interval time.Duration
	now      func() time.Time
	last     time.Time
	emitted  bool
}

// DebounceOption configures a DebounceStrategy.
type DebounceOption func(*DebounceStrategy)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) DebounceOption {
	return func(s *DebounceStrategy) {
		s.now = now
	}
}

// NewDebounceStrategy returns a DebounceStrategy with the given interval.
func NewDebounceStrategy(interval time.Duration, opts ...DebounceOption) *DebounceStrategy {
	s := &DebounceStrategy{interval: interval, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShouldEmit reports true on the first chunk and then once interval has
// passed since the previous emission.
func (s *DebounceStrategy) ShouldEmit(string, string) bool {
	now := s.now()
	if s.emitted && now.Sub(s.last) < s.interval {
		return false
	}
	s.last = now
	s.emitted = true
	return true
}

// Reset forgets the last emission, so the next chunk emits.
func (s *DebounceStrategy) Reset() {
	s.last = time.Time{}
	s.emitted = false
}

// CompositeStrategy emits when any of its strategies wants to. Every child
// is consulted on every chunk so that stateful children keep counting.
// An empty composite never emits.
type CompositeStrategy struct {
	strategies []ChunkStrategy
}

// NewCompositeStrategy combines strategies with OR semantics. Nil entries
// are dropped.
func NewCompositeStrategy(strategies ...ChunkStrategy) *CompositeStrategy {
	children := make([]ChunkStrategy, 0, len(strategies))
	for _, strategy := range strategies {
		if strategy != nil {
			children = append(children, strategy)
		}
	}
	return &CompositeStrategy{strategies: children}
}

// ShouldEmit asks every child and reports whether any of them emits.
func (s *CompositeStrategy) ShouldEmit(chunk, accumulated string) bool {
	emit := false
	for _, strategy := range s.strategies {
		if strategy.ShouldEmit(chunk, accumulated) {
			emit = true
		}
	}
	return emit
}

// Reset resets every child.
func (s *CompositeStrategy) Reset() {
	for _, strategy := range s.strategies {
		strategy.Reset()
	}
}

// StrategyConfig describes a strategy by name, as found in configuration
// files and command line flags.
type StrategyConfig struct {
	// Name is one of immediate, punctuation, word, batch or debounce. Several
	// names joined with "+" build a CompositeStrategy.
	Name      string        `yaml:"name"`
	BatchSize int           `yaml:"batch_size"`
	Interval  time.Duration `yaml:"interval"`
}

// ParseStrategy builds the strategy described by cfg. An empty name yields
// ImmediateStrategy.
func ParseStrategy(cfg StrategyConfig) (ChunkStrategy, error) {
	names := strings.Split(cfg.Name, "+")
	strategies := make([]ChunkStrategy, 0, len(names))

	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "", "immediate":
			strategies = append(strategies, NewImmediateStrategy())
		case "punctuation":
			strategies = append(strategies, NewPunctuationStrategy())
		case "word", "word-boundary":
			strategies = append(strategies, NewWordBoundaryStrategy())
		case "batch":
			strategies = append(strategies, NewBatchStrategy(cfg.BatchSize))
		case "debounce":
			strategies = append(strategies, NewDebounceStrategy(cfg.Interval))
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
		}
	}

	if len(strategies) == 1 {
		return strategies[0], nil
	}
	return NewCompositeStrategy(strategies...), nil
}
