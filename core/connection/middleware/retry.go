package middleware

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"net"
	"time"

	"github.com/leofalp/chatstream/core/connection"
	"github.com/leofalp/chatstream/core/stream"
	"github.com/leofalp/chatstream/providers/observability"
)

// RetryConfig tunes the retry middleware. Zero values are replaced with the
// defaults below.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first failure. Default: 3.
	MaxRetries int `yaml:"max_retries"`

	// InitialBackoff is the wait before the first retry. Default: 500ms.
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// MaxBackoff caps the computed backoff. Default: 10s.
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// BackoffFactor is the exponential growth multiplier. Default: 2.
	BackoffFactor float64 `yaml:"backoff_factor"`

	// JitterFraction adds up to JitterFraction*backoff of random delay. Default: 0.1.
	JitterFraction float64 `yaml:"jitter_fraction"`

	// RetryableFunc reports whether a connection error should be retried.
	// The default retries HTTP 408, 429, 500, 502, 503, 504 and 529, and
	// network errors.
	RetryableFunc func(error) bool `yaml:"-"`

	// Observer, when set, receives a retry counter and a warning per retry.
	Observer observability.Provider `yaml:"-"`
}

// DefaultRetryable is the default RetryConfig.RetryableFunc.
func DefaultRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *connection.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 408, 429, 500, 502, 503, 504, 529:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = 500 * time.Millisecond
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 10 * time.Second
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2
	}
	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}
	if config.RetryableFunc == nil {
		config.RetryableFunc = DefaultRetryable
	}
	config.Observer = observability.OrNop(config.Observer)
}

// computeBackoff returns min(InitialBackoff*BackoffFactor^attempt, MaxBackoff) plus jitter.
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}

	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter
	return time.Duration(base + jitter)
}

// NewRetryMiddleware retries failed connection attempts. Only Connect is
// retried: once a sequence is returned its errors pass through untouched.
//
// On exhaustion the error wraps both ErrRetryExhausted and the last
// connection error.
func NewRetryMiddleware(config RetryConfig) connection.Middleware {
	applyRetryDefaults(&config)

	return func(next connection.ConnectFunc) connection.ConnectFunc {
		return func(ctx context.Context, request connection.Request) (iter.Seq2[stream.Chunk, error], error) {
			var lastErr error

			for attempt := 0; attempt <= config.MaxRetries; attempt++ {
				if attempt > 0 {
					backoff := computeBackoff(config, attempt-1)
					config.Observer.Counter(observability.MetricConnectionRetries).Add(ctx, 1)
					config.Observer.Warn(ctx, "retrying connection",
						observability.Int(observability.AttrConnectionAttempt, attempt),
						observability.Duration(observability.AttrDuration, backoff),
						observability.Error(lastErr),
					)

					timer := time.NewTimer(backoff)
					select {
					case <-ctx.Done():
						timer.Stop()
						return nil, ctx.Err()
					case <-timer.C:
					}
				}

				chunks, err := next(ctx, request)
				if err == nil {
					return chunks, nil
				}

				lastErr = err
				if !config.RetryableFunc(err) {
					return nil, err
				}
			}

			return nil, fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, config.MaxRetries, lastErr)
		}
	}
}
