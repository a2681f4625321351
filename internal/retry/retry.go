// Package retry wraps remote operations with bounded retries and exponential
// backoff. Only transient (network/server class) failures are retried;
// everything else propagates on first failure.
package retry

import (
	"context"
	"net"
	"time"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/pkg/errors"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 200 * time.Millisecond
)

// transienter is implemented by errors that know whether they are worth
// retrying (e.g. remote.StatusError).
type transienter interface {
	Transient() bool
}

// IsTransient reports whether err is a network/server-class failure eligible
// for retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var t transienter
	if errors.As(err, &t) {
		return t.Transient()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// Executor runs operations with retry. The delay before retry n doubles from
// the base each time; attempts are capped, and the last error is returned
// after exhaustion.
type Executor struct {
	log         zerolog.Logger
	maxAttempts int
	baseDelay   time.Duration
}

type Option func(*Executor)

func WithMaxAttempts(n int) Option {
	return func(e *Executor) { e.maxAttempts = n }
}

func WithBaseDelay(d time.Duration) Option {
	return func(e *Executor) { e.baseDelay = d }
}

func New(log logger.Logger, opts ...Option) *Executor {
	e := &Executor{
		log:         log.With().Str("module", "retry").Logger(),
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromConfig builds an Executor from the retry section of the app config.
func NewFromConfig(log logger.Logger, cfg *domain.Config) *Executor {
	opts := []Option{}
	if cfg.Retry.MaxAttempts > 0 {
		opts = append(opts, WithMaxAttempts(cfg.Retry.MaxAttempts))
	}
	if cfg.Retry.BaseDelayMillis > 0 {
		opts = append(opts, WithBaseDelay(time.Duration(cfg.Retry.BaseDelayMillis)*time.Millisecond))
	}
	return New(log, opts...)
}

func (e *Executor) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	// first retry waits base*2, then doubles
	b.InitialInterval = 2 * e.baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	var bo backoff.BackOff = b
	bo = backoff.WithMaxRetries(bo, uint64(e.maxAttempts-1))
	return backoff.WithContext(bo, ctx)
}

// Do runs op, retrying transient failures up to the attempt cap. name is used
// for logging only.
func (e *Executor) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	attempt := 0

	err := backoff.Retry(func() error {
		attempt++
		opErr := op(ctx)
		if opErr == nil {
			return nil
		}

		if !IsTransient(opErr) {
			return backoff.Permanent(opErr)
		}

		e.log.Debug().Err(opErr).Str("operation", name).Int("attempt", attempt).Msg("transient failure, will retry")
		return opErr
	}, e.newBackOff(ctx))

	if err != nil {
		return errors.Wrap(err, "operation %s failed after %d attempt(s)", name, attempt)
	}
	return nil
}

// DoValue runs op with the executor's retry policy and returns its value.
func DoValue[T any](ctx context.Context, e *Executor, name string, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Do(ctx, name, func(ctx context.Context) error {
		v, opErr := op(ctx)
		if opErr != nil {
			return opErr
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
