package retry

import (
	"context"
	"testing"
	"time"

	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// transientErr marks itself retryable.
type transientErr struct{ msg string }

func (e *transientErr) Error() string   { return e.msg }
func (e *transientErr) Transient() bool { return true }

// permanentErr marks itself not retryable.
type permanentErr struct{ msg string }

func (e *permanentErr) Error() string   { return e.msg }
func (e *permanentErr) Transient() bool { return false }

func newTestExecutor(attempts int) *Executor {
	return New(logger.Mock(), WithMaxAttempts(attempts), WithBaseDelay(time.Millisecond))
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	e := newTestExecutor(3)
	calls := 0

	err := e.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientUntilSuccess(t *testing.T) {
	e := newTestExecutor(3)
	calls := 0

	err := e.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &transientErr{msg: "connection reset"}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentFailsImmediately(t *testing.T) {
	e := newTestExecutor(3)
	calls := 0
	cause := &permanentErr{msg: "bad request"}

	err := e.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return cause
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var pe *permanentErr
	assert.True(t, errors.As(err, &pe))
}

func TestDo_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	e := newTestExecutor(3)
	calls := 0

	err := e.Do(context.Background(), "op", func(ctx context.Context) error {
		calls++
		return &transientErr{msg: "server unavailable"}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var te *transientErr
	assert.True(t, errors.As(err, &te))
}

func TestDoValue_ReturnsValue(t *testing.T) {
	e := newTestExecutor(3)
	calls := 0

	v, err := DoValue(context.Background(), e, "op", func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &transientErr{msg: "timeout"}
		}
		return "data", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "data", v)
	assert.Equal(t, 2, calls)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(&transientErr{msg: "x"}))
	assert.False(t, IsTransient(&permanentErr{msg: "x"}))
	assert.False(t, IsTransient(errors.New("plain error")))
	assert.True(t, IsTransient(context.DeadlineExceeded))
}
