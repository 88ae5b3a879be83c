package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTemporary = errors.New("temporary error")

func TestDo_RetrySuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemporary
		}
		return nil
	}, WithMaxAttempts(3), WithBackoff(Fixed(time.Millisecond)))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_MaxAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errTemporary
	}, WithMaxAttempts(4), WithBackoff(Fixed(0)))

	assert.ErrorIs(t, err, errTemporary)
	assert.Equal(t, 4, attempts)
}

func TestDo_RetryIfStops(t *testing.T) {
	fatal := errors.New("fatal")
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return fatal
	}, WithRetryIf(func(err error) bool { return !errors.Is(err, fatal) }))

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
}

func TestDo_Permanent(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return Permanent(errTemporary)
	}, WithMaxAttempts(5))

	assert.Same(t, errTemporary, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancelDuringWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Do(ctx, func(ctx context.Context) error {
		return errTemporary
	}, WithMaxAttempts(10), WithBackoff(Fixed(time.Second)))

	assert.ErrorIs(t, err, errTemporary)
}

func TestDo_OnRetry(t *testing.T) {
	var seen []int
	_ = Do(context.Background(), func(ctx context.Context) error {
		return errTemporary
	},
		WithMaxAttempts(3),
		WithBackoff(Fixed(0)),
		WithOnRetry(func(attempt int, _ time.Duration, _ error) { seen = append(seen, attempt) }),
	)
	assert.Equal(t, []int{1, 2}, seen)
}

func TestExponential(t *testing.T) {
	b := Exponential(100*time.Millisecond, time.Second)
	assert.Equal(t, 100*time.Millisecond, b.Next(0))
	assert.Equal(t, 400*time.Millisecond, b.Next(2))
	assert.Equal(t, time.Second, b.Next(10))
}

func TestFullJitter(t *testing.T) {
	for i := 0; i < 50; i++ {
		d := FullJitter(10 * time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.Less(t, d, 10*time.Millisecond)
	}
	assert.Zero(t, FullJitter(0))
}
