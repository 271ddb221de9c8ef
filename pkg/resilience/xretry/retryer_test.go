package xretry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("flaky")

func TestRetryer_SucceedsAfterFailures(t *testing.T) {
	var retries []int
	r := NewRetryer(
		WithAttempts(5),
		WithBackoffPolicy(FixedBackoff(time.Millisecond)),
		WithOnRetry(func(attempt int, _ error) { retries = append(retries, attempt) }),
	)

	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetryer_ExhaustsAttempts(t *testing.T) {
	r := NewRetryer(WithAttempts(2), WithBackoffPolicy(FixedBackoff(0)))
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errFlaky
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 2, calls)
}

func TestRetryer_PermanentStops(t *testing.T) {
	r := NewRetryer(WithAttempts(5), WithBackoffPolicy(FixedBackoff(0)))
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(errFlaky)
	})
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 1, calls)
}

func TestRetryer_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRetryer(WithAttempts(0), WithBackoffPolicy(FixedBackoff(time.Millisecond)))
	err := r.Do(ctx, func(context.Context) error { return errFlaky })
	assert.Error(t, err)
}

func TestRetryer_NilArgs(t *testing.T) {
	r := NewRetryer()
	//nolint:staticcheck // 验证 nil context 防护
	assert.ErrorIs(t, r.Do(nil, func(context.Context) error { return nil }), ErrNilContext)
	assert.ErrorIs(t, r.Do(context.Background(), nil), ErrNilFunc)
}

func TestDoWithResult(t *testing.T) {
	r := NewRetryer(WithBackoffPolicy(FixedBackoff(0)))
	calls := 0
	v, err := DoWithResult(context.Background(), r, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errFlaky
		}
		return "PONG", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "PONG", v)
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
	assert.False(t, IsPermanent(nil))
	assert.False(t, IsPermanent(errFlaky))
}
