package mqcore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xshard/pkg/resilience/xretry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunConsumeLoop_ReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	err := RunConsumeLoop(ctx, func(context.Context) error {
		if calls.Add(1) == 3 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRunConsumeLoop_NilConsume(t *testing.T) {
	assert.ErrorIs(t, RunConsumeLoop(context.Background(), nil), ErrNilHandler)
}

func TestRunConsumeLoop_BackoffGrowsAndResets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	testErr := errors.New("connection refused")
	var attempts []int
	var calls int
	err := RunConsumeLoop(ctx,
		func(context.Context) error {
			calls++
			switch calls {
			case 1, 2, 4:
				return testErr
			case 3:
				return nil
			default:
				cancel()
				return testErr
			}
		},
		WithBackoff(xretry.FixedBackoff(time.Millisecond)),
		WithOnError(func(err error, attempt int, delay time.Duration) {
			assert.ErrorIs(t, err, testErr)
			assert.Equal(t, time.Millisecond, delay)
			attempts = append(attempts, attempt)
		}),
	)
	require.ErrorIs(t, err, context.Canceled)
	// 第 3 轮成功后计数归零
	assert.Equal(t, []int{1, 2, 1}, attempts)
}

func TestRunConsumeLoop_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := RunConsumeLoop(ctx,
		func(context.Context) error { return errors.New("down") },
		WithBackoff(xretry.FixedBackoff(time.Hour)),
	)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestDefaultBackoff(t *testing.T) {
	d := DefaultBackoff().NextDelay(1)
	assert.InDelta(t, float64(100*time.Millisecond), float64(d), float64(10*time.Millisecond))
}
