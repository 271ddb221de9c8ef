package xretry

import (
	"context"
	"math"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// Retryer 有限次重试执行器，底层为 retry-go。并发安全。
type Retryer struct {
	attempts uint
	backoff  BackoffPolicy
	onRetry  func(attempt int, err error)
}

// RetryerOption 执行器配置。
type RetryerOption func(*Retryer)

// WithAttempts 总尝试次数（含首次），0 表示直到成功或 ctx 取消。
func WithAttempts(n uint) RetryerOption {
	return func(r *Retryer) { r.attempts = n }
}

// WithBackoffPolicy 设置退避策略，nil 忽略。
func WithBackoffPolicy(p BackoffPolicy) RetryerOption {
	return func(r *Retryer) {
		if p != nil {
			r.backoff = p
		}
	}
}

// WithOnRetry 每次失败后回调，attempt 从 1 开始。
func WithOnRetry(fn func(attempt int, err error)) RetryerOption {
	return func(r *Retryer) {
		if fn != nil {
			r.onRetry = fn
		}
	}
}

// NewRetryer 默认 3 次，指数退避。
func NewRetryer(opts ...RetryerOption) *Retryer {
	r := &Retryer{
		attempts: 3,
		backoff:  NewExponentialBackoff(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Do 执行 fn 直到成功、次数耗尽、遇到 Permanent 错误或 ctx 取消。
// 失败时只返回最后一次的错误。
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx == nil {
		return ErrNilContext
	}
	if fn == nil {
		return ErrNilFunc
	}
	return retry.New(r.options(ctx)...).Do(func() error {
		return fn(ctx)
	})
}

// DoWithResult 带返回值的 Do。
func DoWithResult[T any](ctx context.Context, r *Retryer, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if ctx == nil {
		return zero, ErrNilContext
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	return retry.NewWithData[T](r.options(ctx)...).Do(func() (T, error) {
		return fn(ctx)
	})
}

func (r *Retryer) options(ctx context.Context) []retry.Option {
	backoff := r.backoff
	opts := []retry.Option{
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		// retry-go v5 的 n 从 1 开始，与 NextDelay 一致
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			return backoff.NextDelay(clampInt(n))
		}),
	}
	if r.attempts == 0 {
		opts = append(opts, retry.UntilSucceeded())
	} else {
		opts = append(opts, retry.Attempts(r.attempts))
	}
	if r.onRetry != nil {
		onRetry := r.onRetry
		// OnRetry 的 n 从 0 开始
		opts = append(opts, retry.OnRetry(func(n uint, err error) {
			onRetry(clampInt(n)+1, err)
		}))
	}
	return opts
}

func clampInt(n uint) int {
	if n > uint(math.MaxInt) {
		return math.MaxInt
	}
	return int(n)
}
