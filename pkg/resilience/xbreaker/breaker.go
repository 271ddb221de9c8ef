package xbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// State 熔断器状态。
type State = gobreaker.State

// Counts 统计窗口内的计数。
type Counts = gobreaker.Counts

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

// Breaker 熔断器，并发安全。
type Breaker struct {
	name                string
	consecutiveFailures uint32
	timeout             time.Duration
	interval            time.Duration
	maxRequests         uint32
	onStateChange       func(name string, from, to State)

	cb *gobreaker.CircuitBreaker[any]
}

// Option 配置函数。
type Option func(*Breaker)

// WithConsecutiveFailures 连续失败 n 次后打开，n 为 0 时忽略。
func WithConsecutiveFailures(n uint32) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.consecutiveFailures = n
		}
	}
}

// WithTimeout 打开状态持续多久后进入半开。
func WithTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithInterval 关闭状态下清零计数的周期，0 表示不清零。
func WithInterval(d time.Duration) Option {
	return func(b *Breaker) {
		if d >= 0 {
			b.interval = d
		}
	}
}

// WithMaxRequests 半开状态放行的请求数。
func WithMaxRequests(n uint32) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.maxRequests = n
		}
	}
}

// WithOnStateChange 状态变化回调，在 gobreaker 锁内同步执行。
func WithOnStateChange(fn func(name string, from, to State)) Option {
	return func(b *Breaker) {
		b.onStateChange = fn
	}
}

// NewBreaker 创建熔断器。
func NewBreaker(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:                name,
		consecutiveFailures: 5,
		timeout:             30 * time.Second,
		maxRequests:         1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	threshold := b.consecutiveFailures
	st := gobreaker.Settings{
		Name:        b.name,
		MaxRequests: b.maxRequests,
		Interval:    b.interval,
		Timeout:     b.timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isSuccessful,
	}
	if b.onStateChange != nil {
		st.OnStateChange = b.onStateChange
	}
	b.cb = gobreaker.NewCircuitBreaker[any](st)
	return b
}

func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}

// Name 熔断器名称。
func (b *Breaker) Name() string { return b.name }

// State 当前状态。
func (b *Breaker) State() State { return b.cb.State() }

// Counts 当前计数。
func (b *Breaker) Counts() Counts { return b.cb.Counts() }

// Do 执行受保护的操作。ctx 已结束时不执行直接返回 ctx.Err()。
func (b *Breaker) Do(ctx context.Context, fn func() error) error {
	if fn == nil {
		return ErrNilFunc
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	return wrapBreakerError(err, b.name)
}

// Execute 带返回值的 Do。
func Execute[T any](ctx context.Context, b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if b == nil {
		return zero, ErrNilBreaker
	}
	if fn == nil {
		return zero, ErrNilFunc
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	var result T
	_, err := b.cb.Execute(func() (any, error) {
		v, err := fn()
		result = v
		return nil, err
	})
	if err != nil {
		return zero, wrapBreakerError(err, b.name)
	}
	return result, nil
}
