package mqcore

import (
	"context"
	"time"

	"github.com/omeyang/xshard/pkg/resilience/xretry"
)

// ConsumeFunc 单轮消费。返回 error 触发退避后重试，返回 nil 重置退避并立即进入下一轮。
type ConsumeFunc func(ctx context.Context) error

// ConsumeLoopOptions 消费循环配置。
type ConsumeLoopOptions struct {
	// Backoff 退避策略，默认 DefaultBackoff()。
	Backoff xretry.BackoffPolicy

	// OnError 每次消费失败时调用，attempt 为连续失败次数，delay 为即将等待的时长。
	OnError func(err error, attempt int, delay time.Duration)
}

// ConsumeLoopOption 配置函数。
type ConsumeLoopOption func(*ConsumeLoopOptions)

// WithBackoff 设置退避策略，nil 忽略。
func WithBackoff(backoff xretry.BackoffPolicy) ConsumeLoopOption {
	return func(o *ConsumeLoopOptions) {
		if backoff != nil {
			o.Backoff = backoff
		}
	}
}

// WithOnError 设置错误回调。
func WithOnError(onError func(err error, attempt int, delay time.Duration)) ConsumeLoopOption {
	return func(o *ConsumeLoopOptions) {
		o.OnError = onError
	}
}

// DefaultBackoff 100ms 起步、30s 封顶、10% 抖动的指数退避。
func DefaultBackoff() xretry.BackoffPolicy {
	return xretry.NewExponentialBackoff()
}

// RunConsumeLoop 循环调用 consume 直到 ctx 取消，返回 ctx.Err()。
func RunConsumeLoop(ctx context.Context, consume ConsumeFunc, opts ...ConsumeLoopOption) error {
	if consume == nil {
		return ErrNilHandler
	}
	options := &ConsumeLoopOptions{Backoff: DefaultBackoff()}
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := consume(ctx)
		if err == nil {
			attempt = 0
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempt++
		delay := options.Backoff.NextDelay(attempt)
		if options.OnError != nil {
			options.OnError(err, attempt, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
