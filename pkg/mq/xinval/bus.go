package xinval

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xshard/internal/mqcore"
	"github.com/omeyang/xshard/pkg/context/xtenant"
	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/observability/xmetrics"
	"github.com/omeyang/xshard/pkg/setting/xsetting"
)

// Bus Redis pub/sub 上的失效广播。
type Bus struct {
	client redis.UniversalClient
	opts   *options

	dropped atomic.Uint64
}

// NewBus 创建 Bus。client 的生命周期由调用方管理。
func NewBus(client redis.UniversalClient, opts ...Option) (*Bus, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return &Bus{client: client, opts: o}, nil
}

// Channel 频道名。
func (b *Bus) Channel() string { return b.opts.channel }

// Dropped 因格式错误被丢弃的消息数。
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Publish 广播一条变更，超时由 WithPublishTimeout 控制。
func (b *Bus) Publish(ctx context.Context, tenant xsetting.TenantID, value xsetting.Value) (err error) {
	payload, err := Encode(tenant, value)
	if err != nil {
		return err
	}

	ctx, span := xmetrics.Start(ctx, b.opts.observer, xmetrics.SpanOptions{
		Component: "xinval",
		Operation: "publish",
		Kind:      xmetrics.KindProducer,
		Attrs:     []xmetrics.Attr{{Key: xtenant.KeyTenantID, Value: int64(tenant)}},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	ctx, cancel := context.WithTimeout(ctx, b.opts.publishTimeout)
	defer cancel()
	if err := b.client.Publish(ctx, b.opts.channel, payload).Err(); err != nil {
		return fmt.Errorf("xinval: publish to %s: %w", b.opts.channel, err)
	}
	return nil
}

// Subscribe 返回无限的变更序列，ctx 取消或调用方停止迭代时结束。
//
// 传输错误结束当前订阅，按退避策略重新订阅；格式错误的消息被跳过。
func (b *Bus) Subscribe(ctx context.Context) iter.Seq[Update] {
	return b.subscribe(ctx, subscribeHooks{})
}

// subscribeHooks 订阅状态回调，均在迭代 goroutine 中同步调用。
type subscribeHooks struct {
	onSubscribed   func(ctx context.Context)
	onDisconnected func(ctx context.Context, err error)
}

// errStopped 调用方停止迭代。
var errStopped = errors.New("xinval: iteration stopped")

func (b *Bus) subscribe(ctx context.Context, hooks subscribeHooks) iter.Seq[Update] {
	return func(yield func(Update) bool) {
		ctx, cancel := context.WithCancelCause(ctx)
		defer cancel(nil)

		consume := func(ctx context.Context) error {
			err := b.consumeOnce(ctx, hooks, yield)
			if errors.Is(err, errStopped) {
				cancel(errStopped)
			}
			return err
		}

		loopOpts := []mqcore.ConsumeLoopOption{
			mqcore.WithOnError(func(err error, attempt int, delay time.Duration) {
				b.opts.logger.Warn(ctx, "subscription failed, retrying",
					xlog.Component("xinval"), xlog.Err(err),
					xlog.Count(int64(attempt)), xlog.Duration(delay))
			}),
		}
		if b.opts.backoff != nil {
			loopOpts = append(loopOpts, mqcore.WithBackoff(b.opts.backoff))
		}
		_ = mqcore.RunConsumeLoop(ctx, consume, loopOpts...) //nolint:errcheck // 只会返回 ctx 错误
	}
}

// consumeOnce 一轮订阅。
//
// 订阅未确认返回错误，触发退避；已确认的订阅断开返回 nil，立即重新订阅。
func (b *Bus) consumeOnce(ctx context.Context, hooks subscribeHooks, yield func(Update) bool) error {
	ps := b.client.Subscribe(ctx, b.opts.channel)
	defer func() { _ = ps.Close() }()

	if err := b.awaitConfirmation(ctx, ps); err != nil {
		return err
	}
	if hooks.onSubscribed != nil {
		hooks.onSubscribed(ctx)
	}
	b.opts.logger.Info(ctx, "subscribed", xlog.Component("xinval"), slogChannel(b.opts.channel))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msg, err := ps.ReceiveTimeout(ctx, b.opts.receiveTimeout)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.opts.logger.Warn(ctx, "subscription lost", xlog.Component("xinval"), xlog.Err(err))
			if hooks.onDisconnected != nil {
				hooks.onDisconnected(ctx, err)
			}
			return nil
		}

		m, ok := msg.(*redis.Message)
		if !ok {
			continue
		}
		u, err := Decode(m.Payload)
		if err != nil {
			b.dropped.Add(1)
			b.opts.logger.Warn(ctx, "dropping malformed update",
				xlog.Component("xinval"), xlog.Err(err), slogPayload(m.Payload))
			continue
		}
		if !yield(u) {
			return errStopped
		}
	}
}

func (b *Bus) awaitConfirmation(ctx context.Context, ps *redis.PubSub) error {
	for {
		msg, err := ps.ReceiveTimeout(ctx, b.opts.receiveTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %w", ErrNotSubscribed, err)
		}
		if sub, ok := msg.(*redis.Subscription); ok && sub.Kind == "subscribe" {
			return nil
		}
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
