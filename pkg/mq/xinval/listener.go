package xinval

import (
	"context"
	"sync/atomic"

	"github.com/omeyang/xshard/pkg/context/xtenant"
	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/observability/xmetrics"
	"github.com/omeyang/xshard/pkg/setting/xsetting"
)

// State Listener 状态。
type State int32

const (
	// StateDisconnected 尚未订阅或订阅已断开。
	StateDisconnected State = iota
	// StateSubscribed 订阅已确认。
	StateSubscribed
	// StateShuttingDown ctx 已取消，终态。
	StateShuttingDown
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateSubscribed:
		return "subscribed"
	case StateShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// Listener 将广播的变更写入本地缓存。
type Listener struct {
	bus   *Bus
	cache *xsetting.Cache

	state         atomic.Int32
	running       atomic.Bool
	subscriptions atomic.Uint64
	applied       atomic.Uint64
}

// NewListener 创建 Listener，日志与观测沿用 bus 的配置。
func NewListener(bus *Bus, cache *xsetting.Cache) (*Listener, error) {
	if bus == nil {
		return nil, ErrNilBus
	}
	if cache == nil {
		return nil, ErrNilCache
	}
	return &Listener{bus: bus, cache: cache}, nil
}

// State 当前状态。
func (l *Listener) State() State { return State(l.state.Load()) }

// Applied 已应用的变更数。
func (l *Listener) Applied() uint64 { return l.applied.Load() }

// Subscriptions 成功订阅的次数，大于 1 表示发生过重连。
func (l *Listener) Subscriptions() uint64 { return l.subscriptions.Load() }

// Run 阻塞消费变更直到 ctx 取消，取消时返回 nil。不能并发调用。
//
// 重新订阅成功时清空本地缓存：断线期间的广播已丢失，清空后由 Store 重新加载。
func (l *Listener) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer l.running.Store(false)

	logger := l.bus.opts.logger
	hooks := subscribeHooks{
		onSubscribed: func(ctx context.Context) {
			if l.subscriptions.Add(1) > 1 {
				n := l.cache.Len()
				l.cache.Clear()
				logger.Info(ctx, "resubscribed, local cache cleared",
					xlog.Component("xinval"), xlog.Count(int64(n)))
			}
			l.state.Store(int32(StateSubscribed))
		},
		onDisconnected: func(context.Context, error) {
			l.state.Store(int32(StateDisconnected))
		},
	}

	l.state.Store(int32(StateDisconnected))
	for u := range l.bus.subscribe(ctx, hooks) {
		l.Apply(ctx, u)
	}
	l.state.Store(int32(StateShuttingDown))
	logger.Info(context.WithoutCancel(ctx), "listener stopped",
		xlog.Component("xinval"), xlog.Count(int64(l.applied.Load())))
	return nil
}

// Apply 将一条变更写入缓存。重复应用结果相同。
func (l *Listener) Apply(ctx context.Context, u Update) {
	_, span := xmetrics.Start(ctx, l.bus.opts.observer, xmetrics.SpanOptions{
		Component: "xinval",
		Operation: "apply",
		Kind:      xmetrics.KindConsumer,
		Attrs:     []xmetrics.Attr{{Key: xtenant.KeyTenantID, Value: int64(u.Tenant)}},
	})
	l.cache.Set(u.Tenant, u.Key, u.Value)
	l.applied.Add(1)
	span.End(xmetrics.Result{})
}
