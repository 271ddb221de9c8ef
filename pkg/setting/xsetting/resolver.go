package xsetting

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/omeyang/xshard/pkg/context/xtenant"
	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/observability/xmetrics"
	"github.com/omeyang/xshard/pkg/resilience/xbreaker"
)

// DefaultQueryTimeout 单次 Store 查询的超时。
const DefaultQueryTimeout = 2 * time.Second

type resolverOptions struct {
	timeout  time.Duration
	fallback Value
	breaker  *xbreaker.Breaker
	logger   xlog.Logger
	observer xmetrics.Observer
}

// ResolverOption Resolver 配置。
type ResolverOption func(*resolverOptions)

// WithQueryTimeout Store 查询超时，d <= 0 忽略。
func WithQueryTimeout(d time.Duration) ResolverOption {
	return func(o *resolverOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithDefault 默认前缀，空值忽略。
func WithDefault(v Value) ResolverOption {
	return func(o *resolverOptions) {
		if v != "" {
			o.fallback = v
		}
	}
}

// WithBreaker 替换 Store 查询使用的熔断器。
func WithBreaker(b *xbreaker.Breaker) ResolverOption {
	return func(o *resolverOptions) {
		if b != nil {
			o.breaker = b
		}
	}
}

// WithLogger 设置日志。
func WithLogger(l xlog.Logger) ResolverOption {
	return func(o *resolverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 设置观测器。
func WithObserver(obs xmetrics.Observer) ResolverOption {
	return func(o *resolverOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// Resolver 解析租户的命令前缀。
type Resolver struct {
	cache *Cache
	store Store
	opts  resolverOptions
	group singleflight.Group
}

// NewResolver 创建 Resolver。
func NewResolver(cache *Cache, store Store, opts ...ResolverOption) (*Resolver, error) {
	if cache == nil {
		return nil, ErrNilCache
	}
	if store == nil {
		return nil, ErrNilStore
	}
	o := resolverOptions{
		timeout:  DefaultQueryTimeout,
		fallback: DefaultPrefix,
		logger:   xlog.Discard(),
		observer: xmetrics.NoopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.breaker == nil {
		o.breaker = xbreaker.NewBreaker("xsetting.store")
	}
	return &Resolver{cache: cache, store: store, opts: o}, nil
}

// Default 默认前缀。
func (r *Resolver) Default() Value { return r.opts.fallback }

// lookup 一次 Store 查询的结果。cacheable 为 false 表示结果来自故障降级。
type lookup struct {
	value     Value
	cacheable bool
}

// Resolve 返回租户的前缀。没有租户、没有设置或依赖故障时返回默认值。
//
// 故障降级的默认值不写入缓存，下次调用会重新查询。
func (r *Resolver) Resolve(ctx context.Context, tenant TenantID) Value {
	if !tenant.Valid() {
		return r.opts.fallback
	}
	if v, ok := r.cache.Get(tenant, KeyPrefix); ok {
		return v
	}

	ctx, span := xmetrics.Start(ctx, r.opts.observer, xmetrics.SpanOptions{
		Component: "xsetting",
		Operation: "resolve",
		Kind:      xmetrics.KindClient,
		Attrs:     []xmetrics.Attr{{Key: xtenant.KeyTenantID, Value: int64(tenant)}},
	})

	// 查询与调用方的取消解耦，合并在同一次查询上的其他调用方不受影响
	ch := r.group.DoChan(strconv.FormatInt(int64(tenant), 10), func() (any, error) {
		return r.load(context.WithoutCancel(ctx), tenant), nil
	})

	select {
	case res := <-ch:
		l, _ := res.Val.(lookup)
		status := xmetrics.StatusOK
		if !l.cacheable {
			status = xmetrics.StatusFallback
		}
		span.End(xmetrics.Result{Status: status})
		return l.value
	case <-ctx.Done():
		span.End(xmetrics.Result{Status: xmetrics.StatusFallback, Err: ctx.Err()})
		return r.opts.fallback
	}
}

// ResolveContext 从 ctx 中取租户，见 Resolve。
func (r *Resolver) ResolveContext(ctx context.Context) Value {
	id, ok := xtenant.TenantID(ctx)
	if !ok {
		return r.opts.fallback
	}
	return r.Resolve(ctx, TenantID(id))
}

func (r *Resolver) load(ctx context.Context, tenant TenantID) lookup {
	ctx, cancel := context.WithTimeout(ctx, r.opts.timeout)
	defer cancel()

	type row struct {
		raw   []byte
		found bool
	}
	res, err := xbreaker.Execute(ctx, r.opts.breaker, func() (row, error) {
		raw, err := r.store.Get(ctx, tenant, KeyPrefix)
		if errors.Is(err, ErrNotFound) {
			return row{}, nil
		}
		if err != nil {
			return row{}, err
		}
		return row{raw: raw, found: true}, nil
	})
	if err != nil {
		r.opts.logger.Warn(ctx, "prefix lookup failed, using default",
			xlog.Component("xsetting"), xlog.Tenant(int64(tenant)), xlog.Err(err))
		return lookup{value: r.opts.fallback}
	}

	value := r.opts.fallback
	if res.found {
		v, ok, err := DecodeValue(res.raw)
		switch {
		case err != nil:
			r.opts.logger.Warn(ctx, "undecodable prefix, using default",
				xlog.Component("xsetting"), xlog.Tenant(int64(tenant)), xlog.Err(err))
		case ok:
			value = v
		}
	}
	// 查询期间失效推送已写入的值更新，保留它
	if !r.cache.SetIfAbsent(tenant, KeyPrefix, value) {
		if cur, ok := r.cache.Get(tenant, KeyPrefix); ok {
			value = cur
		}
	}
	return lookup{value: value, cacheable: true}
}
