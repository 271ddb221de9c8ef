package xsetting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/omeyang/xshard/pkg/context/xtenant"
	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/observability/xmetrics"
)

// Publisher 广播设置变更，xinval.Bus 实现了该接口。
type Publisher interface {
	Publish(ctx context.Context, tenant TenantID, value Value) error
}

type writerOptions struct {
	publisher Publisher
	logger    xlog.Logger
	observer  xmetrics.Observer
}

// WriterOption Writer 配置。
type WriterOption func(*writerOptions)

// WithPublisher 设置广播通道。未设置时只更新 Store 和本地缓存。
func WithPublisher(p Publisher) WriterOption {
	return func(o *writerOptions) {
		o.publisher = p
	}
}

// WithWriterLogger 设置日志。
func WithWriterLogger(l xlog.Logger) WriterOption {
	return func(o *writerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWriterObserver 设置观测器。
func WithWriterObserver(obs xmetrics.Observer) WriterOption {
	return func(o *writerOptions) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// Writer 设置写入：Store upsert，然后广播，最后更新本地缓存。
type Writer struct {
	store Store
	cache *Cache
	opts  writerOptions
}

// NewWriter 创建 Writer。
func NewWriter(store Store, cache *Cache, opts ...WriterOption) (*Writer, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if cache == nil {
		return nil, ErrNilCache
	}
	o := writerOptions{logger: xlog.Discard(), observer: xmetrics.NoopObserver{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return &Writer{store: store, cache: cache, opts: o}, nil
}

// SetPrefix 设置租户的命令前缀。
func (w *Writer) SetPrefix(ctx context.Context, tenant TenantID, value Value) error {
	return w.Set(ctx, tenant, KeyPrefix, value)
}

// Set 写入设置。
//
// Store 写入失败时不广播也不更新缓存。广播失败时本地缓存仍会更新，
// 返回 ErrPublishFailed：其他进程要等到各自条目过期才会看到新值。
func (w *Writer) Set(ctx context.Context, tenant TenantID, key Key, value Value) (err error) {
	switch {
	case !tenant.Valid():
		return fmt.Errorf("%w: %d", ErrInvalidTenant, tenant)
	case !key.Valid():
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case value == "":
		return ErrInvalidValue
	}

	ctx, span := xmetrics.Start(ctx, w.opts.observer, xmetrics.SpanOptions{
		Component: "xsetting",
		Operation: "set",
		Kind:      xmetrics.KindClient,
		Attrs:     []xmetrics.Attr{{Key: xtenant.KeyTenantID, Value: int64(tenant)}},
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	raw, err := EncodeValue(value)
	if err != nil {
		return err
	}
	if err := w.store.Set(ctx, tenant, key, raw); err != nil {
		return err
	}

	var pubErr error
	if w.opts.publisher != nil {
		if err := w.opts.publisher.Publish(ctx, tenant, value); err != nil {
			pubErr = fmt.Errorf("%w: %w", ErrPublishFailed, err)
			w.opts.logger.Warn(ctx, "setting saved but broadcast failed",
				xlog.Component("xsetting"), xlog.Tenant(int64(tenant)), xlog.Err(err))
		}
	}
	w.cache.Set(tenant, key, value)
	w.opts.logger.Info(ctx, "setting updated",
		xlog.Component("xsetting"), xlog.Tenant(int64(tenant)), slog.String("key", string(key)))
	return pubErr
}
