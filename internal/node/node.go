package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xshard/pkg/config/xconf"
	"github.com/omeyang/xshard/pkg/lifecycle/xrun"
	"github.com/omeyang/xshard/pkg/mq/xinval"
	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/observability/xmetrics"
	"github.com/omeyang/xshard/pkg/setting/xsetting"
)

// DefaultStatsInterval 缓存统计日志的默认间隔。
const DefaultStatsInterval = time.Minute

var (
	// ErrNilStore 缺少设置存储。
	ErrNilStore = errors.New("node: nil settings store")
	// ErrEmptyConfigPath 缺少配置文件路径。
	ErrEmptyConfigPath = errors.New("node: empty config path")
	// ErrClosed Node 已关闭。
	ErrClosed = errors.New("node: closed")
)

// Config 进程配置。零值字段使用各组件默认值。
type Config struct {
	ConfigPath    string
	Cache         xsetting.CacheConfig
	QueryTimeout  time.Duration
	Debounce      time.Duration
	StatsInterval time.Duration
	Channel       string
	// Instance 进程标识，为空时生成 UUID。
	Instance string
}

// Deps 外部依赖。
type Deps struct {
	// Store 必需。
	Store xsetting.Store
	// Redis 为 nil 时不启动失效监听，缓存只依赖 TTL。
	Redis redis.UniversalClient

	Logger   xlog.Logger
	Observer xmetrics.Observer

	// Closers 在 Close 时按逆序关闭，通常是 Redis 与数据库连接。
	Closers []io.Closer
}

// Node 一个分片进程的全部组件。
type Node struct {
	cfg      Config
	instance string
	logger   xlog.Logger

	Cache    *xsetting.Cache
	Resolver *xsetting.Resolver
	Writer   *xsetting.Writer
	Conf     *xconf.Store
	Watcher  *xconf.Watcher
	// Bus 与 Listener 在没有 Redis 时为 nil。
	Bus      *xinval.Bus
	Listener *xinval.Listener

	closers   []io.Closer
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New 组装组件。首次配置加载失败直接返回错误，已创建的资源会被释放。
func New(cfg Config, deps Deps) (n *Node, err error) {
	if deps.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.ConfigPath == "" {
		return nil, ErrEmptyConfigPath
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = DefaultStatsInterval
	}
	if cfg.Instance == "" {
		cfg.Instance = uuid.NewString()
	}
	logger := deps.Logger
	if logger == nil {
		logger = xlog.Discard()
	}
	logger = logger.With(slog.String(xlog.KeyInstance, cfg.Instance))
	observer := deps.Observer
	if observer == nil {
		observer = xmetrics.NoopObserver{}
	}

	nd := &Node{cfg: cfg, instance: cfg.Instance, logger: logger, closers: deps.Closers}
	defer func() {
		if err != nil {
			err = errors.Join(err, nd.Close())
			n = nil
		}
	}()

	if nd.Cache, err = xsetting.NewCache(cfg.Cache); err != nil {
		return nil, err
	}
	if nd.Resolver, err = xsetting.NewResolver(nd.Cache, deps.Store,
		xsetting.WithQueryTimeout(cfg.QueryTimeout),
		xsetting.WithLogger(logger),
		xsetting.WithObserver(observer),
	); err != nil {
		return nil, err
	}

	writerOpts := []xsetting.WriterOption{
		xsetting.WithWriterLogger(logger),
		xsetting.WithWriterObserver(observer),
	}
	if deps.Redis != nil {
		if nd.Bus, err = xinval.NewBus(deps.Redis,
			xinval.WithChannel(cfg.Channel),
			xinval.WithLogger(logger),
			xinval.WithObserver(observer),
		); err != nil {
			return nil, err
		}
		if nd.Listener, err = xinval.NewListener(nd.Bus, nd.Cache); err != nil {
			return nil, err
		}
		writerOpts = append(writerOpts, xsetting.WithPublisher(nd.Bus))
	} else {
		logger.Warn(context.Background(), "redis not configured, running without invalidation listener",
			xlog.Component("node"))
	}
	if nd.Writer, err = xsetting.NewWriter(deps.Store, nd.Cache, writerOpts...); err != nil {
		return nil, err
	}

	if nd.Conf, err = xconf.New(cfg.ConfigPath,
		xconf.WithLogger(logger),
		xconf.WithObserver(observer),
	); err != nil {
		return nil, fmt.Errorf("node: load config: %w", err)
	}
	if nd.Watcher, err = xconf.NewWatcher(nd.Conf, xconf.WithDebounce(cfg.Debounce)); err != nil {
		return nil, err
	}
	nd.Conf.OnReload(func(d *xconf.Document) {
		logger.Info(context.Background(), "owners refreshed",
			xlog.Component("node"), xlog.Count(int64(len(d.Owners()))))
	})
	return nd, nil
}

// Instance 进程标识。
func (n *Node) Instance() string { return n.instance }

// Run 运行失效监听、配置监视和统计日志，直到 ctx 取消。正常取消返回 nil，Close 之后返回 ErrClosed。
func (n *Node) Run(ctx context.Context) error {
	if n.closed.Load() {
		return ErrClosed
	}
	g, _ := xrun.NewGroup(ctx, xrun.WithLogger(n.logger), xrun.WithName("node"))
	if n.Listener != nil {
		g.GoWithName("listener", n.Listener.Run)
	}
	g.GoWithName("watcher", n.Watcher.Run)
	g.GoWithName("stats", xrun.Ticker(n.cfg.StatsInterval, false, func(ctx context.Context) error {
		n.logStats(ctx)
		return nil
	}))

	n.logger.Info(ctx, "node started", xlog.Component("node"))
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	n.logger.Info(context.WithoutCancel(ctx), "node stopped", xlog.Component("node"))
	return err
}

func (n *Node) logStats(ctx context.Context) {
	st := n.Cache.Stats()
	attrs := []slog.Attr{
		xlog.Component("node"),
		slog.Uint64("hits", st.Hits),
		slog.Uint64("misses", st.Misses),
		slog.Uint64("evictions", st.Evictions),
		slog.Int("len", st.Len),
		slog.Uint64("config_version", n.Conf.Version()),
	}
	if n.Listener != nil {
		attrs = append(attrs,
			slog.String("listener", n.Listener.State().String()),
			slog.Uint64("applied", n.Listener.Applied()),
			slog.Uint64("dropped", n.Bus.Dropped()),
		)
	}
	n.logger.Info(ctx, "cache stats", attrs...)
}

// Close 停止监视、释放缓存并关闭外部连接，可重复调用。
func (n *Node) Close() error {
	n.closeOnce.Do(func() {
		n.closed.Store(true)
		var errs []error
		if n.Watcher != nil {
			errs = append(errs, n.Watcher.Stop())
		}
		if n.Cache != nil {
			n.Cache.Close()
		}
		for i := len(n.closers) - 1; i >= 0; i-- {
			if c := n.closers[i]; c != nil {
				errs = append(errs, c.Close())
			}
		}
		n.closeErr = errors.Join(errs...)
	})
	return n.closeErr
}
