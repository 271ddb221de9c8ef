package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"

	"github.com/omeyang/xshard/internal/node"
	"github.com/omeyang/xshard/pkg/config/xconf"
	"github.com/omeyang/xshard/pkg/context/xtenant"
	"github.com/omeyang/xshard/pkg/lifecycle/xrun"
	"github.com/omeyang/xshard/pkg/mq/xinval"
	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/observability/xmetrics"
	"github.com/omeyang/xshard/pkg/setting/xsetting"
	"github.com/omeyang/xshard/pkg/storage/xcache"
	"github.com/omeyang/xshard/pkg/storage/xpg"
)

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createServeCommand(),
		createResolveCommand(),
		createSetCommand(),
		createOwnersCommand(),
		createCheckConfigCommand(),
	}
}

func createServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "运行分片进程（失效监听、配置热加载、统计日志）",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "cache-size", Usage: "每进程缓存条目上限", Value: xsetting.DefaultCacheSize},
			&cli.DurationFlag{Name: "cache-ttl", Usage: "缓存条目存活时间", Value: xsetting.DefaultCacheTTL},
			&cli.DurationFlag{Name: "query-timeout", Usage: "单次存储查询超时", Value: xsetting.DefaultQueryTimeout},
			&cli.DurationFlag{Name: "debounce", Usage: "配置文件变更去抖窗口", Value: xconf.DefaultDebounce},
			&cli.DurationFlag{Name: "stats-interval", Usage: "缓存统计日志间隔", Value: node.DefaultStatsInterval},
			&cli.StringFlag{Name: "channel", Usage: "失效广播频道", Value: xinval.DefaultChannel},
			&cli.StringFlag{Name: "instance", Usage: "进程标识，为空时自动生成", Sources: cli.EnvVars("XSHARD_INSTANCE")},
		},
		Action: cmdServe,
	}
}

func createResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "解析租户的命令前缀",
		ArgsUsage: "<tenant>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return newUsageError("resolve 需要一个租户 ID")
			}
			tenant, err := parseTenant(cmd.Args().First())
			if err != nil {
				return err
			}
			return cmdResolve(ctx, cmd, tenant)
		},
	}
}

func createSetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "写入租户的命令前缀并广播失效",
		ArgsUsage: "<tenant> <prefix>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return newUsageError("set 需要租户 ID 和前缀")
			}
			tenant, err := parseTenant(cmd.Args().Get(0))
			if err != nil {
				return err
			}
			prefix := xsetting.Value(cmd.Args().Get(1))
			if strings.TrimSpace(prefix.String()) == "" {
				return newUsageError("前缀不能为空")
			}
			return cmdSet(ctx, cmd, tenant, prefix)
		},
	}
}

func createOwnersCommand() *cli.Command {
	return &cli.Command{
		Name:  "owners",
		Usage: "列出配置中的 Owner",
		Action: func(_ context.Context, cmd *cli.Command) error {
			store, err := xconf.New(cmd.String("config"), xconf.WithLogger(xlog.Default()))
			if err != nil {
				return err
			}
			out := stdout(cmd)
			for _, o := range store.Owners() {
				fmt.Fprintf(out, "%s\t%d\n", o.Name, o.ID)
			}
			return nil
		},
	}
}

func createCheckConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "check-config",
		Usage: "校验配置文件能否解析",
		Action: func(_ context.Context, cmd *cli.Command) error {
			path := cmd.String("config")
			store, err := xconf.New(path, xconf.WithLogger(xlog.Discard()))
			if err != nil {
				fmt.Fprintf(os.Stderr, "配置无效: %s\n详情: %v\n", path, err)
				return &exitError{code: 1}
			}
			doc := store.Current()
			out := stdout(cmd)
			fmt.Fprintf(out, "配置: %s\n", path)
			fmt.Fprintf(out, "格式: %s\n", store.Format())
			fmt.Fprintf(out, "配置项: %d\n", len(doc.Keys()))
			fmt.Fprintf(out, "Owners: %d\n", len(doc.Owners()))
			return nil
		},
	}
}

// cmdServe 组装 Node 并运行到收到信号。Redis 不可用时降级为只依赖 TTL。
func cmdServe(ctx context.Context, cmd *cli.Command) (err error) {
	logger := xlog.Default()

	pool, err := openPool(ctx, cmd, true)
	if err != nil {
		return err
	}
	closers := []io.Closer{closerFunc(func() error { pool.Close(); return nil })}

	store, err := xsetting.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return err
	}

	var rc redis.UniversalClient
	if r := openRedis(ctx, cmd, logger); r != nil {
		rc = r.Client()
		closers = append(closers, r)
	}

	obs, err := xmetrics.NewOTelObserver()
	if err != nil {
		return errors.Join(err, closeAll(closers))
	}

	n, err := node.New(node.Config{
		ConfigPath: cmd.String("config"),
		Cache: xsetting.CacheConfig{
			Size: cmd.Int("cache-size"),
			TTL:  cmd.Duration("cache-ttl"),
		},
		QueryTimeout:  cmd.Duration("query-timeout"),
		Debounce:      cmd.Duration("debounce"),
		StatsInterval: cmd.Duration("stats-interval"),
		Channel:       cmd.String("channel"),
		Instance:      cmd.String("instance"),
	}, node.Deps{
		Store:    store,
		Redis:    rc,
		Logger:   logger,
		Observer: obs,
		Closers:  closers,
	})
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, n.Close()) }()

	logger.Info(ctx, "xshardctl serving",
		xlog.Component("xshardctl"),
		xlog.Operation("serve"),
	)
	err = xrun.RunWithOptions(ctx, []xrun.Option{
		xrun.WithLogger(logger),
		xrun.WithName("xshardctl"),
	}, n.Run)
	if errors.Is(err, xrun.ErrSignal) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func cmdResolve(ctx context.Context, cmd *cli.Command, tenant xsetting.TenantID) error {
	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()

	pool, err := openPool(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := xsetting.NewPostgresStore(pool)
	if err != nil {
		return err
	}
	cache, err := xsetting.NewCache(xsetting.CacheConfig{Size: 1})
	if err != nil {
		return err
	}
	defer cache.Close()

	r, err := xsetting.NewResolver(cache, store, xsetting.WithLogger(xlog.Default()))
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout(cmd), r.Resolve(ctx, tenant))
	return nil
}

func cmdSet(ctx context.Context, cmd *cli.Command, tenant xsetting.TenantID, prefix xsetting.Value) error {
	ctx, cancel := context.WithTimeout(ctx, cmd.Duration("timeout"))
	defer cancel()
	logger := xlog.Default()

	pool, err := openPool(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := xsetting.NewPostgresStore(pool)
	if err != nil {
		return err
	}
	cache, err := xsetting.NewCache(xsetting.CacheConfig{Size: 1})
	if err != nil {
		return err
	}
	defer cache.Close()

	opts := []xsetting.WriterOption{xsetting.WithWriterLogger(logger)}
	if r := openRedis(ctx, cmd, logger); r != nil {
		defer r.Close()
		bus, err := xinval.NewBus(r.Client(), xinval.WithLogger(logger))
		if err != nil {
			return err
		}
		opts = append(opts, xsetting.WithPublisher(bus))
	}
	w, err := xsetting.NewWriter(store, cache, opts...)
	if err != nil {
		return err
	}

	err = w.SetPrefix(ctx, tenant, prefix)
	switch {
	case errors.Is(err, xsetting.ErrPublishFailed):
		fmt.Fprintf(os.Stderr, "已写入 %s，但失效广播失败，其它进程将在 TTL 到期后生效: %v\n", tenant, err)
		return &exitError{code: 1}
	case errors.Is(err, xsetting.ErrInvalidValue):
		return newUsageError("无效前缀: %v", err)
	case err != nil:
		return err
	}
	fmt.Fprintf(stdout(cmd), "%s\t%s\n", tenant, prefix)
	return nil
}

// openPool 连接 Postgres。migrate 为 true 时确保设置表存在。
func openPool(ctx context.Context, cmd *cli.Command, migrate bool) (*pgxpool.Pool, error) {
	pool, err := xpg.Open(ctx, pgConfig(cmd))
	if err != nil {
		return nil, err
	}
	if !migrate {
		return pool, nil
	}
	if err := xpg.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// openRedis 连接失败只记录告警并返回 nil。
func openRedis(ctx context.Context, cmd *cli.Command, logger xlog.Logger) xcache.Redis {
	if cmd.Bool("no-redis") {
		return nil
	}
	r, err := xcache.Open(ctx, redisConfig(cmd))
	if err != nil {
		logger.Warn(ctx, "redis unavailable, continuing without invalidation",
			xlog.Component("xshardctl"), xlog.Err(err))
		return nil
	}
	return r
}

func parseTenant(s string) (xsetting.TenantID, error) {
	id, err := xtenant.Parse(s)
	if err != nil {
		return xsetting.NoTenant, newUsageError("%v", err)
	}
	return xsetting.TenantID(id), nil
}

func stdout(cmd *cli.Command) io.Writer {
	if root := cmd.Root(); root != nil && root.Writer != nil {
		return root.Writer
	}
	return os.Stdout
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func closeAll(closers []io.Closer) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i].Close())
	}
	return errors.Join(errs...)
}
