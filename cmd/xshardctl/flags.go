package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/observability/xrotate"
	"github.com/omeyang/xshard/pkg/storage/xcache"
	"github.com/omeyang/xshard/pkg/storage/xpg"
)

// 环境变量名与原有部署保持一致。
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "配置文件路径（yaml/json）",
			Value:   defaultConfigPath,
			Sources: cli.EnvVars("XSHARD_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "日志级别 debug|info|warn|error",
			Value:   "info",
			Sources: cli.EnvVars("XSHARD_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "日志格式 text|json",
			Value:   "text",
			Sources: cli.EnvVars("XSHARD_LOG_FORMAT"),
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "日志文件路径，为空时输出到 stderr",
			Sources: cli.EnvVars("XSHARD_LOG_FILE"),
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "单条命令超时",
			Value:   defaultTimeout,
		},

		&cli.StringFlag{Name: "redis-url", Usage: "Redis 连接串", Sources: cli.EnvVars("REDIS_URL")},
		&cli.StringFlag{Name: "redis-host", Value: "localhost", Sources: cli.EnvVars("REDIS_HOST")},
		&cli.IntFlag{Name: "redis-port", Value: xcache.DefaultPort, Sources: cli.EnvVars("REDIS_PORT")},
		&cli.StringFlag{Name: "redis-password", Sources: cli.EnvVars("REDIS_PASSWORD")},
		&cli.BoolFlag{Name: "no-redis", Usage: "不连接 Redis，缓存只依赖 TTL"},

		&cli.StringFlag{Name: "database-url", Usage: "Postgres 连接串", Sources: cli.EnvVars("DATABASE_URL")},
		&cli.StringFlag{Name: "db-host", Value: "localhost", Sources: cli.EnvVars("DB_HOST")},
		&cli.IntFlag{Name: "db-port", Value: xpg.DefaultPort, Sources: cli.EnvVars("DB_PORT")},
		&cli.StringFlag{Name: "db-name", Value: "aimod_bot", Sources: cli.EnvVars("DB_NAME")},
		&cli.StringFlag{Name: "db-user", Value: "aimod_user", Sources: cli.EnvVars("DB_USER")},
		&cli.StringFlag{Name: "db-password", Sources: cli.EnvVars("DB_PASSWORD")},
	}
}

func redisConfig(cmd *cli.Command) xcache.RedisConfig {
	return xcache.RedisConfig{
		URL:      cmd.String("redis-url"),
		Host:     cmd.String("redis-host"),
		Port:     cmd.Int("redis-port"),
		Password: cmd.String("redis-password"),
	}
}

func pgConfig(cmd *cli.Command) xpg.Config {
	return xpg.Config{
		URL:      cmd.String("database-url"),
		Host:     cmd.String("db-host"),
		Port:     cmd.Int("db-port"),
		Name:     cmd.String("db-name"),
		User:     cmd.String("db-user"),
		Password: cmd.String("db-password"),
	}
}

// logCleanup 由 setupLogger 设置，closeLogger 调用。
var logCleanup func() error

// setupLogger 按全局参数构建日志器并设为默认。
func setupLogger(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	b := xlog.New().
		SetOutput(os.Stderr).
		SetLevelString(cmd.String("log-level")).
		SetFormat(cmd.String("log-format"))
	if file := cmd.String("log-file"); file != "" {
		b = b.SetRotation(file, xrotate.WithMaxSize(100), xrotate.WithMaxBackups(5), xrotate.WithCompress(true))
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return ctx, newUsageError("日志配置: %v", err)
	}
	xlog.SetDefault(logger)
	logCleanup = cleanup
	return ctx, nil
}

func closeLogger(context.Context, *cli.Command) error {
	if logCleanup == nil {
		return nil
	}
	cleanup := logCleanup
	logCleanup = nil
	if err := cleanup(); err != nil {
		return fmt.Errorf("关闭日志: %w", err)
	}
	return nil
}
