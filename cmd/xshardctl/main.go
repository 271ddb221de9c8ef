// xshardctl 运行与运维 xshard 分片进程。
//
// 用法:
//
//	xshardctl [全局选项] <命令> [命令参数]
//
// 全局选项（均可由环境变量提供）:
//
//	-c, --config       配置文件路径 (XSHARD_CONFIG, 默认: configs/config.yaml)
//	    --log-level    日志级别 (XSHARD_LOG_LEVEL, 默认: info)
//	    --log-format   日志格式 text|json (XSHARD_LOG_FORMAT)
//	    --log-file     日志文件，启用轮转 (XSHARD_LOG_FILE)
//	    --redis-url    Redis 连接串 (REDIS_URL)，优先于 --redis-host/--redis-port
//	    --database-url Postgres 连接串 (DATABASE_URL)，优先于 --db-*
//	-t, --timeout      单条命令超时 (默认: 10s，serve 不受限)
//
// 命令:
//
//	serve                   运行失效监听、配置监视和统计日志
//	resolve <tenant>        解析租户的命令前缀
//	set <tenant> <prefix>   写入租户前缀并广播失效
//	owners                  列出配置中的 Owner
//	check-config            校验配置文件
//
// 退出码:
//
//	0: 成功
//	1: 执行失败
//	2: 参数错误
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
)

const (
	defaultConfigPath = "configs/config.yaml"
	defaultTimeout    = 10 * time.Second
)

// 版本信息，通过 -ldflags 注入:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args))
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:     "xshardctl",
		Usage:    "xshard 分片进程与租户设置管理",
		Version:  fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags:    globalFlags(),
		Commands: createCommands(),
		Before:   setupLogger,
		After:    closeLogger,
		// 退出码由 run 统一映射，不让 urfave/cli 调用 os.Exit。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string) int {
	if err := createApp().Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// exitError 命令已完成输出，只需设置退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// isCLIUsageError 识别 urfave/cli 产生的参数错误。
// urfave/cli v3 没有导出这类错误类型，只能匹配消息。
func isCLIUsageError(err error) bool {
	if _, ok := err.(cli.ExitCoder); ok {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"flag provided but not defined",
		"invalid value",
		"No help topic for",
		"Required flag",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
