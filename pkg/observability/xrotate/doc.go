// Package xrotate 提供日志文件轮转，基于 gopkg.in/natefinch/lumberjack.v2。
//
// xshardctl serve 通过 --log-file 启用文件输出时使用本包，
// xlog.Builder.SetRotation 负责创建并在 cleanup 中关闭轮转器。
//
// 注意：lumberjack 的 Close 不会停止内部 mill goroutine，
// 使用 goleak 的测试需要忽略 (*Logger).millRun。
package xrotate
