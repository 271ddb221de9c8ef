// Package xlog 提供基于 log/slog 的结构化日志。
//
// 设计要点：
//   - 所有方法强制传入 context，由 EnrichHandler 自动注入 tenant_id
//   - 只接受 slog.Attr，避免隐式 key-value 转换
//   - 动态级别：Build 返回的 LoggerWithLevel 可在运行时 SetLevel
//   - 生命周期：Build 返回 cleanup 函数，负责关闭轮转文件
//
// 服务端代码推荐依赖注入（组件通过 WithLogger 选项接收 Logger），
// Default/SetDefault 仅用于 CLI 和测试等简单场景。
//
// 用法：
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//	logger.Info(ctx, "listener subscribed", xlog.Component("xinval"))
package xlog
