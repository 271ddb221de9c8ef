// Package xrun 提供基于 errgroup + context 的进程生命周期管理。
//
// 任一服务返回错误或收到终止信号时，共享 context 被取消，其余服务应监听
// ctx.Done() 并退出。信号退出时 Run/RunServices 返回 *SignalError，
// 可用 errors.Is(err, xrun.ErrSignal) 判断。
//
//	err := xrun.RunServices(ctx,
//		listener,
//		watcher,
//		xrun.ServiceFunc(xrun.Ticker(time.Minute, false, logStats)),
//	)
package xrun
