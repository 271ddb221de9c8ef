// Package xbreaker 基于 sony/gobreaker/v2 的熔断器封装。
//
// 默认策略：连续失败 5 次打开，30 秒后进入半开，半开放行 1 个探测请求。
// 调用方自身取消（context.Canceled）不计为失败，超时（DeadlineExceeded）计为失败。
//
// 熔断拦截返回 *BreakerError，可用 IsOpen / IsBreakerError 判断后走降级逻辑：
//
//	v, err := xbreaker.Execute(ctx, b, func() (string, error) { return load(ctx) })
//	if xbreaker.IsBreakerError(err) {
//		return fallback
//	}
package xbreaker
