// Package xmetrics 提供统一的观测接口（metrics + tracing）。
//
// 业务代码只依赖 Observer/Span；默认实现基于 OpenTelemetry，
// 未配置时使用 NoopObserver。
//
//	ctx, span := xmetrics.Start(ctx, obs, xmetrics.SpanOptions{
//		Component: "xsetting",
//		Operation: "resolve",
//		Kind:      xmetrics.KindClient,
//	})
//	defer func() { span.End(xmetrics.Result{Err: err}) }()
//
// 指标：
//   - xshard.operation.total（counter）
//   - xshard.operation.duration（histogram，秒）
//
// 指标属性固定为 component / operation / status。context 中的 tenant_id
// 只写入 span 属性，不进入指标维度。
package xmetrics
